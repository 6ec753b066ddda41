package goload

import (
	"go/types"
	"log/slog"

	"github.com/broady/ctrlgen/graph"
)

// typeRef converts t. Types the graph has no shape for (channels, funcs,
// anonymous structs, non-empty interface literals) become opaque named
// types spelled as Go source. The packages they mention are recorded so the
// renderer can import and qualify them.
func (m *module) typeRef(t types.Type) *graph.TypeRef {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		if _, ok := graph.LookupBasic(t.Name()); ok {
			return graph.Basic(t.Name())
		}

	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			if obj.Name() == "error" {
				return graph.Error()
			}
			break
		}
		ref := &graph.TypeRef{
			Kind:    graph.KindNamed,
			Pkg:     obj.Pkg().Path(),
			PkgName: obj.Pkg().Name(),
			Name:    obj.Name(),
			Enum:    m.isEnum(t),
		}
		for i := range t.TypeArgs().Len() {
			ref.Args = append(ref.Args, m.typeRef(t.TypeArgs().At(i)))
		}
		return ref

	case *types.Pointer:
		return graph.Pointer(m.typeRef(t.Elem()))
	case *types.Slice:
		return graph.Slice(m.typeRef(t.Elem()))
	case *types.Array:
		return graph.Array(m.typeRef(t.Elem()), t.Len())
	case *types.Map:
		return graph.Map(m.typeRef(t.Key()), m.typeRef(t.Elem()))

	case *types.Interface:
		if t.Empty() {
			return graph.Any()
		}
	}

	ref := &graph.TypeRef{Kind: graph.KindNamed}
	seen := map[*types.Package]int{}
	ref.Name = types.TypeString(t, func(p *types.Package) string {
		i, ok := seen[p]
		if !ok {
			i = len(ref.Imports)
			seen[p] = i
			ref.Imports = append(ref.Imports, graph.Import{Path: p.Path(), Name: p.Name()})
		}
		return graph.OpaqueQualifier(i)
	})
	m.logger.Debug("opaque type", slog.String("type", ref.String()))
	return ref
}

// isEnum reports whether named is defined over a basic type and has at
// least one constant of exactly that type declared in its package.
func (m *module) isEnum(named *types.Named) bool {
	obj := named.Origin().Obj()

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.enums[obj]; ok {
		return v
	}

	enum := false
	if _, ok := named.Underlying().(*types.Basic); ok && obj.Pkg() != nil {
		scope := obj.Pkg().Scope()
		for _, name := range scope.Names() {
			c, ok := scope.Lookup(name).(*types.Const)
			if ok && types.Identical(c.Type(), named) {
				enum = true
				break
			}
		}
	}
	m.enums[obj] = enum
	return enum
}
