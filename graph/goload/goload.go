// Package goload provides graph.Modules backed by type-checked Go packages,
// loaded with golang.org/x/tools/go/packages.
//
// Every matched package becomes one module. Its classes are the struct types
// it declares, in source order, with their embedded types as bases, their
// doc-comment directives as facts, and the methods declared on them. Lookup
// resolves any type in the package or its transitive imports.
package goload

import (
	"context"
	"fmt"
	"go/ast"
	"go/types"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/broady/ctrlgen/graph"
	"github.com/broady/ctrlgen/internal/directive"
	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedModule

// Loader loads Go packages as graph modules.
type Loader struct {
	dir    string
	tags   []string
	env    []string
	logger *slog.Logger
}

// New returns a Loader that resolves patterns relative to the current
// directory.
func New() *Loader {
	return &Loader{logger: slog.Default()}
}

// WithDir sets the directory patterns are resolved in.
func (l *Loader) WithDir(dir string) *Loader {
	l.dir = dir
	return l
}

// WithBuildTags sets build tags used when loading.
func (l *Loader) WithBuildTags(tags ...string) *Loader {
	l.tags = tags
	return l
}

// WithEnv sets the environment of the underlying go command.
// A nil env inherits the current process environment.
func (l *Loader) WithEnv(env []string) *Loader {
	l.env = env
	return l
}

// WithLogger sets the logger.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Load loads the packages matching patterns, following go command pattern
// semantics, and returns one module per package ordered by import path.
// A package with errors fails the whole load.
func (l *Loader) Load(ctx context.Context, patterns ...string) ([]graph.Module, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}
	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     l.dir,
		Env:     l.env,
	}
	if len(l.tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(l.tags, ",")}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching %s", strings.Join(patterns, " "))
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors[0])
		}
	}
	slices.SortFunc(pkgs, func(a, b *packages.Package) int { return strings.Compare(a.PkgPath, b.PkgPath) })

	mods := make([]graph.Module, 0, len(pkgs))
	for _, pkg := range pkgs {
		m, err := newModule(pkg, l.logger)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("package loaded",
			slog.String("package", pkg.PkgPath),
			slog.Int("classes", len(m.classes)))
		mods = append(mods, m)
	}
	return mods, nil
}

// module is a graph.Module over one type-checked package.
type module struct {
	pkg    *packages.Package
	logger *slog.Logger

	classes []*graph.Class
	byName  map[string]*graph.Class // declared classes by unqualified name

	mu         sync.Mutex
	scope      map[string]*types.Package // transitive imports by path
	referenced map[string]*graph.Class
	enums      map[*types.TypeName]bool
}

func newModule(pkg *packages.Package, logger *slog.Logger) (*module, error) {
	m := &module{
		pkg:        pkg,
		logger:     logger,
		byName:     make(map[string]*graph.Class),
		scope:      make(map[string]*types.Package),
		referenced: make(map[string]*graph.Class),
		enums:      make(map[*types.TypeName]bool),
	}
	m.addPackage(pkg.Types)
	if err := m.collectClasses(); err != nil {
		return nil, err
	}
	if err := m.collectMethods(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path implements graph.Module.
func (m *module) Path() string { return m.pkg.PkgPath }

// Classes implements graph.Module.
func (m *module) Classes() []*graph.Class { return m.classes }

// Lookup implements graph.Module.
func (m *module) Lookup(qualified string) (*graph.Class, bool) {
	name := graph.ParseTypeName(qualified)
	if name.Pkg == m.pkg.PkgPath {
		if c, ok := m.byName[name.Name]; ok {
			return c, true
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.referenced[qualified]; ok {
		return c, true
	}
	p, ok := m.scope[name.Pkg]
	if !ok {
		return nil, false
	}
	tn, ok := p.Scope().Lookup(name.Name).(*types.TypeName)
	if !ok {
		return nil, false
	}
	named, ok := types.Unalias(tn.Type()).(*types.Named)
	if !ok {
		return nil, false
	}
	c := m.class(named)
	m.referenced[qualified] = c
	return c, true
}

// addPackage adds p and its transitive imports to the lookup scope.
func (m *module) addPackage(p *types.Package) {
	if p == nil {
		return
	}
	if _, ok := m.scope[p.Path()]; ok {
		return
	}
	m.scope[p.Path()] = p
	for _, imp := range p.Imports() {
		m.addPackage(imp)
	}
}

// class describes named without its facts or methods.
func (m *module) class(named *types.Named) *graph.Class {
	obj := named.Origin().Obj()
	c := &graph.Class{
		Name:    typeName(obj),
		Generic: named.TypeParams().Len() > 0,
		Pos:     m.pkg.Fset.Position(obj.Pos()),
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return c
	}
	for i := range st.NumFields() {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		t := types.Unalias(f.Type())
		if p, ok := t.(*types.Pointer); ok {
			t = types.Unalias(p.Elem())
		}
		if base, ok := t.(*types.Named); ok {
			c.Bases = append(c.Bases, typeName(base.Origin().Obj()))
			m.addPackage(base.Obj().Pkg())
		}
	}
	return c
}

func (m *module) collectClasses() error {
	for _, file := range m.pkg.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Assign.IsValid() {
					continue
				}
				if _, ok := ts.Type.(*ast.StructType); !ok {
					continue
				}
				tn, ok := m.pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
				if !ok {
					continue
				}
				named, ok := tn.Type().(*types.Named)
				if !ok {
					continue
				}

				doc := ts.Doc
				if doc == nil && !gd.Lparen.IsValid() {
					doc = gd.Doc
				}
				facts, err := directive.FromComments(m.pkg.Fset, doc)
				if err != nil {
					return err
				}

				c := m.class(named)
				c.Facts = facts
				m.classes = append(m.classes, c)
				m.byName[c.Name.Name] = c
			}
		}
	}
	return nil
}

func (m *module) collectMethods() error {
	for _, file := range m.pkg.Syntax {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
				continue
			}
			c, ok := m.byName[receiverName(fd.Recv.List[0].Type)]
			if !ok || c.Generic {
				continue
			}
			fn, ok := m.pkg.TypesInfo.Defs[fd.Name].(*types.Func)
			if !ok {
				continue
			}
			facts, err := directive.FromComments(m.pkg.Fset, fd.Doc)
			if err != nil {
				return err
			}
			c.Methods = append(c.Methods, m.method(fn, facts))
		}
	}
	return nil
}

func (m *module) method(fn *types.Func, facts []graph.Fact) *graph.Method {
	sig := fn.Type().(*types.Signature)
	meth := &graph.Method{
		Name:     fn.Name(),
		Exported: fn.Exported(),
		Facts:    facts,
		Pos:      m.pkg.Fset.Position(fn.Pos()),
	}
	for i := range sig.Params().Len() {
		p := sig.Params().At(i)
		meth.Params = append(meth.Params, graph.Param{Name: p.Name(), Type: m.typeRef(p.Type())})
	}
	results := make([]*graph.TypeRef, 0, sig.Results().Len())
	for i := range sig.Results().Len() {
		results = append(results, m.typeRef(sig.Results().At(i).Type()))
	}
	meth.Results = graph.Tuple(results...)
	return meth
}

// receiverName returns the type name of a receiver expression such as
// T, *T or *T[K].
func receiverName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

func typeName(obj *types.TypeName) graph.TypeName {
	if obj.Pkg() == nil {
		return graph.TypeName{Name: obj.Name()}
	}
	return graph.TypeName{Pkg: obj.Pkg().Path(), Name: obj.Name()}
}
