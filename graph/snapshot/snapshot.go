// Package snapshot loads graph modules from a YAML description, so that
// extraction can run without Go sources.
//
// A snapshot lists modules. Each declares classes (in order) and the
// referenced classes it can resolve; type expressions use fully-qualified
// package paths:
//
//	modules:
//	  - path: example.com/shop
//	    enums: [example.com/shop.Color]
//	    references:
//	      - name: github.com/broady/ctrlgen/mvc.ControllerBase
//	    classes:
//	      - name: WidgetController
//	        bases: [github.com/broady/ctrlgen/mvc.ControllerBase]
//	        directives: [route widgets]
//	        methods:
//	          - name: Create
//	            directives: ["post {id}"]
//	            params:
//	              - {name: id, type: int}
//	              - {name: body, type: example.com/shop.ComplexType}
//	            results: "(string, error)"
//
// Class names without a package are qualified with the module path.
// Directives use the same syntax as //ctrlgen: comments, without the prefix.
package snapshot

import (
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"strings"

	"github.com/broady/ctrlgen/graph"
	"github.com/broady/ctrlgen/internal/directive"
	"gopkg.in/yaml.v3"
)

type file struct {
	Modules []moduleSpec `yaml:"modules"`
}

type moduleSpec struct {
	Path       string      `yaml:"path"`
	Enums      []string    `yaml:"enums"`
	References []classSpec `yaml:"references"`
	Classes    []classSpec `yaml:"classes"`
}

type classSpec struct {
	Name       string       `yaml:"name"`
	Bases      []string     `yaml:"bases"`
	Directives []positioned `yaml:"directives"`
	Generic    bool         `yaml:"generic"`
	Methods    []methodSpec `yaml:"methods"`
}

type methodSpec struct {
	Name        string       `yaml:"name"`
	Directives  []positioned `yaml:"directives"`
	Params      []paramSpec  `yaml:"params"`
	Results     string       `yaml:"results"`
	Abstract    bool         `yaml:"abstract"`
	Constructor bool         `yaml:"constructor"`
}

type paramSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// positioned is a scalar that remembers where it was declared.
type positioned struct {
	Text   string
	Line   int
	Column int
}

func (p *positioned) UnmarshalYAML(n *yaml.Node) error {
	p.Line, p.Column = n.Line, n.Column
	return n.Decode(&p.Text)
}

// LoadFile loads the snapshot at path.
func LoadFile(path string) ([]graph.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, path)
}

// Load decodes a snapshot from r. filename is used in positions.
func Load(r io.Reader, filename string) ([]graph.Module, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode snapshot %s: %w", filename, err)
	}

	mods := make([]graph.Module, 0, len(f.Modules))
	for i, ms := range f.Modules {
		if ms.Path == "" {
			return nil, fmt.Errorf("%s: module %d has no path", filename, i)
		}
		b := builder{filename: filename, module: ms.Path, enums: make(map[graph.TypeName]bool)}
		for _, e := range ms.Enums {
			b.enums[b.qualify(e)] = true
		}
		declared, err := b.classes(ms.Classes)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", ms.Path, err)
		}
		referenced, err := b.classes(ms.References)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", ms.Path, err)
		}
		mods = append(mods, graph.NewMemoryModule(ms.Path, declared, referenced...))
	}
	return mods, nil
}

type builder struct {
	filename string
	module   string
	enums    map[graph.TypeName]bool
}

func (b *builder) qualify(name string) graph.TypeName {
	n := graph.ParseTypeName(name)
	if n.Pkg == "" {
		n.Pkg = b.module
	}
	return n
}

func (b *builder) pos(p positioned) token.Position {
	return token.Position{Filename: b.filename, Line: p.Line, Column: p.Column}
}

func (b *builder) classes(specs []classSpec) ([]*graph.Class, error) {
	classes := make([]*graph.Class, 0, len(specs))
	for _, cs := range specs {
		if cs.Name == "" {
			return nil, errors.New("class without a name")
		}
		c := &graph.Class{Name: b.qualify(cs.Name), Generic: cs.Generic}
		for _, base := range cs.Bases {
			c.Bases = append(c.Bases, b.qualify(base))
		}
		var err error
		if c.Facts, err = b.facts(cs.Directives); err != nil {
			return nil, err
		}
		for _, ms := range cs.Methods {
			m, err := b.method(ms)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", c.Name, ms.Name, err)
			}
			c.Methods = append(c.Methods, m)
		}
		classes = append(classes, c)
	}
	return classes, nil
}

func (b *builder) method(ms methodSpec) (*graph.Method, error) {
	m := &graph.Method{
		Name:        ms.Name,
		Exported:    token.IsExported(ms.Name),
		Abstract:    ms.Abstract,
		Constructor: ms.Constructor,
	}
	var err error
	if m.Facts, err = b.facts(ms.Directives); err != nil {
		return nil, err
	}
	for _, ps := range ms.Params {
		t, err := b.typeRef(ps.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", ps.Name, err)
		}
		m.Params = append(m.Params, graph.Param{Name: ps.Name, Type: t})
	}

	results := strings.TrimSpace(ms.Results)
	if results == "" {
		results = "()"
	}
	if !strings.HasPrefix(results, "(") {
		results = "(" + results + ")"
	}
	if m.Results, err = b.typeRef(results); err != nil {
		return nil, fmt.Errorf("results: %w", err)
	}
	return m, nil
}

func (b *builder) facts(ds []positioned) ([]graph.Fact, error) {
	var facts []graph.Fact
	for _, d := range ds {
		f, err := directive.Parse(d.Text, b.pos(d))
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// typeRef parses expr and marks the declared enums.
func (b *builder) typeRef(expr string) (*graph.TypeRef, error) {
	t, err := graph.ParseTypeRef(expr)
	if err != nil {
		return nil, err
	}
	t.Walk(func(r *graph.TypeRef) {
		if r.Kind == graph.KindNamed && b.enums[r.TypeName()] {
			r.Enum = true
		}
	})
	return t, nil
}
