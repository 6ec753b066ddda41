// Package graph describes the read-only type graph that controller
// extraction runs against.
//
// A Module is one unit of the build (a Go package, or a module loaded from a
// snapshot). It enumerates the classes it declares in declaration order and
// resolves any type it references by qualified name. Classes carry their
// embedded base types, their declared facts (the parsed form of
// //ctrlgen: directives) and their methods.
//
// The package has no knowledge of go/types; see graph/goload for the
// provider backed by golang.org/x/tools/go/packages.
package graph

import (
	"go/token"
	"slices"
)

// FactKind is the category of a declared fact.
type FactKind string

const (
	FactRoute      FactKind = "route"      // //ctrlgen:route <template>
	FactMethod     FactKind = "method"     // //ctrlgen:get|put|post|delete|... [template]
	FactController FactKind = "controller" // //ctrlgen:controller
	FactIgnore     FactKind = "ignore"     // //ctrlgen:ignore
)

// Fact is one piece of declared metadata on a class or method.
type Fact struct {
	Kind FactKind

	// Verb is the upper-case HTTP method for FactMethod facts.
	Verb string

	// Args are the positional arguments, in declaration order.
	Args []string

	Pos token.Position
}

// Param is one declared method parameter.
type Param struct {
	Name string
	Type *TypeRef
}

// Method is a method declared on a class.
type Method struct {
	Name        string
	Exported    bool
	Abstract    bool
	Constructor bool
	Params      []Param

	// Results is the result list as a KindTuple TypeRef.
	Results *TypeRef

	Facts []Fact
	Pos   token.Position
}

// Class is a declared struct type.
type Class struct {
	Name TypeName

	// Bases are the directly embedded named types, in declaration order.
	Bases []TypeName

	Facts   []Fact
	Methods []*Method

	// Generic classes declare type parameters.
	Generic bool

	Pos token.Position
}

// Module is the inspection surface of one build unit.
type Module interface {
	// Path is the import path of the module.
	Path() string

	// Lookup resolves a qualified type name against every type the module
	// declares or references.
	Lookup(qualified string) (*Class, bool)

	// Classes returns the declared classes in declaration order.
	Classes() []*Class
}

// MemoryModule is a Module held entirely in memory.
type MemoryModule struct {
	path     string
	declared []*Class
	index    map[string]*Class
}

// NewMemoryModule returns a module declaring classes, which can also resolve
// the referenced classes by name.
func NewMemoryModule(path string, declared []*Class, referenced ...*Class) *MemoryModule {
	m := &MemoryModule{
		path:     path,
		declared: slices.Clone(declared),
		index:    make(map[string]*Class, len(declared)+len(referenced)),
	}
	for _, c := range referenced {
		m.index[c.Name.String()] = c
	}
	for _, c := range declared {
		m.index[c.Name.String()] = c
	}
	return m
}

// Path implements Module.
func (m *MemoryModule) Path() string { return m.path }

// Lookup implements Module.
func (m *MemoryModule) Lookup(qualified string) (*Class, bool) {
	c, ok := m.index[qualified]
	return c, ok
}

// Classes implements Module.
func (m *MemoryModule) Classes() []*Class { return m.declared }
