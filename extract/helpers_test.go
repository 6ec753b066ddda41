package extract

import (
	"github.com/broady/ctrlgen/graph"
)

const shopPkg = "example.com/shop"

var (
	baseName       = graph.TypeName{Pkg: MVCPackage, Name: "ControllerBase"}
	controllerName = graph.TypeName{Pkg: MVCPackage, Name: "Controller"}
)

// mvcClasses are the referenced marker classes every test module resolves.
func mvcClasses() []*graph.Class {
	return []*graph.Class{
		{Name: baseName},
		{Name: controllerName, Bases: []graph.TypeName{baseName}},
	}
}

func class(name string, bases ...graph.TypeName) *graph.Class {
	return &graph.Class{Name: graph.TypeName{Pkg: shopPkg, Name: name}, Bases: bases}
}

func route(args ...string) graph.Fact {
	return graph.Fact{Kind: graph.FactRoute, Args: args}
}

func verb(v string, args ...string) graph.Fact {
	return graph.Fact{Kind: graph.FactMethod, Verb: v, Args: args}
}

// method builds an exported method. params alternate name and type
// expression; results is a type expression for the result list.
func method(name, results string, facts []graph.Fact, params ...string) *graph.Method {
	m := &graph.Method{
		Name:     name,
		Exported: true,
		Results:  graph.MustParseTypeRef(results),
		Facts:    facts,
	}
	for i := 0; i+1 < len(params); i += 2 {
		m.Params = append(m.Params, graph.Param{Name: params[i], Type: graph.MustParseTypeRef(params[i+1])})
	}
	return m
}

func module(classes ...*graph.Class) *graph.MemoryModule {
	return graph.NewMemoryModule(shopPkg, classes, mvcClasses()...)
}

func mvc(name string) string { return MVCPackage + "." + name }
