package extract

import "github.com/broady/ctrlgen/graph"

// IsScalar reports whether t belongs to the closed set of types substituted
// into routes rather than sent as a request payload: bool, the sized and
// unsized integers (byte and rune included), float32, float64, string, and
// enum types. Everything else, including uintptr, complex numbers and named
// types that are not enums, is a payload type.
func IsScalar(t *graph.TypeRef) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case graph.KindBasic:
		switch t.Basic {
		case graph.Bool,
			graph.Int, graph.Int8, graph.Int16, graph.Int32, graph.Int64,
			graph.Uint, graph.Uint8, graph.Uint16, graph.Uint32, graph.Uint64,
			graph.Float32, graph.Float64,
			graph.String:
			return true
		}
	case graph.KindNamed:
		return t.Enum
	}
	return false
}
