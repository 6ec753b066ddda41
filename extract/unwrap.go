package extract

import (
	"fmt"

	"github.com/broady/ctrlgen/graph"
)

// stage is one step of the return payload pipeline. A nil type means "no
// payload" and passes through every stage unchanged.
type stage struct {
	name string
	fn   func(*graph.TypeRef) (*graph.TypeRef, error)
}

// payloadStages returns the pipeline in its fixed order. The order matters:
// the typed result wrapper is only recognized after the fallible result has
// been unwrapped, and the void marker only after the typed result.
func (s *Scanner) payloadStages() []stage {
	return []stage{
		{"unwrapAsync", unwrapAsync},
		{"unwrapTypedResult", s.unwrapTypedResult},
		{"collapseVoidMarker", s.collapseVoidMarker},
	}
}

// payload resolves the response payload type from a method's results.
func (s *Scanner) payload(results *graph.TypeRef) (*graph.TypeRef, error) {
	t := results
	for _, st := range s.payloadStages() {
		var err error
		if t, err = st.fn(t); err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return t, nil
}

// unwrapAsync peels Go's fallible result shape:
//
//	()          -> no payload
//	(error)     -> no payload
//	(T)         -> T
//	(T, error)  -> T
//
// A type that is not a tuple is returned as is.
func unwrapAsync(t *graph.TypeRef) (*graph.TypeRef, error) {
	if t == nil || t.Kind != graph.KindTuple {
		return t, nil
	}
	switch len(t.Args) {
	case 0:
		return nil, nil
	case 1:
		if t.Args[0].IsError() {
			return nil, nil
		}
		return t.Args[0], nil
	case 2:
		if t.Args[1].IsError() && !t.Args[0].IsError() {
			return t.Args[0], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedResult, t)
}

// unwrapTypedResult peels the single-argument typed result wrapper, or a
// pointer to it.
func (s *Scanner) unwrapTypedResult(t *graph.TypeRef) (*graph.TypeRef, error) {
	inner := t
	if inner != nil && inner.Kind == graph.KindPointer {
		inner = inner.Elem
	}
	if inner.Is(s.typedResult) && len(inner.Args) == 1 {
		return inner.Args[0], nil
	}
	return t, nil
}

// collapseVoidMarker maps the untyped result marker to no payload.
func (s *Scanner) collapseVoidMarker(t *graph.TypeRef) (*graph.TypeRef, error) {
	if t.Is(s.voidMarker) {
		return nil, nil
	}
	return t, nil
}
