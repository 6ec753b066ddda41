package extract

import "github.com/broady/ctrlgen/graph"

// lastFact returns the last fact of the given kind. When a kind is declared
// more than once, the last declaration wins.
func lastFact(facts []graph.Fact, kind graph.FactKind) (graph.Fact, bool) {
	for i := len(facts) - 1; i >= 0; i-- {
		if facts[i].Kind == kind {
			return facts[i], true
		}
	}
	return graph.Fact{}, false
}

// hasFact reports whether any fact of the given kind is declared.
func hasFact(facts []graph.Fact, kind graph.FactKind) bool {
	_, ok := lastFact(facts, kind)
	return ok
}

// firstArg returns the first argument of f. Later arguments are ignored.
func firstArg(f graph.Fact) string {
	if len(f.Args) == 0 {
		return ""
	}
	return f.Args[0]
}

// resolve returns the first argument of the last fact of the given kind, or
// "" when no such fact is declared.
func resolve(facts []graph.Fact, kind graph.FactKind) string {
	f, ok := lastFact(facts, kind)
	if !ok {
		return ""
	}
	return firstArg(f)
}
