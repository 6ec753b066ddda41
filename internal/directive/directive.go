// Package directive parses ctrlgen directives from Go doc comments.
//
// Directives are line comments in the form:
//
//	//ctrlgen:route <template>
//	//ctrlgen:get [template]
//	//ctrlgen:post [template]
//	//ctrlgen:controller
//	//ctrlgen:ignore
//
// Any HTTP method known to net/http may be used as a directive word; it
// becomes a graph.FactMethod fact. Whether the verb is supported is decided
// by the extractor, not here. Arguments are split with shell quoting rules,
// so a template containing spaces can be quoted.
package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"net/http"
	"strings"

	"github.com/broady/ctrlgen/graph"
	"github.com/kballard/go-shellquote"
)

// Prefix starts every directive comment.
const Prefix = "//ctrlgen:"

var verbs = map[string]string{
	"get":     http.MethodGet,
	"head":    http.MethodHead,
	"post":    http.MethodPost,
	"put":     http.MethodPut,
	"patch":   http.MethodPatch,
	"delete":  http.MethodDelete,
	"connect": http.MethodConnect,
	"options": http.MethodOptions,
	"trace":   http.MethodTrace,
}

// FromComments returns the facts declared in a doc comment group, in
// source order. A nil group has no facts.
func FromComments(fset *token.FileSet, cg *ast.CommentGroup) ([]graph.Fact, error) {
	if cg == nil {
		return nil, nil
	}
	var facts []graph.Fact
	for _, c := range cg.List {
		if !strings.HasPrefix(c.Text, Prefix) {
			continue
		}
		var pos token.Position
		if fset != nil {
			pos = fset.Position(c.Pos())
		}
		f, err := Parse(strings.TrimPrefix(c.Text, Prefix), pos)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// Parse parses the text of one directive, without its prefix.
func Parse(text string, pos token.Position) (graph.Fact, error) {
	parts, err := shellquote.Split(text)
	if err != nil {
		return graph.Fact{}, fmt.Errorf("%s: directive %s%s: %w", pos, Prefix, text, err)
	}
	if len(parts) == 0 {
		return graph.Fact{}, fmt.Errorf("%s: empty %s directive", pos, Prefix)
	}

	word, args := parts[0], parts[1:]
	if len(args) == 0 {
		args = nil
	}
	if verb, ok := verbs[strings.ToLower(word)]; ok {
		return graph.Fact{Kind: graph.FactMethod, Verb: verb, Args: args, Pos: pos}, nil
	}

	switch word {
	case "route":
		return graph.Fact{Kind: graph.FactRoute, Args: args, Pos: pos}, nil
	case "controller":
		return graph.Fact{Kind: graph.FactController, Args: args, Pos: pos}, nil
	case "ignore":
		return graph.Fact{Kind: graph.FactIgnore, Args: args, Pos: pos}, nil
	default:
		return graph.Fact{}, fmt.Errorf("%s: unknown directive %s%s", pos, Prefix, word)
	}
}
