package emit

import (
	"strconv"
	"strings"
)

// JoinRoute joins a controller base route and an action route fragment.
// Backslashes become forward slashes. A fragment starting with "/" replaces
// the base; otherwise the two are joined with exactly one slash between
// them. Nothing is escaped.
func JoinRoute(base, fragment string) string {
	base = strings.ReplaceAll(base, `\`, "/")
	fragment = strings.ReplaceAll(fragment, `\`, "/")
	switch {
	case fragment == "":
		return base
	case base == "", strings.HasPrefix(fragment, "/"):
		return fragment
	}
	return strings.TrimRight(base, "/") + "/" + fragment
}

// placeholderName returns the parameter name of a {placeholder} body: the
// text before a ":" constraint or a "..." wildcard suffix.
func placeholderName(inner string) string {
	if i := strings.Index(inner, ":"); i >= 0 {
		inner = inner[:i]
	}
	return strings.TrimSuffix(inner, "...")
}

// routeExpr returns the Go expression producing route. Placeholders naming
// one of params become %v verbs of a fmt.Sprintf call; the returned args are
// the substituted parameter names in order. With no substitutions the
// expression is a string literal and sprintf is false.
func routeExpr(route string, params map[string]bool, fmtName string) (expr string, sprintf bool) {
	var (
		format strings.Builder
		args   []string
	)
	rest := route
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		end += open
		name := placeholderName(rest[open+1 : end])
		if !params[name] {
			format.WriteString(escapePercent(rest[:end+1]))
			rest = rest[end+1:]
			continue
		}
		format.WriteString(escapePercent(rest[:open]))
		format.WriteString("%v")
		args = append(args, name)
		rest = rest[end+1:]
	}
	if len(args) == 0 {
		return strconv.Quote(route), false
	}
	format.WriteString(escapePercent(rest))
	return fmtName + ".Sprintf(" + strconv.Quote(format.String()) + ", " + strings.Join(args, ", ") + ")", true
}

// needsSprintf reports whether routeExpr would substitute any parameter.
func needsSprintf(route string, params map[string]bool) bool {
	_, ok := routeExpr(route, params, "fmt")
	return ok
}

func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
