package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinRoute(t *testing.T) {
	tests := []struct {
		base, fragment, want string
	}{
		{"widgets", "{id}", "widgets/{id}"},
		{"widgets/", "{id}", "widgets/{id}"},
		{"widgets", "", "widgets"},
		{"", "{id}", "{id}"},
		{"", "", ""},
		{"widgets", "/health", "/health"},
		{`api\widgets`, `by\{id}`, "api/widgets/by/{id}"},
		{"api/", `\abs`, "/abs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinRoute(tt.base, tt.fragment), "JoinRoute(%q, %q)", tt.base, tt.fragment)
	}
}

func TestRouteExpr(t *testing.T) {
	tests := []struct {
		route   string
		params  []string
		want    string
		sprintf bool
	}{
		{"widgets/{id}", []string{"id"}, `fmt.Sprintf("widgets/%v", id)`, true},
		{"a/{id:int}/{rest...}", []string{"id", "rest"}, `fmt.Sprintf("a/%v/%v", id, rest)`, true},
		{"a/{other}/{id}", []string{"id"}, `fmt.Sprintf("a/{other}/%v", id)`, true},
		{"100%/{id}", []string{"id"}, `fmt.Sprintf("100%%/%v", id)`, true},
		{"{id}{id}", []string{"id"}, `fmt.Sprintf("%v%v", id, id)`, true},
		{"q?x={x}", []string{"x"}, `fmt.Sprintf("q?x=%v", x)`, true},
		{"100%/x", nil, `"100%/x"`, false},
		{"{id", []string{"id"}, `"{id"`, false},
		{"widgets/{id}", nil, `"widgets/{id}"`, false},
		{"", nil, `""`, false},
	}
	for _, tt := range tests {
		params := map[string]bool{}
		for _, p := range tt.params {
			params[p] = true
		}
		got, sprintf := routeExpr(tt.route, params, "fmt")
		assert.Equal(t, tt.want, got, "route %q", tt.route)
		assert.Equal(t, tt.sprintf, sprintf, "route %q", tt.route)
	}
}

func TestWriter(t *testing.T) {
	var w writer
	w.comment("T is a type.\nSecond line.")
	w.block("type T struct", func() {
		w.line("x int")
	})
	w.block("func f()", func() {
		w.block("if true", func() {
			w.line("return %d", 1)
		})
	})
	w.paren("import", func() {
		w.line("%q", "fmt")
	})

	want := "// T is a type.\n// Second line.\n" +
		"type T struct {\n\tx int\n}\n" +
		"func f() {\n\tif true {\n\t\treturn 1\n\t}\n}\n" +
		"import (\n\t\"fmt\"\n)\n"
	assert.Equal(t, want, string(w.bytes()))
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := map[string]string{
		"model":   "model",
		"go-json": "go_json",
		"3d":      "_3d",
		"type":    "type_",
		"":        "_",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeIdentifier(in), in)
	}
}

func TestImportSet(t *testing.T) {
	s := newImportSet(map[string]bool{"widget": true})

	assert.Equal(t, "model", s.add("example.com/a/model", ""))
	assert.Equal(t, "model2", s.add("example.com/b/model", ""))
	assert.Equal(t, "model", s.add("example.com/a/model", ""), "stable on re-add")
	assert.Equal(t, "widget2", s.add("example.com/widget", "widget"))
	assert.Equal(t, "string2", s.add("example.com/string", "string"), "predeclared names are taken")

	std, other := s.specs()
	assert.Empty(t, std)
	assert.Equal(t, []importSpec{
		{Path: "example.com/a/model"},
		{Alias: "model2", Path: "example.com/b/model"},
		{Alias: "string2", Path: "example.com/string"},
		{Alias: "widget2", Path: "example.com/widget"},
	}, other)
}

func TestScopeFresh(t *testing.T) {
	s := scope{"ctx": true, "ctx2": true}
	assert.Equal(t, "ctx3", s.fresh("ctx"))
	assert.Equal(t, "ctx4", s.fresh("ctx"))
	assert.Equal(t, "c", s.fresh("c"))
}
