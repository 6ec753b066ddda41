package emit

import (
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/broady/ctrlgen/graph"
	"github.com/broady/ctrlgen/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shop = "example.com/shop"

func param(key string, t *graph.TypeRef) ir.ParameterBinding {
	return ir.ParameterBinding{Key: key, Parameter: ir.Parameter{Type: t}}
}

func withBody(a ir.Action, key string) ir.Action {
	for _, p := range a.Parameters {
		if p.Key == key {
			b := p
			a.Body = &b
		}
	}
	return a
}

func widget(actions ...ir.Action) ir.Controller {
	return ir.Controller{
		Name:      "Widget",
		BaseRoute: "widgets",
		Actions:   actions,
		Source:    graph.TypeName{Pkg: shop, Name: "WidgetController"},
	}
}

func render(t *testing.T, opts Options, controllers ...ir.Controller) string {
	t.Helper()
	out, err := Render(controllers, opts)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), "out.go", out, parser.AllErrors)
	require.NoError(t, err, "rendered source:\n%s", out)
	return string(out)
}

func TestRender_BodyAction(t *testing.T) {
	create := withBody(ir.Action{
		Name:   "Create",
		Verb:   ir.Post,
		Route:  "{id}",
		Return: graph.Basic("string"),
		Parameters: []ir.ParameterBinding{
			param("id", graph.Basic("int")),
			param("body", graph.Named(shop, "ComplexType")),
		},
	}, "body")

	out := render(t, Options{}, widget(create))

	assert.True(t, strings.HasPrefix(out, Header+"\n"))
	assert.Contains(t, out, "package apiclient\n")
	for _, imp := range []string{`"context"`, `"fmt"`, `"example.com/shop"`, `"github.com/broady/ctrlgen/client"`} {
		assert.Contains(t, out, "\t"+imp+"\n")
	}
	assert.Contains(t, out, "type APIClient struct {")
	assert.Contains(t, out, "\tWidget *Widget\n")
	assert.Contains(t, out, "func NewAPIClient(transport *client.Transport) *APIClient {")
	assert.Regexp(t, regexp.MustCompile(`Widget:\s+&Widget\{transport: transport\},`), out)
	assert.Contains(t, out, "type Widget struct {\n\ttransport *client.Transport\n}")
	assert.Contains(t, out, "// Widget calls the actions of example.com/shop.WidgetController.")
	assert.Contains(t, out, "// Create sends POST widgets/{id}.")
	assert.Contains(t, out,
		"func (c *Widget) Create(ctx context.Context, id int, body shop.ComplexType) (string, error) {\n"+
			"\treturn client.ReadJSON[string](c.transport.PostJSON(ctx, fmt.Sprintf(\"widgets/%v\", id), body))\n"+
			"}\n")
}

func TestRender_NoBodyAction(t *testing.T) {
	create := ir.Action{
		Name:       "Create",
		Verb:       ir.Post,
		Route:      "{id}",
		Return:     graph.Basic("string"),
		Parameters: []ir.ParameterBinding{param("id", graph.Basic("int"))},
	}

	out := render(t, Options{}, widget(create))

	assert.Contains(t, out,
		"func (c *Widget) Create(ctx context.Context, id int) (string, error) {\n"+
			"\treturn client.ReadJSON[string](c.transport.Post(ctx, fmt.Sprintf(\"widgets/%v\", id)))\n"+
			"}\n")
	assert.NotContains(t, out, "example.com/shop\"")
}

func TestRender_VoidAction(t *testing.T) {
	del := ir.Action{
		Name:       "Delete",
		Verb:       ir.Delete,
		Route:      "{id}",
		Parameters: []ir.ParameterBinding{param("id", graph.Basic("int64"))},
	}

	out := render(t, Options{}, widget(del))

	assert.Contains(t, out,
		"func (c *Widget) Delete(ctx context.Context, id int64) error {\n"+
			"\treturn client.Discard(c.transport.Delete(ctx, fmt.Sprintf(\"widgets/%v\", id)))\n"+
			"}\n")
}

func TestRender_Verbs(t *testing.T) {
	payload := graph.Named(shop, "Widget")
	tests := []struct {
		verb ir.Verb
		body bool
		want string
	}{
		{ir.Get, false, "c.transport.Get(ctx, "},
		{ir.Get, true, "c.transport.GetJSON(ctx, "},
		{ir.Put, false, "c.transport.Put(ctx, "},
		{ir.Put, true, "c.transport.PutJSON(ctx, "},
		{ir.Post, false, "c.transport.Post(ctx, "},
		{ir.Post, true, "c.transport.PostJSON(ctx, "},
		{ir.Delete, false, "c.transport.Delete(ctx, "},
		{ir.Delete, true, "c.transport.DeleteJSON(ctx, "},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			a := ir.Action{Name: "Do", Verb: tt.verb}
			if tt.body {
				a.Parameters = []ir.ParameterBinding{param("w", payload)}
				a = withBody(a, "w")
			}
			out := render(t, Options{}, widget(a))
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRender_LiteralRoute(t *testing.T) {
	ping := ir.Action{Name: "Ping", Verb: ir.Get, Return: graph.Basic("string")}
	health := ir.Controller{Name: "Health", BaseRoute: "health", Actions: []ir.Action{ping}}

	out := render(t, Options{}, health)

	assert.Contains(t, out, `return client.ReadJSON[string](c.transport.Get(ctx, "health"))`)
	assert.NotContains(t, out, `"fmt"`)
	assert.Contains(t, out, "// Health calls the Health controller.")

	root := ir.Controller{Name: "Root", Actions: []ir.Action{{Name: "Index", Verb: ir.Get}}}
	out = render(t, Options{}, root)
	assert.Contains(t, out, `return client.Discard(c.transport.Get(ctx, ""))`)
	assert.Contains(t, out, "// Index sends GET to the base URL.")
}

func TestRender_Empty(t *testing.T) {
	out := render(t, Options{})

	assert.Contains(t, out, "type APIClient struct {\n\ttransport *client.Transport\n}")
	assert.NotContains(t, out, `"context"`)
	assert.NotContains(t, out, `"fmt"`)
}

func TestRender_Options(t *testing.T) {
	create := withBody(ir.Action{
		Name:       "Create",
		Verb:       ir.Post,
		Return:     graph.Pointer(graph.Named(shop, "Widget")),
		Parameters: []ir.ParameterBinding{param("w", graph.Named(shop, "Widget"))},
	}, "w")

	out := render(t, Options{
		Package:       "shopclient",
		PackagePath:   shop,
		ClientName:    "Shop",
		ClientPackage: "example.com/runtime/rt",
	}, ir.Controller{Name: "Catalog", BaseRoute: "widgets", Actions: []ir.Action{create}})

	assert.Contains(t, out, "package shopclient\n")
	assert.Contains(t, out, "type Shop struct {")
	assert.Contains(t, out, "func NewShop(transport *rt.Transport) *Shop {")
	assert.Contains(t, out, "func (c *Catalog) Create(ctx context.Context, w Widget) (*Widget, error) {")
	assert.Contains(t, out, "return rt.ReadJSON[*Widget](c.transport.PostJSON(ctx, \"widgets\", w))")
	assert.NotContains(t, out, `"example.com/shop"`)
}

func TestRender_ImportAliases(t *testing.T) {
	list := ir.Action{
		Name: "List",
		Verb: ir.Get,
		Return: graph.Map(
			graph.Named("example.com/a/model", "ID"),
			graph.Slice(graph.Named("example.com/b/model", "Item")),
		),
		Parameters: []ir.ParameterBinding{
			param("since", graph.Named("time", "Time")),
			param("thing", graph.Named("example.com/go-things/v3", "Thing")),
		},
	}

	out := render(t, Options{}, widget(list))

	assert.Contains(t, out, "\t\"example.com/a/model\"\n")
	assert.Contains(t, out, "\tmodel2 \"example.com/b/model\"\n")
	assert.Contains(t, out, "\tthings \"example.com/go-things/v3\"\n")
	assert.Contains(t, out, "\t\"time\"\n")
	assert.Contains(t, out, "(since time.Time, thing things.Thing) (map[model.ID][]model2.Item, error)")
}

func TestRender_OpaqueTypes(t *testing.T) {
	imports := []graph.Import{{Path: shop, Name: "shop"}, {Path: "time", Name: "time"}}
	fn := &graph.TypeRef{
		Kind:    graph.KindNamed,
		Name:    "func(" + graph.OpaqueQualifier(0) + ".Size) " + graph.OpaqueQualifier(1) + ".Time",
		Imports: imports,
	}
	filter := &graph.TypeRef{
		Kind:    graph.KindNamed,
		Name:    "struct{ S " + graph.OpaqueQualifier(0) + ".Size }",
		Imports: imports[:1],
	}
	find := ir.Action{
		Name: "Find",
		Verb: ir.Post,
		Parameters: []ir.ParameterBinding{
			param("time", graph.Basic("string")),
			param("filter", filter),
			param("at", fn),
		},
	}

	out := render(t, Options{}, widget(find))
	assert.Contains(t, out, "\t\"example.com/shop\"\n")
	assert.Contains(t, out, "\ttime2 \"time\"\n")
	assert.Contains(t, out, "Find(ctx context.Context, time string, filter struct{ S shop.Size }, at func(shop.Size) time2.Time) error")

	out = render(t, Options{PackagePath: shop}, widget(find))
	assert.NotContains(t, out, "\"example.com/shop\"")
	assert.Contains(t, out, "filter struct{ S Size }, at func(Size) time2.Time")
}

func TestRender_Collisions(t *testing.T) {
	do := ir.Action{
		Name:  "Do",
		Verb:  ir.Get,
		Route: "{ctx}/{fmt}",
		Parameters: []ir.ParameterBinding{
			param("ctx", graph.Basic("string")),
			param("c", graph.Basic("int")),
			param("client", graph.Basic("bool")),
			param("fmt", graph.Basic("string")),
			param("context", graph.Basic("string")),
			param("time", graph.Named("time", "Time")),
		},
	}
	c := ir.Controller{Name: "Widget", Actions: []ir.Action{do}}

	out := render(t, Options{}, c)

	assert.Contains(t, out, "\tcontext2 \"context\"\n")
	assert.Contains(t, out, "\tfmt2 \"fmt\"\n")
	assert.Contains(t, out, "\ttime2 \"time\"\n")
	assert.Contains(t, out, "\tclient2 \"github.com/broady/ctrlgen/client\"\n")
	assert.Contains(t, out, "func NewAPIClient(transport *client2.Transport) *APIClient {")
	assert.Contains(t, out,
		"func (c2 *Widget) Do(ctx2 context2.Context, ctx string, c int, client bool, fmt string, context string, time time2.Time) error {\n"+
			"\treturn client2.Discard(c2.transport.Get(ctx2, fmt2.Sprintf(\"%v/%v\", ctx, fmt)))\n")
}

func TestRender_Order(t *testing.T) {
	a := ir.Controller{Name: "Widget", Actions: []ir.Action{{Name: "Zed", Verb: ir.Get}, {Name: "Alpha", Verb: ir.Get}}}
	b := ir.Controller{Name: "Gadget", Actions: []ir.Action{{Name: "Mid", Verb: ir.Get}}}

	out := render(t, Options{}, a, b)

	indexes := []int{
		strings.Index(out, "\tWidget *Widget\n"),
		strings.Index(out, "\tGadget *Gadget\n"),
		strings.Index(out, "func (c *Widget) Zed("),
		strings.Index(out, "func (c *Widget) Alpha("),
		strings.Index(out, "type Gadget struct"),
		strings.Index(out, "func (c *Gadget) Mid("),
	}
	for i, idx := range indexes {
		require.GreaterOrEqual(t, idx, 0, "marker %d missing", i)
		if i > 0 {
			assert.Greater(t, idx, indexes[i-1], "marker %d out of order", i)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	controllers := []ir.Controller{
		widget(ir.Action{
			Name:   "List",
			Verb:   ir.Get,
			Route:  "{page}",
			Return: graph.Map(graph.Named("example.com/a/model", "ID"), graph.Named("example.com/b/model", "Item")),
			Parameters: []ir.ParameterBinding{
				param("page", graph.Basic("int")),
				param("at", graph.Named("time", "Time")),
			},
		}),
		{Name: "Health", BaseRoute: "health", Actions: []ir.Action{{Name: "Ping", Verb: ir.Get}}},
	}
	first, err := Render(controllers, Options{})
	require.NoError(t, err)
	for range 10 {
		again, err := Render(controllers, Options{})
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestRender_Errors(t *testing.T) {
	ok := ir.Action{Name: "Do", Verb: ir.Get}
	tests := []struct {
		name        string
		opts        Options
		controllers []ir.Controller
		want        error
		contains    string
	}{
		{
			name:        "duplicate controller",
			controllers: []ir.Controller{widget(ok), widget(ok)},
			want:        ErrDuplicateController,
		},
		{
			name:        "controller named like the client",
			controllers: []ir.Controller{{Name: "APIClient"}},
			want:        ErrDuplicateController,
		},
		{
			name:        "controller named like the constructor",
			controllers: []ir.Controller{{Name: "NewAPIClient"}},
			want:        ErrDuplicateController,
		},
		{
			name:        "duplicate action",
			controllers: []ir.Controller{widget(ok, ok)},
			want:        ErrDuplicateAction,
		},
		{
			name:        "unexported controller",
			controllers: []ir.Controller{{Name: "widget"}},
			want:        ErrInvalidIdentifier,
		},
		{
			name:        "keyword parameter",
			controllers: []ir.Controller{widget(ir.Action{Name: "Do", Verb: ir.Get, Parameters: []ir.ParameterBinding{param("type", graph.Basic("int"))}})},
			want:        ErrInvalidIdentifier,
		},
		{
			name:        "bad package",
			opts:        Options{Package: "my-client"},
			controllers: nil,
			want:        ErrInvalidIdentifier,
		},
		{
			name:        "duplicate parameter",
			controllers: []ir.Controller{widget(ir.Action{Name: "Do", Verb: ir.Get, Parameters: []ir.ParameterBinding{param("p1", graph.Basic("int")), param("p1", graph.Basic("int"))}})},
			want:        ErrDuplicateAction,
			contains:    "Widget.Do: duplicate parameter p1",
		},
		{
			name:        "untyped parameter",
			controllers: []ir.Controller{widget(ir.Action{Name: "Do", Verb: ir.Get, Parameters: []ir.ParameterBinding{{Key: "x"}}})},
			contains:    "parameter x has no type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.controllers, tt.opts)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}
