// Package openapi describes extracted controllers as an OpenAPI 3 document.
//
// Each action becomes one operation at its joined route. Placeholders become
// required path parameters, the body parameter becomes a JSON request body
// and the payload a JSON 200 response; actions without a payload answer 204.
// Declared Go types are described by reference under components/schemas.
package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/broady/ctrlgen/emit"
	"github.com/broady/ctrlgen/graph"
	"github.com/broady/ctrlgen/ir"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// Version is the OpenAPI version of built documents.
const Version = "3.0.3"

// ErrDuplicateOperation is reported when two actions share a method and path.
var ErrDuplicateOperation = errors.New("duplicate operation")

// Options describes the document.
type Options struct {
	Title   string   `yaml:"title"`
	Version string   `yaml:"version"`
	Servers []string `yaml:"servers"`
}

// Build returns the document describing controllers.
func Build(controllers []ir.Controller, opts Options) (*openapi3.T, error) {
	if opts.Title == "" {
		opts.Title = "API"
	}
	if opts.Version == "" {
		opts.Version = "0.0.0"
	}

	b := &builder{
		schemas: openapi3.Schemas{},
		names:   map[string]string{},
		taken:   map[string]bool{},
	}
	paths := openapi3.Paths{}
	for _, c := range controllers {
		for _, a := range c.Actions {
			path, placeholders := Path(emit.JoinRoute(c.BaseRoute, a.Route))
			item := paths[path]
			if item == nil {
				item = &openapi3.PathItem{}
				paths[path] = item
			}
			if item.GetOperation(string(a.Verb)) != nil {
				return nil, fmt.Errorf("%w: %s %s (%s.%s)", ErrDuplicateOperation, a.Verb, path, c.Name, a.Name)
			}
			item.SetOperation(string(a.Verb), b.operation(c, a, placeholders))
		}
	}

	doc := &openapi3.T{
		OpenAPI: Version,
		Info:    &openapi3.Info{Title: opts.Title, Version: opts.Version},
		Paths:   paths,
	}
	for _, s := range opts.Servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: s})
	}
	doc.Components = openapi3.NewComponents()
	doc.Components.Schemas = b.schemas
	return doc, nil
}

// Format is a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// Marshal encodes doc. Object keys are sorted in both formats.
func Marshal(doc *openapi3.T, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal openapi document: %w", err)
	}
	switch format {
	case JSON, "":
		return append(data, '\n'), nil
	case YAML:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("marshal openapi document: %w", err)
		}
		return yaml.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

var placeholder = regexp.MustCompile(`\{([^{}]*)\}`)

// Path converts a joined route to an OpenAPI path template: rooted, with
// constraints and wildcard suffixes removed from placeholders. It returns
// the distinct placeholder names in order.
func Path(route string) (string, []string) {
	var names []string
	seen := map[string]bool{}
	path := placeholder.ReplaceAllStringFunc(route, func(m string) string {
		name := m[1 : len(m)-1]
		if i := strings.Index(name, ":"); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSuffix(name, "...")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return "{" + name + "}"
	})
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, names
}

type builder struct {
	schemas openapi3.Schemas
	names   map[string]string // qualified type -> component name
	taken   map[string]bool
}

func (b *builder) operation(c ir.Controller, a ir.Action, placeholders []string) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = strcase.ToLowerCamel(c.Name + "_" + a.Name)
	op.Tags = []string{c.Name}
	op.Summary = fmt.Sprintf("%s.%s", c.Name, a.Name)

	types := map[string]*graph.TypeRef{}
	for _, p := range a.Parameters {
		types[p.Key] = p.Parameter.Type
	}
	for _, name := range placeholders {
		schema := openapi3.NewStringSchema()
		if t, ok := types[name]; ok {
			schema = b.schemaRef(t).Value
		}
		op.AddParameter(openapi3.NewPathParameter(name).WithSchema(schema).WithRequired(true))
	}

	if a.HasBody() {
		body := openapi3.NewRequestBody().WithJSONSchemaRef(b.schemaRef(a.Body.Parameter.Type))
		body.Required = true
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	if a.Return != nil {
		rsp := openapi3.NewResponse().WithDescription("success")
		rsp.Content = openapi3.NewContentWithJSONSchemaRef(b.schemaRef(a.Return))
		op.AddResponse(200, rsp)
	} else {
		op.AddResponse(204, openapi3.NewResponse().WithDescription("no content"))
	}
	return op
}

// schemaRef describes t. Declared types are registered as components and
// referenced; everything else is inlined.
func (b *builder) schemaRef(t *graph.TypeRef) *openapi3.SchemaRef {
	if s := wellKnown(t); s != nil {
		return openapi3.NewSchemaRef("", s)
	}

	s := openapi3.NewSchema()
	switch t.Kind {
	case graph.KindBasic:
		scalar(s, t.Basic)
	case graph.KindPointer:
		elem := b.schemaRef(t.Elem)
		if elem.Ref != "" {
			return elem
		}
		elem.Value.Nullable = true
		return elem
	case graph.KindSlice, graph.KindArray:
		if t.Elem.Kind == graph.KindBasic && t.Elem.Basic == graph.Uint8 {
			s.Type = "string"
			s.Format = "byte"
			break
		}
		s.Type = "array"
		s.Items = b.schemaRef(t.Elem)
		if t.Kind == graph.KindArray {
			n := uint64(t.Len)
			s.MinItems = n
			s.MaxItems = &n
		} else {
			s.Nullable = true
		}
	case graph.KindMap:
		s.Type = "object"
		s.AdditionalProperties = b.schemaRef(t.Elem)
	case graph.KindNamed:
		if t.IsError() || t.Pkg == "" {
			s.Description = t.Name
			break
		}
		return b.component(t)
	}
	return openapi3.NewSchemaRef("", s)
}

// component registers t under components/schemas and returns a reference.
func (b *builder) component(t *graph.TypeRef) *openapi3.SchemaRef {
	qualified := t.String()
	name, ok := b.names[qualified]
	if !ok {
		base := componentName(t)
		name = base
		for i := 2; b.taken[name]; i++ {
			name = base + strconv.Itoa(i)
		}
		b.taken[name] = true
		b.names[qualified] = name

		s := openapi3.NewSchema()
		s.Description = "Go type " + qualified + "."
		if t.Enum {
			s.Description = "Go enumerated type " + qualified + "."
		}
		b.schemas[name] = openapi3.NewSchemaRef("", s)
	}
	return openapi3.NewSchemaRef("#/components/schemas/"+name, b.schemas[name].Value)
}

var invalidComponentChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

func componentName(t *graph.TypeRef) string {
	spelled := t.Format(func(_, pkgName string) string { return pkgName })
	return strings.Trim(invalidComponentChars.ReplaceAllString(spelled, "_"), "_")
}

func wellKnown(t *graph.TypeRef) *openapi3.Schema {
	switch {
	case t.Is(graph.TypeName{Pkg: "time", Name: "Time"}):
		s := openapi3.NewSchema()
		s.Type = "string"
		s.Format = "date-time"
		return s
	case t.Is(graph.TypeName{Pkg: "time", Name: "Duration"}):
		s := openapi3.NewSchema()
		s.Type = "integer"
		s.Format = "int64"
		return s
	case t.Is(graph.TypeName{Pkg: "encoding/json", Name: "RawMessage"}), t.Kind == graph.KindInterface:
		return openapi3.NewSchema()
	}
	return nil
}

func scalar(s *openapi3.Schema, k graph.BasicKind) {
	switch k {
	case graph.Bool:
		s.Type = "boolean"
	case graph.String:
		s.Type = "string"
	case graph.Int8, graph.Int16, graph.Int32:
		s.Type = "integer"
		s.Format = "int32"
	case graph.Int, graph.Int64:
		s.Type = "integer"
		s.Format = "int64"
	case graph.Uint8:
		s.Type = "integer"
		s.WithMin(0).WithMax(math.MaxUint8)
	case graph.Uint16, graph.Uint32:
		s.Type = "integer"
		s.Format = "int32"
		s.WithMin(0)
	case graph.Uint, graph.Uint64, graph.Uintptr:
		s.Type = "integer"
		s.Format = "int64"
		s.WithMin(0)
	case graph.Float32:
		s.Type = "number"
		s.Format = "float"
	case graph.Float64:
		s.Type = "number"
		s.Format = "double"
	}
}
