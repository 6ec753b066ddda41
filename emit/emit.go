// Package emit renders controller descriptors as a Go client package.
//
// The rendered unit declares an aggregate client with one exported field per
// controller, and one sub-client type per controller with one method per
// action. Each method builds the action's route from its parameters, sends
// the request through a client.Transport and decodes the JSON response:
//
//	func (c *Widget) Create(ctx context.Context, id int, body shop.ComplexType) (string, error) {
//		return client.ReadJSON[string](c.transport.PostJSON(ctx, fmt.Sprintf("widgets/%v", id), body))
//	}
//
// Rendering is deterministic: the same descriptors always produce the same
// bytes.
package emit

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/broady/ctrlgen/graph"
	"github.com/broady/ctrlgen/ir"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"
)

// Header is the first line of every rendered unit.
const Header = "// Code generated by ctrlgen. DO NOT EDIT."

// ClientPackage is the import path of the runtime used by rendered code.
const ClientPackage = "github.com/broady/ctrlgen/client"

var (
	// ErrDuplicateController is reported when two controllers, or a
	// controller and the aggregate client, share a name.
	ErrDuplicateController = errors.New("duplicate controller name")

	// ErrDuplicateAction is reported when a controller has two actions with
	// the same name, or an action has two parameters with the same key.
	ErrDuplicateAction = errors.New("duplicate action name")

	// ErrInvalidIdentifier is reported for a name that cannot be used as the
	// Go identifier it is rendered as.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Options configures rendering. Zero fields take their defaults.
type Options struct {
	// Package is the package name of the rendered unit. Default "apiclient".
	Package string `yaml:"package"`

	// PackagePath is the import path of the rendered unit. Types declared in
	// that package are referred to without a qualifier.
	PackagePath string `yaml:"packagePath"`

	// ClientName names the aggregate client type. Default "APIClient".
	ClientName string `yaml:"clientName"`

	// ClientPackage is the import path of the runtime. Default ClientPackage.
	ClientPackage string `yaml:"clientPackage"`
}

// WithDefaults returns o with empty fields set to their defaults.
func (o Options) WithDefaults() Options {
	if o.Package == "" {
		o.Package = "apiclient"
	}
	if o.ClientName == "" {
		o.ClientName = "APIClient"
	}
	if o.ClientPackage == "" {
		o.ClientPackage = ClientPackage
	}
	return o
}

// Render renders controllers, in order, as one formatted Go source unit.
func Render(controllers []ir.Controller, opts Options) ([]byte, error) {
	opts = opts.WithDefaults()
	r := &renderer{opts: opts, title: cases.Title(language.Und)}
	if err := r.plan(controllers); err != nil {
		return nil, err
	}
	r.file(controllers)

	out, err := imports.Process(opts.Package+".go", r.w.bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return out, nil
}

type renderer struct {
	opts    Options
	title   cases.Caser
	imports *importSet
	w       writer

	context, fmt, client string
}

// plan validates the descriptors and assigns every import its name.
func (r *renderer) plan(controllers []ir.Controller) error {
	if !token.IsIdentifier(r.opts.Package) {
		return fmt.Errorf("package %q: %w", r.opts.Package, ErrInvalidIdentifier)
	}
	if !isExportedIdent(r.opts.ClientName) {
		return fmt.Errorf("client name %q: %w", r.opts.ClientName, ErrInvalidIdentifier)
	}

	declared := map[string]bool{r.opts.ClientName: true, "New" + r.opts.ClientName: true}
	reserved := map[string]bool{}
	for _, c := range controllers {
		if !isExportedIdent(c.Name) {
			return fmt.Errorf("controller %q: %w", c.Name, ErrInvalidIdentifier)
		}
		if declared[c.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateController, c.Name)
		}
		declared[c.Name] = true

		actions := map[string]bool{}
		for _, a := range c.Actions {
			if !isExportedIdent(a.Name) {
				return fmt.Errorf("%s.%s: %w", c.Name, a.Name, ErrInvalidIdentifier)
			}
			if actions[a.Name] {
				return fmt.Errorf("%w: %s.%s", ErrDuplicateAction, c.Name, a.Name)
			}
			actions[a.Name] = true

			keys := map[string]bool{}
			for _, p := range a.Parameters {
				if !token.IsIdentifier(p.Key) || p.Key == "_" {
					return fmt.Errorf("%s.%s: parameter %q: %w", c.Name, a.Name, p.Key, ErrInvalidIdentifier)
				}
				if keys[p.Key] {
					return fmt.Errorf("%w: %s.%s: duplicate parameter %s", ErrDuplicateAction, c.Name, a.Name, p.Key)
				}
				if p.Parameter.Type == nil {
					return fmt.Errorf("%s.%s: parameter %s has no type", c.Name, a.Name, p.Key)
				}
				keys[p.Key] = true
				reserved[p.Key] = true
			}
		}
	}
	// Parameters shadow package names inside a method, and package names
	// must not clash with the declared types.
	for n := range declared {
		reserved[n] = true
	}

	r.imports = newImportSet(reserved)
	hasActions, hasSprintf := false, false
	for _, c := range controllers {
		for _, a := range c.Actions {
			hasActions = true
			if needsSprintf(JoinRoute(c.BaseRoute, a.Route), paramKeys(a)) {
				hasSprintf = true
			}
		}
	}
	if hasActions {
		r.context = r.imports.add("context", "context")
	}
	if hasSprintf {
		r.fmt = r.imports.add("fmt", "fmt")
	}
	r.client = r.imports.add(r.opts.ClientPackage, "")

	for _, c := range controllers {
		for _, a := range c.Actions {
			for _, p := range a.Parameters {
				r.addTypeImports(p.Parameter.Type)
			}
			r.addTypeImports(a.Return)
		}
	}
	return nil
}

func (r *renderer) addTypeImports(t *graph.TypeRef) {
	t.Walk(func(t *graph.TypeRef) {
		if t.Kind == graph.KindNamed && t.Pkg != "" && t.Pkg != r.opts.PackagePath {
			r.imports.add(t.Pkg, t.PkgName)
		}
		for _, imp := range t.Imports {
			if imp.Path != r.opts.PackagePath {
				r.imports.add(imp.Path, imp.Name)
			}
		}
	})
}

func (r *renderer) typeString(t *graph.TypeRef) string {
	return t.Format(func(pkg, _ string) string {
		if pkg == r.opts.PackagePath {
			return ""
		}
		return r.imports.name(pkg)
	})
}

func (r *renderer) file(controllers []ir.Controller) {
	w := &r.w
	w.line(Header)
	w.blank()
	w.line("package %s", r.opts.Package)
	w.blank()

	std, other := r.imports.specs()
	w.paren("import", func() {
		for i, group := range [][]importSpec{std, other} {
			if i > 0 && len(std) > 0 && len(group) > 0 {
				w.blank()
			}
			for _, spec := range group {
				if spec.Alias != "" {
					w.line("%s %q", spec.Alias, spec.Path)
				} else {
					w.line("%q", spec.Path)
				}
			}
		}
	})

	r.aggregate(controllers)
	for _, c := range controllers {
		r.controller(c)
	}
}

func (r *renderer) aggregate(controllers []ir.Controller) {
	w := &r.w
	name := r.opts.ClientName
	transport := "*" + r.client + ".Transport"

	w.blank()
	w.comment(fmt.Sprintf("%s exposes one client per controller.", name))
	w.block("type "+name+" struct", func() {
		w.line("transport %s", transport)
		if len(controllers) > 0 {
			w.blank()
		}
		for _, c := range controllers {
			w.line("%s *%s", c.Name, c.Name)
		}
	})

	w.blank()
	w.comment(fmt.Sprintf("New%s returns a client sending requests through transport.", name))
	w.block(fmt.Sprintf("func New%s(transport %s) *%s", name, transport, name), func() {
		w.block("return &"+name, func() {
			w.line("transport: transport,")
			for _, c := range controllers {
				w.line("%s: &%s{transport: transport},", c.Name, c.Name)
			}
		})
	})
}

func (r *renderer) controller(c ir.Controller) {
	w := &r.w

	w.blank()
	if c.Source.IsZero() {
		w.comment(fmt.Sprintf("%s calls the %s controller.", c.Name, c.Name))
	} else {
		w.comment(fmt.Sprintf("%s calls the actions of %s.", c.Name, c.Source))
	}
	w.block("type "+c.Name+" struct", func() {
		w.line("transport *%s.Transport", r.client)
	})

	names := r.importScope()
	for _, a := range c.Actions {
		for _, p := range a.Parameters {
			names[p.Key] = true
		}
	}
	recv := names.fresh("c")

	for _, a := range c.Actions {
		r.action(c, a, recv)
	}
}

// importScope returns a scope holding every import name.
func (r *renderer) importScope() scope {
	s := scope{}
	for _, n := range r.imports.names {
		s[n] = true
	}
	return s
}

func (r *renderer) action(c ir.Controller, a ir.Action, recv string) {
	w := &r.w

	names := r.importScope()
	names[recv] = true
	for _, p := range a.Parameters {
		names[p.Key] = true
	}
	ctx := names.fresh("ctx")

	params := []string{ctx + " " + r.context + ".Context"}
	for _, p := range a.Parameters {
		params = append(params, p.Key+" "+r.typeString(p.Parameter.Type))
	}

	results := "error"
	if a.Return != nil {
		results = "(" + r.typeString(a.Return) + ", error)"
	}

	full := JoinRoute(c.BaseRoute, a.Route)
	route, _ := routeExpr(full, paramKeys(a), r.fmt)
	method := r.title.String(string(a.Verb))
	args := []string{ctx, route}
	if a.HasBody() {
		method += "JSON"
		args = append(args, a.Body.Key)
	}
	call := fmt.Sprintf("%s.transport.%s(%s)", recv, method, strings.Join(args, ", "))

	w.blank()
	if full != "" {
		w.comment(fmt.Sprintf("%s sends %s %s.", a.Name, a.Verb, full))
	} else {
		w.comment(fmt.Sprintf("%s sends %s to the base URL.", a.Name, a.Verb))
	}
	sig := fmt.Sprintf("func (%s *%s) %s(%s) %s", recv, c.Name, a.Name, strings.Join(params, ", "), results)
	w.block(sig, func() {
		if a.Return != nil {
			w.line("return %s.ReadJSON[%s](%s)", r.client, r.typeString(a.Return), call)
		} else {
			w.line("return %s.Discard(%s)", r.client, call)
		}
	})
}

func paramKeys(a ir.Action) map[string]bool {
	keys := make(map[string]bool, len(a.Parameters))
	for _, p := range a.Parameters {
		keys[p.Key] = true
	}
	return keys
}

func isExportedIdent(name string) bool {
	return token.IsIdentifier(name) && token.IsExported(name)
}
