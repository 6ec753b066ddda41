// Package extract discovers controllers in a type graph and classifies their
// methods as HTTP actions.
//
// For each module the extractor resolves the controller base type, tags the
// declared classes that are controllers, and describes every exported action
// method: its verb and route from the last method directive, its parameters
// in declaration order, the first non-scalar parameter as the request body,
// and the response payload after unwrapping the result type.
package extract

import (
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"strconv"
	"strings"

	"github.com/broady/ctrlgen/graph"
	"github.com/broady/ctrlgen/ir"
)

var (
	// ErrUnknownVerb is reported for an action method whose method directive
	// names a verb other than GET, PUT, POST or DELETE, or that has none.
	ErrUnknownVerb = errors.New("unknown HTTP method")

	// ErrUnsupportedResult is reported for a result list that is not one of
	// (), (error), (T) or (T, error).
	ErrUnsupportedResult = errors.New("unsupported result list")
)

// ClassificationError reports an action method that cannot be classified.
type ClassificationError struct {
	Class  graph.TypeName
	Method string
	Pos    token.Position
	Err    error
}

func (e *ClassificationError) Error() string {
	var sb strings.Builder
	if e.Pos.IsValid() {
		sb.WriteString(e.Pos.String())
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "%s.%s: %v", e.Class, e.Method, e.Err)
	return sb.String()
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Scanner extracts controller descriptors from modules.
// A Scanner holds no per-scan state and may be reused.
type Scanner struct {
	cfg         Config
	base        string
	typedResult graph.TypeName
	voidMarker  graph.TypeName
	contextType graph.TypeName
	logger      *slog.Logger
}

// New returns a Scanner for cfg. Empty fields of cfg take their defaults.
func New(cfg Config) *Scanner {
	cfg = cfg.WithDefaults()
	return &Scanner{
		cfg:         cfg,
		base:        cfg.ControllerBase,
		typedResult: graph.ParseTypeName(cfg.TypedResult),
		voidMarker:  graph.ParseTypeName(cfg.VoidMarker),
		contextType: graph.ParseTypeName(cfg.ContextType),
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger used for debug records.
func (s *Scanner) WithLogger(logger *slog.Logger) *Scanner {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// ScanAll scans every module in order and flattens the results.
// The first error aborts the scan.
func (s *Scanner) ScanAll(mods []graph.Module) ([]ir.Controller, error) {
	var all []ir.Controller
	for _, mod := range mods {
		cs, err := s.Scan(mod)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", mod.Path(), err)
		}
		all = append(all, cs...)
	}
	return all, nil
}

// Scan returns the controllers declared in mod, in declaration order.
// A module that does not reference the controller base has no controllers.
func (s *Scanner) Scan(mod graph.Module) ([]ir.Controller, error) {
	base, ok := mod.Lookup(s.base)
	if !ok {
		s.logger.Debug("controller base not referenced",
			slog.String("module", mod.Path()),
			slog.String("base", s.base))
		return nil, nil
	}

	roles := Roles(mod, base.Name)
	var controllers []ir.Controller
	for _, class := range mod.Classes() {
		if roles[class.Name] != RoleController {
			continue
		}
		c, err := s.controller(class)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("controller discovered",
			slog.String("class", class.Name.String()),
			slog.String("name", c.Name),
			slog.String("route", c.BaseRoute),
			slog.Int("actions", len(c.Actions)))
		controllers = append(controllers, c)
	}
	return controllers, nil
}

func (s *Scanner) controller(class *graph.Class) (ir.Controller, error) {
	c := ir.Controller{
		Name:      s.controllerName(class.Name.Name),
		BaseRoute: resolve(class.Facts, graph.FactRoute),
		Source:    class.Name,
	}
	for _, m := range class.Methods {
		if !m.Exported || m.Abstract || m.Constructor {
			continue
		}
		if hasFact(m.Facts, graph.FactIgnore) {
			continue
		}
		a, err := s.action(m)
		if err != nil {
			return ir.Controller{}, &ClassificationError{
				Class:  class.Name,
				Method: m.Name,
				Pos:    m.Pos,
				Err:    err,
			}
		}
		c.Actions = append(c.Actions, a)
	}
	return c, nil
}

func (s *Scanner) controllerName(name string) string {
	if len(name) > len(s.cfg.NameSuffix) && strings.HasSuffix(name, s.cfg.NameSuffix) {
		return strings.TrimSuffix(name, s.cfg.NameSuffix)
	}
	return name
}

func (s *Scanner) action(m *graph.Method) (ir.Action, error) {
	fact, ok := lastFact(m.Facts, graph.FactMethod)
	if !ok {
		return ir.Action{}, fmt.Errorf("%w: no method directive", ErrUnknownVerb)
	}
	verb, ok := ir.ParseVerb(fact.Verb)
	if !ok {
		return ir.Action{}, fmt.Errorf("%w: %s", ErrUnknownVerb, fact.Verb)
	}

	ret, err := s.payload(m.Results)
	if err != nil {
		return ir.Action{}, err
	}

	a := ir.Action{
		Name:   m.Name,
		Verb:   verb,
		Route:  firstArg(fact),
		Return: ret,
	}
	for i, p := range m.Params {
		if p.Type == nil || p.Type.Is(s.contextType) {
			continue
		}
		key := p.Name
		if key == "" || key == "_" {
			key = "p" + strconv.Itoa(i)
		}
		b := ir.ParameterBinding{Key: key, Parameter: ir.Parameter{Type: p.Type}}
		a.Parameters = append(a.Parameters, b)
		if a.Body == nil && !IsScalar(p.Type) {
			body := b
			a.Body = &body
		}
	}

	s.logger.Debug("action classified",
		slog.String("action", m.Name),
		slog.String("verb", string(verb)),
		slog.String("route", a.Route),
		slog.Bool("body", a.Body != nil),
		slog.Bool("payload", a.Return != nil))
	return a, nil
}
