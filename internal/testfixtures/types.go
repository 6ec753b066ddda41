// Package testfixtures declares the controllers loaded by the graph/goload
// and pipeline tests.
package testfixtures

import (
	"context"
	"errors"
	"time"

	"github.com/broady/ctrlgen/mvc"
)

// Color is an enum.
type Color int

const (
	Red Color = iota
	Green
	Blue
)

// Size is a named string without constants, so it is not an enum.
type Size string

// Widget is a test fixture payload.
type Widget struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Color   Color     `json:"color"`
	Created time.Time `json:"created"`
}

// Filter is a test fixture request body.
type Filter struct {
	Name string `json:"name"`
}

// WidgetController manages widgets.
//
//ctrlgen:route widgets
type WidgetController struct {
	mvc.Controller
	widgets map[int]Widget
}

//ctrlgen:get {id}
func (c *WidgetController) Get(ctx context.Context, id int) (mvc.ActionResult[Widget], error) {
	w, ok := c.widgets[id]
	if !ok {
		return mvc.ActionResult[Widget]{}, mvc.Errorf(mvc.CodeNotFound, "widget %d", id)
	}
	return mvc.OK(w), nil
}

// Create stores a widget.
//
//ctrlgen:post
func (c *WidgetController) Create(ctx context.Context, w Widget) (*mvc.ActionResult[Widget], error) {
	c.widgets[w.ID] = w
	res := mvc.Created(w)
	return &res, nil
}

//ctrlgen:get "search/{color}"
func (c *WidgetController) Search(ctx context.Context, color Color, f Filter) ([]Widget, error) {
	var found []Widget
	for _, w := range c.widgets {
		if w.Color == color && w.Name == f.Name {
			found = append(found, w)
		}
	}
	return found, nil
}

//ctrlgen:delete {id}
func (c *WidgetController) Delete(ctx context.Context, id int) (mvc.Result, error) {
	delete(c.widgets, id)
	return c.NoContent(), nil
}

//ctrlgen:ignore
func (c *WidgetController) Register(app *mvc.App) {}

func (c *WidgetController) count() int { return len(c.widgets) }

type apiBase struct {
	mvc.ControllerBase
}

// GadgetController reaches the controller base through an unexported
// intermediate and declares no route.
type GadgetController struct {
	apiBase
}

//ctrlgen:put
func (GadgetController) Touch(_ context.Context, _ string, _ Size) error {
	return errors.New("not implemented")
}

//ctrlgen:controller
//ctrlgen:route health
type HealthController struct{}

//ctrlgen:get
func (HealthController) Ping(context.Context) (string, error) { return "pong", nil }

// Paged is generic and never a controller.
type Paged[T any] struct {
	mvc.ControllerBase
	Items []T
}

func (p *Paged[T]) Len() int { return len(p.Items) }

type (
	// Plain embeds a payload type, not a controller base.
	Plain struct {
		Widget
	}

	// Alias is not a struct declaration of its own.
	Alias = Widget
)
