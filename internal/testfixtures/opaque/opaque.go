// Package opaque declares a controller whose actions use types with no
// graph shape: anonymous structs and funcs that mention named types from
// several packages.
package opaque

import (
	"context"
	"time"

	"github.com/broady/ctrlgen/internal/testfixtures"
	"github.com/broady/ctrlgen/mvc"
)

// Kind is declared next to the controller so generated clients must import
// this package too.
type Kind string

//ctrlgen:route things
type ThingController struct {
	mvc.Controller
}

//ctrlgen:post
func (c *ThingController) Find(ctx context.Context, filter struct {
	S    testfixtures.Size
	Kind Kind
}) error {
	return nil
}

//ctrlgen:get {id}
func (c *ThingController) Watch(ctx context.Context, id int, at func(time.Time) testfixtures.Color) (mvc.ActionResult[map[Kind]struct{ At time.Time }], error) {
	return mvc.ActionResult[map[Kind]struct{ At time.Time }]{}, nil
}
