// Package mvc holds the server-side types that ctrlgen recognizes in a
// controller package, and a small App that serves controller actions over
// net/http.
//
// A controller is any struct that embeds ControllerBase (directly or through
// Controller). Its exported methods are actions; each declares its HTTP verb
// with a doc-comment directive:
//
//	//ctrlgen:route cups
//	type CupsController struct {
//		mvc.Controller
//	}
//
//	//ctrlgen:get {id}
//	func (c *CupsController) Get(ctx context.Context, id int) (mvc.ActionResult[Cup], error)
//
// Actions return (ActionResult[T], error) for a typed payload, (Result, error)
// or error for none.
package mvc

import "net/http"

// ControllerBase marks a struct as a controller when embedded.
type ControllerBase struct{}

// Controller is a ControllerBase with response helpers.
//
//ctrlgen:ignore
type Controller struct {
	ControllerBase
}

// NoContent returns a 204 result.
func (Controller) NoContent() Result { return NoContent() }

// Result is an action outcome without a payload.
type Result interface {
	StatusCode() int
}

type statusResult int

func (s statusResult) StatusCode() int { return int(s) }

// Status returns a Result that writes only the given status code.
func Status(code int) Result { return statusResult(code) }

// NoContent returns a 204 No Content result.
func NoContent() Result { return statusResult(http.StatusNoContent) }

// ActionResult is an action outcome carrying a payload of type T.
// The zero value is a 200 response with the zero T.
type ActionResult[T any] struct {
	Status int
	Value  T
}

// OK returns a 200 result carrying v.
func OK[T any](v T) ActionResult[T] {
	return ActionResult[T]{Status: http.StatusOK, Value: v}
}

// Created returns a 201 result carrying v.
func Created[T any](v T) ActionResult[T] {
	return ActionResult[T]{Status: http.StatusCreated, Value: v}
}

// StatusCode implements Result.
func (r ActionResult[T]) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

func (r ActionResult[T]) payload() any { return r.Value }

// payloader is implemented by every ActionResult instantiation.
type payloader interface {
	StatusCode() int
	payload() any
}
