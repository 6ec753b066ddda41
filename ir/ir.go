// Package ir holds the descriptors extracted from a type graph and consumed
// by the emitters. Descriptors are built once per generation pass and are not
// modified afterwards.
package ir

import (
	"github.com/broady/ctrlgen/graph"
)

// Verb is a supported HTTP method.
type Verb string

const (
	Get    Verb = "GET"
	Put    Verb = "PUT"
	Post   Verb = "POST"
	Delete Verb = "DELETE"
)

// ParseVerb returns the supported Verb for an upper-case HTTP method.
func ParseVerb(method string) (Verb, bool) {
	switch Verb(method) {
	case Get, Put, Post, Delete:
		return Verb(method), true
	default:
		return "", false
	}
}

// Parameter is the type of one action input, independent of its name.
type Parameter struct {
	Type *graph.TypeRef `json:"type" yaml:"type"`
}

// ParameterBinding pairs a source parameter name with its type. The key is
// reused verbatim as the generated parameter name.
type ParameterBinding struct {
	Key       string    `json:"key" yaml:"key"`
	Parameter Parameter `json:"parameter" yaml:"parameter"`
}

// Action describes one endpoint.
type Action struct {
	Name  string `json:"name" yaml:"name"`
	Verb  Verb   `json:"verb" yaml:"verb"`
	Route string `json:"route" yaml:"route"`

	// Return is the response payload type; nil means no payload.
	Return *graph.TypeRef `json:"return,omitempty" yaml:"return,omitempty"`

	// Parameters are in declaration order.
	Parameters []ParameterBinding `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Body is the parameter sent as the request payload, if any. It is also
	// present in Parameters.
	Body *ParameterBinding `json:"body,omitempty" yaml:"body,omitempty"`
}

// HasBody reports whether the action sends a request payload.
func (a *Action) HasBody() bool { return a.Body != nil }

// Controller describes one API-exposing class.
type Controller struct {
	Name      string   `json:"name" yaml:"name"`
	BaseRoute string   `json:"baseRoute" yaml:"baseRoute"`
	Actions   []Action `json:"actions,omitempty" yaml:"actions,omitempty"`

	// Source is the declaring class.
	Source graph.TypeName `json:"source" yaml:"source"`
}
