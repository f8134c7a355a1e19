// Package tools aggregates tool catalogs from MCP providers into a single
// flat namespace and routes invocations to whichever provider advertised
// the tool.
//
// The registry is the error boundary for tool execution: Invoke never
// returns a Go error. Unknown names, provider failures, and panics all
// become IsError results so the surrounding conversation can continue and
// let the model react to the error text.
package tools

import (
	"context"
	"encoding/json"
)

// Descriptor describes one remotely invocable tool. Descriptors are
// immutable once discovered; a fresh discovery pass replaces them
// wholesale.
type Descriptor struct {
	// Name is unique across the aggregated catalog.
	Name string

	// Description is the provider-supplied tool description.
	Description string

	// Schema is the tool's JSON input schema, preserved verbatim.
	Schema json.RawMessage
}

// Result is the outcome of a single tool invocation. It is created once
// when the call completes and never mutated afterwards.
type Result struct {
	// CallID ties the result back to the tool-request block that caused
	// the invocation.
	CallID string

	// Name is the invoked tool's name.
	Name string

	// Content holds the result's text blocks in the order the provider
	// returned them.
	Content []string

	// IsError marks a failed invocation. The failure description is in
	// Content; the conversation continues either way.
	IsError bool
}

// Text joins all content blocks into one string.
func (r *Result) Text() string {
	switch len(r.Content) {
	case 0:
		return ""
	case 1:
		return r.Content[0]
	}
	out := r.Content[0]
	for _, c := range r.Content[1:] {
		out += "\n" + c
	}
	return out
}

// ResourceInfo describes one read-only resource advertised by a provider.
type ResourceInfo struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
}

// Provider is a client-side handle to one remote capability provider.
// *mcpclient.Client satisfies it.
type Provider interface {
	// Name identifies the provider for logging.
	Name() string

	// ListTools returns the provider's tool catalog in server order.
	ListTools(ctx context.Context) ([]Descriptor, error)

	// CallTool invokes a tool by name. Remote validation failures are
	// reported inside the Result, not as an error; an error means the
	// transport round trip itself failed.
	CallTool(ctx context.Context, name string, args map[string]any) (*Result, error)
}
