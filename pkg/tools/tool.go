package tools

import (
	"context"

	"tempo/pkg/api"
)

// serverTool is the concrete ServerTool used by all backend executors: a
// schema plus a run closure over the store client. Execute guards
// credentials and input before the closure sees anything.
type serverTool struct {
	name        string
	description string
	params      map[string]any
	required    []string
	run         func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult
}

// NewServerTool builds a backend-executed tool from its schema and run
// closure.
func NewServerTool(
	name, description string,
	params map[string]any,
	required []string,
	run func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult,
) api.ServerTool {
	return &serverTool{
		name:        name,
		description: description,
		params:      params,
		required:    required,
		run:         run,
	}
}

func (t *serverTool) Name() string                 { return t.name }
func (t *serverTool) Description() string          { return t.description }
func (t *serverTool) Parameters() map[string]any   { return t.params }
func (t *serverTool) RequiredParameters() []string { return t.required }

// Execute runs the tool. A missing bearer token or a schema violation
// short-circuits into a structured error result before any network call.
func (t *serverTool) Execute(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
	if !auth.Valid() {
		return api.FailResult("Authentication required")
	}
	if err := ValidateArgs(t, args); err != nil {
		return api.FailResult(err.Error())
	}
	return t.run(ctx, auth, args)
}

// clientTool is the concrete ClientTool: schema only, no executor. The
// engine relays its invocations to the browser.
type clientTool struct {
	name        string
	description string
	params      map[string]any
	required    []string
}

// NewClientTool builds a browser-executed tool descriptor.
func NewClientTool(name, description string, params map[string]any, required []string) api.ClientTool {
	return &clientTool{
		name:        name,
		description: description,
		params:      params,
		required:    required,
	}
}

func (t *clientTool) Name() string                 { return t.name }
func (t *clientTool) Description() string          { return t.description }
func (t *clientTool) Parameters() map[string]any   { return t.params }
func (t *clientTool) RequiredParameters() []string { return t.required }
func (t *clientTool) ClientSide()                  {}
