package tools

import (
	"context"
	"testing"

	"tempo/pkg/api"
)

// bareTool implements Tool but neither execution side.
type bareTool struct{ name string }

func (b *bareTool) Name() string                 { return b.name }
func (b *bareTool) Description() string          { return "" }
func (b *bareTool) Parameters() map[string]any   { return map[string]any{} }
func (b *bareTool) RequiredParameters() []string { return nil }

// dualTool implements both execution sides, which the registry must reject.
type dualTool struct{ bareTool }

func (d *dualTool) Execute(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
	return api.OkResult("")
}
func (d *dualTool) ClientSide() {}

func TestRegisterAcceptsExactlyOneExecutionSide(t *testing.T) {
	reg := NewToolRegistry()

	server := NewServerTool("srv", "", map[string]any{}, nil,
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			return api.OkResult("")
		})
	if err := reg.Register(server); err != nil {
		t.Fatalf("server tool rejected: %v", err)
	}

	client := NewClientTool("cli", "", map[string]any{}, nil)
	if err := reg.Register(client); err != nil {
		t.Fatalf("client tool rejected: %v", err)
	}

	if err := reg.Register(&bareTool{name: "neither"}); err == nil {
		t.Fatalf("tool with no executor must be rejected")
	}
	if err := reg.Register(&dualTool{bareTool{name: "both"}}); err == nil {
		t.Fatalf("tool with both executors must be rejected")
	}

	if _, ok := reg.Get("neither"); ok {
		t.Fatalf("rejected tool must not be retrievable")
	}
	if got := len(reg.GetAll()); got != 2 {
		t.Fatalf("registry size = %d, want 2", got)
	}
}

func TestUnregisterRemovesTool(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(NewClientTool("nav", "", map[string]any{}, nil))

	reg.Unregister("nav")
	if _, ok := reg.Get("nav"); ok {
		t.Fatalf("tool still present after unregister")
	}
}
