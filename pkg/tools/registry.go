package tools

import (
	"fmt"
	"sync"

	"tempo/pkg/api"
)

// ToolRegistry is the central inventory of tools available to the agent.
// It enforces the sum-type invariant at registration: a tool is either
// server-executed or client-relayed, fixed for its lifetime, never both.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]api.Tool
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]api.Tool),
	}
}

// Register adds a tool. It rejects descriptors that are neither or both
// sides of the ServerTool/ClientTool sum type.
func (tr *ToolRegistry) Register(tool api.Tool) error {
	_, isServer := tool.(api.ServerTool)
	_, isClient := tool.(api.ClientTool)

	if isServer && isClient {
		return fmt.Errorf("tool %q implements both server and client execution", tool.Name())
	}
	if !isServer && !isClient {
		return fmt.Errorf("tool %q implements neither server nor client execution", tool.Name())
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.tools[tool.Name()] = tool
	return nil
}

// Unregister removes a tool by name.
func (tr *ToolRegistry) Unregister(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	delete(tr.tools, name)
}

// Get retrieves a tool by name.
func (tr *ToolRegistry) Get(name string) (api.Tool, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tool, ok := tr.tools[name]
	return tool, ok
}

// GetAll returns all registered tools.
func (tr *ToolRegistry) GetAll() []api.Tool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tools := make([]api.Tool, 0, len(tr.tools))
	for _, tool := range tr.tools {
		tools = append(tools, tool)
	}
	return tools
}
