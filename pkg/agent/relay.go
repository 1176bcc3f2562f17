package agent

import (
	"sync"

	"tempo/pkg/api"
)

// PendingCalls correlates relayed client tool invocations with the
// tool_result frames the browser posts back. Each registered call owns a
// buffered channel of capacity one, so a late Resolve never blocks the
// channel goroutine.
type PendingCalls struct {
	mu    sync.Mutex
	calls map[string]chan api.ToolResult
}

func NewPendingCalls() *PendingCalls {
	return &PendingCalls{calls: make(map[string]chan api.ToolResult)}
}

// Register creates a waiter for the given call ID and returns the channel
// the result will arrive on.
func (p *PendingCalls) Register(callID string) <-chan api.ToolResult {
	ch := make(chan api.ToolResult, 1)
	p.mu.Lock()
	p.calls[callID] = ch
	p.mu.Unlock()
	return ch
}

// Resolve delivers a result to the waiter for callID. Returns false when no
// call with that ID is pending, which happens after a timeout already gave
// up on it.
func (p *PendingCalls) Resolve(callID string, result api.ToolResult) bool {
	p.mu.Lock()
	ch, ok := p.calls[callID]
	if ok {
		delete(p.calls, callID)
	}
	p.mu.Unlock()

	if !ok {
		return false
	}
	ch <- result
	return true
}

// Cancel drops the waiter for callID without delivering a result.
func (p *PendingCalls) Cancel(callID string) {
	p.mu.Lock()
	delete(p.calls, callID)
	p.mu.Unlock()
}
