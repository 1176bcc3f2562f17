package tools

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tempo/pkg/api"
	"tempo/pkg/store"
)

var testAuth = api.AuthContext{Token: "test-token", UserID: "u1"}

// newTestStore spins up a fake PostgREST endpoint and a client bound to it.
func newTestStore(t *testing.T, handler http.HandlerFunc) *store.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return store.NewClient(srv.URL, "anon")
}

// findTool pulls one tool out of a constructor's result by name.
func findTool(t *testing.T, ts []api.Tool, name string) api.ServerTool {
	t.Helper()
	for _, tool := range ts {
		if tool.Name() == name {
			st, ok := tool.(api.ServerTool)
			if !ok {
				t.Fatalf("tool %q is not server-executed", name)
			}
			return st
		}
	}
	t.Fatalf("tool %q not found", name)
	return nil
}
