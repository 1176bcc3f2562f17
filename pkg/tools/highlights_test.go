package tools

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

// highlightStore fakes the two round trips createEventHighlights makes:
// event lookups by id and highlight upserts.
func highlightStore(t *testing.T, knownEvents map[string]string, upserts *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/events"):
			id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
			if row, ok := knownEvents[id]; ok {
				w.Write([]byte("[" + row + "]"))
				return
			}
			w.Write([]byte(`[]`))
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/highlights"):
			if upserts != nil {
				*upserts++
			}
			if r.URL.Query().Get("on_conflict") != "user_id,event_id,type" {
				t.Errorf("event highlight write without conflict key: %q", r.URL.RawQuery)
			}
			w.Write([]byte(`[{"id":"h1","type":"ai_event_highlight","event_id":"e1","start_time":"2026-02-01T09:00:00","end_time":"2026-02-01T10:00:00","visible":true}]`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}
}

func TestCreateEventHighlightsSkipsUnresolvedIds(t *testing.T) {
	upserts := 0
	known := map[string]string{
		"e1": `{"id":"e1","title":"Standup","start_time":"2026-02-01T09:00:00","end_time":"2026-02-01T10:00:00"}`,
	}
	st := newTestStore(t, highlightStore(t, known, &upserts))

	tool := findTool(t, NewHighlightTools(st), "createEventHighlights")
	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"eventIds": []any{"e1", "e2-missing"},
		"message":  "busy morning",
	})

	// One resolvable id out of two: the call still succeeds and the count
	// reflects what actually landed. The missing id produces no error entry.
	if !res.Success {
		t.Fatalf("mixed batch must succeed: %+v", res)
	}
	if res.Count != 1 {
		t.Fatalf("count = %d, want 1", res.Count)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unresolved ids must not surface errors, got %v", res.Errors)
	}
	if upserts != 1 {
		t.Fatalf("upserts = %d, want 1", upserts)
	}
}

func TestCreateEventHighlightsAllUnresolved(t *testing.T) {
	st := newTestStore(t, highlightStore(t, nil, nil))

	tool := findTool(t, NewHighlightTools(st), "createEventHighlights")
	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"eventIds": []any{"ghost-1", "ghost-2"},
	})
	if res.Success || res.Error != "No highlights were created" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCreateTimeHighlightsValidatesRanges(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("invalid input reached the store")
	})
	tool := findTool(t, NewHighlightTools(st), "createTimeHighlights")

	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"highlights": []any{
			map[string]any{"startTime": "not-a-time", "endTime": "2026-02-01T10:00:00"},
		},
	})
	if res.Success || !strings.HasPrefix(res.Error, "highlight 1:") {
		t.Fatalf("result = %+v", res)
	}

	res = tool.Execute(context.Background(), testAuth, map[string]any{
		"highlights": []any{
			map[string]any{"startTime": "2026-02-01T10:00:00", "endTime": "2026-02-01T09:00:00"},
		},
	})
	if res.Success || res.Error != "highlight 1: end time must be after start time" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCreateTimeHighlightsAppends(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		// Appends are plain inserts; no conflict resolution may ride along.
		if r.URL.Query().Get("on_conflict") != "" {
			t.Errorf("time highlight insert carries on_conflict: %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id":"h1","type":"ai_time_highlight","start_time":"2026-02-01T09:00:00","end_time":"2026-02-01T10:00:00","visible":true}]`))
	})

	tool := findTool(t, NewHighlightTools(st), "createTimeHighlights")
	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"highlights": []any{
			map[string]any{"startTime": "2026-02-01T09:00:00", "endTime": "2026-02-01T10:00:00", "title": "Focus"},
		},
	})
	if !res.Success || res.Count != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestClearHighlightsRequiresSelection(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("ambiguous clear reached the store")
	})

	tool := findTool(t, NewHighlightTools(st), "clearHighlights")
	res := tool.Execute(context.Background(), testAuth, map[string]any{})
	if res.Success || res.Error != "Must provide either highlightIds or clearAll" {
		t.Fatalf("result = %+v", res)
	}
}

func TestClearHighlightsRejectsUnknownType(t *testing.T) {
	// A typoed clearType must fail outright. Were it waved through it
	// would fold to the unfiltered form and wipe every highlight the
	// user owns.
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unknown clear type reached the store")
	})

	tool := findTool(t, NewHighlightTools(st), "clearHighlights")
	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"clearAll": true, "clearType": "bogus",
	})
	if res.Success || !strings.Contains(res.Error, "clearType") {
		t.Fatalf("result = %+v", res)
	}
}

func TestHighlightTypeMappingRejectsUnknown(t *testing.T) {
	if _, err := highlightTypeFromArg("bogus"); err == nil {
		t.Fatalf("unknown type mapped silently")
	}
	if kind, err := highlightTypeFromArg(""); err != nil || kind != "" {
		t.Fatalf("empty type must mean no filter: %q, %v", kind, err)
	}
}

func TestClearHighlightsByIdList(t *testing.T) {
	var gotQuery string
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		gotQuery = r.URL.Query().Get("id")
	})

	tool := findTool(t, NewHighlightTools(st), "clearHighlights")
	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"highlightIds": []any{"h1", "h2"},
	})
	if !res.Success || res.Message != "Deleted 2 highlights" {
		t.Fatalf("result = %+v", res)
	}
	if gotQuery != "in.(h1,h2)" {
		t.Fatalf("id predicate = %q", gotQuery)
	}
}

func TestSetHighlightVisibilityNotFound(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	tool := findTool(t, NewHighlightTools(st), "setHighlightVisibility")
	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"highlightId": "ghost", "visible": false,
	})
	if res.Success || res.Error != "Highlight not found" {
		t.Fatalf("result = %+v", res)
	}
}
