package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"tempo/pkg/api"
)

func TestUpsertEventHighlightMergesOnCompositeKey(t *testing.T) {
	var gotQuery url.Values
	var gotPrefer string
	var gotBody Highlight
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotPrefer = r.Header.Get("Prefer")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`[{"id":"h1","type":"ai_event_highlight","event_id":"e1","start_time":"2026-02-01T09:00:00","end_time":"2026-02-01T10:00:00","visible":true}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	row, err := c.UpsertEventHighlight(context.Background(), auth, Highlight{
		EventID:   "e1",
		StartTime: "2026-02-01T09:00:00",
		EndTime:   "2026-02-01T10:00:00",
		EmojiIcon: "⭐",
		Visible:   true,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if row.ID != "h1" {
		t.Fatalf("row id = %q", row.ID)
	}
	if got := gotQuery.Get("on_conflict"); got != "user_id,event_id,type" {
		t.Fatalf("on_conflict = %q", got)
	}
	if gotPrefer != "resolution=merge-duplicates,return=representation" {
		t.Fatalf("prefer = %q", gotPrefer)
	}
	if gotBody.UserID != "u1" || gotBody.Type != HighlightTypeEvent {
		t.Fatalf("body ownership not forced: user=%q type=%q", gotBody.UserID, gotBody.Type)
	}
}

func TestInsertTimeHighlightsForcesTypeAndOwner(t *testing.T) {
	var gotQuery url.Values
	var gotBody []Highlight
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`[{"id":"h1","type":"ai_time_highlight","start_time":"a","end_time":"b","visible":true},{"id":"h2","type":"ai_time_highlight","start_time":"c","end_time":"d","visible":true}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	rows, err := c.InsertTimeHighlights(context.Background(), auth, []Highlight{
		{StartTime: "2026-02-01T09:00:00", EndTime: "2026-02-01T10:00:00"},
		{StartTime: "2026-02-02T09:00:00", EndTime: "2026-02-02T10:00:00"},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	// Plain insert: appends must never carry conflict resolution.
	if gotQuery.Get("on_conflict") != "" {
		t.Fatalf("time highlight insert must not upsert, on_conflict = %q", gotQuery.Get("on_conflict"))
	}
	for i, h := range gotBody {
		if h.UserID != "u1" || h.Type != HighlightTypeTime {
			t.Fatalf("row %d ownership not forced: user=%q type=%q", i, h.UserID, h.Type)
		}
	}
}

func TestListHighlightsFilterPredicates(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	_, err := c.ListHighlights(context.Background(), auth, HighlightFilter{
		Type:      HighlightTypeEvent,
		StartDate: "2026-02-01",
		EndDate:   "2026-02-28",
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	checks := map[string]string{
		"user_id":    "eq.u1",
		"type":       "eq.ai_event_highlight",
		"start_time": "gte.2026-02-01T00:00:00",
		"end_time":   "lte.2026-02-28T23:59:59",
		"order":      "start_time.asc",
	}
	for key, want := range checks {
		if got := gotQuery.Get(key); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestDeleteHighlightsScopesToOwner(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	if err := c.DeleteHighlights(context.Background(), auth, []string{"h1", "h2"}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := gotQuery.Get("id"); got != "in.(h1,h2)" {
		t.Fatalf("id predicate = %q", got)
	}
	if got := gotQuery.Get("user_id"); got != "eq.u1" {
		t.Fatalf("user_id predicate = %q", got)
	}
}

func TestClearHighlightsOptionalTypeScope(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	if err := c.ClearHighlights(context.Background(), auth, ""); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if gotQuery.Get("type") != "" {
		t.Fatalf("unscoped clear must not filter by type, got %q", gotQuery.Get("type"))
	}

	if err := c.ClearHighlights(context.Background(), auth, HighlightTypeTime); err != nil {
		t.Fatalf("scoped clear failed: %v", err)
	}
	if got := gotQuery.Get("type"); got != "eq.ai_time_highlight" {
		t.Fatalf("type predicate = %q", got)
	}
}

func TestSetHighlightVisibilityNoMatchIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	row, err := c.SetHighlightVisibility(context.Background(), auth, "missing", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row != nil {
		t.Fatalf("expected nil row, got %+v", row)
	}
}
