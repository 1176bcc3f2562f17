package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"tempo/pkg/api"
)

func TestDoRejectsMissingAuthBeforeNetwork(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	err := c.Select(context.Background(), api.AuthContext{}, TableEvents, nil, nil)
	if !errors.Is(err, ErrNoAuth) {
		t.Fatalf("expected ErrNoAuth, got %v", err)
	}
	if hit {
		t.Fatalf("request reached the server despite missing credentials")
	}
}

func TestDoSendsCredentialHeaders(t *testing.T) {
	var gotAPIKey, gotAuth, gotPrefer, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotPrefer = r.Header.Get("Prefer")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key")
	auth := api.AuthContext{Token: "user-token", UserID: "u1"}

	var out []Event
	if err := c.Insert(context.Background(), auth, TableEvents, Event{Title: "x"}, &out); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if gotAPIKey != "anon-key" {
		t.Fatalf("apikey header = %q", gotAPIKey)
	}
	if gotAuth != "Bearer user-token" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotPrefer != "return=representation" {
		t.Fatalf("prefer header = %q", gotPrefer)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content-type header = %q", gotContentType)
	}
}

func TestQueryEncoding(t *testing.T) {
	q := NewQuery().
		Eq("user_id", "u1").
		Gte("start_time", "2026-01-01T00:00:00").
		Lte("start_time", "2026-01-31T23:59:59").
		In("id", []string{"a", "b", "c"}).
		OrderAsc("start_time").
		Limit(5)

	values, err := url.ParseQuery(q.Encode())
	if err != nil {
		t.Fatalf("encoded query does not parse: %v", err)
	}

	checks := map[string]string{
		"user_id": "eq.u1",
		"id":      "in.(a,b,c)",
		"order":   "start_time.asc",
		"limit":   "5",
	}
	for key, want := range checks {
		if got := values.Get(key); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
	times := values["start_time"]
	if len(times) != 2 || times[0] != "gte.2026-01-01T00:00:00" || times[1] != "lte.2026-01-31T23:59:59" {
		t.Fatalf("start_time predicates = %v", times)
	}
}

func TestUpstreamErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate key"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	err := c.Insert(context.Background(), auth, TableCalendars, Calendar{Name: "Work"}, nil)
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Status != http.StatusConflict {
		t.Fatalf("status = %d", upErr.Status)
	}
	if upErr.Body != `{"message":"duplicate key"}` {
		t.Fatalf("body = %q", upErr.Body)
	}
}

func TestDeleteCalendarGuardsDefaultInPredicate(t *testing.T) {
	var gotQuery url.Values
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	if err := c.DeleteCalendar(context.Background(), auth, "cal-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("method = %s", gotMethod)
	}
	if got := gotQuery.Get("is_default"); got != "eq.false" {
		t.Fatalf("is_default predicate = %q, want eq.false", got)
	}
	if got := gotQuery.Get("user_id"); got != "eq.u1" {
		t.Fatalf("user_id predicate = %q", got)
	}
}

func TestGetEventNotFoundIsNilNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	auth := api.AuthContext{Token: "t", UserID: "u1"}

	ev, err := c.GetEvent(context.Background(), auth, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatalf("expected nil event, got %+v", ev)
	}
}
