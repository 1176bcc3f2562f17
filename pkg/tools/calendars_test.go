package tools

import (
	"context"
	"net/http"
	"testing"

	"tempo/pkg/api"
)

func TestServerToolsRequireAuthentication(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unauthenticated call reached the store")
	})

	tool := findTool(t, NewCalendarTools(st), "getUserCalendars")
	res := tool.Execute(context.Background(), api.AuthContext{}, map[string]any{})
	if res.Success {
		t.Fatalf("expected failure without credentials")
	}
	if res.Error != "Authentication required" {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestCreateUserCalendarRejectsBlankName(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("invalid input reached the store")
	})

	tool := findTool(t, NewCalendarTools(st), "createUserCalendar")
	res := tool.Execute(context.Background(), testAuth, map[string]any{"name": "   "})
	if res.Success || res.Error != "Calendar name is required" {
		t.Fatalf("result = %+v", res)
	}
}

func TestDeleteUserCalendarGuardsDefault(t *testing.T) {
	deleteSeen := false
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleteSeen = true
			return
		}
		w.Write([]byte(`[{"id":"cal-1","name":"Personal","is_default":true}]`))
	})

	tool := findTool(t, NewCalendarTools(st), "deleteUserCalendar")
	res := tool.Execute(context.Background(), testAuth, map[string]any{"calendarId": "cal-1"})
	if res.Success || res.Error != "Cannot delete the default calendar" {
		t.Fatalf("result = %+v", res)
	}
	if deleteSeen {
		t.Fatalf("delete request was issued for the default calendar")
	}
}

func TestDeleteUserCalendarMissingRow(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	tool := findTool(t, NewCalendarTools(st), "deleteUserCalendar")
	res := tool.Execute(context.Background(), testAuth, map[string]any{"calendarId": "ghost"})
	if res.Success || res.Error != "Calendar not found" {
		t.Fatalf("result = %+v", res)
	}
}

func TestDeleteUserCategoryGuardsDefault(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			t.Fatalf("delete request was issued for the default category")
			return
		}
		w.Write([]byte(`[{"id":"cat-1","name":"General","is_default":true}]`))
	})

	tool := findTool(t, NewCategoryTools(st), "deleteEventCategory")
	res := tool.Execute(context.Background(), testAuth, map[string]any{"categoryId": "cat-1"})
	if res.Success || res.Error != "Cannot delete the default category" {
		t.Fatalf("result = %+v", res)
	}
}

func TestUpdateUserCalendarEmptyPatch(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("empty patch reached the store")
	})

	tool := findTool(t, NewCalendarTools(st), "updateUserCalendar")
	res := tool.Execute(context.Background(), testAuth, map[string]any{"calendarId": "cal-1"})
	if res.Success || res.Error != "No fields to update" {
		t.Fatalf("result = %+v", res)
	}
}
