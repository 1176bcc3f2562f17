package tools

import (
	"context"
	"io"
	"net/http"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"tempo/pkg/grid"
	"tempo/pkg/store"
)

func TestCreateCalendarEventRejectsBadRanges(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("invalid input reached the store")
	})
	tool := findTool(t, NewEventTools(st, grid.Geometry{}), "createCalendarEvent")

	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"title":     "",
		"startTime": "2026-02-01T09:00:00",
		"endTime":   "2026-02-01T10:00:00",
	})
	if res.Success || res.Error != "Event title is required" {
		t.Fatalf("result = %+v", res)
	}

	res = tool.Execute(context.Background(), testAuth, map[string]any{
		"title":     "Standup",
		"startTime": "2026-02-01T10:00:00",
		"endTime":   "2026-02-01T10:00:00",
	})
	if res.Success || res.Error != "Event end time must be after start time" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCreateCalendarEventSnapsToGrid(t *testing.T) {
	var gotBody store.Event
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &gotBody)
		w.Write([]byte(`[{"id":"e1","title":"Standup","start_time":"2026-02-01T09:00:00","end_time":"2026-02-01T09:45:00"}]`))
	})

	geo := grid.Geometry{DayStartHour: 0, DayEndHour: 24, PixelsPerHour: 60, SnapMinutes: 15}
	tool := findTool(t, NewEventTools(st, geo), "createCalendarEvent")

	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"title":     "Standup",
		"startTime": "2026-02-01T09:07:00",
		"endTime":   "2026-02-01T09:52:00",
	})
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if gotBody.StartTime != "2026-02-01T09:00:00" {
		t.Fatalf("start_time = %q", gotBody.StartTime)
	}
	if gotBody.EndTime != "2026-02-01T09:45:00" {
		t.Fatalf("end_time = %q", gotBody.EndTime)
	}
}

func TestUpdateCalendarEventEmptyPatch(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("empty patch reached the store")
	})

	tool := findTool(t, NewEventTools(st, grid.Geometry{}), "updateCalendarEvent")
	res := tool.Execute(context.Background(), testAuth, map[string]any{"eventId": "e1"})
	if res.Success || res.Error != "No fields to update" {
		t.Fatalf("result = %+v", res)
	}
}

func TestUpdateCalendarEventNotFound(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	tool := findTool(t, NewEventTools(st, grid.Geometry{}), "updateCalendarEvent")
	res := tool.Execute(context.Background(), testAuth, map[string]any{
		"eventId": "ghost", "title": "Renamed",
	})
	if res.Success || res.Error != "Event not found" {
		t.Fatalf("result = %+v", res)
	}
}

func TestGetCalendarEventsInvalidDateFails(t *testing.T) {
	st := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("invalid input reached the store")
	})

	tool := findTool(t, NewEventTools(st, grid.Geometry{}), "getCalendarEvents")
	res := tool.Execute(context.Background(), testAuth, map[string]any{"startDate": "Feb 1"})
	if res.Success {
		t.Fatalf("malformed date accepted: %+v", res)
	}
}
