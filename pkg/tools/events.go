package tools

import (
	"context"
	"fmt"

	"tempo/pkg/api"
	"tempo/pkg/grid"
	"tempo/pkg/store"
)

// NewEventTools returns the server tools operating on calendar events.
// geo drives optional time snapping on mutations; a zero SnapMinutes
// leaves times untouched.
func NewEventTools(st *store.Client, geo grid.Geometry) []api.Tool {
	return []api.Tool{
		newGetCalendarEvents(st),
		newCreateCalendarEvent(st, geo),
		newUpdateCalendarEvent(st, geo),
		newDeleteCalendarEvent(st),
	}
}

func newGetCalendarEvents(st *store.Client) api.Tool {
	return NewServerTool(
		"getCalendarEvents",
		"List the user's calendar events, optionally filtered by date range, calendar, or category. Results are ordered by start time.",
		map[string]any{
			"startDate": map[string]any{
				"type": "string", "format": "date",
				"description": "Earliest event date to include (YYYY-MM-DD)",
			},
			"endDate": map[string]any{
				"type": "string", "format": "date",
				"description": "Latest event date to include (YYYY-MM-DD)",
			},
			"calendarId": map[string]any{
				"type": "string", "description": "Restrict to one calendar (UUID)",
			},
			"categoryId": map[string]any{
				"type": "string", "description": "Restrict to one category (UUID)",
			},
		},
		nil,
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			events, err := st.ListEvents(ctx, auth, store.EventFilter{
				StartDate:  argString(args, "startDate"),
				EndDate:    argString(args, "endDate"),
				CalendarID: argString(args, "calendarId"),
				CategoryID: argString(args, "categoryId"),
			})
			if err != nil {
				return api.FailResult(err.Error())
			}
			return &api.ToolResult{
				Success: true,
				Data:    events,
				Count:   len(events),
				Message: fmt.Sprintf("Found %d events", len(events)),
			}
		},
	)
}

func newCreateCalendarEvent(st *store.Client, geo grid.Geometry) api.Tool {
	return NewServerTool(
		"createCalendarEvent",
		"Create a calendar event. Times are ISO-8601; they are snapped to the calendar grid.",
		map[string]any{
			"title": map[string]any{"type": "string", "description": "Event title"},
			"startTime": map[string]any{
				"type": "string", "format": "date-time",
				"description": "Event start (ISO-8601)",
			},
			"endTime": map[string]any{
				"type": "string", "format": "date-time",
				"description": "Event end (ISO-8601)",
			},
			"description": map[string]any{"type": "string", "description": "Optional details"},
			"calendarId":  map[string]any{"type": "string", "description": "Target calendar (UUID)"},
			"categoryId":  map[string]any{"type": "string", "description": "Category (UUID)"},
			"allDay":      map[string]any{"type": "boolean", "description": "All-day event flag"},
		},
		[]string{"title", "startTime", "endTime"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			title := argString(args, "title")
			if title == "" {
				return api.FailResult("Event title is required")
			}

			start, err := ParseTimestamp(argString(args, "startTime"))
			if err != nil {
				return api.FailResult(err.Error())
			}
			end, err := ParseTimestamp(argString(args, "endTime"))
			if err != nil {
				return api.FailResult(err.Error())
			}
			if !end.After(start) {
				return api.FailResult("Event end time must be after start time")
			}
			start, end = geo.SnapRange(start, end)

			ev := store.Event{
				Title:       title,
				Description: argString(args, "description"),
				CalendarID:  argString(args, "calendarId"),
				CategoryID:  argString(args, "categoryId"),
				StartTime:   FormatTimestamp(start),
				EndTime:     FormatTimestamp(end),
			}
			if allDay, ok := argBool(args, "allDay"); ok {
				ev.AllDay = allDay
			}

			created, err := st.InsertEvent(ctx, auth, ev)
			if err != nil {
				return api.FailResult(err.Error())
			}
			return &api.ToolResult{
				Success: true,
				Data:    created,
				Message: fmt.Sprintf("Created event %q from %s to %s", created.Title, created.StartTime, created.EndTime),
			}
		},
	)
}

func newUpdateCalendarEvent(st *store.Client, geo grid.Geometry) api.Tool {
	return NewServerTool(
		"updateCalendarEvent",
		"Update fields of an existing calendar event. Only the provided fields change.",
		map[string]any{
			"eventId": map[string]any{"type": "string", "description": "Event to update (UUID)"},
			"title":   map[string]any{"type": "string", "description": "New title"},
			"startTime": map[string]any{
				"type": "string", "format": "date-time", "description": "New start (ISO-8601)",
			},
			"endTime": map[string]any{
				"type": "string", "format": "date-time", "description": "New end (ISO-8601)",
			},
			"description": map[string]any{"type": "string", "description": "New details"},
			"calendarId":  map[string]any{"type": "string", "description": "Move to calendar (UUID)"},
			"categoryId":  map[string]any{"type": "string", "description": "New category (UUID)"},
		},
		[]string{"eventId"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			patch := map[string]any{}
			for argName, column := range map[string]string{
				"title":       "title",
				"description": "description",
				"calendarId":  "calendar_id",
				"categoryId":  "category_id",
			} {
				if v := argString(args, argName); v != "" {
					patch[column] = v
				}
			}

			if v := argString(args, "startTime"); v != "" {
				t, err := ParseTimestamp(v)
				if err != nil {
					return api.FailResult(err.Error())
				}
				patch["start_time"] = FormatTimestamp(geo.Snap(t))
			}
			if v := argString(args, "endTime"); v != "" {
				t, err := ParseTimestamp(v)
				if err != nil {
					return api.FailResult(err.Error())
				}
				patch["end_time"] = FormatTimestamp(geo.Snap(t))
			}

			if len(patch) == 0 {
				return api.FailResult("No fields to update")
			}

			updated, err := st.UpdateEvent(ctx, auth, argString(args, "eventId"), patch)
			if err != nil {
				return api.FailResult(err.Error())
			}
			if updated == nil {
				return api.FailResult("Event not found")
			}
			return &api.ToolResult{
				Success: true,
				Data:    updated,
				Message: fmt.Sprintf("Updated event %q", updated.Title),
			}
		},
	)
}

func newDeleteCalendarEvent(st *store.Client) api.Tool {
	return NewServerTool(
		"deleteCalendarEvent",
		"Delete a calendar event.",
		map[string]any{
			"eventId": map[string]any{"type": "string", "description": "Event to delete (UUID)"},
		},
		[]string{"eventId"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			if err := st.DeleteEvent(ctx, auth, argString(args, "eventId")); err != nil {
				return api.FailResult(err.Error())
			}
			return api.OkResult("Event deleted")
		},
	)
}
