package tools

import (
	"context"
	"fmt"
	"strings"

	"tempo/pkg/api"
	"tempo/pkg/store"
)

// NewCalendarTools returns the server tools operating on user calendars.
func NewCalendarTools(st *store.Client) []api.Tool {
	return []api.Tool{
		newGetUserCalendars(st),
		newCreateUserCalendar(st),
		newUpdateUserCalendar(st),
		newDeleteUserCalendar(st),
	}
}

func newGetUserCalendars(st *store.Client) api.Tool {
	return NewServerTool(
		"getUserCalendars",
		"List the user's calendars.",
		map[string]any{},
		nil,
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			calendars, err := st.ListCalendars(ctx, auth)
			if err != nil {
				return api.FailResult(err.Error())
			}
			return &api.ToolResult{
				Success: true,
				Data:    calendars,
				Count:   len(calendars),
				Message: fmt.Sprintf("Found %d calendars", len(calendars)),
			}
		},
	)
}

func newCreateUserCalendar(st *store.Client) api.Tool {
	return NewServerTool(
		"createUserCalendar",
		"Create a new calendar for the user.",
		map[string]any{
			"name":  map[string]any{"type": "string", "description": "Calendar name"},
			"color": map[string]any{"type": "string", "description": "Display color (hex)"},
		},
		[]string{"name"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			name := strings.TrimSpace(argString(args, "name"))
			if name == "" {
				return api.FailResult("Calendar name is required")
			}

			created, err := st.InsertCalendar(ctx, auth, store.Calendar{
				Name:  name,
				Color: argString(args, "color"),
			})
			if err != nil {
				return api.FailResult(err.Error())
			}
			return &api.ToolResult{
				Success: true,
				Data:    created,
				Message: fmt.Sprintf("Created calendar %q", created.Name),
			}
		},
	)
}

func newUpdateUserCalendar(st *store.Client) api.Tool {
	return NewServerTool(
		"updateUserCalendar",
		"Rename or recolor one of the user's calendars.",
		map[string]any{
			"calendarId": map[string]any{"type": "string", "description": "Calendar to update (UUID)"},
			"name":       map[string]any{"type": "string", "description": "New name"},
			"color":      map[string]any{"type": "string", "description": "New display color (hex)"},
		},
		[]string{"calendarId"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			patch := map[string]any{}
			if v := strings.TrimSpace(argString(args, "name")); v != "" {
				patch["name"] = v
			}
			if v := argString(args, "color"); v != "" {
				patch["color"] = v
			}
			if len(patch) == 0 {
				return api.FailResult("No fields to update")
			}

			updated, err := st.UpdateCalendar(ctx, auth, argString(args, "calendarId"), patch)
			if err != nil {
				return api.FailResult(err.Error())
			}
			if updated == nil {
				return api.FailResult("Calendar not found")
			}
			return &api.ToolResult{
				Success: true,
				Data:    updated,
				Message: fmt.Sprintf("Updated calendar %q", updated.Name),
			}
		},
	)
}

func newDeleteUserCalendar(st *store.Client) api.Tool {
	return NewServerTool(
		"deleteUserCalendar",
		"Delete one of the user's calendars. The default calendar cannot be deleted.",
		map[string]any{
			"calendarId": map[string]any{"type": "string", "description": "Calendar to delete (UUID)"},
		},
		[]string{"calendarId"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			id := argString(args, "calendarId")

			cal, err := st.GetCalendar(ctx, auth, id)
			if err != nil {
				return api.FailResult(err.Error())
			}
			if cal == nil {
				return api.FailResult("Calendar not found")
			}
			if cal.IsDefault {
				return api.FailResult("Cannot delete the default calendar")
			}

			if err := st.DeleteCalendar(ctx, auth, id); err != nil {
				return api.FailResult(err.Error())
			}
			return api.OkResult(fmt.Sprintf("Deleted calendar %q", cal.Name))
		},
	)
}
