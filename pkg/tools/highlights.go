package tools

import (
	"context"
	"fmt"

	"tempo/pkg/api"
	"tempo/pkg/store"
)

// defaultHighlightEmoji is used when the model supplies no icon.
const defaultHighlightEmoji = "✨"

// NewHighlightTools returns the server tools operating on the highlight
// annotation layer.
func NewHighlightTools(st *store.Client) []api.Tool {
	return []api.Tool{
		newCreateEventHighlights(st),
		newCreateTimeHighlights(st),
		newListHighlights(st),
		newClearHighlights(st),
		newSetHighlightVisibility(st),
	}
}

// highlightTypeFromArg maps the short tool-facing type names onto the
// stored discriminator values. An empty value means no type filter; any
// other unknown value is an error so a typo never widens a query or a
// delete to every type.
func highlightTypeFromArg(v string) (string, error) {
	switch v {
	case "":
		return "", nil
	case "event":
		return store.HighlightTypeEvent, nil
	case "time":
		return store.HighlightTypeTime, nil
	default:
		return "", fmt.Errorf("unknown highlight type %q", v)
	}
}

func newCreateEventHighlights(st *store.Client) api.Tool {
	return NewServerTool(
		"createEventHighlights",
		"Highlight one or more calendar events. Re-highlighting an already highlighted event updates its icon and message instead of adding a duplicate. Event ids that do not resolve are skipped.",
		map[string]any{
			"eventIds": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Events to highlight (UUIDs)",
			},
			"emoji":   map[string]any{"type": "string", "description": "Icon shown on the highlight"},
			"title":   map[string]any{"type": "string", "description": "Short label"},
			"message": map[string]any{"type": "string", "description": "Explanation shown to the user"},
		},
		[]string{"eventIds"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			eventIDs := argStringSlice(args, "eventIds")
			if len(eventIDs) == 0 {
				return api.FailResult("At least one event id is required")
			}

			emoji := argString(args, "emoji")
			if emoji == "" {
				emoji = defaultHighlightEmoji
			}
			title := argString(args, "title")
			message := argString(args, "message")

			var (
				written []store.Highlight
				errs    []string
			)
			for _, id := range eventIDs {
				ev, err := st.GetEvent(ctx, auth, id)
				if err != nil {
					errs = append(errs, fmt.Sprintf("%s: %v", id, err))
					continue
				}
				if ev == nil {
					// Unresolvable ids are dropped without surfacing an
					// error; the result count tells the model how many
					// highlights actually landed.
					continue
				}

				row, err := st.UpsertEventHighlight(ctx, auth, store.Highlight{
					EventID:   ev.ID,
					StartTime: ev.StartTime,
					EndTime:   ev.EndTime,
					EmojiIcon: emoji,
					Title:     title,
					Message:   message,
					Visible:   true,
				})
				if err != nil {
					errs = append(errs, fmt.Sprintf("%s: %v", id, err))
					continue
				}
				written = append(written, *row)
			}

			if len(written) == 0 {
				res := api.FailResult("No highlights were created")
				res.Errors = errs
				return res
			}
			return &api.ToolResult{
				Success: true,
				Data:    written,
				Count:   len(written),
				Errors:  errs,
				Message: fmt.Sprintf("Highlighted %d events", len(written)),
			}
		},
	)
}

func newCreateTimeHighlights(st *store.Client) api.Tool {
	return NewServerTool(
		"createTimeHighlights",
		"Highlight one or more arbitrary time ranges on the calendar. Every call adds new highlights; nothing is deduplicated.",
		map[string]any{
			"highlights": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"startTime": map[string]any{"type": "string", "format": "date-time"},
						"endTime":   map[string]any{"type": "string", "format": "date-time"},
						"emoji":     map[string]any{"type": "string"},
						"title":     map[string]any{"type": "string"},
						"message":   map[string]any{"type": "string"},
					},
					"required": []string{"startTime", "endTime"},
				},
				"description": "Time ranges to highlight",
			},
		},
		[]string{"highlights"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			entries := argObjectSlice(args, "highlights")
			if len(entries) == 0 {
				return api.FailResult("At least one highlight is required")
			}

			rows := make([]store.Highlight, 0, len(entries))
			for i, entry := range entries {
				start, err := ParseTimestamp(argString(entry, "startTime"))
				if err != nil {
					return api.FailResult(fmt.Sprintf("highlight %d: %v", i+1, err))
				}
				end, err := ParseTimestamp(argString(entry, "endTime"))
				if err != nil {
					return api.FailResult(fmt.Sprintf("highlight %d: %v", i+1, err))
				}
				if !end.After(start) {
					return api.FailResult(fmt.Sprintf("highlight %d: end time must be after start time", i+1))
				}

				emoji := argString(entry, "emoji")
				if emoji == "" {
					emoji = defaultHighlightEmoji
				}
				rows = append(rows, store.Highlight{
					StartTime: FormatTimestamp(start),
					EndTime:   FormatTimestamp(end),
					EmojiIcon: emoji,
					Title:     argString(entry, "title"),
					Message:   argString(entry, "message"),
					Visible:   true,
				})
			}

			created, err := st.InsertTimeHighlights(ctx, auth, rows)
			if err != nil {
				return api.FailResult(err.Error())
			}
			return &api.ToolResult{
				Success: true,
				Data:    created,
				Count:   len(created),
				Message: fmt.Sprintf("Created %d time highlights", len(created)),
			}
		},
	)
}

func newListHighlights(st *store.Client) api.Tool {
	return NewServerTool(
		"listHighlights",
		"List the user's highlights, optionally filtered by kind and date range. Results are ordered by start time.",
		map[string]any{
			"type": map[string]any{
				"type": "string", "enum": []string{"event", "time"},
				"description": "Restrict to one highlight kind",
			},
			"startDate": map[string]any{
				"type": "string", "format": "date",
				"description": "Earliest start date to include (YYYY-MM-DD)",
			},
			"endDate": map[string]any{
				"type": "string", "format": "date",
				"description": "Latest end date to include (YYYY-MM-DD)",
			},
		},
		nil,
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			kind, err := highlightTypeFromArg(argString(args, "type"))
			if err != nil {
				return api.FailResult(err.Error())
			}
			rows, err := st.ListHighlights(ctx, auth, store.HighlightFilter{
				Type:      kind,
				StartDate: argString(args, "startDate"),
				EndDate:   argString(args, "endDate"),
			})
			if err != nil {
				return api.FailResult(err.Error())
			}
			return &api.ToolResult{
				Success: true,
				Data:    rows,
				Count:   len(rows),
				Message: fmt.Sprintf("Found %d highlights", len(rows)),
			}
		},
	)
}

func newClearHighlights(st *store.Client) api.Tool {
	return NewServerTool(
		"clearHighlights",
		"Remove highlights: either a specific id list or everything, optionally scoped to one kind.",
		map[string]any{
			"highlightIds": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Specific highlights to delete (UUIDs)",
			},
			"clearAll": map[string]any{
				"type": "boolean", "description": "Delete all of the user's highlights",
			},
			"clearType": map[string]any{
				"type": "string", "enum": []string{"event", "time"},
				"description": "With clearAll, restrict to one highlight kind",
			},
		},
		nil,
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			ids := argStringSlice(args, "highlightIds")
			clearAll, _ := argBool(args, "clearAll")

			switch {
			case len(ids) > 0:
				if err := st.DeleteHighlights(ctx, auth, ids); err != nil {
					return api.FailResult(err.Error())
				}
				return api.OkResult(fmt.Sprintf("Deleted %d highlights", len(ids)))
			case clearAll:
				kind, err := highlightTypeFromArg(argString(args, "clearType"))
				if err != nil {
					return api.FailResult(err.Error())
				}
				if err := st.ClearHighlights(ctx, auth, kind); err != nil {
					return api.FailResult(err.Error())
				}
				return api.OkResult("Cleared highlights")
			default:
				return api.FailResult("Must provide either highlightIds or clearAll")
			}
		},
	)
}

func newSetHighlightVisibility(st *store.Client) api.Tool {
	return NewServerTool(
		"setHighlightVisibility",
		"Show or hide a highlight without deleting it.",
		map[string]any{
			"highlightId": map[string]any{"type": "string", "description": "Highlight to change (UUID)"},
			"visible":     map[string]any{"type": "boolean", "description": "New visibility"},
		},
		[]string{"highlightId", "visible"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			visible, _ := argBool(args, "visible")
			row, err := st.SetHighlightVisibility(ctx, auth, argString(args, "highlightId"), visible)
			if err != nil {
				return api.FailResult(err.Error())
			}
			if row == nil {
				return api.FailResult("Highlight not found")
			}
			state := "hidden"
			if visible {
				state = "visible"
			}
			return &api.ToolResult{
				Success: true,
				Data:    row,
				Message: fmt.Sprintf("Highlight is now %s", state),
			}
		},
	)
}
