package tools

import "tempo/pkg/api"

// NewClientTools returns the schema-only tools that run in the browser.
// They are registered alongside the server tools so the model sees one
// flat tool list; the engine relays them instead of executing them.
func NewClientTools() []api.Tool {
	return []api.Tool{
		NewClientTool(
			"navigateToDate",
			"Move the calendar view to one or more dates. The browser changes the visible range; nothing is stored.",
			map[string]any{
				"dates": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string", "format": "date"},
					"maxItems":    14,
					"description": "Dates to bring into view (YYYY-MM-DD), at most 14",
				},
				"view": map[string]any{
					"type": "string", "enum": []string{"day", "week", "month"},
					"description": "Optional view mode to switch to",
				},
			},
			[]string{"dates"},
		),
		NewClientTool(
			"navigateToEvent",
			"Scroll the calendar view to a specific event and focus it.",
			map[string]any{
				"eventId": map[string]any{"type": "string", "description": "Event to focus (UUID)"},
			},
			[]string{"eventId"},
		),
	}
}
