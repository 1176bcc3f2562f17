package tools

import (
	"context"
	"fmt"
	"strings"

	"tempo/pkg/api"
	"tempo/pkg/store"
)

// NewCategoryTools returns the server tools operating on event categories.
func NewCategoryTools(st *store.Client) []api.Tool {
	return []api.Tool{
		newGetEventCategories(st),
		newCreateEventCategory(st),
		newUpdateEventCategory(st),
		newDeleteEventCategory(st),
	}
}

func newGetEventCategories(st *store.Client) api.Tool {
	return NewServerTool(
		"getEventCategories",
		"List the user's event categories.",
		map[string]any{},
		nil,
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			categories, err := st.ListCategories(ctx, auth)
			if err != nil {
				return api.FailResult(err.Error())
			}
			return &api.ToolResult{
				Success: true,
				Data:    categories,
				Count:   len(categories),
				Message: fmt.Sprintf("Found %d categories", len(categories)),
			}
		},
	)
}

func newCreateEventCategory(st *store.Client) api.Tool {
	return NewServerTool(
		"createEventCategory",
		"Create a new event category for the user.",
		map[string]any{
			"name":  map[string]any{"type": "string", "description": "Category name"},
			"color": map[string]any{"type": "string", "description": "Display color (hex)"},
		},
		[]string{"name"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			name := strings.TrimSpace(argString(args, "name"))
			if name == "" {
				return api.FailResult("Category name is required")
			}

			created, err := st.InsertCategory(ctx, auth, store.Category{
				Name:  name,
				Color: argString(args, "color"),
			})
			if err != nil {
				return api.FailResult(err.Error())
			}
			return &api.ToolResult{
				Success: true,
				Data:    created,
				Message: fmt.Sprintf("Created category %q", created.Name),
			}
		},
	)
}

func newUpdateEventCategory(st *store.Client) api.Tool {
	return NewServerTool(
		"updateEventCategory",
		"Rename or recolor one of the user's event categories.",
		map[string]any{
			"categoryId": map[string]any{"type": "string", "description": "Category to update (UUID)"},
			"name":       map[string]any{"type": "string", "description": "New name"},
			"color":      map[string]any{"type": "string", "description": "New display color (hex)"},
		},
		[]string{"categoryId"},
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

			updated, err := st.UpdateCategory(ctx, auth, argString(args, "categoryId"), patch)
			if err != nil {
				return api.FailResult(err.Error())
			}
			if updated == nil {
				return api.FailResult("Category not found")
			}
			return &api.ToolResult{
				Success: true,
				Data:    updated,
				Message: fmt.Sprintf("Updated category %q", updated.Name),
			}
		},
	)
}

func newDeleteEventCategory(st *store.Client) api.Tool {
	return NewServerTool(
		"deleteEventCategory",
		"Delete one of the user's event categories. The default category cannot be deleted.",
		map[string]any{
			"categoryId": map[string]any{"type": "string", "description": "Category to delete (UUID)"},
		},
		[]string{"categoryId"},
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			id := argString(args, "categoryId")

			cat, err := st.GetCategory(ctx, auth, id)
			if err != nil {
				return api.FailResult(err.Error())
			}
			if cat == nil {
				return api.FailResult("Category not found")
			}
			if cat.IsDefault {
				return api.FailResult("Cannot delete the default category")
			}

			if err := st.DeleteCategory(ctx, auth, id); err != nil {
				return api.FailResult(err.Error())
			}
			return api.OkResult(fmt.Sprintf("Deleted category %q", cat.Name))
		},
	)
}
