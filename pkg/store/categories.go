package store

import (
	"context"
	"fmt"

	"tempo/pkg/api"
)

// ListCategories returns the caller's categories ordered by creation time.
func (c *Client) ListCategories(ctx context.Context, auth api.AuthContext) ([]Category, error) {
	q := NewQuery().Eq("user_id", auth.UserID).OrderAsc("created_at")

	var rows []Category
	if err := c.Select(ctx, auth, TableCategories, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetCategory fetches one owned category, nil when absent or not owned.
func (c *Client) GetCategory(ctx context.Context, auth api.AuthContext, id string) (*Category, error) {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID).Limit(1)

	var rows []Category
	if err := c.Select(ctx, auth, TableCategories, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// InsertCategory creates a category and returns the stored row.
func (c *Client) InsertCategory(ctx context.Context, auth api.AuthContext, cat Category) (*Category, error) {
	cat.UserID = auth.UserID

	var rows []Category
	if err := c.Insert(ctx, auth, TableCategories, cat, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert returned no category row")
	}
	return &rows[0], nil
}

// UpdateCategory patches one owned category, nil when no row matched.
func (c *Client) UpdateCategory(ctx context.Context, auth api.AuthContext, id string, patch map[string]any) (*Category, error) {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID)

	var rows []Category
	if err := c.Update(ctx, auth, TableCategories, q, patch, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// DeleteCategory removes one owned, non-default category with the same
// race-closing predicate as DeleteCalendar.
func (c *Client) DeleteCategory(ctx context.Context, auth api.AuthContext, id string) error {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID).Eq("is_default", "false")
	return c.Delete(ctx, auth, TableCategories, q)
}
