package store

import (
	"context"
	"fmt"

	"tempo/pkg/api"
)

// ListCalendars returns the caller's calendars ordered by creation time.
func (c *Client) ListCalendars(ctx context.Context, auth api.AuthContext) ([]Calendar, error) {
	q := NewQuery().Eq("user_id", auth.UserID).OrderAsc("created_at")

	var rows []Calendar
	if err := c.Select(ctx, auth, TableCalendars, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetCalendar fetches one owned calendar, nil when absent or not owned.
func (c *Client) GetCalendar(ctx context.Context, auth api.AuthContext, id string) (*Calendar, error) {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID).Limit(1)

	var rows []Calendar
	if err := c.Select(ctx, auth, TableCalendars, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// InsertCalendar creates a calendar and returns the stored row.
func (c *Client) InsertCalendar(ctx context.Context, auth api.AuthContext, cal Calendar) (*Calendar, error) {
	cal.UserID = auth.UserID

	var rows []Calendar
	if err := c.Insert(ctx, auth, TableCalendars, cal, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert returned no calendar row")
	}
	return &rows[0], nil
}

// UpdateCalendar patches one owned calendar, nil when no row matched.
func (c *Client) UpdateCalendar(ctx context.Context, auth api.AuthContext, id string, patch map[string]any) (*Calendar, error) {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID)

	var rows []Calendar
	if err := c.Update(ctx, auth, TableCalendars, q, patch, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// DeleteCalendar removes one owned, non-default calendar. The
// is_default=eq.false predicate rides along in the WHERE clause, so even a
// racing default flip cannot delete the default row.
func (c *Client) DeleteCalendar(ctx context.Context, auth api.AuthContext, id string) error {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID).Eq("is_default", "false")
	return c.Delete(ctx, auth, TableCalendars, q)
}
