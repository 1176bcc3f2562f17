package store

import (
	"context"
	"fmt"

	"tempo/pkg/api"
)

// EventFilter narrows an event listing. Zero values mean "no predicate".
// Dates are YYYY-MM-DD and expand to whole-day bounds on start_time.
type EventFilter struct {
	StartDate  string
	EndDate    string
	CalendarID string
	CategoryID string
}

// ListEvents returns the caller's events matching the filter, ordered by
// start time ascending.
func (c *Client) ListEvents(ctx context.Context, auth api.AuthContext, f EventFilter) ([]Event, error) {
	q := NewQuery().Eq("user_id", auth.UserID).OrderAsc("start_time")
	if f.StartDate != "" {
		q.Gte("start_time", f.StartDate+"T00:00:00")
	}
	if f.EndDate != "" {
		q.Lte("start_time", f.EndDate+"T23:59:59")
	}
	if f.CalendarID != "" {
		q.Eq("calendar_id", f.CalendarID)
	}
	if f.CategoryID != "" {
		q.Eq("category_id", f.CategoryID)
	}

	var rows []Event
	if err := c.Select(ctx, auth, TableEvents, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetEvent fetches a single event by id, scoped to the caller. A row that
// is absent or not owned yields the same "not found" answer; existence is
// not leaked.
func (c *Client) GetEvent(ctx context.Context, auth api.AuthContext, id string) (*Event, error) {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID).Limit(1)

	var rows []Event
	if err := c.Select(ctx, auth, TableEvents, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// InsertEvent creates an event and returns the stored row.
func (c *Client) InsertEvent(ctx context.Context, auth api.AuthContext, ev Event) (*Event, error) {
	ev.UserID = auth.UserID

	var rows []Event
	if err := c.Insert(ctx, auth, TableEvents, ev, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert returned no event row")
	}
	return &rows[0], nil
}

// UpdateEvent patches the given fields on one owned event and returns the
// updated row, or nil when no row matched.
func (c *Client) UpdateEvent(ctx context.Context, auth api.AuthContext, id string, patch map[string]any) (*Event, error) {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID)

	var rows []Event
	if err := c.Update(ctx, auth, TableEvents, q, patch, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// DeleteEvent removes one owned event.
func (c *Client) DeleteEvent(ctx context.Context, auth api.AuthContext, id string) error {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID)
	return c.Delete(ctx, auth, TableEvents, q)
}
