package store

import (
	"context"
	"fmt"

	"tempo/pkg/api"
)

// eventHighlightConflictKey is the composite uniqueness key for event
// highlights: at most one event highlight per (user, event, type) tuple.
const eventHighlightConflictKey = "user_id,event_id,type"

// HighlightFilter narrows a highlight listing.
type HighlightFilter struct {
	Type      string // full discriminator value, or "" for both shapes
	StartDate string // YYYY-MM-DD lower bound on start_time
	EndDate   string // YYYY-MM-DD upper bound on end_time
}

// ListHighlights returns the caller's highlights matching the filter,
// ordered by start time ascending.
func (c *Client) ListHighlights(ctx context.Context, auth api.AuthContext, f HighlightFilter) ([]Highlight, error) {
	q := NewQuery().Eq("user_id", auth.UserID).OrderAsc("start_time")
	if f.Type != "" {
		q.Eq("type", f.Type)
	}
	if f.StartDate != "" {
		q.Gte("start_time", f.StartDate+"T00:00:00")
	}
	if f.EndDate != "" {
		q.Lte("end_time", f.EndDate+"T23:59:59")
	}

	var rows []Highlight
	if err := c.Select(ctx, auth, TableHighlights, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertEventHighlight writes one event highlight, updating in place when
// a row with the same (user_id, event_id, type) already exists. The latest
// call's display metadata wins.
func (c *Client) UpsertEventHighlight(ctx context.Context, auth api.AuthContext, h Highlight) (*Highlight, error) {
	h.UserID = auth.UserID
	h.Type = HighlightTypeEvent

	var rows []Highlight
	if err := c.Upsert(ctx, auth, TableHighlights, eventHighlightConflictKey, h, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("upsert returned no highlight row")
	}
	return &rows[0], nil
}

// InsertTimeHighlights appends time highlights. No uniqueness applies:
// every call creates new rows; dedup is the caller's concern.
func (c *Client) InsertTimeHighlights(ctx context.Context, auth api.AuthContext, hs []Highlight) ([]Highlight, error) {
	for i := range hs {
		hs[i].UserID = auth.UserID
		hs[i].Type = HighlightTypeTime
	}

	var rows []Highlight
	if err := c.Insert(ctx, auth, TableHighlights, hs, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteHighlights removes the named rows. Authorization is the
// intersection with the caller's user_id, not a separate check.
func (c *Client) DeleteHighlights(ctx context.Context, auth api.AuthContext, ids []string) error {
	q := NewQuery().In("id", ids).Eq("user_id", auth.UserID)
	return c.Delete(ctx, auth, TableHighlights, q)
}

// ClearHighlights bulk-deletes the caller's highlights, optionally scoped
// to one type discriminator.
func (c *Client) ClearHighlights(ctx context.Context, auth api.AuthContext, clearType string) error {
	q := NewQuery().Eq("user_id", auth.UserID)
	if clearType != "" {
		q.Eq("type", clearType)
	}
	return c.Delete(ctx, auth, TableHighlights, q)
}

// SetHighlightVisibility flips the soft-hide flag on one owned highlight.
// Hidden rows stay in place and can be made visible again; deletion is the
// separate, terminal operation.
func (c *Client) SetHighlightVisibility(ctx context.Context, auth api.AuthContext, id string, visible bool) (*Highlight, error) {
	q := NewQuery().Eq("id", id).Eq("user_id", auth.UserID)

	var rows []Highlight
	if err := c.Update(ctx, auth, TableHighlights, q, map[string]any{"visible": visible}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
