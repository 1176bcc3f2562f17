// Package store speaks the PostgREST-style REST interface of the calendar
// data store (Supabase). Filters are composed as query-string predicates
// (field=op.value); mutations ask for the affected rows back via the
// Prefer header. Every request carries the public apikey header plus a
// caller-scoped bearer token - row-level security on the other side does
// the actual enforcement, the client just never sends a request without
// credentials.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"tempo/pkg/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoAuth is returned before any network activity when the call carries
// no bearer token.
var ErrNoAuth = errors.New("authentication required")

// UpstreamError captures a non-2xx answer from the data store. The status
// and body travel back into the tool result verbatim; there is no retry.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("store request failed: %d %s", e.Status, e.Body)
}

// Prefer header values used on mutating requests.
const (
	preferRepresentation = "return=representation"
	preferUpsert         = "resolution=merge-duplicates,return=representation"
)

// Client is a thin PostgREST client bound to one base URL and public key.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a store client for the given PostgREST root
// (e.g. https://xyz.supabase.co/rest/v1).
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

//----------------------------------------------------------------
// Query - predicate composition
//----------------------------------------------------------------

// Query accumulates PostgREST query-string predicates.
type Query struct {
	values url.Values
}

func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Eq adds field=eq.value.
func (q *Query) Eq(field, value string) *Query {
	q.values.Add(field, "eq."+value)
	return q
}

// Gte adds field=gte.value.
func (q *Query) Gte(field, value string) *Query {
	q.values.Add(field, "gte."+value)
	return q
}

// Lte adds field=lte.value.
func (q *Query) Lte(field, value string) *Query {
	q.values.Add(field, "lte."+value)
	return q
}

// In adds field=in.(a,b,c).
func (q *Query) In(field string, values []string) *Query {
	q.values.Add(field, "in.("+strings.Join(values, ",")+")")
	return q
}

// OrderAsc adds order=field.asc. Listing tools always order by a stable
// column ascending.
func (q *Query) OrderAsc(field string) *Query {
	q.values.Set("order", field+".asc")
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.values.Set("limit", strconv.Itoa(n))
	return q
}

// OnConflict names the composite uniqueness key for an upsert.
func (q *Query) OnConflict(columns string) *Query {
	q.values.Set("on_conflict", columns)
	return q
}

// Encode renders the accumulated predicates.
func (q *Query) Encode() string {
	return q.values.Encode()
}

//----------------------------------------------------------------
// HTTP round trips
//----------------------------------------------------------------

// do performs one request and returns the raw response body. auth is
// threaded in per call; there is no ambient credential state.
func (c *Client) do(ctx context.Context, auth api.AuthContext, method, table string, q *Query, body any, prefer string) ([]byte, error) {
	if !auth.Valid() {
		return nil, ErrNoAuth
	}

	endpoint := c.baseURL + "/" + table
	if q != nil {
		if enc := q.Encode(); enc != "" {
			endpoint += "?" + enc
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+auth.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read store response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// Select runs a GET and decodes the row array into out.
func (c *Client) Select(ctx context.Context, auth api.AuthContext, table string, q *Query, out any) error {
	data, err := c.do(ctx, auth, http.MethodGet, table, q, nil, "")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}

// Insert runs a POST with return=representation and decodes the echoed
// rows into out when non-nil.
func (c *Client) Insert(ctx context.Context, auth api.AuthContext, table string, body any, out any) error {
	return c.mutate(ctx, auth, http.MethodPost, table, nil, body, preferRepresentation, out)
}

// Upsert runs a POST resolving conflicts on the given composite key:
// an existing row with the same key is updated in place.
func (c *Client) Upsert(ctx context.Context, auth api.AuthContext, table, conflictColumns string, body any, out any) error {
	q := NewQuery().OnConflict(conflictColumns)
	return c.mutate(ctx, auth, http.MethodPost, table, q, body, preferUpsert, out)
}

// Update runs a PATCH against the rows matched by q.
func (c *Client) Update(ctx context.Context, auth api.AuthContext, table string, q *Query, body any, out any) error {
	return c.mutate(ctx, auth, http.MethodPatch, table, q, body, preferRepresentation, out)
}

// Delete removes the rows matched by q.
func (c *Client) Delete(ctx context.Context, auth api.AuthContext, table string, q *Query) error {
	_, err := c.do(ctx, auth, http.MethodDelete, table, q, nil, "")
	return err
}

func (c *Client) mutate(ctx context.Context, auth api.AuthContext, method, table string, q *Query, body any, prefer string, out any) error {
	data, err := c.do(ctx, auth, method, table, q, body, prefer)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}
