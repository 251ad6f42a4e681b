package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/batizy/chantierpro/internal/config"
)

// Error is a structured failure from the remote table API
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote: HTTP %d: %s", e.Status, e.Message)
}

// Client is a thin table-oriented client for the remote authority's REST API
// (PostgREST dialect under /rest/v1). It translates select/insert/update/
// delete calls into table operations; all mapping between domain shapes and
// wire rows is done by the callers.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the configured remote endpoint
func NewClient(cfg config.RemoteConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.AnonKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Query accumulates filters for a table operation
type Query struct {
	params url.Values
}

// NewQuery creates an empty query
func NewQuery() *Query {
	return &Query{params: url.Values{}}
}

// Eq adds an equality filter on a column
func (q *Query) Eq(column, value string) *Query {
	q.params.Set(column, "eq."+value)
	return q
}

// In adds a membership filter on a column
func (q *Query) In(column string, values []string) *Query {
	q.params.Set(column, "in.("+strings.Join(values, ",")+")")
	return q
}

// Order adds result ordering on a column
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

// Limit caps the number of returned rows
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

func (q *Query) encode() string {
	if q == nil {
		return ""
	}
	return q.params.Encode()
}

// Select fetches rows from a table into dest (a pointer to a slice of wire
// row structs with snake_case json tags).
func (c *Client) Select(ctx context.Context, table string, q *Query, dest interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, table, q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("remote: failed to decode %s rows: %w", table, err)
	}
	return nil
}

// Insert writes one row or a slice of rows into a table
func (c *Client) Insert(ctx context.Context, table string, rows interface{}) error {
	resp, err := c.do(ctx, http.MethodPost, table, nil, rows)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Update applies a sparse update to the rows matched by q. Only the keys
// present in values are sent, so unset fields are left untouched remotely.
func (c *Client) Update(ctx context.Context, table string, q *Query, values map[string]interface{}) error {
	resp, err := c.do(ctx, http.MethodPatch, table, q, values)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Delete removes the rows matched by q
func (c *Client) Delete(ctx context.Context, table string, q *Query) error {
	resp, err := c.do(ctx, http.MethodDelete, table, q, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Ping probes the REST root to check reachability of the remote authority
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "", nil, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// do performs one authenticated REST call and normalizes failures into *Error
func (c *Client) do(ctx context.Context, method, table string, q *Query, body interface{}) (*http.Response, error) {
	endpoint := c.baseURL + "/rest/v1/" + table
	if qs := q.encode(); qs != "" {
		endpoint += "?" + qs
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("remote: failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &Error{Status: resp.StatusCode, Message: string(msg)}
	}

	return resp, nil
}
