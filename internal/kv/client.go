// Package kv implements the HTTP client for a Sauropod-style key/value
// store: session establishment followed by GET/PUT/DELETE on per-user keys.
package kv

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Op identifies a store operation in results and metrics.
type Op string

const (
	OpSession Op = "session"
	OpGet     Op = "get"
	OpPut     Op = "put"
	OpDelete  Op = "delete"
)

// Result describes one completed (or failed) store operation.
type Result struct {
	Op         Op
	Key        string
	StatusCode int
	Value      []byte // response body for Get
	Bytes      int64  // response body size
	Elapsed    time.Duration
}

// Client talks to one key/value store on behalf of one simulated user.
//
// Client is not safe for concurrent use; each virtual user owns its own
// Client, mirroring how a real client application would hold one session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userID     string
	session    string
	headers    map[string]string
}

// Option configures a Client.
type Option func(*Client)

// NewClient creates a client for the store at baseURL acting as userID.
func NewClient(baseURL, userID string, options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		headers:    make(map[string]string),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// UserID returns the identity this client acts as.
func (c *Client) UserID() string {
	return c.userID
}

// StartSession logs the client's user in to the store.
//
// The store expects a BrowserID-style audience/assertion pair; the test
// harness uses the bare user identity as the assertion, which the store's
// dummy verifier accepts. The returned token is attached to every
// subsequent request.
func (c *Client) StartSession(ctx context.Context, audience string) (Result, error) {
	form := url.Values{}
	form.Set("audience", audience)
	form.Set("assertion", c.userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/session/start", strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Op: OpSession}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.do(req, OpSession, "")
	if err != nil {
		return res, err
	}

	// The server replies either with a JSON document carrying the session
	// id, or with the bare token.
	token := string(bytes.TrimSpace(res.Value))
	if v := gjson.GetBytes(res.Value, "session_id"); v.Exists() {
		token = v.String()
	}
	c.session = token
	res.Value = nil
	return res, nil
}

// Get fetches the value stored under key. ErrKeyNotFound is returned for
// missing keys; the fetched value is in Result.Value.
func (c *Client) Get(ctx context.Context, key string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.keyURL(key), nil)
	if err != nil {
		return Result{Op: OpGet, Key: key}, err
	}
	return c.do(req, OpGet, key)
}

// Put stores value under key, overwriting any previous value.
func (c *Client) Put(ctx context.Context, key string, value []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.keyURL(key), bytes.NewReader(value))
	if err != nil {
		return Result{Op: OpPut, Key: key}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	res, err := c.do(req, OpPut, key)
	res.Value = nil
	return res, err
}

// Delete removes key from the store.
func (c *Client) Delete(ctx context.Context, key string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.keyURL(key), nil)
	if err != nil {
		return Result{Op: OpDelete, Key: key}, err
	}
	res, err := c.do(req, OpDelete, key)
	res.Value = nil
	return res, err
}

func (c *Client) keyURL(key string) string {
	return c.baseURL + "/keys/" + url.PathEscape(key)
}

// do executes the request, reads the body and maps status codes to errors.
// The Result is populated (timing included) even when an error is returned.
func (c *Client) do(req *http.Request, op Op, key string) (Result, error) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.session != "" {
		req.Header.Set("Authorization", "Sauropod-Session "+c.session)
	}

	start := time.Now()
	httpRes, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Op: op, Key: key, Elapsed: time.Since(start)}, err
	}
	body, readErr := io.ReadAll(httpRes.Body)
	httpRes.Body.Close()

	res := Result{
		Op:         op,
		Key:        key,
		StatusCode: httpRes.StatusCode,
		Value:      body,
		Bytes:      int64(len(body)),
		Elapsed:    time.Since(start),
	}
	if readErr != nil {
		return res, readErr
	}

	switch {
	case httpRes.StatusCode == http.StatusNotFound:
		return res, ErrKeyNotFound
	case httpRes.StatusCode == http.StatusUnauthorized,
		httpRes.StatusCode == http.StatusForbidden:
		return res, ErrNotAuthorized
	case httpRes.StatusCode >= 500:
		return res, &ServerError{
			StatusCode: httpRes.StatusCode,
			Message:    gjson.GetBytes(body, "error").String(),
		}
	}
	return res, nil
}
