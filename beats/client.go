package beats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"beatmachine/debug"
)

// DefaultAuthorHeader carries the author id on requests
const DefaultAuthorHeader = "X-Beat-Author"

// Client talks to the beats REST backend. Calls are made once; there
// are no retries.
type Client struct {
	baseURL      string
	author       string
	authorHeader string
	timeout      time.Duration
	http         *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithAuthor sends an author id with every request
func WithAuthor(id string) ClientOption {
	return func(c *Client) { c.author = id }
}

// WithAuthorHeader changes the header the author id travels in
func WithAuthorHeader(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.authorHeader = name
		}
	}
}

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		authorHeader: DefaultAuthorHeader,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Save creates a beat: POST /beats with form fields sound and name
func (c *Client) Save(ctx context.Context, name, sound string) (Beat, error) {
	form := url.Values{}
	form.Set("sound", sound)
	form.Set("name", name)

	req, err := c.newRequest(ctx, http.MethodPost, "/beats", strings.NewReader(form.Encode()))
	if err != nil {
		return Beat{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var b Beat
	if err := c.do(req, &b); err != nil {
		return Beat{}, err
	}
	return b, nil
}

// Delete removes a beat: DELETE /beats/{id}
func (c *Client) Delete(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/beats/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// List returns every stored beat
func (c *Client) List(ctx context.Context) ([]Beat, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/beats", nil)
	if err != nil {
		return nil, err
	}
	var out []Beat
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one beat
func (c *Client) Get(ctx context.Context, id int64) (Beat, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/beats/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return Beat{}, err
	}
	var b Beat
	if err := c.do(req, &b); err != nil {
		return Beat{}, err
	}
	return b, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.author != "" {
		req.Header.Set(c.authorHeader, c.author)
	}
	return req, nil
}

// do sends the request and decodes a 2xx body into out (if non-nil).
// Other statuses become a *ResponseError.
func (c *Client) do(req *http.Request, out any) error {
	debug.Log("client", "%s %s", req.Method, req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &ResponseError{Status: resp.StatusCode}
		if len(data) > 0 {
			var payload ErrorPayload
			if json.Unmarshal(data, &payload) == nil {
				rerr.Fields = payload
			}
		}
		debug.Log("client", "%s %s -> %v", req.Method, req.URL.Path, rerr)
		return rerr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
