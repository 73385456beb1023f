package msgchan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hazyhaar/lyricsroman/romanize"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// Client sends requests to a remote Server's /message endpoint.
type Client struct {
	endpoint string
	token    string
	hc       *http.Client
}

// NewClient targets baseURL (e.g. "http://127.0.0.1:8091"). The default
// http.Client timeout covers a full romanization: 10s load + 5s input +
// 8s result, plus slack.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/message",
		hc:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send posts req as JSON and decodes the Response.
func (c *Client) Send(ctx context.Context, req romanize.Request) (romanize.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return romanize.Response{}, fmt.Errorf("msgchan: marshal: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return romanize.Response{}, fmt.Errorf("msgchan: request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		hreq.Header.Set("Authorization", "Bearer "+c.token)
	}

	hresp, err := c.hc.Do(hreq)
	if err != nil {
		return romanize.Response{}, fmt.Errorf("msgchan: post: %w", err)
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(hresp.Body, 1<<20))
	if err != nil {
		return romanize.Response{}, fmt.Errorf("msgchan: read: %w", err)
	}
	if hresp.StatusCode != http.StatusOK {
		return romanize.Response{}, fmt.Errorf("msgchan: status %d: %s", hresp.StatusCode, strings.TrimSpace(string(data)))
	}

	var resp romanize.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return romanize.Response{}, fmt.Errorf("msgchan: decode: %w", err)
	}
	return resp, nil
}
