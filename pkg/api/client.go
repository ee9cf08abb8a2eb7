// Package api is a client for the Mise en Place recipe import REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://mise-en-place.recipes"

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 8 << 20

// Client talks to one API host. The zero value is not usable; use NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *pterm.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. Previews can take tens of
// seconds, so the client should not carry a short Timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *pterm.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client for baseURL. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API host the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// CollectionURL is where the user's saved recipes are listed.
func (c *Client) CollectionURL() string { return c.baseURL + "/recipes" }

// authed returns an HTTP client that sends token as a bearer credential.
// The oauth2 transport authorizes every hop, so redirects are only followed
// while they stay on the API host.
func (c *Client) authed(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.httpClient.Timeout
	hc.CheckRedirect = c.checkRedirect
	return hc
}

// checkRedirect stops at a redirect that leaves the API host and hands the
// 3xx back to the caller instead.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after %d redirects", len(via))
	}
	base, err := url.Parse(c.baseURL)
	if err != nil || !strings.EqualFold(req.URL.Host, base.Host) || req.URL.Scheme != base.Scheme {
		c.log.Warn("not following redirect off the API host", c.log.Args("location", req.URL.Redacted()))
		return http.ErrUseLastResponse
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do sends a JSON request and decodes a JSON response into out. A non-empty
// token is attached as a bearer credential.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.httpClient
	if token != "" {
		hc = c.authed(ctx, token)
	}

	c.log.Debug("api request", c.log.Args("op", op, "method", method, "path", path))
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Debug("api request failed", c.log.Args("op", op, "error", err))
		return &ConnectivityError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &ConnectivityError{Op: op, Err: err}
	}
	c.log.Debug("api response", c.log.Args("op", op, "status", resp.StatusCode, "bytes", len(data)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteRejection{Op: op, StatusCode: resp.StatusCode, Message: messageFrom(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: invalid response: %w", op, err)
	}
	return nil
}

func messageFrom(data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
