package httpview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-desk/pkg/chessdto"
)

// Client drives a desk served by Server.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type ClientOption func(*Client)

func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) ClientOption {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) ClientOption {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 40 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 40 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View fetches the current view. With wait set the server first lets the
// opponent finish thinking.
func (c *Client) View(ctx context.Context, wait bool) (*chessdto.ViewState, error) {
	path := "/api/view"
	if wait {
		path += "?wait=1"
	}
	var v chessdto.ViewState
	if _, err := c.do(ctx, fasthttp.MethodGet, path, &v, true); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) Click(ctx context.Context, square string) (*chessdto.ViewState, error) {
	return c.post(ctx, "/api/click?square="+url.QueryEscape(square))
}

func (c *Client) Promote(ctx context.Context, piece string) (*chessdto.ViewState, error) {
	return c.post(ctx, "/api/promote?piece="+url.QueryEscape(piece))
}

func (c *Client) NewGame(ctx context.Context) (*chessdto.ViewState, error) {
	return c.post(ctx, "/api/new")
}

func (c *Client) BoardPNG(ctx context.Context) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodGet, "/api/board.png", nil, true)
}

func (c *Client) post(ctx context.Context, path string) (*chessdto.ViewState, error) {
	var v chessdto.ViewState
	if _, err := c.do(ctx, fasthttp.MethodPost, path, &v, false); err != nil {
		return nil, err
	}
	return &v, nil
}

// do sends one request. Only idempotent calls pass retry.
func (c *Client) do(ctx context.Context, method, path string, out any, retry bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			derr := chessdto.DomainError{Code: fmt.Sprintf("http_%d", status)}
			_ = json.Unmarshal(resp.Body(), &derr)
			if attempt == attempts || !shouldRetryStatus(status) {
				return nil, derr
			}
			lastErr = derr
		} else {
			body := append([]byte(nil), resp.Body()...)
			if out != nil {
				if err := json.Unmarshal(body, out); err != nil {
					return nil, fmt.Errorf("decode response: %w", err)
				}
			}
			return body, nil
		}
		if attempt == attempts {
			break
		}
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	attempt = max(1, min(attempt, 6))
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	}
	return false
}
