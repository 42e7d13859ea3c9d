package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

type Client struct {
	Name string
	Base string
	HC   *http.Client
	UA   string

	breaker *gobreaker.CircuitBreaker
	headers http.Header
}

func New(name, base string) *Client { return NewWith(name, base, DefaultOptionsFromEnv()) }

func NewWith(name, base string, opt Options) *Client {
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	return &Client{
		Name: name,
		Base: strings.TrimRight(base, "/"),
		UA:   opt.UserAgent,
		HC: &http.Client{
			Timeout: opt.Timeout,
			Transport: &http.Transport{
				Proxy:        http.ProxyFromEnvironment,
				DialContext:  (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
				MaxIdleConns: 100, IdleConnTimeout: 90 * time.Second,
			},
		},
		breaker: newBreaker(name, opt),
		headers: http.Header{},
	}
}

// SetHeader adds a header sent with every request (API keys and the like).
func (c *Client) SetHeader(k, v string) { c.headers.Set(k, v) }

func newBreaker(name string, opt Options) *gobreaker.CircuitBreaker {
	trips := opt.BreakerFailures
	if trips == 0 {
		trips = 3
	}
	st := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  opt.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trips
		},
		// caller cancellation says nothing about the exchange
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	if st.Timeout <= 0 {
		st.Timeout = 60 * time.Second
	}
	return gobreaker.NewCircuitBreaker(st)
}

// GetJSON performs one GET through the breaker and decodes the body into v.
// Every failure comes back as *CollectorError.
func (c *Client) GetJSON(ctx context.Context, op, path string, query url.Values, v any) error {
	return c.exec(op, func() error { return c.do(ctx, op, http.MethodGet, path, query, nil, v) })
}

// PostJSON sends body as JSON and decodes the response into v (nil to skip).
func (c *Client) PostJSON(ctx context.Context, op, path string, body, v any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return &CollectorError{Exchange: c.Name, Op: op, Kind: KindDecode, Err: err}
	}
	return c.exec(op, func() error {
		return c.do(ctx, op, http.MethodPost, path, nil, bytes.NewReader(b), v)
	})
}

func (c *Client) exec(op string, call func() error) error {
	_, err := c.breaker.Execute(func() (any, error) { return nil, call() })
	if err == nil {
		return nil
	}
	var ce *CollectorError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &CollectorError{Exchange: c.Name, Op: op, Kind: KindBreaker, Err: err}
	}
	return &CollectorError{Exchange: c.Name, Op: op, Kind: KindNetwork, Err: err}
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, v any) error {
	u := c.Base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &CollectorError{Exchange: c.Name, Op: op, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UA != "" {
		req.Header.Set("User-Agent", c.UA)
	}
	for k, vals := range c.headers {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	res, err := c.HC.Do(req)
	if err != nil {
		return &CollectorError{Exchange: c.Name, Op: op, Kind: KindNetwork, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &CollectorError{
			Exchange: c.Name, Op: op, Kind: KindStatus, Status: res.StatusCode,
			Err: errors.New(strings.TrimSpace(string(b))),
		}
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if ct := res.Header.Get("Content-Type"); ct != "" && !isJSON(ct) {
		return &CollectorError{Exchange: c.Name, Op: op, Kind: KindDecode, Err: errors.New("unexpected content-type " + ct)}
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return &CollectorError{Exchange: c.Name, Op: op, Kind: KindDecode, Err: err}
	}
	return nil
}

func isJSON(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.HasPrefix(ct, "application/json") || strings.HasPrefix(ct, "text/json") ||
		strings.HasPrefix(ct, "text/plain")
}
