package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 30 * time.Second
	// MaxBodyBytes caps how much of a response body is kept.
	MaxBodyBytes = 16 << 20
)

// Response is a completed GET. A non-200 status is still a Response; deciding
// what to do with it belongs to the caller.
type Response struct {
	URL         string
	StatusCode  int
	Status      string
	ContentType string
	Body        string
	Elapsed     time.Duration
}

// Error reports a transport-level failure: DNS, refused connection, TLS,
// timeout or a cancelled rate-limit wait.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Options struct {
	HTTPClient *http.Client
	UserAgent  string
	// Limiter throttles every request made through the client. Nil means unlimited.
	Limiter *rate.Limiter
}

type Client struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		http:      httpClient,
		userAgent: strings.TrimSpace(opts.UserAgent),
		limiter:   opts.Limiter,
	}
}

// NewLimiter returns a limiter for maxPerSecond requests, or nil when
// maxPerSecond is not positive.
func NewLimiter(maxPerSecond float64) *rate.Limiter {
	if maxPerSecond <= 0 {
		return nil
	}
	burst := int(maxPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(maxPerSecond), burst)
}

// Pending is the handle for a GET running on its own goroutine.
type Pending struct {
	done chan struct{}
	resp Response
	err  error
}

// Done is closed once the request has finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the request finishes and returns its result. It may be
// called any number of times.
func (p *Pending) Wait() (Response, error) {
	<-p.done
	return p.resp, p.err
}

// Start issues a single GET for rawURL on a dedicated goroutine.
func (c *Client) Start(ctx context.Context, rawURL string) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.resp, p.err = c.get(ctx, rawURL)
	}()
	return p
}

// Fetch starts a GET and waits for it.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Response, error) {
	return c.Start(ctx, rawURL).Wait()
}

func (c *Client) get(ctx context.Context, rawURL string) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, &Error{URL: rawURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, &Error{URL: rawURL, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return Response{}, &Error{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	contentType := resp.Header.Get("Content-Type")
	return Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: contentType,
		Body:        decodeBody(raw, contentType),
		Elapsed:     time.Since(start),
	}, nil
}

// decodeBody converts raw to UTF-8 using the declared or sniffed charset,
// falling back to the raw bytes.
func decodeBody(raw []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
