package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientFetch_ReturnsStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("User-Agent"); got != "soupdeck-test" {
			t.Fatalf("unexpected user agent %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<p class="a">hi</p>`))
	}))
	defer srv.Close()

	c := NewClient(Options{HTTPClient: srv.Client(), UserAgent: "soupdeck-test"})
	resp, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Body != `<p class="a">hi</p>` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
}

func TestClientFetch_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	resp, err := NewClient(Options{HTTPClient: srv.Client()}).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Status, "404") {
		t.Fatalf("expected status text to mention 404, got %q", resp.Status)
	}
}

func TestClientFetch_DecodesDeclaredCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer srv.Close()

	resp, err := NewClient(Options{HTTPClient: srv.Client()}).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if resp.Body != "café" {
		t.Fatalf("expected decoded body, got %q", resp.Body)
	}
}

func TestClientFetch_TransportFailureIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{HTTPClient: &http.Client{Timeout: time.Second}}).Fetch(context.Background(), url)
	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if fetchErr.URL != url {
		t.Fatalf("expected URL %q on error, got %q", url, fetchErr.URL)
	}
}

func TestClientStart_WaitIsRepeatable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := NewClient(Options{HTTPClient: srv.Client()}).Start(context.Background(), srv.URL)
	select {
	case <-p.Done():
		t.Fatal("expected request to still be pending")
	default:
	}
	close(release)

	first, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	second, _ := p.Wait()
	if first.Body != "ok" || second.Body != "ok" {
		t.Fatalf("unexpected bodies %q %q", first.Body, second.Body)
	}
}

func TestClientFetch_LimiterHonoursCancelledContext(t *testing.T) {
	limiter := NewLimiter(1)
	limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(Options{Limiter: limiter}).Fetch(ctx, "http://127.0.0.1:1/")
	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestNewLimiter_DisabledForNonPositiveRate(t *testing.T) {
	if NewLimiter(0) != nil {
		t.Fatal("expected nil limiter for zero rate")
	}
	if l := NewLimiter(0.5); l == nil || l.Burst() != 1 {
		t.Fatalf("expected burst of 1 for fractional rate")
	}
}
