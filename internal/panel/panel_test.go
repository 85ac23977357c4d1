package panel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glabrego/soupdeck/internal/extract"
	"github.com/glabrego/soupdeck/internal/fetcher"
	"github.com/glabrego/soupdeck/internal/render"
	"github.com/glabrego/soupdeck/internal/weburl"
)

type fakeFetcher struct {
	mu    sync.Mutex
	resp  fetcher.Response
	err   error
	calls int
	urls  []string
	block chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (fetcher.Response, error) {
	f.mu.Lock()
	f.calls++
	f.urls = append(f.urls, url)
	block := f.block
	resp, err := f.resp, f.err
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return resp, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingSink struct {
	mu        sync.Mutex
	published []string
	statuses  []string
}

func (s *recordingSink) Publish(_ ID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, text)
}

func (s *recordingSink) SetStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, msg)
}

func (s *recordingSink) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

func ok(body string) fetcher.Response {
	return fetcher.Response{StatusCode: 200, Status: "200 OK", Body: body}
}

func TestPanelFetch_ClassFilterScenario(t *testing.T) {
	f := &fakeFetcher{resp: ok(`<div class="a"><p class="a">hi</p></div>`)}
	sink := &recordingSink{}
	p := New(f, sink)
	p.SetURL("https://example.org")
	p.SetFilter("a")

	if _, err := p.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if p.State() != Fetched {
		t.Fatalf("expected fetched, got %s", p.State())
	}
	out, ok := p.Output()
	if !ok || out != `<p class="a">hi</p>` {
		t.Fatalf("unexpected output %q (ok=%v)", out, ok)
	}
	if strings.Count(out, `<p class="a">hi</p>`) != 1 {
		t.Fatalf("expected fragment once, got %q", out)
	}
	if len(sink.published) != 1 || sink.lastStatus() != SuccessMessage {
		t.Fatalf("unexpected notifications %#v %#v", sink.published, sink.statuses)
	}
	if snap := p.Snapshot(); snap.StatusCode != 200 {
		t.Fatalf("expected status 200, got %d", snap.StatusCode)
	}
}

func TestPanelFetch_NonSuccessStatusFails(t *testing.T) {
	f := &fakeFetcher{resp: fetcher.Response{StatusCode: 404, Status: "404 Not Found", Body: "<p>missing</p>"}}
	sink := &recordingSink{}
	p := New(f, sink)
	p.SetURL("https://example.org/nope")

	out, err := p.Fetch(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 404 {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
	if out.StatusCode != 404 {
		t.Fatalf("expected outcome status 404, got %d", out.StatusCode)
	}
	if p.State() != Failed {
		t.Fatalf("expected failed, got %s", p.State())
	}
	if _, ok := p.Extracted(); ok {
		t.Fatal("expected no document after 404")
	}
	if !strings.Contains(sink.lastStatus(), "404") {
		t.Fatalf("expected status to report 404, got %q", sink.lastStatus())
	}
	if len(sink.published) != 0 {
		t.Fatalf("expected nothing published, got %#v", sink.published)
	}
}

func TestPanelFetch_InvalidURLSkipsNetwork(t *testing.T) {
	f := &fakeFetcher{resp: ok("<p>x</p>")}
	sink := &recordingSink{}
	p := New(f, sink)
	p.SetURL("example.org")

	_, err := p.Fetch(context.Background())
	if !errors.Is(err, weburl.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if f.callCount() != 0 {
		t.Fatalf("expected no network call, got %d", f.callCount())
	}
	if snap := p.Snapshot(); snap.State != Failed || snap.StatusCode != NoStatus {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !strings.Contains(sink.lastStatus(), "invalid") {
		t.Fatalf("expected validation message, got %q", sink.lastStatus())
	}
}

func TestPanelFetch_TransportFailureAllowsRetry(t *testing.T) {
	f := &fakeFetcher{err: &fetcher.Error{URL: "https://example.org", Err: errors.New("connection refused")}}
	sink := &recordingSink{}
	p := New(f, sink)
	p.SetURL("https://example.org")

	if _, err := p.Fetch(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	if snap := p.Snapshot(); snap.State != Failed || snap.StatusCode != TransportFailure {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !strings.Contains(sink.lastStatus(), "connection refused") {
		t.Fatalf("expected error description in status, got %q", sink.lastStatus())
	}

	f.mu.Lock()
	f.err = nil
	f.resp = ok("<p>back</p>")
	f.mu.Unlock()

	if _, err := p.Fetch(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if p.State() != Fetched {
		t.Fatalf("expected fetched after retry, got %s", p.State())
	}
}

func TestPanelFetch_FreezesAfterSuccess(t *testing.T) {
	f := &fakeFetcher{resp: ok("<p>x</p>")}
	p := New(f, nil)
	p.SetURL("https://example.org")

	if _, err := p.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	out, err := p.Fetch(context.Background())
	if err != nil || !out.Skipped {
		t.Fatalf("expected skipped second fetch, got %+v %v", out, err)
	}
	if f.callCount() != 1 {
		t.Fatalf("expected one network call, got %d", f.callCount())
	}
	if p.SetURL("https://other.example.org") {
		t.Fatal("expected URL to be frozen")
	}
	if p.Settings().URL != "https://example.org" {
		t.Fatalf("URL changed to %q", p.Settings().URL)
	}
}

func TestPanelFetch_SecondCallWhileFetchingIsSkipped(t *testing.T) {
	f := &fakeFetcher{resp: ok("<p>x</p>"), block: make(chan struct{})}
	p := New(f, nil)
	p.SetURL("https://example.org")

	done := make(chan error, 1)
	go func() {
		_, err := p.Fetch(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.State() != Fetching {
		if time.Now().After(deadline) {
			t.Fatal("fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	out, err := p.Fetch(context.Background())
	if err != nil || !out.Skipped {
		t.Fatalf("expected skip while fetching, got %+v %v", out, err)
	}
	close(f.block)
	if err := <-done; err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if f.callCount() != 1 {
		t.Fatalf("expected one network call, got %d", f.callCount())
	}
}

func TestPanelSetters_NoPublishBeforeFetch(t *testing.T) {
	sink := &recordingSink{}
	p := New(&fakeFetcher{}, sink)

	p.SetFilter("x")
	p.SetMatchMode(extract.TextContent)
	p.SetDisplayMode(render.CleanText)

	if len(sink.published) != 0 {
		t.Fatalf("expected no publishes, got %#v", sink.published)
	}
	want := Settings{Filter: "x", Match: extract.TextContent, Display: render.CleanText}
	if got := p.Settings(); got != want {
		t.Fatalf("unexpected settings %+v", got)
	}
	if _, ok := p.Output(); ok {
		t.Fatal("expected no output before fetch")
	}
}

func TestPanelSetters_RecomputeAfterFetch(t *testing.T) {
	f := &fakeFetcher{resp: ok(`<p class="x">alpha</p><span class="y">beta</span>`)}
	sink := &recordingSink{}
	p := New(f, sink)
	p.SetURL("https://example.org")
	p.SetFilter("x")
	if _, err := p.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	p.SetFilter("y")
	if out, _ := p.Output(); out != `<span class="y">beta</span>` {
		t.Fatalf("unexpected output after filter change %q", out)
	}

	p.SetMatchMode(extract.TextContent)
	p.SetFilter("alpha")
	if out, _ := p.Output(); out != `<p class="x">alpha</p>` {
		t.Fatalf("unexpected output in text mode %q", out)
	}

	p.SetDisplayMode(render.CleanText)
	if out, _ := p.Output(); out != "alpha" {
		t.Fatalf("unexpected clean output %q", out)
	}
	if markup, _ := p.Extracted(); markup != `<p class="x">alpha</p>` {
		t.Fatalf("display mode must not change extraction, got %q", markup)
	}

	p.SetDisplayMode(render.CleanText)
	if len(sink.published) != 5 {
		t.Fatalf("expected 5 publishes, got %d", len(sink.published))
	}
}

func TestPanelReset_AllowsRefetch(t *testing.T) {
	f := &fakeFetcher{resp: ok("<p>x</p>")}
	p := New(f, nil)
	p.SetURL("https://example.org")
	if _, err := p.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	p.Reset()
	if snap := p.Snapshot(); snap.State != Unfetched || snap.StatusCode != NoStatus {
		t.Fatalf("unexpected snapshot after reset %+v", snap)
	}
	if !p.SetURL("https://example.net") {
		t.Fatal("expected URL to be editable after reset")
	}
	if _, err := p.Fetch(context.Background()); err != nil {
		t.Fatalf("refetch failed: %v", err)
	}
	if f.callCount() != 2 {
		t.Fatalf("expected two network calls, got %d", f.callCount())
	}
}

func TestPanelReset_LateFailureStaysQuiet(t *testing.T) {
	f := &fakeFetcher{err: &fetcher.Error{URL: "https://example.org", Err: errors.New("connection refused")}, block: make(chan struct{})}
	sink := &recordingSink{}
	p := New(f, sink)
	p.SetURL("https://example.org")

	done := make(chan error, 1)
	go func() {
		_, err := p.Fetch(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.State() != Fetching {
		if time.Now().After(deadline) {
			t.Fatal("fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	p.Reset()
	sink.SetStatus("Removed bottom most panel")
	close(f.block)
	if err := <-done; err == nil {
		t.Fatal("expected the late fetch to return its error")
	}

	if got := sink.lastStatus(); got != "Removed bottom most panel" {
		t.Fatalf("late failure replaced the status with %q", got)
	}
	if snap := p.Snapshot(); snap.State != Unfetched || snap.Err != nil {
		t.Fatalf("late failure touched the panel: %+v", snap)
	}
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{URL: "https://x.test", StatusCode: 503}
	if got := err.Error(); got != "fetch https://x.test returned status 503 Service Unavailable" {
		t.Fatalf("unexpected message %q", got)
	}
}
