// Package panel implements the fetch, parse, filter and render pipeline
// behind a single panel.
package panel

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glabrego/soupdeck/internal/document"
	"github.com/glabrego/soupdeck/internal/extract"
	"github.com/glabrego/soupdeck/internal/fetcher"
	"github.com/glabrego/soupdeck/internal/render"
	"github.com/glabrego/soupdeck/internal/weburl"
)

const (
	// NoStatus is the status code before any fetch has completed.
	NoStatus = -1
	// TransportFailure is the status code recorded when no response arrived.
	TransportFailure = 0
)

const SuccessMessage = "URL fetch succeeded."

type ID string

func NewID() ID { return ID(uuid.NewString()) }

// Short is the first block of the ID, enough to tell panels apart in logs.
func (id ID) Short() string {
	s := string(id)
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

type State int

const (
	Unfetched State = iota
	Fetching
	Fetched
	Failed
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Fetched:
		return "fetched"
	case Failed:
		return "failed"
	default:
		return "unfetched"
	}
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetcher.Response, error)
}

// Sink receives fire-and-forget notifications for the host UI.
type Sink interface {
	Publish(id ID, text string)
	SetStatus(msg string)
}

type NopSink struct{}

func (NopSink) Publish(ID, string) {}
func (NopSink) SetStatus(string)   {}

// StatusError is a completed request whose status was not 200.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s returned status %s", e.URL, status)
}

type Settings struct {
	URL     string
	Filter  string
	Match   extract.MatchMode
	Display render.DisplayMode
}

// Outcome describes one call to Fetch.
type Outcome struct {
	// Skipped is set when the panel was already fetched or fetching.
	Skipped    bool
	URL        string
	StatusCode int
	BodyBytes  int
	Elapsed    time.Duration
}

// Snapshot is a consistent copy of a panel's observable state.
type Snapshot struct {
	ID         ID
	Settings   Settings
	State      State
	StatusCode int
	BodyBytes  int
	FetchedAt  time.Time
	Err        error
}

type Panel struct {
	id      ID
	fetcher Fetcher
	sink    Sink

	mu         sync.Mutex
	settings   Settings
	state      State
	generation int
	statusCode int
	doc        *document.Document
	extracted  string
	rendered   string
	bodyBytes  int
	fetchedAt  time.Time
	err        error
}

func New(f Fetcher, sink Sink) *Panel {
	if sink == nil {
		sink = NopSink{}
	}
	return &Panel{
		id:         NewID(),
		fetcher:    f,
		sink:       sink,
		statusCode: NoStatus,
	}
}

func (p *Panel) ID() ID { return p.id }

func (p *Panel) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		ID:         p.id,
		Settings:   p.settings,
		State:      p.state,
		StatusCode: p.statusCode,
		BodyBytes:  p.bodyBytes,
		FetchedAt:  p.fetchedAt,
		Err:        p.err,
	}
}

// Output returns the rendered text; ok is false until the panel is fetched.
func (p *Panel) Output() (text string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Fetched {
		return "", false
	}
	return p.rendered, true
}

// Extracted returns the filtered markup before display rendering.
func (p *Panel) Extracted() (markup string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Fetched {
		return "", false
	}
	return p.extracted, true
}

// SetURL reports whether the panel now targets url. The URL is frozen once
// the panel is fetched or while a fetch is in flight.
func (p *Panel) SetURL(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Fetched || p.state == Fetching {
		return p.settings.URL == url
	}
	p.settings.URL = url
	return true
}

func (p *Panel) SetFilter(pattern string) {
	p.update(func(s *Settings) bool {
		if s.Filter == pattern {
			return false
		}
		s.Filter = pattern
		return true
	}, true)
}

func (p *Panel) SetMatchMode(mode extract.MatchMode) {
	p.update(func(s *Settings) bool {
		if s.Match == mode {
			return false
		}
		s.Match = mode
		return true
	}, true)
}

func (p *Panel) SetDisplayMode(mode render.DisplayMode) {
	p.update(func(s *Settings) bool {
		if s.Display == mode {
			return false
		}
		s.Display = mode
		return true
	}, false)
}

// Apply sets filter, match and display modes together, and the URL unless
// it is frozen.
func (p *Panel) Apply(s Settings) {
	p.SetURL(s.URL)
	p.update(func(cur *Settings) bool {
		changed := cur.Filter != s.Filter || cur.Match != s.Match || cur.Display != s.Display
		cur.Filter, cur.Match, cur.Display = s.Filter, s.Match, s.Display
		return changed
	}, true)
}

// update applies change and, when the panel is fetched, recomputes the
// output and publishes it. reextract is false for display-only changes.
func (p *Panel) update(change func(*Settings) bool, reextract bool) {
	p.mu.Lock()
	if !change(&p.settings) || p.state != Fetched {
		p.mu.Unlock()
		return
	}
	if reextract {
		p.extracted = extract.Extract(p.doc, p.settings.Filter, p.settings.Match)
	}
	p.rendered = render.Render(p.extracted, p.settings.Display)
	out := p.rendered
	p.mu.Unlock()

	p.sink.Publish(p.id, out)
}

// Reset discards any document and returns the panel to Unfetched. A fetch
// still in flight completes without touching the panel.
func (p *Panel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.state = Unfetched
	p.statusCode = NoStatus
	p.doc = nil
	p.extracted = ""
	p.rendered = ""
	p.bodyBytes = 0
	p.fetchedAt = time.Time{}
	p.err = nil
}

// Fetch validates the URL, downloads it and, on a 200 response, parses,
// extracts and renders the result. A panel that is already fetched or
// fetching ignores the call. Failures are reported to the sink and returned;
// the panel stays eligible for another attempt.
func (p *Panel) Fetch(ctx context.Context) (Outcome, error) {
	p.mu.Lock()
	if p.state == Fetched || p.state == Fetching {
		url := p.settings.URL
		p.mu.Unlock()
		return Outcome{Skipped: true, URL: url}, nil
	}
	p.state = Fetching
	gen := p.generation
	url := strings.TrimSpace(p.settings.URL)
	p.mu.Unlock()

	out := Outcome{URL: url, StatusCode: NoStatus}
	if err := weburl.Validate(url); err != nil {
		return out, p.fail(gen, NoStatus, err)
	}
	if p.fetcher == nil {
		return out, p.fail(gen, TransportFailure, &fetcher.Error{URL: url, Err: fmt.Errorf("no fetcher configured")})
	}

	resp, err := p.fetcher.Fetch(ctx, url)
	out.Elapsed = resp.Elapsed
	if err != nil {
		out.StatusCode = TransportFailure
		return out, p.fail(gen, TransportFailure, err)
	}
	out.StatusCode = resp.StatusCode
	out.BodyBytes = len(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return out, p.fail(gen, resp.StatusCode, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status})
	}

	doc := document.Parse(resp.Body)

	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		return Outcome{Skipped: true, URL: url}, nil
	}
	p.doc = doc
	p.state = Fetched
	p.statusCode = resp.StatusCode
	p.bodyBytes = len(resp.Body)
	p.fetchedAt = time.Now()
	p.err = nil
	p.extracted = extract.Extract(doc, p.settings.Filter, p.settings.Match)
	p.rendered = render.Render(p.extracted, p.settings.Display)
	rendered := p.rendered
	p.mu.Unlock()

	p.sink.Publish(p.id, rendered)
	p.sink.SetStatus(SuccessMessage)
	return out, nil
}

func (p *Panel) fail(gen, statusCode int, err error) error {
	p.mu.Lock()
	current := p.generation == gen
	if current {
		p.state = Failed
		p.statusCode = statusCode
		p.err = err
	}
	p.mu.Unlock()

	// A fetch that outlived a reset or removal stays quiet.
	if current {
		p.sink.SetStatus(err.Error())
	}
	return err
}
