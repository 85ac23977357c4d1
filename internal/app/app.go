package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/glabrego/soupdeck/internal/panel"
	"github.com/glabrego/soupdeck/internal/panelfile"
	"github.com/glabrego/soupdeck/internal/storage"
)

const (
	DefaultRefreshInterval = 5 * time.Minute
	DefaultPanelsFile      = "config.json"
	// DefaultFetchTimeout bounds a single panel's fetch.
	DefaultFetchTimeout = 45 * time.Second
)

var ErrUnknownPanel = errors.New("unknown panel")

// Recorder keeps a history of fetch attempts.
type Recorder interface {
	RecordFetch(ctx context.Context, rec storage.FetchRecord) error
}

type Options struct {
	Fetcher    panel.Fetcher
	Sink       panel.Sink
	Recorder   Recorder
	Logger     logrus.FieldLogger
	PanelsFile string
	// Concurrent makes FetchAll dispatch every panel at once instead of one
	// after another.
	Concurrent bool
	// FetchTimeout applies to each panel on its own, so a slow panel never
	// uses up the time of the panels after it.
	FetchTimeout time.Duration
	Now          func() time.Time
}

type FetchSummary struct {
	Attempted int
	Fetched   int
	Failed    int
	Skipped   int
	// Errors holds one entry per failed panel, in panel order.
	Errors []error
}

type LoadSummary struct {
	Path    string
	Loaded  int
	Corrupt []*panelfile.RecordError
	Fetch   FetchSummary
}

// Orchestrator owns the ordered panel collection and every operation that
// spans more than one panel.
type Orchestrator struct {
	fetcher    panel.Fetcher
	sink       panel.Sink
	recorder   Recorder
	log        logrus.FieldLogger
	panelsFile string
	concurrent bool
	timeout    time.Duration
	now        func() time.Time

	mu     sync.Mutex
	panels []*panel.Panel

	timerMu     sync.Mutex
	stopRefresh context.CancelFunc
	interval    time.Duration
	refreshWG   sync.WaitGroup
}

func New(opts Options) *Orchestrator {
	if opts.Sink == nil {
		opts.Sink = panel.NopSink{}
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	if opts.PanelsFile == "" {
		opts.PanelsFile = DefaultPanelsFile
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		fetcher:    opts.Fetcher,
		sink:       opts.Sink,
		recorder:   opts.Recorder,
		log:        opts.Logger,
		panelsFile: opts.PanelsFile,
		concurrent: opts.Concurrent,
		timeout:    opts.FetchTimeout,
		now:        opts.Now,
	}
}

type InitOptions struct {
	// LoadPanels restores the saved panel set.
	LoadPanels bool
	// EmptyPanels are added when nothing was restored.
	EmptyPanels     int
	AutoRefresh     bool
	RefreshInterval time.Duration
}

// Init prepares the collection for a session. A missing or damaged panel
// file is reported through the sink and does not fail Init.
func (o *Orchestrator) Init(ctx context.Context, opts InitOptions) error {
	if opts.LoadPanels {
		if _, err := o.LoadConfig(ctx); err != nil && !errors.Is(err, panelfile.ErrNotFound) && !errors.Is(err, panelfile.ErrCorrupt) {
			return fmt.Errorf("load panels: %w", err)
		}
	}
	for o.Len() < opts.EmptyPanels {
		o.addPanel(panel.Settings{})
	}
	if opts.AutoRefresh {
		o.SetAutoRefresh(true, opts.RefreshInterval)
	}
	o.log.WithFields(logrus.Fields{"panels": o.Len(), "panels_file": o.panelsFile}).Info("orchestrator started")
	return nil
}

// Shutdown stops auto-refresh and waits for the refresh loop to exit, or
// for ctx to end.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.timerMu.Lock()
	if o.stopRefresh != nil {
		o.stopRefresh()
		o.stopRefresh = nil
	}
	o.timerMu.Unlock()

	done := make(chan struct{})
	go func() {
		o.refreshWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		o.log.Info("orchestrator stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for refresh loop: %w", ctx.Err())
	}
}

func (o *Orchestrator) PanelsFile() string { return o.panelsFile }

func (o *Orchestrator) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.panels)
}

// Panels returns the collection in order. The slice is a copy.
func (o *Orchestrator) Panels() []*panel.Panel {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*panel.Panel, len(o.panels))
	copy(out, o.panels)
	return out
}

func (o *Orchestrator) Panel(id panel.ID) (*panel.Panel, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.panels {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

func (o *Orchestrator) AddPanel() panel.ID {
	p := o.addPanel(panel.Settings{})
	o.sink.SetStatus("Added new panel")
	return p.ID()
}

// addPanel configures the panel before it joins the collection, so readers
// never see it half set up.
func (o *Orchestrator) addPanel(s panel.Settings) *panel.Panel {
	p := panel.New(o.fetcher, o.sink)
	p.Apply(s)
	o.mu.Lock()
	o.panels = append(o.panels, p)
	n := len(o.panels)
	o.mu.Unlock()
	o.log.WithFields(logrus.Fields{"panel": p.ID().Short(), "count": n}).Debug("panel added")
	return p
}

// RemoveLast removes the most recently added panel. It reports false when
// there is nothing to remove.
func (o *Orchestrator) RemoveLast() bool {
	if !o.removeLast() {
		o.sink.SetStatus("Cannot remove panel")
		return false
	}
	o.sink.SetStatus("Removed bottom most panel")
	return true
}

func (o *Orchestrator) removeLast() bool {
	o.mu.Lock()
	if len(o.panels) == 0 {
		o.mu.Unlock()
		return false
	}
	p := o.panels[len(o.panels)-1]
	o.panels[len(o.panels)-1] = nil
	o.panels = o.panels[:len(o.panels)-1]
	o.mu.Unlock()

	// Any fetch still running for p finishes without publishing.
	p.Reset()
	o.log.WithField("panel", p.ID().Short()).Debug("panel removed")
	return true
}

func (o *Orchestrator) RemoveAll() {
	for o.removeLast() {
	}
	o.sink.SetStatus("Removed all panels")
}

func (o *Orchestrator) FetchPanel(ctx context.Context, id panel.ID) error {
	p, ok := o.Panel(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPanel, id)
	}
	_, err := o.fetchOne(ctx, p)
	return err
}

// FetchAll runs the fetch transition on every panel. Panels already fetched
// take their no-op path and count as skipped. One panel failing never stops
// or cancels another.
func (o *Orchestrator) FetchAll(ctx context.Context) FetchSummary {
	panels := o.Panels()
	outcomes := make([]panel.Outcome, len(panels))
	errs := make([]error, len(panels))

	if o.concurrent {
		var g errgroup.Group
		for i, p := range panels {
			g.Go(func() error {
				outcomes[i], errs[i] = o.fetchOne(ctx, p)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, p := range panels {
			outcomes[i], errs[i] = o.fetchOne(ctx, p)
		}
	}

	var sum FetchSummary
	for i := range panels {
		switch {
		case errs[i] != nil:
			sum.Attempted++
			sum.Failed++
			sum.Errors = append(sum.Errors, errs[i])
		case outcomes[i].Skipped:
			sum.Skipped++
		default:
			sum.Attempted++
			sum.Fetched++
		}
	}
	o.log.WithFields(logrus.Fields{
		"count":   len(panels),
		"fetched": sum.Fetched,
		"failed":  sum.Failed,
		"skipped": sum.Skipped,
	}).Info("fetch all finished")
	return sum
}

func (o *Orchestrator) fetchOne(ctx context.Context, p *panel.Panel) (panel.Outcome, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	out, err := p.Fetch(fetchCtx)
	cancel()
	if out.Skipped {
		return out, nil
	}

	fields := logrus.Fields{
		"panel":   p.ID().Short(),
		"url":     out.URL,
		"status":  out.StatusCode,
		"elapsed": out.Elapsed.String(),
	}
	rec := storage.FetchRecord{
		PanelID:    string(p.ID()),
		URL:        out.URL,
		StatusCode: out.StatusCode,
		Outcome:    storage.OutcomeFetched,
		BodyBytes:  out.BodyBytes,
		Elapsed:    out.Elapsed,
		FetchedAt:  o.now(),
	}
	if err != nil {
		rec.Outcome = storage.OutcomeFailed
		rec.Message = err.Error()
		o.log.WithFields(fields).WithError(err).Warn("panel fetch failed")
	} else {
		o.log.WithFields(fields).Info("panel fetched")
	}

	if o.recorder != nil {
		if recErr := o.recorder.RecordFetch(context.WithoutCancel(ctx), rec); recErr != nil {
			o.log.WithError(recErr).Warn("record fetch history")
		}
	}
	return out, err
}

// Snapshot returns every panel's settings in collection order.
func (o *Orchestrator) Snapshot() panelfile.Set {
	panels := o.Panels()
	set := make(panelfile.Set, 0, len(panels))
	for _, p := range panels {
		set = append(set, panelfile.FromSettings(p.Settings()))
	}
	return set
}

// SaveConfig writes the current panel set and returns it with the absolute
// path it was written to.
func (o *Orchestrator) SaveConfig() (panelfile.Set, string, error) {
	set := o.Snapshot()
	path, err := panelfile.Save(o.panelsFile, set)
	if err != nil {
		o.log.WithError(err).WithField("panels_file", o.panelsFile).Error("save panels")
		o.sink.SetStatus(fmt.Sprintf("Could not save config: %v", err))
		return set, "", err
	}
	o.log.WithFields(logrus.Fields{"panels_file": path, "count": len(set)}).Info("panels saved")
	o.sink.SetStatus("Config saved to " + path)
	return set, path, nil
}

// LoadConfig replaces the collection with the saved panel set and fetches
// every restored panel. Damaged records are skipped and reported; the rest
// still load.
func (o *Orchestrator) LoadConfig(ctx context.Context) (LoadSummary, error) {
	for o.removeLast() {
	}

	name := filepath.Base(o.panelsFile)
	set, problems, err := panelfile.Load(o.panelsFile)
	switch {
	case errors.Is(err, panelfile.ErrNotFound):
		o.log.WithField("panels_file", o.panelsFile).Warn("panels file not found")
		o.sink.SetStatus(name + " not found in current working directory. Check if file exists.")
		return LoadSummary{Path: o.panelsFile}, err
	case err != nil:
		o.log.WithError(err).WithField("panels_file", o.panelsFile).Error("load panels")
		o.sink.SetStatus(name + " may be corrupted. Try recreating proper file with Save Config.")
		return LoadSummary{Path: o.panelsFile}, err
	}

	summary := o.LoadRecords(ctx, set)
	summary.Path = o.panelsFile
	summary.Corrupt = problems
	for _, p := range problems {
		o.log.WithField("panels_file", o.panelsFile).Warn(p.Error())
	}
	if len(problems) > 0 {
		o.sink.SetStatus(fmt.Sprintf("%s may be corrupted (%d entries skipped). Try recreating proper file with Save Config.", name, len(problems)))
	} else {
		o.sink.SetStatus("Load config succeeded.")
	}
	return summary, nil
}

// LoadRecords replaces the collection with one fresh panel per record, in
// order, and runs the fetch transition on each.
func (o *Orchestrator) LoadRecords(ctx context.Context, set panelfile.Set) LoadSummary {
	for o.removeLast() {
	}
	for _, rec := range set {
		o.addPanel(rec.Settings())
	}
	return LoadSummary{Loaded: len(set), Fetch: o.FetchAll(ctx)}
}

// SetAutoRefresh starts or stops the periodic FetchAll. At most one refresh
// loop runs; enabling it again only changes the interval. Stopping never
// interrupts a fetch that has already started.
func (o *Orchestrator) SetAutoRefresh(enabled bool, interval time.Duration) {
	o.timerMu.Lock()
	defer o.timerMu.Unlock()

	if !enabled {
		if o.stopRefresh == nil {
			return
		}
		o.stopRefresh()
		o.stopRefresh = nil
		o.log.Info("auto refresh stopped")
		o.sink.SetStatus("Auto refresh stopped.")
		return
	}

	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if o.stopRefresh != nil {
		if interval == o.interval {
			return
		}
		o.stopRefresh()
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	o.stopRefresh = cancel
	o.interval = interval
	o.refreshWG.Add(1)
	go o.refreshLoop(loopCtx, interval)
	o.log.WithField("interval", interval.String()).Info("auto refresh started")
}

func (o *Orchestrator) AutoRefresh() (bool, time.Duration) {
	o.timerMu.Lock()
	defer o.timerMu.Unlock()
	return o.stopRefresh != nil, o.interval
}

func (o *Orchestrator) refreshLoop(ctx context.Context, interval time.Duration) {
	defer o.refreshWG.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Fetches get their own context so stopping the loop cannot abort them.
			o.FetchAll(context.WithoutCancel(ctx))
			o.sink.SetStatus("Auto refreshed at " + o.now().Format("2006-01-02 15:04:05"))
		}
	}
}
