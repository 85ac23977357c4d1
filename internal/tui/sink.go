package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/soupdeck/internal/panel"
)

// PanelOutputMsg carries a panel's freshly rendered output.
type PanelOutputMsg struct {
	ID   panel.ID
	Text string
}

// StatusMsg replaces the status line.
type StatusMsg struct {
	Text string
}

// ProgramSink forwards panel and orchestrator notifications to a running
// tea.Program. Notifications are queued in order and sent from a separate
// goroutine, so it is safe to publish from inside Update.
type ProgramSink struct {
	mu    sync.Mutex
	queue []tea.Msg
	wake  chan struct{}
}

func NewProgramSink() *ProgramSink {
	return &ProgramSink{wake: make(chan struct{}, 1)}
}

func (s *ProgramSink) Publish(id panel.ID, text string) {
	s.push(PanelOutputMsg{ID: id, Text: text})
}

func (s *ProgramSink) SetStatus(msg string) {
	s.push(StatusMsg{Text: msg})
}

func (s *ProgramSink) push(msg tea.Msg) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Attach starts delivering queued and future messages to p until ctx ends.
func (s *ProgramSink) Attach(ctx context.Context, p *tea.Program) {
	go func() {
		for {
			for _, msg := range s.drain() {
				p.Send(msg)
			}
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
		}
	}()
}

func (s *ProgramSink) drain() []tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

var _ panel.Sink = (*ProgramSink)(nil)
