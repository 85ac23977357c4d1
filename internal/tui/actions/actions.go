package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/soupdeck/internal/app"
	"github.com/glabrego/soupdeck/internal/panel"
	"github.com/glabrego/soupdeck/internal/panelfile"
)

// Deck is the part of the orchestrator the TUI drives asynchronously.
type Deck interface {
	FetchPanel(ctx context.Context, id panel.ID) error
	FetchAll(ctx context.Context) app.FetchSummary
	SaveConfig() (panelfile.Set, string, error)
	LoadConfig(ctx context.Context) (app.LoadSummary, error)
}

type FetchPanelDoneMsg struct {
	ID       panel.ID
	Err      error
	Duration time.Duration
}

type FetchAllDoneMsg struct {
	Summary  app.FetchSummary
	Duration time.Duration
}

type SaveConfigDoneMsg struct {
	Path  string
	Count int
	Err   error
}

type LoadConfigDoneMsg struct {
	Summary  app.LoadSummary
	Err      error
	Duration time.Duration
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

func FetchPanelCmd(deck Deck, id panel.ID) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := deck.FetchPanel(context.Background(), id)
		return FetchPanelDoneMsg{ID: id, Err: err, Duration: time.Since(start)}
	}
}

func FetchAllCmd(deck Deck) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		// No shared deadline: the deck times out each panel on its own.
		summary := deck.FetchAll(context.Background())
		return FetchAllDoneMsg{Summary: summary, Duration: time.Since(start)}
	}
}

func SaveConfigCmd(deck Deck) tea.Cmd {
	return func() tea.Msg {
		set, path, err := deck.SaveConfig()
		return SaveConfigDoneMsg{Path: path, Count: len(set), Err: err}
	}
}

func LoadConfigCmd(deck Deck) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		summary, err := deck.LoadConfig(context.Background())
		return LoadConfigDoneMsg{Summary: summary, Err: err, Duration: time.Since(start)}
	}
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened URL in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

// CopyCmd copies text and reports what was copied by label.
func CopyCmd(label, text string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(text); err == nil {
				return OpenURLSuccessMsg{Status: label + " copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy %s to clipboard", label)}
	}
}
