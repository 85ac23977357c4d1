package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/soupdeck/internal/app"
	"github.com/glabrego/soupdeck/internal/extract"
	"github.com/glabrego/soupdeck/internal/panel"
	tuiactions "github.com/glabrego/soupdeck/internal/tui/actions"
	tuiplatform "github.com/glabrego/soupdeck/internal/tui/platform"
	tuistate "github.com/glabrego/soupdeck/internal/tui/state"
	tuitheme "github.com/glabrego/soupdeck/internal/tui/theme"
	tuiview "github.com/glabrego/soupdeck/internal/tui/view"
)

const (
	statusTTL        = 5 * time.Second
	panelBlockHeight = 5
	defaultWidth     = 80
	defaultHeight    = 24
	chromeLines      = 5
)

type clearStatusMsg struct {
	id int
}

type keyMap struct {
	Next        key.Binding
	Prev        key.Binding
	Fetch       key.Binding
	Add         key.Binding
	Remove      key.Binding
	FetchAll    key.Binding
	Save        key.Binding
	Load        key.Binding
	AutoRefresh key.Binding
	Match       key.Binding
	Display     key.Binding
	Copy        key.Binding
	Open        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:        key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		Fetch:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "fetch panel")),
		Add:         key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "add panel")),
		Remove:      key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "remove bottom panel")),
		FetchAll:    key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "fetch all")),
		Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save config")),
		Load:        key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "load config")),
		AutoRefresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "auto refresh")),
		Match:       key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "css/text match")),
		Display:     key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "display mode")),
		Copy:        key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy output")),
		Open:        key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open URL")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "scroll down")),
		Help:        key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Fetch, k.Add, k.Remove, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Fetch, k.FetchAll},
		{k.Add, k.Remove, k.Save, k.Load},
		{k.AutoRefresh, k.Match, k.Display},
		{k.Copy, k.Open, k.PageUp, k.PageDown},
		{k.Help, k.Quit},
	}
}

type fieldInputs struct {
	url    textinput.Model
	filter textinput.Model
}

type Options struct {
	RefreshInterval time.Duration
	OpenURL         func(string) error
	Copy            func(string) error
	Now             func() time.Time
}

type Model struct {
	deck            *app.Orchestrator
	theme           tuitheme.Theme
	keys            keyMap
	help            help.Model
	inputs          map[panel.ID]*fieldInputs
	focus           tuistate.Focus
	output          viewport.Model
	outputID        panel.ID
	outputText      string
	width           int
	height          int
	showHelp        bool
	busy            int
	status          string
	statusID        int
	refreshInterval time.Duration
	openURLFn       func(string) error
	copyFn          func(string) error
	nowFn           func() time.Time
}

func NewModel(deck *app.Orchestrator, opts Options) Model {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = app.DefaultRefreshInterval
	}
	if opts.OpenURL == nil {
		opts.OpenURL = tuiplatform.OpenURLInBrowser
	}
	if opts.Copy == nil {
		opts.Copy = tuiplatform.CopyToClipboard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{
		deck:            deck,
		theme:           tuitheme.Default(),
		keys:            defaultKeyMap(),
		help:            help.New(),
		inputs:          make(map[panel.ID]*fieldInputs),
		output:          viewport.New(defaultWidth-2, defaultHeight-chromeLines-panelBlockHeight),
		refreshInterval: opts.RefreshInterval,
		openURLFn:       opts.OpenURL,
		copyFn:          opts.Copy,
		nowFn:           opts.Now,
	}
	m.syncInputs()
	m.refreshOutput()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.SetWindowTitle("soupdeck"))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
	case tea.KeyMsg:
		var quit bool
		m, cmd, quit = m.handleKey(msg)
		if quit {
			return m, cmd
		}
	case PanelOutputMsg:
	case StatusMsg:
		cmd = m.setStatus(msg.Text)
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
	case tuiactions.FetchPanelDoneMsg:
		m.busy = max(m.busy-1, 0)
	case tuiactions.FetchAllDoneMsg:
		m.busy = max(m.busy-1, 0)
		if msg.Summary.Failed > 0 {
			cmd = m.setStatus(fmt.Sprintf("%d of %d panels failed to fetch", msg.Summary.Failed, msg.Summary.Attempted))
		}
	case tuiactions.SaveConfigDoneMsg:
	case tuiactions.LoadConfigDoneMsg:
		m.busy = max(m.busy-1, 0)
		m.focus = tuistate.Focus{}
	case tuiactions.OpenURLSuccessMsg:
		cmd = m.setStatus(msg.Status)
	case tuiactions.OpenURLErrorMsg:
		cmd = m.setStatus(msg.Err.Error())
	default:
		if p, ok := m.focusedPanel(); ok {
			if in := m.inputs[p.ID()]; in != nil {
				var c1, c2 tea.Cmd
				in.url, c1 = in.url.Update(msg)
				in.filter, c2 = in.filter.Update(msg)
				cmd = tea.Batch(c1, c2)
			}
		}
	}
	m.syncInputs()
	// Panel count decides how tall the output can be.
	if _, h := m.layout(); h != m.output.Height {
		m.output.Height = h
	}
	m.refreshOutput()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil, false
	case key.Matches(msg, m.keys.Next):
		m.focus = tuistate.Cycle(m.focus, m.deck.Len(), 1)
		return m, nil, false
	case key.Matches(msg, m.keys.Prev):
		m.focus = tuistate.Cycle(m.focus, m.deck.Len(), -1)
		return m, nil, false
	case key.Matches(msg, m.keys.Add):
		id := m.deck.AddPanel()
		m.syncInputs()
		if idx := m.panelIndex(id); idx >= 0 {
			m.focus = tuistate.Focus{Panel: idx}
		}
		return m, nil, false
	case key.Matches(msg, m.keys.Remove):
		m.deck.RemoveLast()
		return m, nil, false
	case key.Matches(msg, m.keys.Fetch):
		p, ok := m.focusedPanel()
		if !ok {
			return m, m.setStatus("Add a panel with ctrl+n first"), false
		}
		m.busy++
		return m, tuiactions.FetchPanelCmd(m.deck, p.ID()), false
	case key.Matches(msg, m.keys.FetchAll):
		m.busy++
		return m, tuiactions.FetchAllCmd(m.deck), false
	case key.Matches(msg, m.keys.Save):
		return m, tuiactions.SaveConfigCmd(m.deck), false
	case key.Matches(msg, m.keys.Load):
		m.busy++
		return m, tuiactions.LoadConfigCmd(m.deck), false
	case key.Matches(msg, m.keys.AutoRefresh):
		if enabled, _ := m.deck.AutoRefresh(); enabled {
			m.deck.SetAutoRefresh(false, 0)
			return m, nil, false
		}
		m.deck.SetAutoRefresh(true, m.refreshInterval)
		return m, m.setStatus("Auto refresh every " + m.refreshInterval.String()), false
	case key.Matches(msg, m.keys.PageUp):
		m.output.SetYOffset(m.output.YOffset - tuistate.PageStep(m.output.Height))
		return m, nil, false
	case key.Matches(msg, m.keys.PageDown):
		m.output.SetYOffset(m.output.YOffset + tuistate.PageStep(m.output.Height))
		return m, nil, false
	}

	p, ok := m.focusedPanel()
	if !ok {
		return m, nil, false
	}
	switch {
	case key.Matches(msg, m.keys.Match):
		next := extract.TextContent
		if p.Settings().Match == extract.TextContent {
			next = extract.CSSClass
		}
		p.SetMatchMode(next)
		return m, nil, false
	case key.Matches(msg, m.keys.Display):
		p.SetDisplayMode(p.Settings().Display.Next())
		return m, nil, false
	case key.Matches(msg, m.keys.Copy):
		text, fetched := p.Output()
		if !fetched {
			return m, m.setStatus("Nothing to copy until the panel is fetched"), false
		}
		return m, tuiactions.CopyCmd("Output", text, m.copyFn), false
	case key.Matches(msg, m.keys.Open):
		url, err := tuiplatform.ValidateURL(p.Settings().URL)
		if err != nil {
			return m, m.setStatus(err.Error()), false
		}
		return m, tuiactions.OpenURLCmd(url, m.openURLFn, m.copyFn), false
	}

	in := m.inputs[p.ID()]
	if in == nil {
		return m, nil, false
	}
	var cmd tea.Cmd
	if m.focus.Field == 0 {
		in.url, cmd = in.url.Update(msg)
		if !p.SetURL(in.url.Value()) {
			in.url.SetValue(p.Settings().URL)
			return m, tea.Batch(cmd, m.setStatus("URL is locked once the panel is fetched")), false
		}
		return m, cmd, false
	}
	in.filter, cmd = in.filter.Update(msg)
	p.SetFilter(in.filter.Value())
	return m, cmd, false
}

func (m *Model) setStatus(s string) tea.Cmd {
	m.status = s
	m.statusID++
	return clearStatusCmd(m.statusID, statusTTL)
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func (m Model) focusedPanel() (*panel.Panel, bool) {
	panels := m.deck.Panels()
	if len(panels) == 0 {
		return nil, false
	}
	return panels[tuistate.ClampCursor(m.focus.Panel, len(panels))], true
}

func (m Model) panelIndex(id panel.ID) int {
	for i, p := range m.deck.Panels() {
		if p.ID() == id {
			return i
		}
	}
	return -1
}

func (m Model) newInputs(s panel.Settings) *fieldInputs {
	url := textinput.New()
	url.Prompt = "URL    "
	url.Placeholder = "https://"
	url.SetValue(s.URL)

	filter := textinput.New()
	filter.Prompt = "Filter "
	filter.Placeholder = "class or text pattern"
	filter.SetValue(s.Filter)

	in := &fieldInputs{url: url, filter: filter}
	m.sizeInputs(in)
	return in
}

func (m Model) sizeInputs(in *fieldInputs) {
	w := max(m.contentWidth()-14, 10)
	in.url.Width = w
	in.filter.Width = w
}

// syncInputs keeps one input pair per live panel, showing the panel's
// current settings, and moves keyboard focus to the focused field.
func (m *Model) syncInputs() {
	panels := m.deck.Panels()
	live := make(map[panel.ID]bool, len(panels))
	for _, p := range panels {
		live[p.ID()] = true
		s := p.Settings()
		in, ok := m.inputs[p.ID()]
		if !ok {
			m.inputs[p.ID()] = m.newInputs(s)
			continue
		}
		if in.url.Value() != s.URL {
			in.url.SetValue(s.URL)
		}
		if in.filter.Value() != s.Filter {
			in.filter.SetValue(s.Filter)
		}
	}
	for id := range m.inputs {
		if !live[id] {
			delete(m.inputs, id)
		}
	}

	m.focus = tuistate.Clamp(m.focus, len(panels))
	for i, p := range panels {
		in := m.inputs[p.ID()]
		if i == m.focus.Panel && m.focus.Field == 0 {
			in.url.Focus()
		} else {
			in.url.Blur()
		}
		if i == m.focus.Panel && m.focus.Field == 1 {
			in.filter.Focus()
		} else {
			in.filter.Blur()
		}
	}
}

func (m *Model) resize() {
	for _, in := range m.inputs {
		m.sizeInputs(in)
	}
	_, outputHeight := m.layout()
	m.output.Width = m.contentWidth() - 2
	m.output.Height = outputHeight
	m.outputText = ""
}

func (m *Model) refreshOutput() {
	p, ok := m.focusedPanel()
	var id panel.ID
	content := m.theme.Muted.Render("No panels yet. Press ctrl+n to add one.")
	if ok {
		id = p.ID()
		content = m.outputContent(p)
	}
	if content != m.outputText {
		m.outputText = content
		m.output.SetContent(content)
	}
	if id != m.outputID {
		m.outputID = id
		m.output.GotoTop()
	}
}

func (m Model) outputContent(p *panel.Panel) string {
	snap := p.Snapshot()
	switch snap.State {
	case panel.Fetched:
		text, _ := p.Output()
		lines := tuiview.OutputLines(text, snap.Settings.Display, m.output.Width)
		if len(lines) == 0 {
			return m.theme.Muted.Render("Nothing matched the filter.")
		}
		return strings.Join(lines, "\n")
	case panel.Fetching:
		return m.theme.Muted.Render("Fetching " + snap.Settings.URL + "...")
	case panel.Failed:
		if snap.Err != nil {
			return m.theme.StateWarn.Render(snap.Err.Error())
		}
		return m.theme.StateWarn.Render("Fetch failed")
	default:
		return m.theme.Muted.Render("Enter a URL and press enter to fetch it.")
	}
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

// layout returns how many panels fit on screen and the viewport height
// left for output.
func (m Model) layout() (int, int) {
	h := m.height
	if h <= 0 {
		h = defaultHeight
	}
	avail := h - chromeLines
	shown := max((avail/2)/panelBlockHeight, 1)
	if n := m.deck.Len(); n < shown {
		shown = n
	}
	return shown, max(avail-shown*panelBlockHeight, 3)
}

func (m Model) View() string {
	width := m.contentWidth()
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("soupdeck"))
	b.WriteString("  ")
	b.WriteString(m.theme.MetaLabel.Render(tuiview.Truncate(tuiview.Toolbar(m.showHelp), width-10)))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
		b.WriteString("\n\n")
		b.WriteString(m.footer())
		return b.String()
	}

	panels := m.deck.Panels()
	if len(panels) == 0 {
		b.WriteString(m.theme.Muted.Render("No panels yet. Press ctrl+n to add one."))
		b.WriteString("\n")
	}
	shown, _ := m.layout()
	start, end := tuistate.CenteredWindow(len(panels), m.focus.Panel, shown)
	for i := start; i < end; i++ {
		b.WriteString(m.renderPanel(i, panels[i], i == m.focus.Panel, width))
		b.WriteString("\n")
	}

	title := "Output"
	if len(panels) > 0 {
		title = fmt.Sprintf("Output · Panel %d", tuistate.ClampCursor(m.focus.Panel, len(panels))+1)
	}
	b.WriteString(m.theme.Section.Render(title))
	b.WriteString("\n")
	b.WriteString(m.output.View())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) renderPanel(i int, p *panel.Panel, focused bool, width int) string {
	snap := p.Snapshot()
	in := m.inputs[p.ID()]
	if in == nil {
		in = m.newInputs(snap.Settings)
	}
	header := tuiview.RenderPanelHeader(tuiview.PanelHeaderParams{
		Index:    i,
		Snapshot: snap,
		Now:      m.nowFn(),
		Width:    width - 4,
		Focused:  focused,
	}, m.theme)
	body := header + "\n" + in.url.View() + "\n" + in.filter.View()
	return m.theme.PanelFrame(focused).Width(width - 2).Render(body)
}

func (m Model) footer() string {
	enabled, interval := m.deck.AutoRefresh()
	msg := tuiview.CompactMessage(m.busy, m.status, m.theme)
	return msg + "\n" + tuiview.CompactFooter(tuiview.FooterParams{
		Panels:      m.deck.Len(),
		Focused:     m.focus.Panel,
		AutoRefresh: enabled,
		Interval:    interval,
		PanelsFile:  m.deck.PanelsFile(),
	}, m.theme)
}
