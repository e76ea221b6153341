package ui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/procli/procli/internal/config"
	"github.com/procli/procli/internal/history"
	"github.com/procli/procli/internal/sampler"
)

// FrameMsg drives redraws. Each one pulls the latest published view.
type FrameMsg time.Time

// ConfigMsg delivers a reloaded configuration.
type ConfigMsg struct {
	Config *config.ProfileConfiguration
}

// RenderSurfaceError wraps a panic raised while drawing a frame.
type RenderSurfaceError struct {
	Cause any
}

func (e *RenderSurfaceError) Error() string {
	return fmt.Sprintf("render surface: %v", e.Cause)
}

// ViewStore is the read side of the history store plus the spotlight
// retention hints. *history.Store implements it.
type ViewStore interface {
	View() *history.View
	Pin(k history.Key)
	Unpin()
	SetGrace(d time.Duration)
	Grace() time.Duration
}

// LoopStatus reports the sampler's health. *sampler.Loop implements it.
type LoopStatus interface {
	Status() sampler.Status
}

type RootModel struct {
	store  ViewStore
	loop   LoopStatus
	logger *slog.Logger

	config *config.ProfileConfiguration
	styles Styles
	frame  time.Duration

	state   State
	size    Size
	view    *history.View
	records []history.Record

	filter textinput.Model
	help   help.Model
	render func(State, *history.View, Size, RenderOptions) string

	// Last frame that rendered without panicking.
	output       string
	renderErrors int
}

func NewRootModel(store ViewStore, loop LoopStatus, cfg *config.ProfileConfiguration, logger *slog.Logger) RootModel {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/"
	ti.CharLimit = 30
	ti.Width = 20

	return RootModel{
		store:  store,
		loop:   loop,
		logger: logger,
		config: cfg,
		styles: NewStyles(ThemeByName(cfg.Theme)),
		frame:  frameInterval(cfg),
		view:   &history.View{},
		filter: ti,
		help:   help.New(),
		render: Render,
	}
}

func frameInterval(cfg *config.ProfileConfiguration) time.Duration {
	if d := cfg.Frame(); d > 0 {
		return d
	}
	return 250 * time.Millisecond
}

func frameTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func (m RootModel) Init() tea.Cmd {
	return frameTick(m.frame)
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = Size{Width: msg.Width, Height: msg.Height}
		m.help.Width = msg.Width
		m.refresh()

	case FrameMsg:
		m.state.Frame++
		m.refresh()
		cmds = append(cmds, frameTick(m.frame))

	case ConfigMsg:
		m.applyConfig(msg.Config)
		m.refresh()

	case tea.KeyMsg:
		if m.state.Filtering {
			cmds = append(cmds, m.updateFilter(msg))
			break
		}
		cmds = append(cmds, m.handleKey(msg))
	}

	m.draw()
	return m, tea.Batch(cmds...)
}

func (m *RootModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	layout := m.layout()
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Up):
		m.state.Up(m.records, layout)
	case key.Matches(msg, keys.Down):
		m.state.Down(m.records, layout)
	case key.Matches(msg, keys.Left):
		m.state.Left(m.records, layout)
	case key.Matches(msg, keys.Right):
		m.state.Right(m.records, layout)
	case key.Matches(msg, keys.PageUp):
		m.state.PageUp(m.records, layout)
	case key.Matches(msg, keys.PageDown):
		m.state.PageDown(m.records, layout)
	case key.Matches(msg, keys.Home):
		m.state.Home(m.records, layout)
	case key.Matches(msg, keys.End):
		m.state.End(m.records, layout)
	case key.Matches(msg, keys.Select):
		m.state.Enter(m.records)
	case key.Matches(msg, keys.Back):
		if m.state.Mode == SpotlightMode {
			m.state.Back()
		} else if m.state.Filter != "" {
			m.state.Filter = ""
			m.filter.SetValue("")
			m.refresh()
		}
	case key.Matches(msg, keys.Filter):
		m.state.Filtering = true
		m.filter.SetValue(m.state.Filter)
		m.filter.CursorEnd()
		m.filter.Focus()
		return textinput.Blink
	case key.Matches(msg, keys.Debug):
		m.state.ShowDebug = !m.state.ShowDebug
	case key.Matches(msg, keys.Help):
		m.state.ShowHelp = !m.state.ShowHelp
		m.help.ShowAll = m.state.ShowHelp
	}
	m.syncPin()
	return nil
}

func (m *RootModel) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.state.Filtering = false
		m.filter.Blur()
		return nil
	case "esc":
		m.state.Filtering = false
		m.state.Filter = ""
		m.filter.SetValue("")
		m.filter.Blur()
		m.refresh()
		return nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.state.Filter = m.filter.Value() // Live filter
	m.refresh()
	return cmd
}

func (m *RootModel) applyConfig(cfg *config.ProfileConfiguration) {
	if cfg == nil {
		return
	}
	m.config = cfg
	m.styles = NewStyles(ThemeByName(cfg.Theme))
	m.frame = frameInterval(cfg)
	if m.store != nil {
		m.store.SetGrace(cfg.Grace())
	}
	m.logger.Info("configuration applied",
		"theme", cfg.Theme, "columns", cfg.Columns, "grace", cfg.Grace(), "show_host", cfg.ShowHost)
}

// refresh pulls the latest view and re-resolves the selection against it.
func (m *RootModel) refresh() {
	if m.store != nil {
		m.view = m.store.View()
	}
	if m.view == nil {
		m.view = &history.View{}
	}
	m.records = FilterRecords(m.view.Records, m.state.Filter)
	m.state.Sync(m.records, m.layout())
	m.syncPin()
}

// syncPin keeps the spotlight target safe from purging while it is shown.
func (m *RootModel) syncPin() {
	if m.store == nil {
		return
	}
	if k, ok := m.state.Spotlight(); ok {
		m.store.Pin(k)
	} else {
		m.store.Unpin()
	}
}

func (m *RootModel) layout() Layout {
	return ListLayout(m.state, m.size, m.options())
}

func (m *RootModel) options() RenderOptions {
	opts := RenderOptions{
		Styles:   m.styles,
		Columns:  m.config.Columns,
		ShowHost: m.config.ShowHost,
		HelpView: m.help.View(keys),
	}
	if m.state.Filtering {
		opts.FilterView = m.filter.View()
	}
	if m.loop != nil {
		st := m.loop.Status()
		opts.Stalled = st.Stalled
		if st.Stalled && st.LastErr != nil {
			opts.StallReason = st.LastErr.Error()
		}
	}
	if m.state.ShowDebug {
		opts.Debug = m.debugLines()
	}
	return opts
}

func (m *RootModel) debugLines() []string {
	lines := []string{
		fmt.Sprintf("view     seq=%d taken=%s active=%d stubs=%d exited=%d",
			m.view.Seq, m.view.Taken.Format("15:04:05"), m.view.Counts.Active, m.view.Counts.Stubs, m.view.Counts.Exited),
		fmt.Sprintf("ui       mode=%s selected=%d scroll=%d frame=%d size=%dx%d",
			m.state.Mode, m.state.Selected, m.state.Scroll, m.state.Frame, m.size.Width, m.size.Height),
	}
	if m.loop != nil {
		st := m.loop.Status()
		lines = append(lines, fmt.Sprintf("sampler  state=%s cycles=%d failures=%d last=%s stalled=%t",
			st.State, st.Cycles, st.Failures, st.LastDuration.Round(time.Microsecond), st.Stalled))
	}
	if m.store != nil {
		lines = append(lines, fmt.Sprintf("store    grace=%s render_errors=%d", m.store.Grace(), m.renderErrors))
	}
	if k, ok := m.state.Spotlight(); ok {
		lines = append(lines, "pinned   "+k.String())
	}
	return lines
}

// draw renders the current frame. A panic while drawing keeps the previous
// frame on screen; the next frame tick redraws from fresh dimensions.
func (m *RootModel) draw() {
	defer func() {
		if r := recover(); r != nil {
			m.renderErrors++
			m.logger.Error("frame render failed", "err", &RenderSurfaceError{Cause: r}, "width", m.size.Width, "height", m.size.Height)
		}
	}()
	m.output = m.render(m.state, m.view, m.size, m.options())
}

func (m RootModel) View() string {
	if m.size.Width == 0 {
		return "Initializing..."
	}
	return m.output
}
