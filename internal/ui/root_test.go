package ui

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procli/procli/internal/config"
	"github.com/procli/procli/internal/history"
	"github.com/procli/procli/internal/metrics"
	"github.com/procli/procli/internal/sampler"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeLoop struct{ status sampler.Status }

func (f *fakeLoop) Status() sampler.Status { return f.status }

func newTestModel(t *testing.T) (RootModel, *history.Store, *fakeLoop) {
	t.Helper()
	store := history.NewStore(history.Options{Capacity: 16, Grace: time.Minute, Logger: quiet})
	require.NoError(t, store.Ingest(&metrics.Snapshot{
		Taken: epoch,
		Processes: []metrics.ProcessStat{
			{PID: 1, Name: "postgres", RAM: 900},
			{PID: 2, Name: "bash", RAM: 500},
			{PID: 3, Name: "go", RAM: 100},
		},
	}))
	loop := &fakeLoop{}
	m := NewRootModel(store, loop, config.DefaultConfig(), quiet)
	return send(m, tea.WindowSizeMsg{Width: 100, Height: 30}), store, loop
}

func send(m RootModel, msgs ...tea.Msg) RootModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(RootModel)
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRootModelInitializing(t *testing.T) {
	m := NewRootModel(nil, nil, nil, nil)
	assert.Equal(t, "Initializing...", m.View())
	assert.NotNil(t, m.Init())
}

func TestRootModelPullsViewOnFrame(t *testing.T) {
	m, store, _ := newTestModel(t)
	assert.Contains(t, m.View(), "postgres")
	assert.NotContains(t, m.View(), "nginx")

	require.NoError(t, store.Ingest(&metrics.Snapshot{
		Taken:     epoch.Add(time.Second),
		Processes: []metrics.ProcessStat{{PID: 9, Name: "nginx", RAM: 5000}},
	}))
	assert.NotContains(t, m.View(), "nginx", "views are pulled, never pushed")

	m = send(m, FrameMsg(time.Now()))
	assert.Contains(t, m.View(), "nginx")
	assert.Equal(t, 1, m.state.Frame)
}

func TestRootModelSpotlightPinsTarget(t *testing.T) {
	m, store, _ := newTestModel(t)

	m = send(m, keyMsg("l"), keyMsg("enter"))
	key, ok := store.Pinned()
	require.True(t, ok)
	assert.Equal(t, int32(2), key.PID)
	assert.Contains(t, m.View(), "Instance")

	m = send(m, keyMsg("esc"))
	_, ok = store.Pinned()
	assert.False(t, ok)
	assert.Equal(t, ListMode, m.state.Mode)
}

func TestRootModelFilter(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = send(m, keyMsg("/"))
	require.True(t, m.state.Filtering)
	m = send(m, keyMsg("b"), keyMsg("a"))
	assert.Equal(t, "ba", m.state.Filter)
	require.Len(t, m.records, 1)
	assert.Equal(t, "bash", m.records[0].Name)

	// Keys typed while filtering never navigate.
	m = send(m, keyMsg("q"))
	assert.Equal(t, "baq", m.state.Filter)

	m = send(m, keyMsg("esc"))
	assert.False(t, m.state.Filtering)
	assert.Empty(t, m.state.Filter)
	assert.Len(t, m.records, 3)

	m = send(m, keyMsg("/"), keyMsg("g"), keyMsg("o"), keyMsg("enter"))
	assert.False(t, m.state.Filtering)
	assert.Equal(t, "go", m.state.Filter)
	assert.Contains(t, m.View(), "filter: go")

	m = send(m, keyMsg("esc"))
	assert.Empty(t, m.state.Filter)
}

func TestRootModelQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRootModelStalledBanner(t *testing.T) {
	m, _, loop := newTestModel(t)
	loop.status = sampler.Status{Stalled: true, LastErr: errors.New("permission denied")}
	m = send(m, FrameMsg(time.Now()))
	assert.Contains(t, m.View(), "sampling stalled: permission denied")

	loop.status = sampler.Status{}
	m = send(m, FrameMsg(time.Now()))
	assert.NotContains(t, m.View(), "sampling stalled")
}

func TestRootModelDebugPanel(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(m, keyMsg("d"))
	assert.Contains(t, m.View(), "sampler  state=idle")
	m = send(m, keyMsg("d"))
	assert.NotContains(t, m.View(), "sampler  state=")
}

func TestRootModelConfigReload(t *testing.T) {
	m, store, _ := newTestModel(t)
	cfg := config.DefaultConfig()
	cfg.Theme = "light"
	cfg.GracePeriod = 2500
	cfg.ShowHost = false

	m = send(m, ConfigMsg{Config: cfg})
	assert.Equal(t, 2500*time.Millisecond, store.Grace())
	assert.Equal(t, "light", m.styles.Theme.Name)
	assert.NotContains(t, m.View(), "load ")
}

func TestRootModelRenderFailureKeepsLastFrame(t *testing.T) {
	m, _, _ := newTestModel(t)
	good := m.View()
	require.NotEmpty(t, good)

	m.render = func(State, *history.View, Size, RenderOptions) string { panic("terminal went away") }
	m = send(m, FrameMsg(time.Now()))
	assert.Equal(t, good, m.View())
	assert.Equal(t, 1, m.renderErrors)

	m.render = Render
	m = send(m, tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.NotEqual(t, good, m.View())
}
