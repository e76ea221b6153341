package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/procli/procli/internal/history"
)

const (
	minCardWidth  = 24 // Below this a grid collapses to one column
	compactWidth  = 8  // Below this cards lose their border
	minSparkWidth = 6  // Below this a card shows a trend arrow
	cardHeight    = 5
)

var pendingFrames = spinner.MiniDot.Frames

type Size struct {
	Width  int
	Height int
}

// RenderOptions carries everything a frame needs besides the state and the
// view. Pre-rendered bubbles components arrive as strings so that Render
// stays a pure function.
type RenderOptions struct {
	Styles   Styles
	Columns  int
	ShowHost bool

	Stalled     bool
	StallReason string

	FilterView string   // Rendered filter input while filtering
	HelpView   string   // Rendered key help
	Debug      []string // Debug panel lines, shown when State.ShowDebug
}

// Render draws one frame. It reads nothing but its arguments, so identical
// inputs always produce identical frames. The result never exceeds size.
func Render(st State, view *history.View, size Size, opts RenderOptions) string {
	if size.Width <= 0 || size.Height <= 0 {
		return ""
	}
	if view == nil {
		view = &history.View{}
	}
	records := FilterRecords(view.Records, st.Filter)

	header := renderHeader(view, size.Width, opts)
	footer := renderFooter(st, size.Width, opts)
	debug := renderDebug(st, size.Width, opts)

	bodyHeight := size.Height - lipgloss.Height(header) - lipgloss.Height(footer)
	if debug != "" {
		bodyHeight -= lipgloss.Height(debug)
	}

	var body string
	if bodyHeight > 0 {
		if key, ok := st.Spotlight(); ok {
			if idx := indexOf(records, key); idx >= 0 {
				body = renderSpotlight(records[idx], view, st, Size{Width: size.Width, Height: bodyHeight}, opts.Styles)
			}
		}
		if body == "" {
			body = renderList(records, st, Size{Width: size.Width, Height: bodyHeight}, opts)
		}
		body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	}

	parts := []string{header}
	if body != "" {
		parts = append(parts, body)
	}
	if debug != "" {
		parts = append(parts, debug)
	}
	parts = append(parts, footer)

	return lipgloss.NewStyle().
		MaxWidth(size.Width).
		MaxHeight(size.Height).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// ListLayout is the card grid Render will use for a frame of this size.
func ListLayout(st State, size Size, opts RenderOptions) Layout {
	return gridLayout(size.Width, size.Height-chromeHeight(st, opts), opts.Columns)
}

func gridLayout(width, height, columns int) Layout {
	cols := max(1, columns)
	if width < minCardWidth*cols {
		cols = max(1, width/minCardWidth)
	}
	rows := max(1, height/cardHeightFor(width/cols))
	return Layout{Columns: cols, Rows: rows}
}

func chromeHeight(st State, opts RenderOptions) int {
	h := 1 // Title
	if opts.ShowHost {
		h++
	}
	h += footerHeight(st, opts)
	if st.ShowDebug && len(opts.Debug) > 0 {
		h += len(opts.Debug) + 2
	}
	return h
}

func footerHeight(st State, opts RenderOptions) int {
	h := max(1, lipgloss.Height(opts.HelpView))
	if st.Filtering || st.Filter != "" {
		h++
	}
	return h
}

func cardHeightFor(width int) int {
	if width < compactWidth {
		return 1
	}
	return cardHeight
}

func renderHeader(view *history.View, width int, opts RenderOptions) string {
	s := opts.Styles
	title := s.Title.Render("procli") + " " +
		s.GlyphActive.Render(glyphActive) + fmt.Sprintf(" %d ", view.Counts.Active-view.Counts.Stubs) +
		s.GlyphStub.Render(glyphStub) + fmt.Sprintf(" %d ", view.Counts.Stubs) +
		s.GlyphExited.Render(glyphExited) + fmt.Sprintf(" %d", view.Counts.Exited)
	if opts.Stalled {
		banner := "sampling stalled"
		if opts.StallReason != "" {
			banner += ": " + opts.StallReason
		}
		title += "  " + s.Alert.Render(banner)
	}
	lines := []string{clampLine(title, width)}

	if opts.ShowHost {
		lines = append(lines, clampLine(renderHost(view, width, s), width))
	}
	return strings.Join(lines, "\n")
}

func renderHost(view *history.View, width int, s Styles) string {
	h := view.Host
	parts := []string{
		fmt.Sprintf("load %.2f %.2f %.2f", h.LoadAvg[0], h.LoadAvg[1], h.LoadAvg[2]),
	}
	if h.Uptime > 0 {
		parts = append(parts, "up "+formatUptime(time.Duration(h.Uptime)*time.Second))
	}
	if h.GPU.Available {
		parts = append(parts, fmt.Sprintf("gpu %s %d%% %d°C", h.GPU.Name, h.GPU.Utilization, h.GPU.Temperature))
	}
	rest := s.MetricLabel.Render(strings.Join(parts, "  "))

	label := fmt.Sprintf("mem %s/%s", formatBytes(h.MemUsed), formatBytes(h.MemTotal))
	barWidth := width - lipgloss.Width(rest) - 2
	if barWidth < 10+len(label) {
		return label + "  " + rest
	}
	return renderBar(h.MemPercent, 100, barWidth, label, s) + "  " + rest
}

func renderFooter(st State, width int, opts RenderOptions) string {
	var lines []string
	if st.Filtering {
		filter := opts.FilterView
		if filter == "" {
			filter = "/" + st.Filter
		}
		lines = append(lines, clampLine(filter, width))
	} else if st.Filter != "" {
		lines = append(lines, clampLine(opts.Styles.MetricLabel.Render("filter: "+st.Filter), width))
	}
	help := opts.HelpView
	if help == "" {
		help = "q quit"
	}
	for _, l := range strings.Split(help, "\n") {
		lines = append(lines, clampLine(l, width))
	}
	return strings.Join(lines, "\n")
}

func renderDebug(st State, width int, opts RenderOptions) string {
	if !st.ShowDebug || len(opts.Debug) == 0 || width < 4 {
		return ""
	}
	inner := width - 4
	lines := make([]string, len(opts.Debug))
	for i, l := range opts.Debug {
		lines[i] = padRight(l, inner)
	}
	return opts.Styles.Panel.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func renderList(records []history.Record, st State, size Size, opts RenderOptions) string {
	if len(records) == 0 {
		msg := "waiting for first sample…"
		if st.Filter != "" {
			msg = "no process matches the filter"
		}
		return opts.Styles.MetricLabel.Render(truncate(msg, size.Width))
	}

	layout := gridLayout(size.Width, size.Height, opts.Columns)
	cardWidth := size.Width / layout.Columns

	first := st.Scroll * layout.Columns
	last := min(len(records), first+layout.Columns*layout.Rows)
	if first >= last {
		first = 0
	}

	var rows []string
	for start := first; start < last; start += layout.Columns {
		end := min(last, start+layout.Columns)
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			focused := st.Mode == ListMode && i == st.Selected
			cards = append(cards, renderCard(records[i], cardWidth, focused, st.Frame, opts.Styles))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(rows, "\n")
}

// clampLine cuts an already styled line to width cells.
func clampLine(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func pendingFrame(frame int) string {
	return pendingFrames[((frame%len(pendingFrames))+len(pendingFrames))%len(pendingFrames)]
}
