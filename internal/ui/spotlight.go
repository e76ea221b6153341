package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/procli/procli/internal/history"
)

const (
	timeLayout     = "2006-01-02 15:04:05"
	minChartWidth  = 10
	minChartHeight = 3
)

// renderSpotlight draws the detail panel for one record. A stub shows a
// pending notice in place of the charts until the store upgrades it.
func renderSpotlight(r history.Record, view *history.View, st State, size Size, s Styles) string {
	if size.Width < 6 || size.Height < 3 {
		return truncate(glyphPlain(r)+" "+r.DisplayName(), size.Width)
	}
	inner := size.Width - 4
	innerHeight := size.Height - 2

	title := glyphFor(r, s) + " " + s.Title.Render(r.DisplayName()) +
		s.MetricLabel.Render(fmt.Sprintf("  pid %d  %s", r.Key.PID, r.Status))
	lines := []string{clampLine(title, inner)}

	meta := spotlightMeta(r, view)
	if r.Stub && r.Status == history.Active {
		lines = append(lines, s.Pending.Render(truncate(pendingFrame(st.Frame)+" details pending", inner)))
	} else {
		chartHeight := innerHeight - len(lines) - len(meta) - 3 // RAM label, CPU line, spacer
		lines = append(lines, spotlightCharts(r, inner, chartHeight, s)...)
	}
	lines = append(lines, "")
	for _, m := range meta {
		lines = append(lines, clampLine(m, inner))
	}

	if len(lines) > innerHeight {
		lines = lines[:innerHeight]
	}
	return s.Panel.Width(size.Width - 2).Render(strings.Join(lines, "\n"))
}

func spotlightCharts(r history.Record, width, height int, s Styles) []string {
	values, times := r.RAMSeries()
	current := r.Current()
	label := s.MetricLabel.Render(fmt.Sprintf("RAM %s (peak %s, %d samples)",
		humanize.IBytes(current.RAM), humanize.IBytes(r.Peak.RAM), len(values)))

	if width < minChartWidth || height < minChartHeight {
		return []string{
			clampLine(label, width),
			clampLine(s.Bar.Render(trendArrow(values))+s.MetricLabel.Render(fmt.Sprintf(" cpu %.1f%%", current.CPU)), width),
		}
	}

	bins := fitBins(values, times, width)
	ceiling := float64(r.Peak.RAM) * 1.1
	lines := []string{clampLine(label, width)}
	for _, row := range blockChart(bins, width, height, ceiling) {
		lines = append(lines, s.Bar.Render(row))
	}

	cpuLabel := fmt.Sprintf("CPU %5.1f%% ", current.CPU)
	cpuBins := fitBins(r.CPUSeries(), times, width-len(cpuLabel))
	lines = append(lines, clampLine(s.MetricLabel.Render(cpuLabel)+s.Bar.Render(sparkline(cpuBins, width-len(cpuLabel))), width))
	return lines
}

func spotlightMeta(r history.Record, view *history.View) []string {
	now := view.Taken
	started := "unknown"
	if !r.StartTime.IsZero() {
		started = fmt.Sprintf("%s (%s)", r.StartTime.Format(timeLayout), formatSince(r.StartTime, now))
	}
	current := r.Current()

	meta := []string{
		row("PID", fmt.Sprintf("%d", r.Key.PID)),
		row("Instance", r.Token.String()),
		row("Started", started),
		row("First seen", fmt.Sprintf("%s (%s)", r.Key.FirstSeen.Format(timeLayout), formatSince(r.Key.FirstSeen, now))),
		row("Status", r.Status.String()),
		row("Uptime", formatUptime(r.Uptime)),
		row("RAM", fmt.Sprintf("%s now, %s peak", humanize.IBytes(current.RAM), humanize.IBytes(r.Peak.RAM))),
		row("CPU", fmt.Sprintf("%.1f%% now, %.1f%% peak", current.CPU, r.Peak.CPU)),
	}
	if r.Status == history.Exited {
		meta = append(meta, row("Exited", fmt.Sprintf("%s (%s)", r.ExitedAt.Format(timeLayout), formatSince(r.ExitedAt, now))))
	}
	return meta
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, padRight(label, 11), value)
}
