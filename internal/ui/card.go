package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/procli/procli/internal/history"
)

const (
	glyphActive = "●"
	glyphStub   = "◐"
	glyphExited = "○"
)

func glyphFor(r history.Record, s Styles) string {
	switch {
	case r.Status == history.Exited:
		return s.GlyphExited.Render(glyphExited)
	case r.Stub:
		return s.GlyphStub.Render(glyphStub)
	default:
		return s.GlyphActive.Render(glyphActive)
	}
}

// renderCard draws one record in exactly width cells. Narrow cards drop
// their border and collapse to a single line.
func renderCard(r history.Record, width int, focused bool, frame int, s Styles) string {
	if width < compactWidth {
		return padRight(glyphPlain(r)+" "+r.DisplayName(), width)
	}

	inner := width - 4 // Border and padding
	uptime := formatUptime(r.Uptime)
	nameWidth := inner - 2 - runewidth.StringWidth(uptime) - 1
	var title string
	if nameWidth < 3 {
		title = glyphFor(r, s) + " " + padRight(r.DisplayName(), inner-2)
	} else {
		title = glyphFor(r, s) + " " + padRight(r.DisplayName(), nameWidth) + " " + s.MetricLabel.Render(uptime)
	}

	current := r.Current()
	var chart, readout string
	switch {
	case r.Stub && r.Status == history.Active:
		chart = s.Pending.Render(padRight(pendingFrame(frame)+" details pending", inner))
	case inner < minSparkWidth+2:
		chart = s.Bar.Render(trendArrow(ramValues(r))) + " " + padRight(formatBytes(current.RAM), inner-2)
	default:
		chart = s.Bar.Render(sparkline(toBins(ramValues(r)), inner))
	}

	if r.Status == history.Exited {
		readout = padRight(fmt.Sprintf("exited, peak %s", formatBytes(r.Peak.RAM)), inner)
		readout = s.MetricLabel.Render(readout)
	} else {
		readout = padRight(fmt.Sprintf("%s  %.1f%%", formatBytes(current.RAM), current.CPU), inner)
		readout = s.MetricValue.Render(readout)
	}

	style := s.Card
	switch {
	case focused:
		style = s.FocusedCard
	case r.Status == history.Exited:
		style = s.ExitedCard
	}
	body := lipgloss.JoinVertical(lipgloss.Left, clampLine(title, inner), clampLine(chart, inner), readout)
	return style.Width(width - 2).Render(body)
}

func glyphPlain(r history.Record) string {
	switch {
	case r.Status == history.Exited:
		return glyphExited
	case r.Stub:
		return glyphStub
	default:
		return glyphActive
	}
}

func ramValues(r history.Record) []float64 {
	values, _ := r.RAMSeries()
	return values
}
