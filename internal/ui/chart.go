package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/procli/procli/internal/history"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// eighths of a full block, index 0 is empty
var blockLevels = []rune(" ▁▂▃▄▅▆▇█")

const gapRune = '_'

// toBins wraps plain values as valid bins.
func toBins(values []float64) []history.Bin {
	out := make([]history.Bin, len(values))
	for i, v := range values {
		out[i] = history.Bin{Value: v, Valid: true}
	}
	return out
}

// fitBins reduces a series to at most width columns. Series that already
// fit are returned at full resolution; longer ones keep the max per column.
func fitBins(values []float64, times []time.Time, width int) []history.Bin {
	if width <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= width || len(times) != len(values) {
		if len(values) > width {
			values = values[len(values)-width:]
		}
		return toBins(values)
	}
	// Resample buckets are (start, end], so open the range just before
	// the first sample and round the span up to a whole number of columns.
	start := times[0].Add(-time.Nanosecond)
	span := times[len(times)-1].Sub(start)
	step := (span + time.Duration(width) - 1) / time.Duration(width)
	end := start.Add(step * time.Duration(width))
	return history.Resample(values, times, start, end, width)
}

func binRange(bins []history.Bin) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, b := range bins {
		if !b.Valid {
			continue
		}
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
		ok = true
	}
	return lo, hi, ok
}

// sparkline draws bins in exactly width cells, newest on the right, scaled
// to the series' own min and max.
func sparkline(bins []history.Bin, width int) string {
	if width <= 0 {
		return ""
	}
	if len(bins) > width {
		bins = bins[len(bins)-width:]
	}
	lo, hi, ok := binRange(bins)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(bins)))
	for _, b := range bins {
		if !b.Valid || !ok {
			sb.WriteRune(gapRune)
			continue
		}
		idx := 0
		if hi > lo {
			idx = int((b.Value-lo)/(hi-lo)*float64(len(sparkLevels)-1) + 0.5)
		}
		sb.WriteRune(sparkLevels[idx])
	}
	return sb.String()
}

// blockChart draws bins as a height-row column chart scaled from zero to
// ceiling. Each returned row is exactly width cells.
func blockChart(bins []history.Bin, width, height int, ceiling float64) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	if len(bins) > width {
		bins = bins[len(bins)-width:]
	}
	pad := width - len(bins)
	steps := height * (len(blockLevels) - 1)

	fill := make([]int, len(bins))
	for i, b := range bins {
		if !b.Valid || ceiling <= 0 {
			continue
		}
		f := int(b.Value / ceiling * float64(steps))
		fill[i] = max(0, min(steps, f))
	}

	rows := make([]string, height)
	for r := 0; r < height; r++ {
		// Row 0 is the top; floor is the number of eighths below this row.
		floor := (height - 1 - r) * (len(blockLevels) - 1)
		var sb strings.Builder
		sb.WriteString(strings.Repeat(" ", pad))
		for _, f := range fill {
			level := max(0, min(len(blockLevels)-1, f-floor))
			sb.WriteRune(blockLevels[level])
		}
		rows[r] = sb.String()
	}
	return rows
}

// trendArrow summarises a series in one cell for cards too narrow for a
// sparkline.
func trendArrow(values []float64) string {
	if len(values) < 2 {
		return "→"
	}
	window := values[max(0, len(values)-5):]
	first, last := window[0], window[len(window)-1]
	tolerance := 0.02 * math.Max(math.Abs(first), 1)
	switch {
	case last-first > tolerance:
		return "↑"
	case first-last > tolerance:
		return "↓"
	default:
		return "→"
	}
}

// renderBar draws a labelled horizontal gauge.
func renderBar(value, limit float64, width int, label string, st Styles) string {
	if limit <= 0 {
		limit = 100
	}
	if width < 10 {
		return label
	}
	barWidth := max(0, width-lipgloss.Width(label)-1)

	ratio := math.Max(0, math.Min(1, value/limit))
	filled := int(ratio * float64(barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	style := st.Bar
	if ratio > 0.8 {
		style = st.AlertBar
	}
	return fmt.Sprintf("%s %s", label, style.Render(bar))
}
