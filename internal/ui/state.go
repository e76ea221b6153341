package ui

import (
	"strconv"
	"strings"

	"github.com/procli/procli/internal/history"
)

// Mode is the top-level view.
type Mode int

const (
	ListMode Mode = iota
	SpotlightMode
)

func (m Mode) String() string {
	if m == SpotlightMode {
		return "spotlight"
	}
	return "list"
}

// Layout is the card grid the state navigates: Columns cards per row and
// Rows card rows visible at once.
type Layout struct {
	Columns int
	Rows    int
}

func (l Layout) normalized() Layout {
	return Layout{Columns: max(1, l.Columns), Rows: max(1, l.Rows)}
}

// State is the interactive state of the dashboard. It has no terminal
// dependency: every method is a pure transition over the ordered records
// the caller passes in, so it can be driven directly from tests.
type State struct {
	Mode     Mode
	Selected int
	Scroll   int // First visible card row

	// Focus is the record the selection follows across reorderings.
	Focus    history.Key
	HasFocus bool

	Filter    string
	Filtering bool
	ShowDebug bool
	ShowHelp  bool
	Frame     int // Animation frame counter, advanced on every frame tick
}

// Sync re-resolves the selection against the latest ordered records. The
// focused record keeps the selection wherever it moved; if it is gone the
// selection stays at the nearest valid index.
func (s *State) Sync(records []history.Record, layout Layout) {
	layout = layout.normalized()
	if len(records) == 0 {
		s.Selected, s.Scroll = 0, 0
		if s.Mode == SpotlightMode {
			s.Mode = ListMode
		}
		return
	}

	found := false
	if s.HasFocus {
		if idx := indexOf(records, s.Focus); idx >= 0 {
			s.Selected = idx
			found = true
		}
	}
	if !found && s.Mode == SpotlightMode && s.HasFocus {
		s.Mode = ListMode
	}
	s.Selected = clamp(s.Selected, 0, len(records)-1)
	s.Focus = records[s.Selected].Key
	s.HasFocus = true
	s.scrollTo(len(records), layout)
}

// Move shifts the selection by delta records, clamped to the list.
func (s *State) Move(delta int, records []history.Record, layout Layout) {
	if len(records) == 0 {
		return
	}
	s.Selected = clamp(s.Selected+delta, 0, len(records)-1)
	s.Focus = records[s.Selected].Key
	s.HasFocus = true
	s.scrollTo(len(records), layout.normalized())
}

// Up and Down move by one card row in the list and by one record in the
// spotlight.
func (s *State) Up(records []history.Record, layout Layout) {
	s.Move(-s.rowStep(layout), records, layout)
}

func (s *State) Down(records []history.Record, layout Layout) {
	s.Move(s.rowStep(layout), records, layout)
}

func (s *State) Left(records []history.Record, layout Layout) {
	s.Move(-1, records, layout)
}

func (s *State) Right(records []history.Record, layout Layout) {
	s.Move(1, records, layout)
}

func (s *State) PageUp(records []history.Record, layout Layout) {
	l := layout.normalized()
	s.Move(-l.Columns*l.Rows, records, layout)
}

func (s *State) PageDown(records []history.Record, layout Layout) {
	l := layout.normalized()
	s.Move(l.Columns*l.Rows, records, layout)
}

func (s *State) Home(records []history.Record, layout Layout) {
	s.Move(-len(records), records, layout)
}

func (s *State) End(records []history.Record, layout Layout) {
	s.Move(len(records), records, layout)
}

// Enter opens the spotlight on the selected record. Stubs are selectable.
func (s *State) Enter(records []history.Record) {
	if len(records) == 0 {
		return
	}
	s.Selected = clamp(s.Selected, 0, len(records)-1)
	s.Focus = records[s.Selected].Key
	s.HasFocus = true
	s.Mode = SpotlightMode
}

// Back returns to the list, keeping the selection on the same record.
func (s *State) Back() {
	s.Mode = ListMode
}

// Spotlight returns the spotlight target, if any.
func (s *State) Spotlight() (history.Key, bool) {
	if s.Mode != SpotlightMode || !s.HasFocus {
		return history.Key{}, false
	}
	return s.Focus, true
}

func (s *State) rowStep(layout Layout) int {
	if s.Mode == SpotlightMode {
		return 1
	}
	return layout.normalized().Columns
}

func (s *State) scrollTo(n int, l Layout) {
	row := s.Selected / l.Columns
	if row < s.Scroll {
		s.Scroll = row
	}
	if row >= s.Scroll+l.Rows {
		s.Scroll = row - l.Rows + 1
	}
	lastRow := (n - 1) / l.Columns
	s.Scroll = clamp(s.Scroll, 0, max(0, lastRow-l.Rows+1))
}

// FilterRecords keeps records whose name or PID contains text, ignoring
// case. An empty filter keeps everything.
func FilterRecords(records []history.Record, text string) []history.Record {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return records
	}
	out := make([]history.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name), text) ||
			strings.Contains(strconv.Itoa(int(r.Key.PID)), text) {
			out = append(out, r)
		}
	}
	return out
}

func indexOf(records []history.Record, k history.Key) int {
	for i := range records {
		if records[i].Key.Equal(k) {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(hi, v))
}
