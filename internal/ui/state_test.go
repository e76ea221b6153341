package ui

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procli/procli/internal/history"
)

var epoch = time.Unix(1_700_000_000, 0)

func rec(pid int32, name string, ram ...uint64) history.Record {
	r := history.Record{
		Key:    history.Key{PID: pid, FirstSeen: epoch},
		Name:   name,
		Status: history.Active,
		Uptime: 90 * time.Second,
	}
	for i, v := range ram {
		s := history.Sample{At: epoch.Add(time.Duration(i) * time.Second), RAM: v, CPU: float64(i)}
		r.Samples = append(r.Samples, s)
		if v > r.Peak.RAM {
			r.Peak.RAM = v
		}
		r.Peak.CPU = max(r.Peak.CPU, s.CPU)
	}
	return r
}

func recs(pids ...int32) []history.Record {
	out := make([]history.Record, len(pids))
	for i, pid := range pids {
		out[i] = rec(pid, "p", 1)
	}
	return out
}

var oneColumn = Layout{Columns: 1, Rows: 3}

func TestSyncTracksFocusAcrossReorderings(t *testing.T) {
	records := recs(1, 2, 3, 4, 5)
	var st State
	st.Sync(records, oneColumn)
	st.Move(2, records, oneColumn)
	require.Equal(t, int32(3), records[st.Selected].Key.PID)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		rng.Shuffle(len(records), func(a, b int) { records[a], records[b] = records[b], records[a] })
		st.Sync(records, oneColumn)
		assert.Equal(t, int32(3), records[st.Selected].Key.PID)
	}
}

func TestSyncFallsBackToNearestIndex(t *testing.T) {
	records := recs(1, 2, 3, 4)
	var st State
	st.Sync(records, oneColumn)
	st.End(records, oneColumn)
	assert.Equal(t, 3, st.Selected)

	// Focused record purged: index clamps to the shorter list.
	st.Sync(recs(1, 2), oneColumn)
	assert.Equal(t, 1, st.Selected)
	assert.Equal(t, int32(2), st.Focus.PID)

	// Focused record purged from the middle: index stays put.
	records = recs(1, 2, 3, 4)
	st = State{}
	st.Sync(records, oneColumn)
	st.Move(1, records, oneColumn)
	st.Sync(recs(1, 3, 4), oneColumn)
	assert.Equal(t, 1, st.Selected)
	assert.Equal(t, int32(3), st.Focus.PID)
}

func TestSyncEmpty(t *testing.T) {
	st := State{Mode: SpotlightMode, Selected: 4, Scroll: 2, HasFocus: true}
	st.Sync(nil, oneColumn)
	assert.Equal(t, ListMode, st.Mode)
	assert.Equal(t, 0, st.Selected)
	assert.Equal(t, 0, st.Scroll)

	// Movement on an empty list is a no-op.
	st.Down(nil, oneColumn)
	st.Enter(nil)
	assert.Equal(t, ListMode, st.Mode)
}

func TestMovementClamps(t *testing.T) {
	records := recs(1, 2, 3)
	var st State
	st.Sync(records, oneColumn)

	st.Up(records, oneColumn)
	assert.Equal(t, 0, st.Selected)
	st.PageDown(records, oneColumn)
	assert.Equal(t, 2, st.Selected)
	st.Down(records, oneColumn)
	assert.Equal(t, 2, st.Selected)
	st.Home(records, oneColumn)
	assert.Equal(t, 0, st.Selected)
}

func TestGridMovement(t *testing.T) {
	records := recs(1, 2, 3, 4, 5, 6, 7)
	grid := Layout{Columns: 3, Rows: 1}
	var st State
	st.Sync(records, grid)

	st.Down(records, grid)
	assert.Equal(t, 3, st.Selected)
	assert.Equal(t, 1, st.Scroll, "selected row scrolled into view")
	st.Right(records, grid)
	assert.Equal(t, 4, st.Selected)
	st.Down(records, grid)
	assert.Equal(t, 6, st.Selected, "clamped to last record")
	assert.Equal(t, 2, st.Scroll)
	st.Up(records, grid)
	assert.Equal(t, 3, st.Selected)
	st.PageUp(records, grid)
	assert.Equal(t, 0, st.Selected)
	assert.Equal(t, 0, st.Scroll)
}

func TestSpotlightMovesOneRecordAtATime(t *testing.T) {
	records := recs(1, 2, 3, 4)
	grid := Layout{Columns: 2, Rows: 2}
	var st State
	st.Sync(records, grid)
	st.Enter(records)
	st.Down(records, grid)
	key, ok := st.Spotlight()
	require.True(t, ok)
	assert.Equal(t, int32(2), key.PID)
}

func TestEnterAndBack(t *testing.T) {
	records := recs(1, 2, 3)
	var st State
	st.Sync(records, oneColumn)
	st.Down(records, oneColumn)

	_, ok := st.Spotlight()
	assert.False(t, ok)

	st.Enter(records)
	key, ok := st.Spotlight()
	require.True(t, ok)
	assert.Equal(t, int32(2), key.PID)

	st.Back()
	assert.Equal(t, ListMode, st.Mode)
	assert.Equal(t, 1, st.Selected)
}

func TestStubSpotlightResolvesInPlace(t *testing.T) {
	stub := rec(9, "", 10)
	stub.Stub = true
	records := []history.Record{rec(1, "a", 100), stub}

	var st State
	st.Sync(records, oneColumn)
	st.Down(records, oneColumn)
	st.Enter(records)
	key, ok := st.Spotlight()
	require.True(t, ok)
	assert.Equal(t, stub.Key, key)

	upgraded := stub
	upgraded.Stub = false
	upgraded.Name = "worker"
	upgraded.Samples = append(upgraded.Samples, history.Sample{At: epoch.Add(time.Second), RAM: 500})
	records = []history.Record{upgraded, rec(1, "a", 100)}
	st.Sync(records, oneColumn)

	key, ok = st.Spotlight()
	require.True(t, ok)
	assert.Equal(t, stub.Key, key)
	assert.Equal(t, 0, st.Selected)
}

func TestSpotlightFallsBackWhenFilteredOut(t *testing.T) {
	records := recs(1, 2)
	var st State
	st.Sync(records, oneColumn)
	st.Enter(records)
	st.Sync(recs(2), oneColumn)
	assert.Equal(t, ListMode, st.Mode)
}

func TestScrollKeepsSelectionVisible(t *testing.T) {
	records := recs(1, 2, 3, 4, 5, 6)
	layout := Layout{Columns: 1, Rows: 2}
	var st State
	st.Sync(records, layout)
	st.End(records, layout)
	assert.Equal(t, 4, st.Scroll)

	st.Sync(recs(1, 2, 3), layout)
	assert.Equal(t, 1, st.Scroll)
	assert.Equal(t, 2, st.Selected)
}

func TestFilterRecords(t *testing.T) {
	records := []history.Record{rec(101, "Postgres", 1), rec(202, "bash", 1), rec(1010, "go", 1)}

	assert.Len(t, FilterRecords(records, ""), 3)
	assert.Len(t, FilterRecords(records, "  "), 3)

	got := FilterRecords(records, "POST")
	require.Len(t, got, 1)
	assert.Equal(t, "Postgres", got[0].Name)

	got = FilterRecords(records, "101")
	assert.Len(t, got, 2)
	assert.Empty(t, FilterRecords(records, "zsh"))
}
