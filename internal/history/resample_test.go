package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func bins(vals ...any) []Bin {
	out := make([]Bin, len(vals))
	for i, v := range vals {
		if f, ok := v.(float64); ok {
			out[i] = Bin{Value: f, Valid: true}
		}
	}
	return out
}

func TestResample(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	ms := func(n int) time.Time { return base.Add(time.Duration(n) * time.Millisecond) }

	tests := []struct {
		name       string
		values     []float64
		offsets    []int
		start, end int
		bins       int
		want       []Bin
	}{
		{"exact alignment", []float64{0, 1, 2, 3}, []int{50, 150, 250, 350}, 0, 400, 4, bins(0.0, 1.0, 2.0, 3.0)},
		{"single sample in bin", []float64{42}, []int{100}, 0, 200, 5, bins(nil, nil, 42.0, nil, nil)},
		{"sample at start is excluded", []float64{10}, []int{0}, 0, 100, 4, bins(nil, nil, nil, nil)},
		{"sample at end is included", []float64{20}, []int{100}, 0, 100, 4, bins(nil, nil, nil, 20.0)},
		{"before range", []float64{30}, []int{50}, 100, 200, 3, bins(nil, nil, nil)},
		{"after range", []float64{40}, []int{250}, 100, 200, 3, bins(nil, nil, nil)},
		{"max within one bin", []float64{10, 20}, []int{10, 20}, 0, 100, 4, bins(20.0, nil, nil, nil)},
		{"adjacent bins", []float64{10, 20}, []int{20, 30}, 0, 100, 4, bins(10.0, 20.0, nil, nil)},
		{"mixture", []float64{5, 15, 25, 35, 45}, []int{10, 50, 90, 160, 170}, 0, 200, 4, bins(15.0, 25.0, nil, 45.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times := make([]time.Time, len(tt.offsets))
			for i, o := range tt.offsets {
				times[i] = ms(o)
			}
			got := Resample(tt.values, times, ms(tt.start), ms(tt.end), tt.bins)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResampleEmptyInputs(t *testing.T) {
	now := time.Now()
	assert.Nil(t, Resample(nil, nil, now, now.Add(time.Second), 4))
	assert.Nil(t, Resample([]float64{1}, []time.Time{now}, now, now.Add(time.Second), 0))
	assert.Equal(t, make([]Bin, 3), Resample([]float64{1}, []time.Time{now}, now, now, 3))
}

func TestResampleLengthMismatchPanics(t *testing.T) {
	now := time.Now()
	assert.Panics(t, func() {
		Resample([]float64{1, 2}, []time.Time{now}, now, now.Add(time.Second), 2)
	})
}
