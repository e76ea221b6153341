package history

import "time"

// Bin is one resampled value. Valid is false when no sample fell in the bin.
type Bin struct {
	Value float64
	Valid bool
}

// Resample spreads values taken at times over bins equal slices of
// (start, end] and keeps the maximum value per slice. A sample exactly at
// start belongs to no bin; one exactly at a slice's end belongs to that slice.
func Resample(values []float64, times []time.Time, start, end time.Time, bins int) []Bin {
	if len(values) == 0 || len(times) == 0 || bins <= 0 {
		return nil
	}
	if len(values) != len(times) {
		panic("history: Resample needs one time per value")
	}

	out := make([]Bin, bins)
	width := end.Sub(start) / time.Duration(bins)
	if width <= 0 {
		return out
	}

	for i, t := range times {
		offset := t.Sub(start)
		if offset <= 0 {
			continue
		}
		idx := int((offset - 1) / width)
		if idx >= bins {
			continue
		}
		if !out[idx].Valid || values[i] > out[idx].Value {
			out[idx] = Bin{Value: values[i], Valid: true}
		}
	}
	return out
}
