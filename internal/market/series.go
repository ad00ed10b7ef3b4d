package market

import "sort"

// MergeBatch appends to existing the incoming points that are strictly newer
// than the last known timestamp and not before sessionStart (epoch ms).
// Incoming points are re-sorted ascending before filtering, so overlapping or
// out-of-order delivery never produces duplicates. An empty batch is a no-op.
func MergeBatch(existing Series, incoming []PricePoint, sessionStart int64) Series {
	if len(incoming) == 0 {
		return existing
	}

	batch := make([]PricePoint, len(incoming))
	copy(batch, incoming)
	sort.Slice(batch, func(i, j int) bool { return batch[i].Timestamp < batch[j].Timestamp })

	last := sessionStart - 1
	if tail, ok := existing.Last(); ok {
		if tail.Timestamp > last {
			last = tail.Timestamp
		}
	}

	merged := existing
	for _, p := range batch {
		if p.Timestamp < sessionStart || p.Timestamp <= last {
			continue
		}
		merged = append(merged, p)
		last = p.Timestamp
	}
	return merged
}

// Bound trims the series to at most capacity points, keeping the newest.
// A capacity of zero or less disables trimming (replay keeps the full day).
func Bound(s Series, capacity int) Series {
	if capacity <= 0 || len(s) <= capacity {
		return s
	}
	trimmed := make(Series, capacity)
	copy(trimmed, s[len(s)-capacity:])
	return trimmed
}
