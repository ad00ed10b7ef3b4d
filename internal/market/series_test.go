package market

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func pt(ts int64, close int64) PricePoint {
	return PricePoint{Timestamp: ts, Close: decimal.NewFromInt(close)}
}

func assertStrictlyAscending(t *testing.T, s Series) {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i].Timestamp <= s[i-1].Timestamp {
			t.Fatalf("series not strictly ascending at %d: %d then %d", i, s[i-1].Timestamp, s[i].Timestamp)
		}
	}
}

func TestMergeBatchAppendsNewerOnly(t *testing.T) {
	existing := Series{pt(1000, 1), pt(2000, 2)}

	merged := MergeBatch(existing, []PricePoint{pt(1000, 1), pt(2000, 2), pt(3000, 3)}, 0)
	if len(merged) != 3 {
		t.Fatalf("merged length = %d, want 3", len(merged))
	}
	if merged[2].Timestamp != 3000 {
		t.Fatalf("tail timestamp = %d, want 3000", merged[2].Timestamp)
	}
	assertStrictlyAscending(t, merged)
}

func TestMergeBatchDropsOutOfOrderAndDuplicates(t *testing.T) {
	existing := Series{pt(5000, 5)}

	// Older, equal, and duplicated points must all be dropped silently.
	merged := MergeBatch(existing, []PricePoint{pt(4000, 4), pt(5000, 5), pt(6000, 6), pt(6000, 6)}, 0)
	if len(merged) != 2 {
		t.Fatalf("merged length = %d, want 2", len(merged))
	}
	assertStrictlyAscending(t, merged)
}

func TestMergeBatchSessionFilter(t *testing.T) {
	merged := MergeBatch(nil, []PricePoint{pt(1000, 1), pt(2000, 2), pt(3000, 3)}, 2000)
	if len(merged) != 2 {
		t.Fatalf("merged length = %d, want 2 (session start is inclusive)", len(merged))
	}
	if merged[0].Timestamp != 2000 {
		t.Fatalf("first timestamp = %d, want 2000", merged[0].Timestamp)
	}
}

func TestMergeBatchEmptyInputIsNoop(t *testing.T) {
	existing := Series{pt(1000, 1)}
	if got := MergeBatch(existing, nil, 0); len(got) != 1 {
		t.Fatal("nil batch must be a no-op")
	}
	if got := MergeBatch(existing, []PricePoint{}, 0); len(got) != 1 {
		t.Fatal("empty batch must be a no-op")
	}
}

func TestMergeBatchMonotonicUnderRandomDelivery(t *testing.T) {
	// Ingest shuffled, overlapping batches; the result must always be
	// strictly ascending with no duplicates.
	rng := rand.New(rand.NewSource(42))
	var series Series
	for batch := 0; batch < 20; batch++ {
		points := make([]PricePoint, 0, 10)
		for i := 0; i < 10; i++ {
			ts := int64(rng.Intn(500)) * 1000
			points = append(points, pt(ts, ts/1000))
		}
		series = MergeBatch(series, points, 0)
		assertStrictlyAscending(t, series)
	}
}

func TestBound(t *testing.T) {
	series := Series{pt(1000, 1), pt(2000, 2), pt(3000, 3)}

	bounded := Bound(series, 2)
	if len(bounded) != 2 {
		t.Fatalf("bounded length = %d, want 2", len(bounded))
	}
	if bounded[0].Timestamp != 2000 {
		t.Fatal("bound must keep the newest points")
	}

	if got := Bound(series, 0); len(got) != 3 {
		t.Fatal("capacity 0 must disable trimming")
	}
	if got := Bound(series, 5); len(got) != 3 {
		t.Fatal("series under capacity must be untouched")
	}
}
