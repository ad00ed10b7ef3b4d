package detect

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/market"
)

const minuteMs = int64(60_000)

func pt(ts int64, close int64) market.PricePoint {
	return market.PricePoint{Timestamp: ts, Close: decimal.NewFromInt(close)}
}

func settings(threshold int64, window int, dir Direction) Settings {
	return Settings{
		ThresholdPoints:   decimal.NewFromInt(threshold),
		TimeWindowMinutes: window,
		Direction:         dir,
	}
}

func TestResolveBaselineExactWindow(t *testing.T) {
	series := market.Series{pt(0, 100), pt(20*minuteMs, 200)}

	baseline, ok := ResolveBaseline(series, 20*minuteMs, 20)
	if !ok {
		t.Fatal("baseline should resolve")
	}
	if baseline.Timestamp != 0 {
		t.Fatalf("baseline timestamp = %d, want 0", baseline.Timestamp)
	}
}

func TestResolveBaselineWithinTolerance(t *testing.T) {
	// The feed has a gap right at the window boundary; the nearest older
	// point is 30 s before the target, inside the 120 s tolerance.
	series := market.Series{pt(0, 100)}
	for ts := 90 * 1000; ts <= int(21*minuteMs); ts += int(minuteMs) {
		series = append(series, pt(int64(ts), 150))
	}

	current := series[len(series)-1].Timestamp
	baseline, ok := ResolveBaseline(series, current, 20)
	if !ok {
		t.Fatal("baseline should resolve")
	}
	if got := current - 20*minuteMs - baseline.Timestamp; got < 0 || got > 120_000 {
		t.Fatalf("baseline %d ms before target, want within tolerance", got)
	}
}

func TestResolveBaselineInsufficientHistory(t *testing.T) {
	// 5 minutes of data cannot support a 20-minute window: 25% span, below
	// the 90% fallback cut-off.
	var series market.Series
	for i := int64(0); i <= 5; i++ {
		series = append(series, pt(i*minuteMs, 100))
	}

	if _, ok := ResolveBaseline(series, 5*minuteMs, 20); ok {
		t.Fatal("baseline must be undefined while history is short")
	}
}

func TestResolveBaselineFallbackNearFullWindow(t *testing.T) {
	// History starts one minute after the window boundary, so no point sits
	// at or before the target, but 19 of 20 minutes (95%) are covered: the
	// fallback picks the earliest point as approximate baseline.
	var series market.Series
	for i := int64(1); i <= 20; i++ {
		series = append(series, pt(i*minuteMs, 100+i))
	}

	current := series[len(series)-1].Timestamp
	baseline, ok := ResolveBaseline(series, current, 20)
	if !ok {
		t.Fatal("fallback baseline should resolve at >= 90% span")
	}
	if baseline.Timestamp != series[0].Timestamp {
		t.Fatalf("fallback must use the earliest point, got %d", baseline.Timestamp)
	}
}

func TestResolveBaselineEmptySeries(t *testing.T) {
	if _, ok := ResolveBaseline(nil, 0, 20); ok {
		t.Fatal("empty series cannot produce a baseline")
	}
}

func TestDetectThresholdExactness(t *testing.T) {
	series := market.Series{pt(0, 100), pt(20*minuteMs, 160)}
	current := decimal.NewFromInt(160)

	ev, ok := Detect(series, current, 20*minuteMs, settings(55, 20, Both))
	if !ok {
		t.Fatal("delta 60 >= threshold 55 must trigger")
	}
	if ev.Type != Rise {
		t.Fatalf("type = %s, want RISE", ev.Type)
	}
	if ev.Points != 60 {
		t.Fatalf("points = %d, want 60", ev.Points)
	}
	if ev.FromPrice.IntPart() != 100 || ev.ToPrice.IntPart() != 160 {
		t.Fatalf("from/to = %s/%s", ev.FromPrice, ev.ToPrice)
	}
	if ev.BaselineTime != 0 || ev.Time != 20*minuteMs || ev.TimeWindow != 20 {
		t.Fatalf("event metadata wrong: %+v", ev)
	}

	if _, ok := Detect(series, current, 20*minuteMs, settings(65, 20, Both)); ok {
		t.Fatal("delta 60 < threshold 65 must not trigger")
	}
}

func TestDetectFall(t *testing.T) {
	series := market.Series{pt(0, 200), pt(20*minuteMs, 140)}

	ev, ok := Detect(series, decimal.NewFromInt(140), 20*minuteMs, settings(55, 20, Both))
	if !ok {
		t.Fatal("delta -60 must trigger a FALL")
	}
	if ev.Type != Fall {
		t.Fatalf("type = %s, want FALL", ev.Type)
	}
	if ev.Points != 60 {
		t.Fatalf("points = %d, want positive magnitude 60", ev.Points)
	}
}

func TestDetectDirectionFiltering(t *testing.T) {
	series := market.Series{pt(0, 100), pt(20*minuteMs, 160)}
	current := decimal.NewFromInt(160)

	if _, ok := Detect(series, current, 20*minuteMs, settings(55, 20, Fall)); ok {
		t.Fatal("+60 with direction FALL must not trigger")
	}
	if ev, ok := Detect(series, current, 20*minuteMs, settings(55, 20, Rise)); !ok || ev.Type != Rise {
		t.Fatal("+60 with direction RISE must trigger")
	}
}

func TestDetectZeroThresholdTieBreak(t *testing.T) {
	// Zero delta with threshold 0 and direction BOTH satisfies both checks;
	// evaluation order resolves it as RISE.
	series := market.Series{pt(0, 100), pt(20*minuteMs, 100)}

	ev, ok := Detect(series, decimal.NewFromInt(100), 20*minuteMs, settings(0, 20, Both))
	if !ok {
		t.Fatal("zero threshold must trigger")
	}
	if ev.Type != Rise {
		t.Fatalf("type = %s, want RISE by evaluation order", ev.Type)
	}
	if ev.Points != 0 {
		t.Fatalf("points = %d, want 0", ev.Points)
	}
}

func TestDetectNoBaselineNoEvent(t *testing.T) {
	series := market.Series{pt(0, 100), pt(minuteMs, 400)}

	if _, ok := Detect(series, decimal.NewFromInt(400), minuteMs, settings(55, 20, Both)); ok {
		t.Fatal("insufficient history must yield no event regardless of delta")
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := settings(55, 20, Both).Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
	if err := settings(-1, 20, Both).Validate(); err == nil {
		t.Fatal("negative threshold must be rejected")
	}
	if err := settings(55, 0, Both).Validate(); err == nil {
		t.Fatal("window below 1 must be rejected")
	}
	if err := settings(55, 20, Direction("SIDEWAYS")).Validate(); err == nil {
		t.Fatal("unknown direction must be rejected")
	}
}
