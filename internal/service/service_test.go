package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/alerting"
	"github.com/iamasky/tx-observer/internal/detect"
	"github.com/iamasky/tx-observer/internal/fetcher"
	"github.com/iamasky/tx-observer/internal/market"
)

type fakeFetcher struct {
	results []fetcher.LiveResult
	errs    []error
	calls   int
}

func (f *fakeFetcher) FetchLive(ctx context.Context) (fetcher.LiveResult, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return fetcher.LiveResult{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return fetcher.LiveResult{Connected: true}, nil
}

type captureNotifier struct {
	notes []alerting.Notification
}

func (c *captureNotifier) Notify(ctx context.Context, n alerting.Notification) error {
	c.notes = append(c.notes, n)
	return nil
}

// inDaySession is a tick instant safely inside the day session.
var inDaySession = time.Date(2025, 11, 25, 10, 0, 0, 0, time.Local)

func pointAt(offset time.Duration, px int64) market.PricePoint {
	return market.PricePoint{
		Timestamp: inDaySession.Add(offset).UnixMilli(),
		Close:     decimal.NewFromInt(px),
	}
}

func newService(f fetcher.LiveFetcher, n alerting.Notifier) *Service {
	return New(Options{
		Settings: detect.Settings{
			ThresholdPoints:   decimal.NewFromInt(55),
			TimeWindowMinutes: 20,
			Direction:         detect.Both,
		},
		BufferCapacity: 3600,
		Cooldown:       10 * time.Minute,
		NotifyEnabled:  n != nil,
	}, nil, f, nil, n, zerolog.Nop())
}

func TestTickMergesAndDetects(t *testing.T) {
	// First poll delivers 20 minutes of flat history, second poll a +60
	// move at the window edge.
	var history []market.PricePoint
	for i := 0; i <= 20; i++ {
		history = append(history, pointAt(time.Duration(i)*time.Minute, 20000))
	}
	spike := pointAt(40*time.Minute, 20060)

	f := &fakeFetcher{results: []fetcher.LiveResult{
		{Connected: true, Points: history},
		{Connected: true, Points: []market.PricePoint{spike}},
	}}
	n := &captureNotifier{}
	svc := newService(f, n)

	if err := svc.Tick(context.Background(), inDaySession.Add(20*time.Minute)); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if len(svc.Buffer()) != 21 {
		t.Fatalf("buffer length = %d, want 21", len(svc.Buffer()))
	}
	if len(svc.Alerts()) != 0 {
		t.Fatal("flat history must not alert")
	}

	if err := svc.Tick(context.Background(), inDaySession.Add(40*time.Minute)); err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	alerts := svc.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("alert count = %d, want 1", len(alerts))
	}
	if alerts[0].Type != detect.Rise || alerts[0].Points != 60 {
		t.Fatalf("unexpected alert %+v", alerts[0])
	}
	if len(n.notes) != 1 {
		t.Fatalf("notification count = %d, want 1", len(n.notes))
	}
	if n.notes[0].Replay {
		t.Fatal("live notifications must not carry the replay flag")
	}
}

func TestTickRedetectionIsDeduplicated(t *testing.T) {
	var history []market.PricePoint
	for i := 0; i <= 20; i++ {
		history = append(history, pointAt(time.Duration(i)*time.Minute, 20000))
	}
	spike := pointAt(21*time.Minute, 20060)

	f := &fakeFetcher{results: []fetcher.LiveResult{
		{Connected: true, Points: append(history, spike)},
		// Next poll repeats the same tail: no new points, no re-log.
		{Connected: true, Points: []market.PricePoint{spike}},
	}}
	svc := newService(f, nil)

	_ = svc.Tick(context.Background(), inDaySession.Add(21*time.Minute))
	_ = svc.Tick(context.Background(), inDaySession.Add(21*time.Minute+time.Second))

	if got := len(svc.Alerts()); got != 1 {
		t.Fatalf("alert count = %d, want 1 (re-detection suppressed)", got)
	}
}

func TestTickFetchFailureKeepsBuffer(t *testing.T) {
	var history []market.PricePoint
	for i := 0; i < 5; i++ {
		history = append(history, pointAt(time.Duration(i)*time.Minute, 20000))
	}

	f := &fakeFetcher{
		results: []fetcher.LiveResult{{Connected: true, Points: history}, {}},
		errs:    []error{nil, errors.New("connection refused")},
	}
	svc := newService(f, nil)

	_ = svc.Tick(context.Background(), inDaySession.Add(5*time.Minute))
	if len(svc.Buffer()) != 5 {
		t.Fatalf("buffer length = %d, want 5", len(svc.Buffer()))
	}

	err := svc.Tick(context.Background(), inDaySession.Add(5*time.Minute+time.Second))
	if err == nil {
		t.Fatal("fetch failure should surface to the scheduler log")
	}
	if svc.Connected() {
		t.Fatal("connectivity must be marked errored")
	}
	if len(svc.Buffer()) != 5 {
		t.Fatal("fetch failure must leave the last good buffer untouched")
	}
}

func TestTickEmptyDataIsNoop(t *testing.T) {
	f := &fakeFetcher{results: []fetcher.LiveResult{{Connected: true}}}
	svc := newService(f, nil)

	if err := svc.Tick(context.Background(), inDaySession); err != nil {
		t.Fatalf("empty data must not be an error: %v", err)
	}
	if len(svc.Buffer()) != 0 {
		t.Fatal("empty data must not grow the buffer")
	}
	if !svc.Connected() {
		t.Fatal("connectivity should reflect upstream status")
	}
}

func TestSessionRolloverResetsState(t *testing.T) {
	var history []market.PricePoint
	for i := 0; i <= 21; i++ {
		history = append(history, pointAt(time.Duration(i)*time.Minute, 20000+int64(i)*3))
	}

	f := &fakeFetcher{results: []fetcher.LiveResult{
		{Connected: true, Points: history},
		{Connected: true},
	}}
	svc := newService(f, nil)

	_ = svc.Tick(context.Background(), inDaySession.Add(21*time.Minute))
	if len(svc.Buffer()) == 0 {
		t.Fatal("expected buffered day-session points")
	}

	// Next tick lands in the night session: buffer and alert log reset.
	night := time.Date(2025, 11, 25, 15, 0, 0, 0, time.Local)
	_ = svc.Tick(context.Background(), night)
	if len(svc.Buffer()) != 0 {
		t.Fatal("session rollover must clear the buffer")
	}
	if len(svc.Alerts()) != 0 {
		t.Fatal("session rollover must clear the alert log")
	}
}
