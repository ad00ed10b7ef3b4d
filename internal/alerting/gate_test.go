package alerting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/detect"
)

func riseAt(ts int64) detect.AlertEvent {
	return detect.AlertEvent{
		Type:      detect.Rise,
		Points:    60,
		FromPrice: decimal.NewFromInt(20100),
		ToPrice:   decimal.NewFromInt(20160),
		Time:      ts,
	}
}

func TestGateAdmitDeduplicates(t *testing.T) {
	g := NewGate(0)

	ev := riseAt(1000)
	if !g.Admit(ev) {
		t.Fatal("first event must be logged")
	}
	if g.Admit(ev) {
		t.Fatal("identical re-detection must be suppressed")
	}

	// Same instant, opposite direction: still a distinct event.
	fall := ev
	fall.Type = detect.Fall
	if !g.Admit(fall) {
		t.Fatal("direction change at the same time must be logged")
	}

	later := riseAt(2000)
	if !g.Admit(later) {
		t.Fatal("a newer event must be logged")
	}
	if len(g.Alerts()) != 3 {
		t.Fatalf("expected 3 logged alerts, got %d", len(g.Alerts()))
	}
}

func TestGateCooldownSuppressesSameDirection(t *testing.T) {
	g := NewGate(10 * time.Minute)
	now := time.Date(2025, 11, 25, 10, 0, 0, 0, time.UTC)

	first := riseAt(now.UnixMilli())
	if !g.ShouldNotify(first, now) {
		t.Fatal("first notification must pass")
	}
	g.MarkNotified(first, now)

	// 5 minutes later, same direction: inside cooldown.
	later := now.Add(5 * time.Minute)
	second := riseAt(later.UnixMilli())
	if g.ShouldNotify(second, later) {
		t.Fatal("same-direction alert inside cooldown must be suppressed")
	}

	// 10 minutes later: cooldown elapsed.
	after := now.Add(10 * time.Minute)
	if !g.ShouldNotify(riseAt(after.UnixMilli()), after) {
		t.Fatal("alert after cooldown must pass")
	}
}

func TestGateReversalBypassesCooldown(t *testing.T) {
	g := NewGate(10 * time.Minute)
	now := time.Date(2025, 11, 25, 10, 0, 0, 0, time.UTC)

	first := riseAt(now.UnixMilli())
	g.MarkNotified(first, now)

	later := now.Add(5 * time.Minute)
	reversal := riseAt(later.UnixMilli())
	reversal.Type = detect.Fall
	if !g.ShouldNotify(reversal, later) {
		t.Fatal("reversal must bypass the cooldown")
	}
}

func TestGateMarkNotifiedAdvancesOnFailureToo(t *testing.T) {
	// The caller marks the gate before knowing the send outcome; a failed
	// relay must not re-arm the notification.
	g := NewGate(10 * time.Minute)
	now := time.Date(2025, 11, 25, 10, 0, 0, 0, time.UTC)

	g.MarkNotified(riseAt(now.UnixMilli()), now)
	later := now.Add(time.Minute)
	if g.ShouldNotify(riseAt(later.UnixMilli()), later) {
		t.Fatal("gate state must advance even when the send failed")
	}
}

func TestGateReset(t *testing.T) {
	g := NewGate(10 * time.Minute)
	now := time.Date(2025, 11, 25, 10, 0, 0, 0, time.UTC)

	ev := riseAt(now.UnixMilli())
	g.Admit(ev)
	g.MarkNotified(ev, now)
	g.Reset()

	if len(g.Alerts()) != 0 {
		t.Fatal("reset must clear the alert log")
	}
	soon := now.Add(time.Second)
	if !g.ShouldNotify(riseAt(soon.UnixMilli()), soon) {
		t.Fatal("reset must clear the rate-limit state")
	}
}
