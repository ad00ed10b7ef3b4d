package alerting

import (
	"time"

	"github.com/iamasky/tx-observer/internal/detect"
)

// DefaultCooldown is the minimum wall-clock gap between two outbound
// notifications of the same direction.
const DefaultCooldown = 10 * time.Minute

// Gate owns the append-only alert log of one session or replay run and the
// outbound rate-limit state. It has a single writer; the detector stays pure
// and all mutation funnels through here. Reset marks the session/replay
// restart boundary.
type Gate struct {
	cooldown time.Duration

	log            []detect.AlertEvent
	lastNotifyTime int64
	lastNotifyType detect.Direction
}

// NewGate builds a gate. A non-positive cooldown falls back to the default.
func NewGate(cooldown time.Duration) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{cooldown: cooldown}
}

// Admit appends ev to the alert log unless it repeats the last logged event.
// The same point stays "current" across consecutive polls, so the detector
// re-emits identical events; they differ by neither time nor type and are
// dropped here. Returns true when the event was logged.
func (g *Gate) Admit(ev detect.AlertEvent) bool {
	if n := len(g.log); n > 0 {
		last := g.log[n-1]
		if last.Time == ev.Time && last.Type == ev.Type {
			return false
		}
	}
	g.log = append(g.log, ev)
	return true
}

// ShouldNotify reports whether a newly logged event may go out at now.
// A direction reversal always bypasses the cooldown.
func (g *Gate) ShouldNotify(ev detect.AlertEvent, now time.Time) bool {
	if ev.Type != g.lastNotifyType {
		return true
	}
	return now.UnixMilli()-g.lastNotifyTime >= g.cooldown.Milliseconds()
}

// MarkNotified advances the rate-limit state. Called regardless of whether
// the send succeeded, so a broken relay cannot cause a notification storm.
func (g *Gate) MarkNotified(ev detect.AlertEvent, now time.Time) {
	g.lastNotifyTime = now.UnixMilli()
	g.lastNotifyType = ev.Type
}

// Alerts returns the logged events in order of detection.
func (g *Gate) Alerts() []detect.AlertEvent {
	return g.log
}

// Reset clears the log and the rate-limit state.
func (g *Gate) Reset() {
	g.log = nil
	g.lastNotifyTime = 0
	g.lastNotifyType = ""
}
