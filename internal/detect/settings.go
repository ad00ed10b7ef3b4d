package detect

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction selects which displacement directions may raise alerts.
type Direction string

const (
	Rise Direction = "RISE"
	Fall Direction = "FALL"
	Both Direction = "BOTH"
)

// ParseDirection validates an externally supplied direction string.
func ParseDirection(v string) (Direction, error) {
	switch Direction(v) {
	case Rise, Fall, Both:
		return Direction(v), nil
	default:
		return "", fmt.Errorf("invalid direction %q (want RISE, FALL or BOTH)", v)
	}
}

// Settings is the immutable per-evaluation snapshot of detection parameters.
// Changing settings takes effect on the next evaluation only; history is
// never re-evaluated.
type Settings struct {
	ThresholdPoints   decimal.Decimal
	TimeWindowMinutes int
	Direction         Direction
}

// Validate enforces the boundary constraints before settings reach the core.
func (s Settings) Validate() error {
	if s.ThresholdPoints.IsNegative() {
		return fmt.Errorf("threshold_points cannot be negative")
	}
	if s.TimeWindowMinutes < 1 {
		return fmt.Errorf("time_window_minutes must be at least 1")
	}
	if _, err := ParseDirection(string(s.Direction)); err != nil {
		return err
	}
	return nil
}

// AlertEvent records one detected directional move. Immutable once created;
// it lives in the in-memory alert log of the session or replay run and is
// cleared when that run resets.
type AlertEvent struct {
	Type         Direction       `json:"type"`
	Points       int64           `json:"points"`
	FromPrice    decimal.Decimal `json:"fromPrice"`
	ToPrice      decimal.Decimal `json:"toPrice"`
	Time         int64           `json:"time"`
	BaselineTime int64           `json:"baselineTime"`
	TimeWindow   int             `json:"timeWindow"`
}
