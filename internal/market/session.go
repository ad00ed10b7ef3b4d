package market

import "time"

// SessionType classifies the trading session a wall-clock instant falls in.
type SessionType string

const (
	SessionDay    SessionType = "day"
	SessionNight  SessionType = "night"
	SessionClosed SessionType = "closed"
)

// Session describes the active TXF trading session and its start instant.
type Session struct {
	Type  SessionType
	Start time.Time
}

// StartMillis returns the session start as epoch milliseconds.
func (s Session) StartMillis() int64 {
	return s.Start.UnixMilli()
}

// DescribeSession maps a wall-clock instant to its trading session.
// Day session runs 09:00-13:45; the night session opens at 15:00 and crosses
// midnight until 05:00, so early-morning instants anchor to yesterday 15:00.
// Outside both, a Closed session anchored at today 00:00 keeps downstream
// filtering well defined.
func DescribeSession(now time.Time) Session {
	minuteOfDay := now.Hour()*60 + now.Minute()
	y, m, d := now.Date()
	loc := now.Location()

	switch {
	case minuteOfDay >= 9*60 && minuteOfDay <= 13*60+45:
		return Session{Type: SessionDay, Start: time.Date(y, m, d, 9, 0, 0, 0, loc)}
	case minuteOfDay >= 15*60:
		return Session{Type: SessionNight, Start: time.Date(y, m, d, 15, 0, 0, 0, loc)}
	case minuteOfDay <= 5*60:
		yesterday := now.AddDate(0, 0, -1)
		yy, ym, yd := yesterday.Date()
		return Session{Type: SessionNight, Start: time.Date(yy, ym, yd, 15, 0, 0, 0, loc)}
	default:
		return Session{Type: SessionClosed, Start: time.Date(y, m, d, 0, 0, 0, 0, loc)}
	}
}
