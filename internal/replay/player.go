package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasky/tx-observer/internal/alerting"
	"github.com/iamasky/tx-observer/internal/detect"
	"github.com/iamasky/tx-observer/internal/market"
)

// Phase is the replay cursor state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePlaying  Phase = "playing"
	PhasePaused   Phase = "paused"
	PhaseFinished Phase = "finished"
)

// SpeedUnit selects how Speed.Value is interpreted.
type SpeedUnit string

const (
	UnitSeconds SpeedUnit = "SECONDS"
	UnitMinutes SpeedUnit = "MINUTES"
)

// Speed is the virtual playback speed: how much session time one tick covers.
type Speed struct {
	Value int
	Unit  SpeedUnit
}

// StepSeconds converts the speed to seconds of session time per tick.
func (s Speed) StepSeconds() int {
	if s.Unit == UnitMinutes {
		return s.Value * 60
	}
	return s.Value
}

// Validate checks externally supplied speed settings.
func (s Speed) Validate() error {
	if s.Value < 1 {
		return fmt.Errorf("replay speed value must be at least 1")
	}
	if s.Unit != UnitSeconds && s.Unit != UnitMinutes {
		return fmt.Errorf("invalid replay speed unit %q (want SECONDS or MINUTES)", s.Unit)
	}
	return nil
}

// ErrNoData indicates the requested date/session has no historical series.
var ErrNoData = errors.New("replay: no data for this date")

// Options parameterise a replay run.
type Options struct {
	Speed Speed
	// DataResolution is the fixed sampling interval of the loaded series
	// (1 minute for kbars, 10 seconds for the synthetic generator). It is a
	// configuration constant, never inferred from the data.
	DataResolution time.Duration
	// TickInterval is the wall-clock period of the playback driver.
	TickInterval time.Duration
	Settings     detect.Settings
	Cooldown     time.Duration
}

// Player advances a cursor through a fixed historical series and re-runs
// alert detection incrementally. It owns the loaded series, the displayed
// slice, the cursor, and the alert gate; all of them are mutated from a
// single goroutine, so a tick's buffer append and alert evaluation form one
// atomic unit and ticks never overlap.
type Player struct {
	opts     Options
	notifier alerting.Notifier
	logger   zerolog.Logger

	full      market.Series
	displayed market.Series
	index     int
	phase     Phase
	gate      *alerting.Gate
}

// NewPlayer loads the historical series into an Idle player. The series must
// be non-empty and sorted ascending.
func NewPlayer(series market.Series, opts Options, notifier alerting.Notifier, logger zerolog.Logger) (*Player, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 5 * time.Second
	}
	if opts.DataResolution <= 0 {
		opts.DataResolution = time.Minute
	}
	if err := opts.Speed.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}

	p := &Player{
		opts:     opts,
		notifier: notifier,
		logger:   logger.With().Str("component", "replay").Logger(),
		full:     series,
		gate:     alerting.NewGate(opts.Cooldown),
	}
	p.rewind()
	return p, nil
}

func (p *Player) rewind() {
	p.index = 0
	p.displayed = market.Series{p.full[0]}
	p.phase = PhaseIdle
	p.gate.Reset()
}

// Phase returns the current playback phase.
func (p *Player) Phase() Phase { return p.phase }

// Index returns the replay cursor position.
func (p *Player) Index() int { return p.index }

// Displayed returns the slice of the day played back so far.
func (p *Player) Displayed() market.Series { return p.displayed }

// Alerts returns the alert log of this run.
func (p *Player) Alerts() []detect.AlertEvent { return p.gate.Alerts() }

// Play starts or resumes playback. A finished run must be Reset first.
func (p *Player) Play() {
	if p.phase == PhaseIdle || p.phase == PhasePaused {
		p.phase = PhasePlaying
	}
}

// Pause suspends playback.
func (p *Player) Pause() {
	if p.phase == PhasePlaying {
		p.phase = PhasePaused
	}
}

// Reset returns the player to Idle with the cursor at zero, clearing the
// displayed slice and the alert log. Idempotent from any phase.
func (p *Player) Reset() {
	p.rewind()
}

// Step performs one playback tick: advance the cursor by the configured
// virtual speed, append the newly elapsed chunk to the displayed slice, and
// evaluate alerts with the point at the new cursor as current. Outside the
// Playing phase it is a no-op. The run auto-finishes once the cursor reaches
// the last index.
func (p *Player) Step(ctx context.Context, now time.Time) {
	if p.phase != PhasePlaying {
		return
	}

	resolution := int(p.opts.DataResolution / time.Second)
	stepPoints := p.opts.Speed.StepSeconds() / resolution
	if stepPoints < 1 {
		stepPoints = 1
	}

	last := len(p.full) - 1
	next := p.index + stepPoints
	if next > last {
		next = last
	}

	if next > p.index {
		p.displayed = append(p.displayed, p.full[p.index+1:next+1]...)
	}
	current := p.full[next]

	if ev, ok := detect.Detect(p.displayed, current.Close, current.Timestamp, p.opts.Settings); ok {
		if p.gate.Admit(ev) {
			p.logger.Info().
				Str("type", string(ev.Type)).
				Int64("points", ev.Points).
				Str("price", ev.ToPrice.String()).
				Int64("time", ev.Time).
				Msg("replay alert")
			p.dispatch(ctx, ev, now)
		}
	}

	p.index = next
	if next == last {
		p.phase = PhaseFinished
		p.logger.Info().Int("points_played", len(p.displayed)).Msg("replay finished")
	}
}

func (p *Player) dispatch(ctx context.Context, ev detect.AlertEvent, now time.Time) {
	if p.notifier == nil {
		return
	}
	if !p.gate.ShouldNotify(ev, now) {
		return
	}
	// Gate state advances regardless of the send outcome; a flaky relay must
	// not turn into a notification storm.
	p.gate.MarkNotified(ev, now)
	if err := p.notifier.Notify(ctx, alerting.Notification{Event: ev, Replay: true}); err != nil {
		p.logger.Error().Err(err).Msg("failed to dispatch replay alert")
	}
}

// Run drives playback on a fixed wall-clock ticker until the run finishes or
// the context is cancelled. Ticks execute inline in this goroutine, so no
// tick starts while the previous one is in flight.
func (p *Player) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			p.Step(ctx, now)
			if p.phase == PhaseFinished {
				return nil
			}
		}
	}
}
