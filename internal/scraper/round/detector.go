// Package round decides what a fresh observation of the table should emit.
package round

import (
	"time"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultDelta    = 0.5
)

// Observation is what one poll read from the page.
type Observation struct {
	RoundID  string
	Triplet  models.Triplet
	Result   models.Outcome
	Analysis models.Analysis
}

// Decision tells the caller what to publish for an observation.
type Decision struct {
	NewRound bool

	// EmitPercentages is set when the interval elapsed, the values moved more
	// than the delta, or this is the first extraction. Changed covers only the
	// latter two.
	EmitPercentages bool
	Changed         bool
	MaxDelta        float64

	EmitResult bool
	Result     models.Outcome

	EmitAnalysis bool
}

// Detector holds the per-session round state. It is not safe for concurrent use.
type Detector struct {
	interval time.Duration
	delta    float64
	now      func() time.Time

	state        models.RoundState
	lastEmit     time.Time
	lastTriplet  models.Triplet
	emitted      bool
	lastAnalysis models.Analysis
}

// Option configures a Detector.
type Option func(*Detector)

func WithInterval(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.interval = d
		}
	}
}

func WithDelta(delta float64) Option {
	return func(det *Detector) {
		if delta > 0 {
			det.delta = delta
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(det *Detector) { det.now = now }
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		interval: DefaultInterval,
		delta:    DefaultDelta,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Observe updates the state with obs and returns what should be emitted.
func (d *Detector) Observe(obs Observation) Decision {
	var dec Decision

	if obs.RoundID != d.state.RoundID {
		d.state = models.RoundState{RoundID: obs.RoundID}
		dec.NewRound = true
	}

	now := d.now()
	if !d.emitted {
		dec.EmitPercentages = true
		dec.Changed = true
	} else {
		dec.MaxDelta = obs.Triplet.MaxDelta(d.lastTriplet)
		if dec.MaxDelta > d.delta {
			dec.EmitPercentages = true
			dec.Changed = true
		}
		if now.Sub(d.lastEmit) >= d.interval {
			dec.EmitPercentages = true
		}
	}
	if dec.EmitPercentages {
		d.emitted = true
		d.lastEmit = now
		d.lastTriplet = obs.Triplet
	}

	if !d.state.ResultSent && obs.Result != models.OutcomeNone && obs.Result != d.state.LastResult {
		d.state.ResultSent = true
		d.state.LastResult = obs.Result
		dec.EmitResult = true
		dec.Result = obs.Result
	}

	if obs.Analysis.Complete() && obs.Analysis != d.lastAnalysis {
		d.lastAnalysis = obs.Analysis
		dec.EmitAnalysis = true
	}

	return dec
}

// AwaitingResult reports whether the current round's result is still unsent.
func (d *Detector) AwaitingResult() bool {
	return !d.state.ResultSent
}

// State returns a copy of the current round state.
func (d *Detector) State() models.RoundState {
	return d.state
}
