// Package extract reads the player/banker/tie percentages from the game page
// by running a cascade of independent strategies.
package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/metrics"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

var percentRe = regexp.MustCompile(`(\d+\.?\d*)\s*%`)

// Partial is what a single strategy managed to read, keyed by side.
type Partial map[models.Outcome]float64

func (p Partial) complete() bool {
	for _, side := range models.Sides {
		if _, ok := p[side]; !ok {
			return false
		}
	}
	return true
}

// Strategy is one way of reading the percentages off the page.
type Strategy interface {
	Name() string
	Extract(ctx context.Context) (Partial, error)
}

// Extractor combines strategies in order. A later strategy only fills the
// slots earlier ones left empty.
type Extractor struct {
	strategies []Strategy
}

func New(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// PageSource is what the DOM-based strategies read.
type PageSource interface {
	PercentSource
	BarSource
	GroupSource
}

// DOMStrategies returns the markup strategies in cascade order.
func DOMStrategies(page PageSource) []Strategy {
	return []Strategy{
		NewTextStrategy(page),
		NewBarStrategy(page),
		NewZoneStrategy(page),
		NewSiblingStrategy(page),
		NewIconStrategy(page, page),
	}
}

// Extract never fails: a total miss yields a zero triplet.
func (e *Extractor) Extract(ctx context.Context) models.Triplet {
	filled := Partial{}
	for _, s := range e.strategies {
		if filled.complete() || ctx.Err() != nil {
			break
		}
		part, err := s.Extract(ctx)
		if err != nil {
			metrics.StrategyErrors.WithLabelValues(s.Name()).Inc()
			slog.Warn("Extraction strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		hits := 0
		for _, side := range models.Sides {
			v, ok := part[side]
			if !ok {
				continue
			}
			if _, done := filled[side]; !done {
				filled[side] = v
				hits++
			}
		}
		if hits > 0 {
			metrics.StrategyHits.WithLabelValues(s.Name()).Add(float64(hits))
			slog.Debug("Extraction strategy filled slots", "strategy", s.Name(), "slots", hits)
		}
	}

	return Normalize(models.Triplet{
		Player: filled[models.OutcomePlayer],
		Banker: filled[models.OutcomeBanker],
		Tie:    filled[models.OutcomeTie],
	})
}

// Normalize clamps each value to [0,100], scales the triplet down when it sums
// above 100 and rounds to two decimals. A sum below 100 is left as is.
func Normalize(t models.Triplet) models.Triplet {
	p, b, ti := clamp(t.Player), clamp(t.Banker), clamp(t.Tie)
	if sum := p + b + ti; sum > 100 {
		p = p / sum * 100
		b = b / sum * 100
		ti = ti / sum * 100
	}
	return models.Triplet{Player: round2(p), Banker: round2(b), Tie: round2(ti)}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// parsePercent returns the first "NN.N%" value in s.
func parsePercent(s string) (float64, bool) {
	m := percentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
