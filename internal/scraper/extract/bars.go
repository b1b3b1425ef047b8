package extract

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
)

// BarSource lists elements whose width encodes a percentage.
type BarSource interface {
	BarCandidates(ctx context.Context) ([]dom.BarCandidate, error)
}

const (
	barMaxHeight = 80
	barMinWidth  = 40
	barRowStep   = 5
	barMinSum    = 80
	barMaxSum    = 100
)

var rgbRe = regexp.MustCompile(`rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)`)

// BarStrategy reads the coloured probability bar under the table.
type BarStrategy struct {
	src BarSource
}

func NewBarStrategy(src BarSource) *BarStrategy {
	return &BarStrategy{src: src}
}

func (s *BarStrategy) Name() string { return "bar_width" }

func (s *BarStrategy) Extract(ctx context.Context) (Partial, error) {
	cands, err := s.src.BarCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("bar candidates: %w", err)
	}

	rows := map[float64][]dom.BarCandidate{}
	var keys []float64
	for _, c := range cands {
		if c.H > barMaxHeight || c.W < barMinWidth || c.Pct < 0 || c.Pct > 100 {
			continue
		}
		key := math.Round(c.Y/barRowStep) * barRowStep
		if _, ok := rows[key]; !ok {
			keys = append(keys, key)
		}
		rows[key] = append(rows[key], c)
	}
	sort.Float64s(keys)

	var best []dom.BarCandidate
	bestDist := math.Inf(1)
	for _, key := range keys {
		row := rows[key]
		for i := 0; i < len(row); i++ {
			for j := i + 1; j < len(row); j++ {
				for k := j + 1; k < len(row); k++ {
					sum := row[i].Pct + row[j].Pct + row[k].Pct
					if sum < barMinSum || sum > barMaxSum {
						continue
					}
					if d := math.Abs(100 - sum); d < bestDist {
						bestDist = d
						best = []dom.BarCandidate{row[i], row[j], row[k]}
					}
				}
			}
		}
	}
	if best == nil {
		return Partial{}, nil
	}

	sort.SliceStable(best, func(i, j int) bool { return best[i].X < best[j].X })
	out := Partial{}
	for _, b := range best {
		side := classifyColour(b.Background)
		if side == models.OutcomeNone {
			continue
		}
		if _, ok := out[side]; !ok {
			out[side] = b.Pct
		}
	}

	left, mid, right := best[0], best[1], best[2]
	if _, ok := out[models.OutcomePlayer]; !ok {
		out[models.OutcomePlayer] = left.Pct
	}
	if _, ok := out[models.OutcomeTie]; !ok {
		out[models.OutcomeTie] = mid.Pct
	}
	if _, ok := out[models.OutcomeBanker]; !ok {
		out[models.OutcomeBanker] = right.Pct
	}
	return out, nil
}

// classifyColour maps a CSS rgb()/rgba() colour to the side it is painted for:
// blue for the player, yellow or green for the tie, red for the banker.
func classifyColour(bg string) models.Outcome {
	m := rgbRe.FindStringSubmatch(bg)
	if m == nil {
		return models.OutcomeNone
	}
	r, _ := strconv.Atoi(m[1])
	g, _ := strconv.Atoi(m[2])
	b, _ := strconv.Atoi(m[3])

	switch {
	case b > r && b > g:
		return models.OutcomePlayer
	case r >= 150 && g >= 150 && b < 120:
		return models.OutcomeTie
	case g > r && g > b:
		return models.OutcomeTie
	case r > g && r > b:
		return models.OutcomeBanker
	}
	return models.OutcomeNone
}
