package extract

import (
	"context"
	"fmt"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
)

// Side hints in the order they are checked.
var contextSides = []struct {
	side  models.Outcome
	words map[string]bool
}{
	{models.OutcomePlayer, playerWords},
	{models.OutcomeBanker, bankerWords},
	{models.OutcomeTie, tieWords},
}

// ZoneStrategy reads percentages inside the statistics/roadmap panels and
// labels each one by the text of its siblings.
type ZoneStrategy struct {
	src PercentSource
}

func NewZoneStrategy(src PercentSource) *ZoneStrategy {
	return &ZoneStrategy{src: src}
}

func (s *ZoneStrategy) Name() string { return "zone" }

func (s *ZoneStrategy) Extract(ctx context.Context) (Partial, error) {
	nodes, err := s.src.PercentNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("percent nodes: %w", err)
	}

	out := Partial{}
	for _, zone := range dom.ZoneKeywords {
		for _, n := range nodes {
			if n.Zone != zone {
				continue
			}
			v, ok := parsePercent(n.Text)
			if !ok || v > 100 {
				continue
			}
			assignByContext(out, tokens(n.Siblings), v, true)
		}
	}
	return out, nil
}

// SiblingStrategy scans every percentage on the page in document order and
// gives it to the first side named by its siblings.
type SiblingStrategy struct {
	src PercentSource
}

func NewSiblingStrategy(src PercentSource) *SiblingStrategy {
	return &SiblingStrategy{src: src}
}

func (s *SiblingStrategy) Name() string { return "siblings" }

func (s *SiblingStrategy) Extract(ctx context.Context) (Partial, error) {
	nodes, err := s.src.PercentNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("percent nodes: %w", err)
	}

	out := Partial{}
	for _, n := range nodes {
		v, ok := parsePercent(n.Text)
		if !ok || v > 100 {
			continue
		}
		assignByContext(out, tokens(n.Siblings), v, false)
	}
	return out, nil
}

// assignByContext gives v to the first side whose words are in hints and
// whose slot is empty. Without skipFilled, the first named side decides even
// when its slot is already taken.
func assignByContext(out Partial, hints map[string]bool, v float64, skipFilled bool) {
	for _, cs := range contextSides {
		if !intersects(hints, cs.words) {
			continue
		}
		if _, filled := out[cs.side]; !filled {
			out[cs.side] = v
			return
		}
		if !skipFilled {
			return
		}
	}
}
