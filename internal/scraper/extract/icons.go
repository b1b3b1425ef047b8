package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
)

// GroupSource lists elements that hold several percentages.
type GroupSource interface {
	PercentGroups(ctx context.Context) ([]dom.PercentGroup, error)
}

// Icon letters as the table prints them next to a percentage ("P 50%").
var iconLetters = []struct {
	letter string
	side   models.Outcome
}{
	{"P", models.OutcomePlayer},
	{"B", models.OutcomeBanker},
	{"T", models.OutcomeTie},
}

// IconStrategy matches "P 50%"-style labels, then falls back to the tightest
// container with three percentages, read as Player, Banker, Tie.
type IconStrategy struct {
	nodes  PercentSource
	groups GroupSource
}

func NewIconStrategy(nodes PercentSource, groups GroupSource) *IconStrategy {
	return &IconStrategy{nodes: nodes, groups: groups}
}

func (s *IconStrategy) Name() string { return "icons" }

func (s *IconStrategy) Extract(ctx context.Context) (Partial, error) {
	nodes, err := s.nodes.PercentNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("percent nodes: %w", err)
	}

	out := Partial{}
	for _, pass := range iconLetters {
		for _, n := range nodes {
			letters := iconTokens(n.Text)
			if !letters[pass.letter] {
				continue
			}
			v, ok := parsePercent(n.Text)
			if !ok || v > 100 {
				continue
			}
			for _, il := range iconLetters {
				if !letters[il.letter] {
					continue
				}
				if _, filled := out[il.side]; !filled {
					out[il.side] = v
					break
				}
			}
		}
	}
	if out.complete() {
		return out, nil
	}

	groups, err := s.groups.PercentGroups(ctx)
	if err != nil {
		return out, fmt.Errorf("percent groups: %w", err)
	}
	if values, ok := tightestGroup(groups); ok {
		for i, side := range []models.Outcome{models.OutcomePlayer, models.OutcomeBanker, models.OutcomeTie} {
			if _, filled := out[side]; !filled {
				out[side] = values[i]
			}
		}
	}
	return out, nil
}

// tightestGroup picks the group with the fewest percentages (at least three)
// that names a side; deeper elements win ties.
func tightestGroup(groups []dom.PercentGroup) ([3]float64, bool) {
	var (
		best    [3]float64
		bestLen = -1
	)
	for _, g := range groups {
		matches := percentRe.FindAllStringSubmatch(g.Text, -1)
		if len(matches) < 3 || !namesSide(g.Text) {
			continue
		}
		var values [3]float64
		valid := true
		for i, m := range matches[:3] {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil || v > 100 {
				valid = false
				break
			}
			values[i] = v
		}
		if !valid {
			continue
		}
		if bestLen < 0 || len(matches) <= bestLen {
			best, bestLen = values, len(matches)
		}
	}
	return best, bestLen >= 0
}

func namesSide(text string) bool {
	words := tokens(text)
	for _, cs := range contextSides {
		if intersects(words, cs.words) {
			return true
		}
	}
	return false
}

// iconTokens returns the single capital letters standing alone in s.
func iconTokens(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if len(f) == 1 && unicode.IsUpper(rune(f[0])) {
			out[f] = true
		}
	}
	return out
}
