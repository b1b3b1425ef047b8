package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
)

// PercentSource lists page elements that show a percentage.
type PercentSource interface {
	PercentNodes(ctx context.Context) ([]dom.PercentNode, error)
}

const textScanLimit = 10

var (
	playerWords = wordSet("p", "player", "jogador")
	bankerWords = wordSet("b", "banker", "banqueiro", "banca", "banco")
	tieWords    = wordSet("t", "tie", "empate")
)

// TextStrategy matches percentage labels against the words around them.
// Side keywords are read from the parent's text only: the grandparent of a
// cell usually holds the labels of every cell. The wider container text
// feeds the positional hints.
type TextStrategy struct {
	src PercentSource
}

func NewTextStrategy(src PercentSource) *TextStrategy {
	return &TextStrategy{src: src}
}

func (s *TextStrategy) Name() string { return "dom_text" }

type percentHit struct {
	value  float64
	x      float64
	label  map[string]bool
	around map[string]bool
}

func (s *TextStrategy) Extract(ctx context.Context) (Partial, error) {
	nodes, err := s.src.PercentNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("percent nodes: %w", err)
	}

	var hits []percentHit
	for _, n := range nodes {
		v, ok := parsePercent(n.Text)
		if !ok || v < 0 || v > 100 {
			continue
		}
		hits = append(hits, percentHit{
			value:  v,
			x:      n.X,
			label:  tokens(n.Parent),
			around: tokens(n.Container),
		})
	}
	if len(hits) < 3 {
		return Partial{}, nil
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].x < hits[j].x })
	if len(hits) > textScanLimit {
		hits = hits[:textScanLimit]
	}

	all := map[string]bool{}
	for _, h := range hits {
		for w := range h.around {
			all[w] = true
		}
	}

	out := Partial{}
	for i, h := range hits {
		if _, ok := out[models.OutcomePlayer]; !ok {
			if intersects(h.label, playerWords) || (i == 0 && all["p"]) {
				out[models.OutcomePlayer] = h.value
				continue
			}
		}
		if _, ok := out[models.OutcomeBanker]; !ok {
			if intersects(h.label, bankerWords) || (i == 2 && all["b"]) {
				out[models.OutcomeBanker] = h.value
				continue
			}
		}
		if _, ok := out[models.OutcomeTie]; !ok {
			if intersects(h.label, tieWords) || (i == 1 && (h.around["o"] || all["t"])) {
				out[models.OutcomeTie] = h.value
				continue
			}
		}
	}

	// Layout is Player | Tie | Banker; the tie is usually the smallest.
	if _, ok := out[models.OutcomePlayer]; !ok {
		out[models.OutcomePlayer] = hits[0].value
	}
	if _, ok := out[models.OutcomeTie]; !ok {
		smallest := hits[0].value
		for _, h := range hits[1:3] {
			if h.value < smallest {
				smallest = h.value
			}
		}
		out[models.OutcomeTie] = smallest
	}
	if _, ok := out[models.OutcomeBanker]; !ok {
		out[models.OutcomeBanker] = hits[2].value
	}
	return out, nil
}

// tokens splits s into lower-cased runs of letters.
func tokens(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !unicode.IsLetter(r) }) {
		out[f] = true
	}
	return out
}

func wordSet(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

func intersects(a, b map[string]bool) bool {
	for w := range a {
		if b[w] {
			return true
		}
	}
	return false
}
