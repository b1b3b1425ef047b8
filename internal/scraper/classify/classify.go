// Package classify detects which side won the current round.
package classify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
)

// Page is the part of the game page the classifier reads.
type Page interface {
	FindText(ctx context.Context, needles []string) ([]dom.TextNode, error)
	FindByAttr(ctx context.Context, keywords []string) ([]dom.StyledNode, error)
	Markup(ctx context.Context) (string, error)
}

// Victory banner phrases, upper case.
var (
	playerBanners = []string{"VITÓRIA DO JOGADOR", "VITÓRIA DO PLAYER", "VITÓRIA JOGADOR", "PLAYER WINS"}
	bankerBanners = []string{"VITÓRIA DA BANCA", "VITÓRIA DO BANQUEIRO", "VITÓRIA DA BANKER", "VITÓRIA BANCA", "BANKER WINS"}
	tieBanners    = []string{"VITÓRIA DO EMPATE", "VITÓRIA EMPATE", "TIE WINS"}
)

var resultAttrKeywords = []string{
	"result", "winner", "win", "outcome", "game-result", "last-result", "round-result", "victory", "vitória",
}

var (
	playerWords = []string{"player", "jogador"}
	bankerWords = []string{"banker", "banqueiro", "banca"}
	tieWords    = []string{"tie", "empate"}
	winWords    = []string{"win", "won", "ganhou", "vitória"}

	greenMarks = []string{"green", "#00ff00", "rgb(0, 255, 0)"}
	redMarks   = []string{"red", "#ff0000", "rgb(255, 0, 0)"}
	blueMarks  = []string{"blue", "#000080", "rgb(0, 0, 128)"}
)

// Recent-result panels, searched one keyword at a time; only the first
// historyScanLimit elements per keyword are read.
var (
	historyKeywords   = []string{"history", "recent", "last", "current"}
	playerHistoryWins = []string{"player win", "jogador ganhou", "player won"}
	bankerHistoryWins = []string{"banker win", "banqueiro ganhou", "banker won"}
	tieHistoryMarks   = []string{"tie", "empate", "draw"}
)

const historyScanLimit = 5

// proximityWindow is the max distance in bytes between "result" and an
// outcome word in the page markup.
const proximityWindow = 500

type Classifier struct {
	page Page
}

func New(page Page) *Classifier {
	return &Classifier{page: page}
}

// Classify returns OutcomeNone when nothing on the page announces a winner.
func (c *Classifier) Classify(ctx context.Context) models.Outcome {
	if out := c.fromBanners(ctx); out != models.OutcomeNone {
		slog.Debug("Result detected from victory banner", "result", out)
		return out
	}

	markup, err := c.page.Markup(ctx)
	if err != nil {
		slog.Debug("Failed to read page markup", "error", err)
	}
	if out := fromMarkupBanners(markup); out != models.OutcomeNone {
		slog.Debug("Result detected from page markup", "result", out)
		return out
	}

	if out := c.fromResultElements(ctx); out != models.OutcomeNone {
		slog.Debug("Result detected from result element", "result", out)
		return out
	}

	if out := c.fromHistory(ctx); out != models.OutcomeNone {
		slog.Debug("Result detected from history panel", "result", out)
		return out
	}

	return fromProximity(markup)
}

func (c *Classifier) fromBanners(ctx context.Context) models.Outcome {
	needles := make([]string, 0, len(playerBanners)+len(bankerBanners)+len(tieBanners))
	needles = append(needles, playerBanners...)
	needles = append(needles, bankerBanners...)
	needles = append(needles, tieBanners...)

	nodes, err := c.page.FindText(ctx, needles)
	if err != nil {
		slog.Debug("Failed to search victory banners", "error", err)
		return models.OutcomeNone
	}
	for _, n := range nodes {
		text := strings.ToUpper(n.Text)
		var out models.Outcome
		switch {
		case containsAny(text, playerBanners):
			out = models.OutcomePlayer
		case containsAny(text, bankerBanners):
			out = models.OutcomeBanker
		case containsAny(text, tieBanners):
			out = models.OutcomeTie
		default:
			continue
		}
		if n.Visible {
			return out
		}
	}
	return models.OutcomeNone
}

func fromMarkupBanners(markup string) models.Outcome {
	upper := strings.ToUpper(markup)
	switch {
	case containsAny(upper, playerBanners):
		return models.OutcomePlayer
	case containsAny(upper, bankerBanners):
		return models.OutcomeBanker
	case containsAny(upper, tieBanners):
		return models.OutcomeTie
	}
	return models.OutcomeNone
}

func (c *Classifier) fromResultElements(ctx context.Context) models.Outcome {
	nodes, err := c.page.FindByAttr(ctx, resultAttrKeywords)
	if err != nil {
		slog.Debug("Failed to search result elements", "error", err)
		return models.OutcomeNone
	}
	for _, n := range nodes {
		text := strings.ToLower(n.Text)
		won := containsAny(text, winWords)
		switch {
		case containsAny(text, playerWords):
			if won {
				return models.OutcomePlayer
			}
		case containsAny(text, bankerWords):
			if won {
				return models.OutcomeBanker
			}
		case containsAny(text, tieWords):
			if won {
				return models.OutcomeTie
			}
		}

		style := strings.ToLower(n.Style)
		class := strings.ToLower(n.Class)
		if (containsAny(style, greenMarks) || strings.Contains(class, "green")) && containsAny(text, playerWords) {
			return models.OutcomePlayer
		}
		if (containsAny(style, redMarks) || strings.Contains(class, "red")) && containsAny(text, []string{"banker", "banqueiro"}) {
			return models.OutcomeBanker
		}
		if containsAny(style, blueMarks) && containsAny(text, tieWords) {
			return models.OutcomeTie
		}
	}
	return models.OutcomeNone
}

func (c *Classifier) fromHistory(ctx context.Context) models.Outcome {
	for _, keyword := range historyKeywords {
		nodes, err := c.page.FindByAttr(ctx, []string{keyword})
		if err != nil {
			slog.Debug("Failed to search history panels", "keyword", keyword, "error", err)
			continue
		}
		if len(nodes) > historyScanLimit {
			nodes = nodes[:historyScanLimit]
		}
		for _, n := range nodes {
			text := strings.ToLower(n.Text)
			switch {
			case containsAny(text, playerHistoryWins):
				return models.OutcomePlayer
			case containsAny(text, bankerHistoryWins):
				return models.OutcomeBanker
			case containsAny(text, tieHistoryMarks):
				return models.OutcomeTie
			}
		}
	}
	return models.OutcomeNone
}

func fromProximity(markup string) models.Outcome {
	lower := strings.ToLower(markup)
	anchor := strings.Index(lower, "result")
	if anchor < 0 {
		return models.OutcomeNone
	}
	near := func(word string) bool {
		i := strings.Index(lower, word)
		if i < 0 {
			return false
		}
		d := anchor - i
		if d < 0 {
			d = -d
		}
		return d < proximityWindow
	}

	won := containsAny(lower, []string{"win", "won", "ganhou"})
	if won && near("player") {
		return models.OutcomePlayer
	}
	if won && near("banker") {
		return models.OutcomeBanker
	}
	if strings.Contains(lower, "tie") {
		if near("tie") {
			return models.OutcomeTie
		}
	} else if near("empate") {
		return models.OutcomeTie
	}
	return models.OutcomeNone
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
