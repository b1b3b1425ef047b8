package notifier

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

// Kind selects how a Message is rendered.
type Kind int

const (
	KindPercentages Kind = iota
	KindResult
	KindAnalysis
	KindStatus
	KindError
	KindDemoOdds
	KindDemoResult
)

func (k Kind) String() string {
	switch k {
	case KindPercentages:
		return "percentages"
	case KindResult:
		return "result"
	case KindAnalysis:
		return "analysis"
	case KindStatus:
		return "status"
	case KindError:
		return "error"
	case KindDemoOdds:
		return "demo_odds"
	case KindDemoResult:
		return "demo_result"
	default:
		return "unknown"
	}
}

// Message is a notification before rendering. Only the fields relevant to Kind are read.
type Message struct {
	Kind     Kind
	Triplet  models.Triplet
	Result   models.Outcome
	Analysis models.Analysis
	Status   Status
	Detail   string
	Demo     models.DemoRound
}

func Percentages(t models.Triplet) Message  { return Message{Kind: KindPercentages, Triplet: t} }
func Result(o models.Outcome) Message       { return Message{Kind: KindResult, Result: o} }
func Analysis(a models.Analysis) Message    { return Message{Kind: KindAnalysis, Analysis: a} }
func StatusMessage(s Status) Message        { return Message{Kind: KindStatus, Status: s} }
func ErrorMessage(err error) Message        { return Message{Kind: KindError, Detail: err.Error()} }
func DemoOdds(r models.DemoRound) Message   { return Message{Kind: KindDemoOdds, Demo: r} }
func DemoResult(r models.DemoRound) Message { return Message{Kind: KindDemoResult, Demo: r} }

// Format renders msg as Telegram HTML in the given language.
func Format(msg Message, lang string) (string, error) {
	t := textsFor(lang)
	switch msg.Kind {
	case KindPercentages:
		return fmt.Sprintf("📊 <b>%s</b>\n\n🟢 <b>%s:</b> %s%%\n🔴 <b>%s:</b> %s%%\n🔵 <b>%s:</b> %s%%",
			t.Percentages,
			t.Player, models.FormatPct(msg.Triplet.Player),
			t.Banker, models.FormatPct(msg.Triplet.Banker),
			t.Tie, models.FormatPct(msg.Triplet.Tie)), nil

	case KindResult:
		var icon, name string
		switch msg.Result {
		case models.OutcomePlayer:
			icon, name = "🟢", t.Player
		case models.OutcomeBanker:
			icon, name = "🔴", t.Banker
		case models.OutcomeTie:
			icon, name = "🔵", t.Tie
		default:
			return "", errors.New("no result to format")
		}
		return fmt.Sprintf("🎯 <b>%s:</b> %s <b>%s</b>", t.Result, icon, name), nil

	case KindAnalysis:
		return fmt.Sprintf("📈 <b>%s</b>\n\n<b>%s:</b> %s\n<b>%s:</b> %s%%",
			t.Analysis,
			t.PlayersCnt, html.EscapeString(msg.Analysis.PlayersCount),
			t.Percentage, html.EscapeString(msg.Analysis.Percentage)), nil

	case KindStatus:
		text, ok := t.Statuses[msg.Status]
		if !ok {
			return "", fmt.Errorf("unknown status %q", msg.Status)
		}
		return text, nil

	case KindError:
		return fmt.Sprintf("❌ %s: %s", t.BotError, html.EscapeString(msg.Detail)), nil

	case KindDemoOdds:
		o := msg.Demo.Odds
		return fmt.Sprintf("📊 <b>%s</b> 📊\n🟢 %s: <b>%.0f%%</b>\n🔴 %s: <b>%.0f%%</b>\n🔵 %s: <b>%.0f%%</b>",
			t.Probabilities, t.Player, o.Player, t.Banker, o.Banker, t.Tie, o.Tie), nil

	case KindDemoResult:
		return formatDemoResult(msg.Demo, t), nil
	}
	return "", fmt.Errorf("unknown message kind %d", msg.Kind)
}

func formatDemoResult(r models.DemoRound, t texts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>%s</b> 🎯\n\n", t.GameResult)
	switch r.Outcome {
	case models.OutcomePlayer:
		fmt.Fprintf(&b, "✅ <b>%s</b> 🟢\n🎉 %s\n\n", t.WinnerPlayer, t.PlayerWinsRound)
	case models.OutcomeBanker:
		fmt.Fprintf(&b, "✅ <b>%s</b> 🔴\n🎉 %s\n\n", t.WinnerBanker, t.BankerWinsRound)
	default:
		fmt.Fprintf(&b, "⚖️ <b>%s</b> 🔵\n🤝 %s\n\n", t.Tie, t.ItsDraw)
	}

	fmt.Fprintf(&b, "📊 <b>%s</b> 📊\n", t.WinLossRecord)
	fmt.Fprintf(&b, "✅ %s: <b>%d</b>\n", t.TotalWins, r.Wins)
	fmt.Fprintf(&b, "❌ %s: <b>%d</b>\n", t.TotalLosses, r.Losses)
	if r.Wins+r.Losses > 0 {
		fmt.Fprintf(&b, "📈 %s: <b>%.1f%%</b>\n", t.WinRate, r.WinRate())
	}
	b.WriteString("\n")

	if total := r.PlayersBetting + r.BankersBetting; total > 0 {
		remaining := 100 - r.Odds.Tie
		playerPct := remaining * float64(r.PlayersBetting) / float64(total)
		bankerPct := remaining * float64(r.BankersBetting) / float64(total)
		fmt.Fprintf(&b, "📈 <b>%s</b> 📈\n", t.Statistics)
		fmt.Fprintf(&b, "🟢 %s: <b>%.1f%%</b> (%d %s)\n", t.Player, playerPct, r.PlayersBetting, t.Bettors)
		fmt.Fprintf(&b, "🔴 %s: <b>%.1f%%</b> (%d %s)\n", t.Banker, bankerPct, r.BankersBetting, t.Bettors)
		fmt.Fprintf(&b, "🔵 %s: <b>%.0f%%</b>", t.Tie, r.Odds.Tie)
	}
	return b.String()
}
