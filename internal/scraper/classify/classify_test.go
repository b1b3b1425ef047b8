package classify

import (
	"context"
	"strings"
	"testing"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.Outcome
	}{
		{
			name: "visible banner",
			body: `<div class="overlay"><h1>Vitória do Jogador</h1></div>`,
			want: models.OutcomePlayer,
		},
		{
			name: "hidden banner falls back to markup",
			body: `<div style="display:none"><h1>VITÓRIA DA BANCA</h1></div>`,
			want: models.OutcomeBanker,
		},
		{
			name: "result element with win word",
			body: `<div class="round-result">Tie won</div>`,
			want: models.OutcomeTie,
		},
		{
			name: "result element colour",
			body: `<div class="winner" style="color: green">Player</div>`,
			want: models.OutcomePlayer,
		},
		{
			name: "proximity in markup",
			body: `<div id="panel">result: the banker won this one</div>`,
			want: models.OutcomeBanker,
		},
		{
			name: "history panel",
			body: `<ul class="recent-rounds"><li>Banker won</li><li>Player</li></ul>`,
			want: models.OutcomeBanker,
		},
		{
			name: "history panel draw",
			body: `<div id="board"><div class="history">Draw</div></div>`,
			want: models.OutcomeTie,
		},
		{
			name: "history beyond scan limit",
			body: `<i class="last">1</i><i class="last">2</i><i class="last">3</i><i class="last">4</i><i class="last">5</i><i class="last">player won</i>`,
			want: models.OutcomeNone,
		},
		{
			name: "nothing announced",
			body: `<div class="table">waiting for bets</div>`,
			want: models.OutcomeNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := dom.NewMarkupPage(strings.NewReader("<html><body>" + tt.body + "</body></html>"))
			if err != nil {
				t.Fatalf("NewMarkupPage: %v", err)
			}
			if got := New(page).Classify(context.Background()); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromProximity(t *testing.T) {
	far := "result" + strings.Repeat(" ", 600) + "player wins"
	tests := []struct {
		markup string
		want   models.Outcome
	}{
		{"last result: player won", models.OutcomePlayer},
		{far, models.OutcomeNone},
		{"result empate", models.OutcomeTie},
		{"player banker", models.OutcomeNone},
		{"result player", models.OutcomeNone},
	}
	for _, tt := range tests {
		if got := fromProximity(tt.markup); got != tt.want {
			t.Errorf("fromProximity(%.30q) = %q, want %q", tt.markup, got, tt.want)
		}
	}
}
