package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/ocr"
)

type stubStrategy struct {
	name  string
	part  Partial
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(ctx context.Context) (Partial, error) {
	s.calls++
	return s.part, s.err
}

func TestExtractorFillsOnlyEmptySlots(t *testing.T) {
	first := &stubStrategy{name: "first", part: Partial{models.OutcomePlayer: 41}}
	broken := &stubStrategy{name: "broken", err: errors.New("boom")}
	second := &stubStrategy{name: "second", part: Partial{
		models.OutcomePlayer: 50, models.OutcomeBanker: 45, models.OutcomeTie: 9,
	}}
	unused := &stubStrategy{name: "unused", part: Partial{models.OutcomeTie: 1}}

	got := New(first, broken, second, unused).Extract(context.Background())
	want := models.Triplet{Player: 41, Banker: 45, Tie: 9}
	if got != want {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
	if broken.calls != 1 {
		t.Errorf("broken strategy calls = %d, want 1", broken.calls)
	}
	if unused.calls != 0 {
		t.Errorf("strategy after a complete triplet was called %d times", unused.calls)
	}
}

func TestExtractorTotalMiss(t *testing.T) {
	got := New(&stubStrategy{name: "empty", part: Partial{}}).Extract(context.Background())
	if !got.IsZero() {
		t.Errorf("Extract() = %v, want zero triplet", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want models.Triplet
	}{
		{models.Triplet{Player: 55.5, Banker: 53.2, Tie: 12.0}, models.Triplet{Player: 45.98, Banker: 44.08, Tie: 9.94}},
		{models.Triplet{Player: -5, Banker: 120, Tie: 10}, models.Triplet{Player: 0, Banker: 90.91, Tie: 9.09}},
		{models.Triplet{Player: 40, Banker: 40, Tie: 10}, models.Triplet{Player: 40, Banker: 40, Tie: 10}},
		{models.Triplet{Player: 33.333, Banker: 33.336, Tie: 0}, models.Triplet{Player: 33.33, Banker: 33.34, Tie: 0}},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

const statsPage = `<html><body>
<div class="stats">
  <div class="cell"><span>52%</span><small>P</small></div>
  <div class="cell"><span>8%</span><small>O</small></div>
  <div class="cell"><span>40%</span><small>B</small></div>
</div>
<div class="bars">
  <div style="width: 48%; background-color: rgb(30, 90, 220)"></div>
  <div style="width: 10%; background-color: rgb(230, 200, 40)"></div>
  <div aria-valuenow="42" style="background: rgb(200, 30, 30)"></div>
</div>
</body></html>`

func markupPage(t *testing.T) *dom.MarkupPage {
	t.Helper()
	p, err := dom.NewMarkupPage(strings.NewReader(statsPage))
	if err != nil {
		t.Fatalf("NewMarkupPage: %v", err)
	}
	return p
}

func TestTextStrategyLabels(t *testing.T) {
	got, err := NewTextStrategy(markupPage(t)).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Partial{models.OutcomePlayer: 52, models.OutcomeTie: 8, models.OutcomeBanker: 40}
	assertPartial(t, got, want)
}

func TestTextStrategyLabelsFromParentOnly(t *testing.T) {
	page := pageFrom(t, `<div class="row"><div><b>Player</b><span>48%</span></div><div><b>Tie</b><span>9%</span></div><div><b>Banker</b><span>43%</span></div></div>`)
	got, err := NewTextStrategy(page).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertPartial(t, got, Partial{models.OutcomePlayer: 48, models.OutcomeTie: 9, models.OutcomeBanker: 43})
}

type nodeSource []dom.PercentNode

func (n nodeSource) PercentNodes(ctx context.Context) ([]dom.PercentNode, error) { return n, nil }

func TestTextStrategyPositionalFallback(t *testing.T) {
	src := nodeSource{
		{Text: "65%", X: 300},
		{Text: "30%", X: 10},
		{Text: "5%", X: 150},
		{Text: "130%", X: 400},
	}
	got, err := NewTextStrategy(src).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Partial{models.OutcomePlayer: 30, models.OutcomeTie: 5, models.OutcomeBanker: 65}
	assertPartial(t, got, want)
}

func TestTextStrategyNeedsThreeValues(t *testing.T) {
	src := nodeSource{{Text: "50%"}, {Text: "50%"}}
	got, err := NewTextStrategy(src).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Extract() = %v, want empty", got)
	}
}

func TestBarStrategyColours(t *testing.T) {
	got, err := NewBarStrategy(markupPage(t)).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Partial{models.OutcomePlayer: 48, models.OutcomeTie: 10, models.OutcomeBanker: 42}
	assertPartial(t, got, want)
}

type barSource []dom.BarCandidate

func (b barSource) BarCandidates(ctx context.Context) ([]dom.BarCandidate, error) { return b, nil }

func TestBarStrategyPositionalFallback(t *testing.T) {
	src := barSource{
		{Pct: 50, X: 300, Y: 101, W: 120, H: 10},
		{Pct: 44, X: 10, Y: 99, W: 120, H: 10},
		{Pct: 4, X: 200, Y: 102, W: 60, H: 10},
		{Pct: 90, X: 0, Y: 400, W: 600, H: 200}, // too tall
		{Pct: 30, X: 0, Y: 600, W: 20, H: 10},   // too narrow
	}
	got, err := NewBarStrategy(src).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Partial{models.OutcomePlayer: 44, models.OutcomeTie: 4, models.OutcomeBanker: 50}
	assertPartial(t, got, want)
}

func TestBarStrategyNoTriplet(t *testing.T) {
	src := barSource{
		{Pct: 10, X: 0, W: 100, H: 10},
		{Pct: 10, X: 100, W: 100, H: 10},
		{Pct: 10, X: 200, W: 100, H: 10},
	}
	got, err := NewBarStrategy(src).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Extract() = %v, want empty", got)
	}
}

func TestClassifyColour(t *testing.T) {
	tests := []struct {
		in   string
		want models.Outcome
	}{
		{"rgb(30, 90, 220)", models.OutcomePlayer},
		{"rgba(255, 204, 0, 0.9)", models.OutcomeTie},
		{"rgb(20, 180, 60)", models.OutcomeTie},
		{"rgb(210, 20, 40)", models.OutcomeBanker},
		{"transparent", models.OutcomeNone},
		{"rgb(100, 100, 100)", models.OutcomeNone},
	}
	for _, tt := range tests {
		if got := classifyColour(tt.in); got != tt.want {
			t.Errorf("classifyColour(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

type pngShots struct{ data []byte }

func (p pngShots) Screenshot(ctx context.Context) ([]byte, error) { return p.data, nil }

type fakeReader struct {
	words []ocr.Word
	calls int
}

func (f *fakeReader) ReadText(img image.Image) ([]ocr.Word, error) {
	f.calls++
	return f.words, nil
}

func blankPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 200, 100))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func word(text string, x, y int, conf float64) ocr.Word {
	return ocr.Word{Text: text, Box: image.Rect(x, y, x+20, y+10), Confidence: conf}
}

func TestOCRStrategy(t *testing.T) {
	reader := &fakeReader{words: []ocr.Word{
		word("45.5%", 120, 4, 0.9),
		word("10%", 60, 6, 0.8),
		word("44%", 10, 5, 0.9),
		word("99%", 60, 80, 0.1), // below confidence threshold
		word("0.2%", 90, 5, 0.9), // below value range
		word("abc", 30, 5, 0.9),
	}}
	s := NewOCRStrategy(pngShots{blankPNG(t)}, reader, OCRConfig{})

	got, err := s.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Partial{models.OutcomePlayer: 44, models.OutcomeTie: 10, models.OutcomeBanker: 45.5}
	assertPartial(t, got, want)
	if reader.calls != len(DefaultRegions) {
		t.Errorf("reader called %d times, want %d", reader.calls, len(DefaultRegions))
	}
}

func TestPickTripletPrefersRow(t *testing.T) {
	toks := []ocrToken{
		{value: 70, conf: 0.99, x: 5, y: 200},
		{value: 45, conf: 0.5, x: 0, y: 10},
		{value: 10, conf: 0.6, x: 50, y: 12},
		{value: 45, conf: 0.7, x: 100, y: 8},
		{value: 80, conf: 0.95, x: 100, y: 300},
	}
	got := pickTriplet(toks)
	if len(got) != 3 {
		t.Fatalf("pickTriplet returned %d tokens, want 3", len(got))
	}
	for _, tok := range got {
		if tok.y > 20 {
			t.Errorf("pickTriplet picked %+v from another row", tok)
		}
	}
}

func TestPickTripletTopConfidence(t *testing.T) {
	toks := []ocrToken{
		{value: 1, conf: 0.3, x: 0, y: 0},
		{value: 2, conf: 0.9, x: 10, y: 100},
		{value: 3, conf: 0.8, x: 20, y: 200},
		{value: 4, conf: 0.8, x: 5, y: 300},
	}
	got := pickTriplet(toks)
	wantValues := []float64{2, 4, 3}
	for i, tok := range got {
		if tok.value != wantValues[i] {
			t.Errorf("pickTriplet()[%d] = %v, want %v", i, tok.value, wantValues[i])
		}
	}
}

func assertPartial(t *testing.T, got, want Partial) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("partial = %v, want %v", got, want)
	}
	for side, v := range want {
		if got[side] != v {
			t.Errorf("%s = %v, want %v", side, got[side], v)
		}
	}
}

func pageFrom(t *testing.T, body string) *dom.MarkupPage {
	t.Helper()
	p, err := dom.NewMarkupPage(strings.NewReader("<html><body>" + body + "</body></html>"))
	if err != nil {
		t.Fatalf("NewMarkupPage: %v", err)
	}
	return p
}

func TestZoneStrategy(t *testing.T) {
	page := pageFrom(t, `
<div class="promo"><span>Bonus 100%</span></div>
<div id="roadmap-panel">
  <div><i>P</i><span>47%</span></div>
  <div><i>B</i><span>41%</span></div>
</div>`)
	got, err := NewZoneStrategy(page).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertPartial(t, got, Partial{models.OutcomePlayer: 47, models.OutcomeBanker: 41})
}

func TestSiblingStrategy(t *testing.T) {
	page := pageFrom(t, `<div class="table"><p><i>Empate</i><b>12%</b></p><p><i>Jogador</i><b>44%</b></p></div>`)
	got, err := NewSiblingStrategy(page).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertPartial(t, got, Partial{models.OutcomeTie: 12, models.OutcomePlayer: 44})
}

func TestContextFilledSide(t *testing.T) {
	nodes := nodeSource{
		{Text: "40%", Siblings: "P 40%", Zone: "stats"},
		{Text: "35%", Siblings: "P B 35%", Zone: "stats"},
	}

	// inside a panel the next named side takes the value
	zone, err := NewZoneStrategy(nodes).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertPartial(t, zone, Partial{models.OutcomePlayer: 40, models.OutcomeBanker: 35})

	// the page-wide scan stops at the first named side
	seq, err := NewSiblingStrategy(nodes).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertPartial(t, seq, Partial{models.OutcomePlayer: 40})
}

func TestIconStrategyLetters(t *testing.T) {
	page := pageFrom(t, `<ul class="odds"><li>P 45%</li><li>44% B</li><li>T 11%</li><li>Payout 95%</li></ul>`)
	got, err := NewIconStrategy(page, page).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertPartial(t, got, Partial{models.OutcomePlayer: 45, models.OutcomeBanker: 44, models.OutcomeTie: 11})
}

func TestIconStrategyGroup(t *testing.T) {
	page := pageFrom(t, `
<div class="lobby"><span>Cashback 5%</span><span>Rakeback 7%</span></div>
<div class="odds"><span>Player 46%</span><span>Banker 43%</span><span>Tie 11%</span></div>`)
	got, err := NewIconStrategy(page, page).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertPartial(t, got, Partial{models.OutcomePlayer: 46, models.OutcomeBanker: 43, models.OutcomeTie: 11})
}

func TestDOMStrategiesFillFromPanels(t *testing.T) {
	page := pageFrom(t, `<div class="statistics"><p><i>P</i><b>50%</b></p><p><i>B</i><b>40%</b></p></div>`)
	got := New(DOMStrategies(page)...).Extract(context.Background())
	want := models.Triplet{Player: 50, Banker: 40}
	if got != want {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}
