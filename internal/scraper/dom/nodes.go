// Package dom holds the element snapshots the scraper reads from the game page
// and an offline page implementation backed by saved HTML.
package dom

// PercentNode is an element whose own text contains a '%' sign.
type PercentNode struct {
	Text      string  `json:"text"`
	Parent    string  `json:"parent"`
	Container string  `json:"container"` // parent + grandparent text
	Siblings  string  `json:"siblings"`  // text of the parent's element children
	Zone      string  `json:"zone"`      // nearest statistics-like ancestor, see ZoneKeywords
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// ZoneKeywords mark the statistics/roadmap panels of the table, matched
// against an ancestor's class or id. Order is priority.
var ZoneKeywords = []string{"roadmap", "statistics", "stats", "history"}

// PercentGroup is an element holding at least two percentage elements.
type PercentGroup struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// BarCandidate is an element carrying a percentage signal from its width.
type BarCandidate struct {
	Pct        float64 `json:"pct"`
	Background string  `json:"bg"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
}

// TextNode is an element whose text contains one of the searched phrases.
type TextNode struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// StyledNode is an element whose class or id contains one of the searched keywords.
type StyledNode struct {
	Text  string `json:"text"`
	Style string `json:"style"`
	Class string `json:"class"`
	ID    string `json:"id"`
}
