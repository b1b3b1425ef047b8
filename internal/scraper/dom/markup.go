package dom

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	widthStyleRe = regexp.MustCompile(`width\s*:\s*(\d+(?:\.\d+)?)%`)
	backgroundRe = regexp.MustCompile(`background(?:-color)?\s*:\s*([^;]+)`)
	numberRe     = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Synthetic geometry used by MarkupPage: document order replaces x, each
// parent element of a bar becomes its own row.
const (
	markupRowHeight = 100
	markupBarWidth  = 100
	markupBarHeight = 20
)

// MarkupPage answers the page queries from a static HTML document.
// It has no layout engine, so positions are derived from document order.
type MarkupPage struct {
	doc *goquery.Document
}

// NewMarkupPage parses HTML from r.
func NewMarkupPage(r io.Reader) (*MarkupPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return &MarkupPage{doc: doc}, nil
}

// LoadMarkupPage reads a saved page from disk.
func LoadMarkupPage(path string) (*MarkupPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open markup file: %w", err)
	}
	defer f.Close()
	return NewMarkupPage(f)
}

// PercentNodes returns elements with a direct text node containing '%'.
func (p *MarkupPage) PercentNodes(ctx context.Context) ([]PercentNode, error) {
	var out []PercentNode
	p.doc.Find("body *").Each(func(i int, s *goquery.Selection) {
		if !strings.Contains(ownText(s), "%") {
			return
		}
		parent := s.Parent()
		label := collapse(parent.Text())
		container := label
		if gp := parent.Parent(); gp.Length() > 0 {
			container += " " + collapse(gp.Text())
		}
		var siblings []string
		parent.Children().Each(func(_ int, c *goquery.Selection) {
			if t := collapse(c.Text()); t != "" {
				siblings = append(siblings, t)
			}
		})
		out = append(out, PercentNode{
			Text:      collapse(s.Text()),
			Parent:    label,
			Container: container,
			Siblings:  strings.Join(siblings, " "),
			Zone:      zoneOf(s),
			X:         float64(len(out)),
		})
	})
	return out, ctx.Err()
}

// PercentGroups returns, in document order, the elements that contain at
// least two percentage elements.
func (p *MarkupPage) PercentGroups(ctx context.Context) ([]PercentGroup, error) {
	counts := map[*html.Node]int{}
	p.doc.Find("body *").Each(func(i int, s *goquery.Selection) {
		if !strings.Contains(ownText(s), "%") {
			return
		}
		s.ParentsUntil("html").Each(func(_ int, a *goquery.Selection) {
			counts[a.Get(0)]++
		})
	})

	var out []PercentGroup
	collect := func(i int, s *goquery.Selection) {
		if n := counts[s.Get(0)]; n >= 2 {
			out = append(out, PercentGroup{Text: collapse(s.Text()), Count: n})
		}
	}
	p.doc.Find("body").Each(collect)
	p.doc.Find("body *").Each(collect)
	return out, ctx.Err()
}

// BarCandidates returns elements with an inline width percentage or aria-valuenow.
func (p *MarkupPage) BarCandidates(ctx context.Context) ([]BarCandidate, error) {
	var out []BarCandidate
	rows := map[*html.Node]int{}
	p.doc.Find("body *").Each(func(i int, s *goquery.Selection) {
		style := strings.ToLower(s.AttrOr("style", ""))
		pct, ok := -1.0, false
		if m := widthStyleRe.FindStringSubmatch(style); m != nil {
			pct, _ = strconv.ParseFloat(m[1], 64)
			ok = true
		} else if aria := strings.TrimSpace(s.AttrOr("aria-valuenow", "")); numberRe.MatchString(aria) {
			pct, _ = strconv.ParseFloat(aria, 64)
			ok = true
		}
		if !ok {
			return
		}

		row := 0
		if parent := s.Parent(); parent.Length() > 0 {
			node := parent.Get(0)
			r, seen := rows[node]
			if !seen {
				r = len(rows)
				rows[node] = r
			}
			row = r
		}

		bg := ""
		if m := backgroundRe.FindStringSubmatch(style); m != nil {
			bg = strings.TrimSpace(m[1])
		}
		out = append(out, BarCandidate{
			Pct:        pct,
			Background: bg,
			X:          float64(len(out)),
			Y:          float64(row * markupRowHeight),
			W:          markupBarWidth,
			H:          markupBarHeight,
		})
	})
	return out, ctx.Err()
}

// FindText returns elements whose text contains one of needles
// (case-insensitive): either in their own text nodes, or in their rendered
// text when no child element holds the phrase on its own.
func (p *MarkupPage) FindText(ctx context.Context, needles []string) ([]TextNode, error) {
	hit := func(text string) bool {
		upper := strings.ToUpper(text)
		for _, n := range needles {
			if strings.Contains(upper, strings.ToUpper(n)) {
				return true
			}
		}
		return false
	}

	var out []TextNode
	p.doc.Find("body *").Each(func(i int, s *goquery.Selection) {
		text := ownText(s)
		if !hit(text) {
			text = renderedText(s.Get(0))
			if !hit(text) {
				return
			}
			inChild := false
			s.Children().EachWithBreak(func(_ int, c *goquery.Selection) bool {
				inChild = hit(renderedText(c.Get(0)))
				return !inChild
			})
			if inChild {
				return
			}
		}
		out = append(out, TextNode{Text: collapse(text), Visible: visible(s)})
	})
	return out, ctx.Err()
}

// FindByAttr returns elements whose class or id contains one of keywords (case-insensitive).
func (p *MarkupPage) FindByAttr(ctx context.Context, keywords []string) ([]StyledNode, error) {
	var out []StyledNode
	p.doc.Find("body *").Each(func(i int, s *goquery.Selection) {
		class := s.AttrOr("class", "")
		id := s.AttrOr("id", "")
		attrs := strings.ToLower(class + " " + id)
		for _, k := range keywords {
			if strings.Contains(attrs, strings.ToLower(k)) {
				out = append(out, StyledNode{
					Text:  collapse(s.Text()),
					Style: s.AttrOr("style", ""),
					Class: class,
					ID:    id,
				})
				return
			}
		}
	})
	return out, ctx.Err()
}

// Markup returns the serialized document.
func (p *MarkupPage) Markup(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.doc.Html()
}

func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for c := s.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// renderedText is the text of n without hidden subtrees. A hidden n still
// yields its own content, like innerText does for elements that are not rendered.
func renderedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				if !hiddenNode(c) {
					walk(c.FirstChild)
				}
			}
		}
	}
	walk(n.FirstChild)
	return strings.TrimSpace(b.String())
}

func hiddenNode(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

// zoneOf returns the first of ZoneKeywords found in the class or id of the
// nearest ancestor that carries any of them.
func zoneOf(s *goquery.Selection) string {
	zone := ""
	s.ParentsUntil("html").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		attrs := strings.ToLower(a.AttrOr("class", "") + " " + a.AttrOr("id", ""))
		for _, k := range ZoneKeywords {
			if strings.Contains(attrs, k) {
				zone = k
				return false
			}
		}
		return true
	})
	return zone
}

// visible walks up the ancestors looking for the usual ways of hiding an element.
func visible(s *goquery.Selection) bool {
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		if _, hidden := cur.Attr("hidden"); hidden {
			return false
		}
		if cur.AttrOr("aria-hidden", "") == "true" {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(cur.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
