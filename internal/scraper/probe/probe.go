// Package probe pulls the round identifier and the analysis readout out of the page markup.
package probe

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

var roundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)round[:\s]+(\d+)`),
	regexp.MustCompile(`(?i)game[:\s]+(\d+)`),
	regexp.MustCompile(`(?i)round["']?\s*[:=]\s*["']?(\d+)`),
}

var playersPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*(?:players?|jogadores?)`),
	regexp.MustCompile(`(?i)players?[:\s]+(\d+)`),
	regexp.MustCompile(`(?i)jogadores?[:\s]+(\d+)`),
}

var percentPattern = regexp.MustCompile(`(\d+\.?\d*)\s*%`)

const hashPrefix = 1000

// RoundID returns the round number shown on the page. When there is none, it
// falls back to a short hash of the start of the markup, which changes with
// any layout change and may also collide across rounds.
func RoundID(markup string) string {
	for _, re := range roundPatterns {
		if m := re.FindStringSubmatch(markup); m != nil {
			return m[1]
		}
	}
	head := markup
	if len(head) > hashPrefix {
		head = head[:hashPrefix]
	}
	sum := md5.Sum([]byte(head))
	return hex.EncodeToString(sum[:])[:10]
}

// Analysis reads the players count and the first percentage on the page.
func Analysis(markup string) models.Analysis {
	var a models.Analysis
	for _, re := range playersPatterns {
		if m := re.FindStringSubmatch(markup); m != nil {
			a.PlayersCount = m[1]
			break
		}
	}
	if m := percentPattern.FindStringSubmatch(markup); m != nil {
		a.Percentage = m[1]
	}
	return a
}
