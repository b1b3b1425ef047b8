package models

import (
	"fmt"
	"strings"
)

// Outcome is the categorical result of a Bac Bo round. It is also used as the
// slot key for the player/banker/tie percentages.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePlayer
	OutcomeBanker
	OutcomeTie
)

// Sides lists the three real outcomes in display order.
var Sides = []Outcome{OutcomePlayer, OutcomeBanker, OutcomeTie}

func (o Outcome) String() string {
	switch o {
	case OutcomePlayer:
		return "player"
	case OutcomeBanker:
		return "banker"
	case OutcomeTie:
		return "tie"
	default:
		return ""
	}
}

// ParseOutcome maps "player", "banker" or "tie" (any case) to an Outcome.
// An empty string yields OutcomeNone without error.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return OutcomeNone, nil
	case "player":
		return OutcomePlayer, nil
	case "banker":
		return OutcomeBanker, nil
	case "tie":
		return OutcomeTie, nil
	default:
		return OutcomeNone, fmt.Errorf("unknown outcome %q", s)
	}
}

// MarshalText renders the outcome as its lower-case name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the lower-case name produced by MarshalText.
func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
