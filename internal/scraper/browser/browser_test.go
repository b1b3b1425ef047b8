package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWithArgs(t *testing.T) {
	got, err := withArgs(findTextJS, []string{"VITÓRIA DO JOGADOR", `it's "quoted"`})
	if err != nil {
		t.Fatalf("withArgs: %v", err)
	}
	if !strings.HasSuffix(got, `})(["VITÓRIA DO JOGADOR","it's \"quoted\""])`) {
		t.Errorf("withArgs() tail = %q", got[len(got)-50:])
	}

	zones, err := withArgs(percentNodesJS, []string{"roadmap"})
	if err != nil {
		t.Fatalf("withArgs(percentNodesJS): %v", err)
	}
	if strings.Contains(zones, "%!") || !strings.Contains(zones, "own.includes('%')") {
		t.Errorf("percent sign in percentNodesJS not preserved")
	}
	if !strings.HasSuffix(zones, `})(["roadmap"])`) {
		t.Errorf("withArgs(percentNodesJS) tail = %q", zones[len(zones)-30:])
	}

	empty, err := withArgs(findByAttrJS, nil)
	if err != nil {
		t.Fatalf("withArgs(nil): %v", err)
	}
	if !strings.HasSuffix(empty, "})([])") {
		t.Errorf("withArgs(nil) should pass an empty array")
	}
}

func TestClosedBrowserReportsSessionLost(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &Browser{ctx: ctx, cancel: func() {}, allocCancel: func() {}}

	if !errors.Is(b.Err(), ErrSessionLost) {
		t.Errorf("Err() = %v, want ErrSessionLost", b.Err())
	}
	if _, err := b.Markup(context.Background()); !errors.Is(err, ErrSessionLost) {
		t.Errorf("Markup() error = %v, want ErrSessionLost", err)
	}
	if _, err := b.LoggedIn(context.Background()); !errors.Is(err, ErrSessionLost) {
		t.Errorf("LoggedIn() error = %v, want ErrSessionLost", err)
	}
	b.Close()
}
