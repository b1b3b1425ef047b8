// Command replay runs the extraction pipeline on saved page HTML, for
// checking heuristics against captured pages without a browser.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/classify"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/extract"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/probe"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Replay failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: replay page.html [page2.html ...]\n")
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("no input files")
	}

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, path := range flag.Args() {
		page, err := dom.LoadMarkupPage(path)
		if err != nil {
			return err
		}
		markup, err := page.Markup(ctx)
		if err != nil {
			return err
		}

		snap := models.Snapshot{
			Timestamp: time.Now(),
			RoundID:   probe.RoundID(markup),
			Triplet:   extract.New(extract.DOMStrategies(page)...).Extract(ctx),
			Result:    classify.New(page).Classify(ctx),
			Analysis:  probe.Analysis(markup),
		}
		slog.Info("Replayed page", "path", path, "triplet", snap.Triplet.String(), "result", snap.Result)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	return nil
}
