// Package browser drives a Chrome tab with chromedp and answers the page
// queries the scraper needs.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"

	"github.com/Vodeneev/bacbo-signals/internal/scraper/dom"
)

// ErrSessionLost means the browser went away and the session cannot continue.
var ErrSessionLost = errors.New("browser session lost")

type Config struct {
	Headless  bool
	Width     int
	Height    int
	UserAgent string
	ExecPath  string
}

// Browser is one Chrome tab. Methods are not safe for concurrent use.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// Launch starts Chrome. The browser lives until Close; ctx only bounds the startup.
func Launch(ctx context.Context, cfg Config) (*Browser, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1920, 1080
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(cfg.Width, cfg.Height),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		slog.Debug("chromedp: " + fmt.Sprintf(format, v...))
	}))

	b := &Browser{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel}
	if err := b.run(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	slog.Info("Browser started", "headless", cfg.Headless, "width", cfg.Width, "height", cfg.Height)
	return b, nil
}

// Err returns ErrSessionLost once the browser context is gone.
func (b *Browser) Err() error {
	if b.ctx.Err() != nil {
		return ErrSessionLost
	}
	return nil
}

// run executes actions on the tab; cancelling ctx aborts them without closing the tab.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := b.Err(); err != nil {
		return err
	}
	actx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(actx, actions...); err != nil {
		if b.ctx.Err() != nil {
			return ErrSessionLost
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Screenshot captures the viewport as PNG after scrolling to the top.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.Evaluate(scrollTopJS, nil), chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// FullScreenshot captures the whole document as PNG.
func (b *Browser) FullScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// quality 100 keeps PNG encoding
	if err := b.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("full screenshot: %w", err)
	}
	return buf, nil
}

func (b *Browser) PercentNodes(ctx context.Context) ([]dom.PercentNode, error) {
	script, err := withArgs(percentNodesJS, dom.ZoneKeywords)
	if err != nil {
		return nil, err
	}
	var out []dom.PercentNode
	if err := b.run(ctx, chromedp.Evaluate(script, &out)); err != nil {
		return nil, fmt.Errorf("percent nodes: %w", err)
	}
	return out, nil
}

func (b *Browser) PercentGroups(ctx context.Context) ([]dom.PercentGroup, error) {
	var out []dom.PercentGroup
	if err := b.run(ctx, chromedp.Evaluate(percentGroupsJS, &out)); err != nil {
		return nil, fmt.Errorf("percent groups: %w", err)
	}
	return out, nil
}

func (b *Browser) BarCandidates(ctx context.Context) ([]dom.BarCandidate, error) {
	var out []dom.BarCandidate
	if err := b.run(ctx, chromedp.Evaluate(barCandidatesJS, &out)); err != nil {
		return nil, fmt.Errorf("bar candidates: %w", err)
	}
	return out, nil
}

func (b *Browser) FindText(ctx context.Context, needles []string) ([]dom.TextNode, error) {
	script, err := withArgs(findTextJS, needles)
	if err != nil {
		return nil, err
	}
	var out []dom.TextNode
	if err := b.run(ctx, chromedp.Evaluate(script, &out)); err != nil {
		return nil, fmt.Errorf("find text: %w", err)
	}
	return out, nil
}

func (b *Browser) FindByAttr(ctx context.Context, keywords []string) ([]dom.StyledNode, error) {
	script, err := withArgs(findByAttrJS, keywords)
	if err != nil {
		return nil, err
	}
	var out []dom.StyledNode
	if err := b.run(ctx, chromedp.Evaluate(script, &out)); err != nil {
		return nil, fmt.Errorf("find by attribute: %w", err)
	}
	return out, nil
}

// Markup returns the outer HTML of the document.
func (b *Browser) Markup(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("markup: %w", err)
	}
	return html, nil
}

// LoggedIn guesses whether the user has completed the manual login.
func (b *Browser) LoggedIn(ctx context.Context) (bool, error) {
	var ok bool
	if err := b.run(ctx, chromedp.Evaluate(loggedInJS, &ok)); err != nil {
		return false, fmt.Errorf("login check: %w", err)
	}
	return ok, nil
}

// Close shuts the tab and the browser process.
func (b *Browser) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}
