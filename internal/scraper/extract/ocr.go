package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"sort"

	"github.com/nfnt/resize"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
	"github.com/Vodeneev/bacbo-signals/internal/scraper/ocr"
)

// Screenshotter captures the visible part of the page as PNG.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Region is a crop rectangle in fractions of the screenshot size.
type Region struct {
	X0, Y0, X1, Y1 float64
}

// DefaultRegions are top-right variants; the readout has historically been there.
var DefaultRegions = []Region{
	{0.45, 0, 1, 0.35},
	{0.5, 0, 1, 0.4},
	{0.55, 0, 1, 0.3},
	{0.4, 0, 1, 0.5},
}

const (
	ocrMinValue = 0.5
	ocrMaxValue = 100
	ocrRowStep  = 15
)

// OCRConfig tunes OCRStrategy.
type OCRConfig struct {
	Regions       []Region
	Scale         float64
	MinConfidence float64
}

// OCRStrategy runs text recognition on crops of a viewport screenshot.
type OCRStrategy struct {
	shots  Screenshotter
	reader ocr.Reader
	cfg    OCRConfig
}

func NewOCRStrategy(shots Screenshotter, reader ocr.Reader, cfg OCRConfig) *OCRStrategy {
	if len(cfg.Regions) == 0 {
		cfg.Regions = DefaultRegions
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.2
	}
	return &OCRStrategy{shots: shots, reader: reader, cfg: cfg}
}

func (s *OCRStrategy) Name() string { return "ocr" }

type ocrToken struct {
	value float64
	conf  float64
	x, y  float64
}

func (s *OCRStrategy) Extract(ctx context.Context) (Partial, error) {
	raw, err := s.shots.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	var (
		best      []ocrToken
		bestScore = -1.0
		lastErr   error
		readOK    bool
	)
	for _, region := range s.cfg.Regions {
		if ctx.Err() != nil {
			break
		}
		toks, err := s.readRegion(img, region)
		if err != nil {
			lastErr = err
			slog.Debug("OCR crop failed", "region", region, "error", err)
			continue
		}
		readOK = true
		trip := pickTriplet(toks)
		if trip == nil {
			continue
		}
		score := 0.0
		for _, t := range trip {
			score += t.conf
		}
		if score > bestScore {
			bestScore = score
			best = trip
		}
	}

	if best == nil {
		if !readOK && lastErr != nil {
			return nil, lastErr
		}
		return Partial{}, nil
	}

	sort.SliceStable(best, func(i, j int) bool { return best[i].x < best[j].x })
	return Partial{
		models.OutcomePlayer: best[0].value,
		models.OutcomeTie:    best[1].value,
		models.OutcomeBanker: best[2].value,
	}, nil
}

func (s *OCRStrategy) readRegion(img image.Image, r Region) ([]ocrToken, error) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rect := image.Rect(int(r.X0*w), int(r.Y0*h), int(r.X1*w), int(r.Y1*h)).Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("empty crop %v", rect)
	}

	crop := subImage(img, rect)
	scaled := resize.Resize(uint(math.Round(float64(rect.Dx())*s.cfg.Scale)), 0, crop, resize.Lanczos3)

	words, err := s.reader.ReadText(scaled)
	if err != nil {
		return nil, err
	}

	var out []ocrToken
	for _, word := range words {
		if word.Confidence <= s.cfg.MinConfidence {
			continue
		}
		v, ok := parsePercent(word.Text)
		if !ok || v < ocrMinValue || v > ocrMaxValue {
			continue
		}
		// Back to screenshot coordinates.
		out = append(out, ocrToken{
			value: v,
			conf:  word.Confidence,
			x:     float64(rect.Min.X) + float64(word.Box.Min.X)/s.cfg.Scale,
			y:     float64(rect.Min.Y) + float64(word.Box.Min.Y)/s.cfg.Scale,
		})
	}
	return out, nil
}

// pickTriplet chooses three tokens from one crop, or nil when there are fewer.
func pickTriplet(toks []ocrToken) []ocrToken {
	switch {
	case len(toks) < 3:
		return nil
	case len(toks) == 3:
		return append([]ocrToken(nil), toks...)
	}

	rows := map[float64][]ocrToken{}
	var order []float64
	for _, t := range toks {
		key := math.Round(t.y/ocrRowStep) * ocrRowStep
		if _, ok := rows[key]; !ok {
			order = append(order, key)
		}
		rows[key] = append(rows[key], t)
	}
	for _, key := range order {
		if row := rows[key]; len(row) >= 3 {
			return topByConfidence(row, 3)
		}
	}
	return topByConfidence(toks, 3)
}

func topByConfidence(toks []ocrToken, n int) []ocrToken {
	sorted := append([]ocrToken(nil), toks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].conf != sorted[j].conf {
			return sorted[i].conf > sorted[j].conf
		}
		return sorted[i].x < sorted[j].x
	})
	return sorted[:n]
}

func subImage(img image.Image, r image.Rectangle) image.Image {
	if si, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
