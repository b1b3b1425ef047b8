//go:build tesseract

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is a Reader backed by a single gosseract client.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a client restricted to the characters of a percentage readout.
func NewTesseract(languages ...string) (*Tesseract, error) {
	client := gosseract.NewClient()
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set tesseract language: %w", err)
	}
	if err := client.SetWhitelist("0123456789.,% "); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set tesseract whitelist: %w", err)
	}
	return &Tesseract{client: client}, nil
}

func (t *Tesseract) ReadText(img image.Image) ([]Word, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to load crop: %w", err)
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize words: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Box:        b.Box,
			Text:       b.Word,
			Confidence: b.Confidence / 100,
		})
	}
	return words, nil
}

func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
