//go:build !tesseract

package ocr

import "image"

// Tesseract is unavailable without the tesseract build tag.
type Tesseract struct{}

// NewTesseract always fails with ErrUnavailable in this build.
func NewTesseract(languages ...string) (*Tesseract, error) {
	return nil, ErrUnavailable
}

func (t *Tesseract) ReadText(img image.Image) ([]Word, error) {
	return nil, ErrUnavailable
}

func (t *Tesseract) Close() error { return nil }
