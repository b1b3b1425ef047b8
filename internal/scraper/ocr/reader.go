// Package ocr recognizes words on screenshot crops.
package ocr

import (
	"errors"
	"image"
)

// ErrUnavailable is returned when the binary was built without text recognition support.
var ErrUnavailable = errors.New("ocr: text recognition not available in this build")

// Word is one recognized token.
type Word struct {
	Box        image.Rectangle
	Text       string
	Confidence float64 // 0..1
}

// Reader recognizes words in an image. Boxes are in the image's coordinates.
type Reader interface {
	ReadText(img image.Image) ([]Word, error)
}
