// Package media normalizes uploaded images and stores them with a pluggable
// backend (S3 or local disk).
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Decoders accepted for uploads
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	apperrors "instaclone/backend/pkg/errors"
)

// Defaults applied to every upload
const (
	DefaultMaxWidth    = 800
	DefaultMaxHeight   = 800
	DefaultJPEGQuality = 80
	DefaultMaxPixels   = 40_000_000
)

// ErrUnsupportedImage is returned for payloads no registered decoder accepts
var ErrUnsupportedImage = apperrors.NewValidation("Unsupported image format")

// ErrImageTooLarge is returned when the header declares more pixels than the
// normalizer will decode
var ErrImageTooLarge = apperrors.NewValidation("Image dimensions too large")

// Normalizer fits images inside a bounding box and re-encodes them as JPEG
type Normalizer struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	// MaxPixels caps width*height before decoding; 0 means DefaultMaxPixels
	MaxPixels int
}

// NewNormalizer creates a normalizer with the default bounds and quality
func NewNormalizer() *Normalizer {
	return &Normalizer{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Quality:   DefaultJPEGQuality,
		MaxPixels: DefaultMaxPixels,
	}
}

// Normalize decodes data, scales it down to fit the bounds while keeping the
// aspect ratio and returns JPEG bytes. Smaller images are never upscaled.
// Dimensions are read from the header first so oversized images are refused
// before any pixel buffer is allocated.
func (n *Normalizer) Normalize(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnsupportedImage
	}
	if !withinBudget(cfg.Width, cfg.Height, n.pixelBudget()) {
		return nil, ErrImageTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	bounds := src.Bounds()
	w, h := fitWithin(bounds.Dx(), bounds.Dy(), n.MaxWidth, n.MaxHeight)

	var out image.Image = src
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: n.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func (n *Normalizer) pixelBudget() int {
	if n.MaxPixels > 0 {
		return n.MaxPixels
	}
	return DefaultMaxPixels
}

// withinBudget reports whether a w x h image has at most budget pixels
func withinBudget(w, h, budget int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	return int64(w)*int64(h) <= int64(budget)
}

// fitWithin returns the largest size no bigger than the original that fits
// inside maxW x maxH with the same aspect ratio
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}

	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
