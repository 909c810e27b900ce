package media

import (
	"bytes"
	"image"

	"github.com/sakif/art-market/internal/apperror"
)

// Default limits.
const (
	DefaultMaxBytes     int64 = 15 << 20 // 15 MiB
	DefaultMaxDimension       = 10000
)

// Limits configures the validator. Zero values fall back to the defaults.
type Limits struct {
	MaxBytes     int64
	MaxDimension int
}

// Result is what a successful validation yields. Image is the fully decoded
// pixel data so the ingestor does not decode twice.
type Result struct {
	Width  int
	Height int
	Format string
	Image  image.Image
}

// Validator checks raw upload bytes against the pipeline's limits.
// It has no side effects and is safe for concurrent use.
type Validator struct {
	limits Limits
}

// NewValidator creates a Validator, filling unset limits with defaults.
func NewValidator(limits Limits) *Validator {
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultMaxBytes
	}
	if limits.MaxDimension <= 0 {
		limits.MaxDimension = DefaultMaxDimension
	}
	return &Validator{limits: limits}
}

// Limits returns the effective limits.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate runs the checks in order: byte size, format, dimensions, full decode.
//
// The header is read with image.DecodeConfig first, so an oversized image is
// rejected before its pixels are allocated.
func (v *Validator) Validate(data []byte) (*Result, error) {
	if int64(len(data)) > v.limits.MaxBytes {
		return nil, apperror.TooLarge(v.limits.MaxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// Not an image any registered decoder recognises.
		return nil, apperror.UnsupportedFormat("")
	}
	if !Supported(format) {
		return nil, apperror.UnsupportedFormat(format)
	}

	if cfg.Width > v.limits.MaxDimension || cfg.Height > v.limits.MaxDimension {
		return nil, apperror.DimensionTooLarge(v.limits.MaxDimension)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.ImageProcessing(err)
	}

	bounds := img.Bounds()
	return &Result{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
		Image:  img,
	}, nil
}
