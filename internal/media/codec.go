package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
)

// Encoder settings for derived thumbnails.
const (
	thumbnailJPEGQuality = 80
)

// Thumbnail returns the largest aspect-preserving copy of img that fits the
// box for its size bucket. Lanczos resampling; never upscales.
func Thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	boxW, boxH := ThumbnailBox(b.Dx(), b.Dy())
	return imaging.Fit(img, boxW, boxH, imaging.Lanczos)
}

// Encode serialises img in the given format. When the target encoder cannot
// carry alpha and img is not opaque, img is first flattened onto white.
func Encode(img image.Image, format string) ([]byte, error) {
	if !supportsAlpha(format) && !isOpaque(img) {
		img = Flatten(img)
	}

	var buf bytes.Buffer
	var err error

	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality))
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case FormatGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	case FormatWEBP:
		err = nativewebp.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("media: no encoder for format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("media: encoding %s: %w", format, err)
	}

	return buf.Bytes(), nil
}

// Flatten composites img over an opaque white background of the same size.
func Flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// isOpaque reports whether every pixel of img is fully opaque. Image types
// from the standard library answer this themselves; anything else is scanned.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
