// Package media implements the image ingestion pipeline:
//
//	Validator      → size, format and dimension checks on raw bytes
//	ThumbnailBox   → the bounding box a preview may occupy
//	Ingestor       → validate → resize → encode → persist, under a deadline
//
// Only two artifacts are ever produced per upload: the original bytes and one
// aspect-preserving thumbnail in the same format as the original.
package media

import (
	// Decoders register themselves with the image package at init time,
	// exactly like database drivers do with database/sql.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Normalized format tags, as reported by image.DecodeConfig.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatGIF  = "gif"
	FormatWEBP = "webp"
)

// Formats lists the accepted formats in lookup order.
var Formats = []string{FormatJPEG, FormatPNG, FormatGIF, FormatWEBP}

var extensions = map[string]string{
	FormatJPEG: "jpg",
	FormatPNG:  "png",
	FormatGIF:  "gif",
	FormatWEBP: "webp",
}

var contentTypes = map[string]string{
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
	FormatGIF:  "image/gif",
	FormatWEBP: "image/webp",
}

// Supported reports whether format is in the allow-set.
func Supported(format string) bool {
	_, ok := extensions[format]
	return ok
}

// Extension returns the file extension (without dot) for a format tag.
func Extension(format string) string {
	return extensions[format]
}

// ContentType returns the MIME type for a format tag.
func ContentType(format string) string {
	return contentTypes[format]
}

// FormatForExtension maps a stored file extension back to its format tag.
func FormatForExtension(ext string) (string, bool) {
	for format, e := range extensions {
		if e == ext {
			return format, true
		}
	}
	return "", false
}

// supportsAlpha reports whether the encoder for format keeps an alpha channel.
// JPEG has none; the GIF encoder quantizes onto an opaque palette.
func supportsAlpha(format string) bool {
	return format == FormatPNG || format == FormatWEBP
}
