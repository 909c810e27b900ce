package media

// Thumbnail size buckets.
const (
	largeEdge  = 2000
	mediumEdge = 1000

	largeBox  = 800
	mediumBox = 1200
	smallCap  = 1600
)

// ThumbnailBox returns the bounding box (maxW, maxH) for a thumbnail of a
// width×height source:
//
//	either side > 2000 → 800×800
//	either side > 1000 → 1200×1200
//	otherwise          → (min(width, 1600), min(height, 1600))
//
// The box is a limit, not a target size: the preview is the largest image that
// fits inside it with the source aspect ratio, and small sources are never
// upscaled.
func ThumbnailBox(width, height int) (int, int) {
	switch {
	case width > largeEdge || height > largeEdge:
		return largeBox, largeBox
	case width > mediumEdge || height > mediumEdge:
		return mediumBox, mediumBox
	default:
		return min(width, smallCap), min(height, smallCap)
	}
}
