package model

// Artifact describes a stored original+thumbnail pair produced by ingestion.
type Artifact struct {
	ID            string `json:"id"`
	OriginalName  string `json:"originalName"`
	ThumbnailName string `json:"thumbnailName"`
	Format        string `json:"format"` // normalized tag: jpeg, png, gif, webp
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ThumbWidth    int    `json:"thumbWidth"`
	ThumbHeight   int    `json:"thumbHeight"`
}
