package media

import "testing"

func TestThumbnailBox(t *testing.T) {
	tests := []struct {
		name         string
		width        int
		height       int
		wantW, wantH int
	}{
		{"tiny keeps original size", 120, 80, 120, 80},
		{"exactly 1000 is still small", 1000, 1000, 1000, 1000},
		{"width just over 1000", 1001, 400, 1200, 1200},
		{"height just over 1000", 300, 1500, 1200, 1200},
		{"exactly 2000 is medium", 2000, 2000, 1200, 1200},
		{"width over 2000", 2001, 10, 800, 800},
		{"landscape 3000x1800", 3000, 1800, 800, 800},
		{"portrait over 2000", 900, 4000, 800, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotH := ThumbnailBox(tt.width, tt.height)
			if gotW != tt.wantW || gotH != tt.wantH {
				t.Errorf("ThumbnailBox(%d, %d) = (%d, %d), want (%d, %d)",
					tt.width, tt.height, gotW, gotH, tt.wantW, tt.wantH)
			}
		})
	}
}

// Small sources are never given a box larger than themselves.
func TestThumbnailBox_NeverUpscalesSmallInputs(t *testing.T) {
	for w := 1; w <= 1000; w += 37 {
		for h := 1; h <= 1000; h += 41 {
			bw, bh := ThumbnailBox(w, h)
			if bw > w || bh > h {
				t.Fatalf("ThumbnailBox(%d, %d) = (%d, %d) upscales", w, h, bw, bh)
			}
		}
	}
}

func TestThumbnailBox_BoundedForAllInputs(t *testing.T) {
	for _, side := range []int{1, 999, 1000, 1001, 1999, 2000, 2001, 5000, 10000} {
		bw, bh := ThumbnailBox(side, side)
		if bw > 1600 || bh > 1600 {
			t.Errorf("ThumbnailBox(%d, %d) = (%d, %d), exceeds 1600", side, side, bw, bh)
		}
	}
}
