package imaging

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func uniformGray(rows, cols int, value uint8) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(value), 0, 0, 0),
		rows, cols, gocv.MatTypeCV8UC1,
	)
}

func TestGrayFromRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			i := y*img.Stride + x*4
			img.Pix[i+0] = 200
			img.Pix[i+1] = 200
			img.Pix[i+2] = 200
			img.Pix[i+3] = 255
		}
	}

	gray, err := GrayFromRGBA(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer gray.Close()

	if gray.Cols() != 20 || gray.Rows() != 10 {
		t.Errorf("expected 20x10 gray mat, got %dx%d", gray.Cols(), gray.Rows())
	}
	if gray.Type() != gocv.MatTypeCV8UC1 {
		t.Errorf("expected single-channel mat, got type %v", gray.Type())
	}

	// A uniform gray input stays uniform after conversion.
	v := gray.GetUCharAt(5, 10)
	if v < 195 || v > 205 {
		t.Errorf("expected luminance near 200, got %d", v)
	}
}

func TestGrayFromRGBANil(t *testing.T) {
	if _, err := GrayFromRGBA(nil); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestBinarize(t *testing.T) {
	gray := uniformGray(4, 4, 120)
	defer gray.Close()
	gray.SetUCharAt(0, 0, 80)

	bin := Binarize(gray, 100)
	defer bin.Close()

	if got := bin.GetUCharAt(0, 0); got != 0 {
		t.Errorf("pixel below threshold should be 0, got %d", got)
	}
	if got := bin.GetUCharAt(1, 1); got != 255 {
		t.Errorf("pixel above threshold should be 255, got %d", got)
	}
}

func TestBinarizeInvAndCountDark(t *testing.T) {
	gray := uniformGray(4, 4, 200)
	defer gray.Close()
	gray.SetUCharAt(2, 2, 10)
	gray.SetUCharAt(3, 3, 20)

	if got := CountDark(gray, 50); got != 2 {
		t.Errorf("expected 2 dark pixels, got %d", got)
	}
}

func TestSubImage(t *testing.T) {
	gray := uniformGray(10, 10, 50)
	defer gray.Close()

	sub, err := SubImage(gray, image.Rect(2, 3, 7, 9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sub.Close()

	if sub.Cols() != 5 || sub.Rows() != 6 {
		t.Errorf("expected 5x6 crop, got %dx%d", sub.Cols(), sub.Rows())
	}
}

func TestSubImageClipsToBounds(t *testing.T) {
	gray := uniformGray(10, 10, 50)
	defer gray.Close()

	sub, err := SubImage(gray, image.Rect(8, 8, 20, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sub.Close()

	if sub.Cols() != 2 || sub.Rows() != 2 {
		t.Errorf("expected clipped 2x2 crop, got %dx%d", sub.Cols(), sub.Rows())
	}
}

func TestSubImageOutOfBounds(t *testing.T) {
	gray := uniformGray(10, 10, 50)
	defer gray.Close()

	if _, err := SubImage(gray, image.Rect(20, 20, 30, 30)); err == nil {
		t.Error("expected error for out-of-bounds crop")
	}
}

func TestMatchTemplateFindsExactPatch(t *testing.T) {
	haystack := uniformGray(60, 60, 255)
	defer haystack.Close()
	// Distinct half-dark pattern at (20, 30).
	for y := 30; y < 42; y++ {
		for x := 20; x < 26; x++ {
			haystack.SetUCharAt(y, x, 0)
		}
	}

	needle := uniformGray(12, 12, 255)
	defer needle.Close()
	for y := 0; y < 12; y++ {
		for x := 0; x < 6; x++ {
			needle.SetUCharAt(y, x, 0)
		}
	}

	scores, err := MatchTemplateSqDiffNormed(haystack, needle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer scores.Close()

	minVal, _, minLoc, _ := gocv.MinMaxLoc(scores)
	if minVal > 0.001 {
		t.Errorf("expected near-zero best score, got %f", minVal)
	}
	if minLoc.X != 20 || minLoc.Y != 30 {
		t.Errorf("expected best match at (20,30), got %v", minLoc)
	}
}

func TestMatchTemplateRejectsOversizedNeedle(t *testing.T) {
	haystack := uniformGray(10, 10, 255)
	defer haystack.Close()
	needle := uniformGray(20, 20, 255)
	defer needle.Close()

	if _, err := MatchTemplateSqDiffNormed(haystack, needle); err == nil {
		t.Error("expected error for template larger than image")
	}
}

func TestPoisonRegion(t *testing.T) {
	scores := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(0, 0, 0, 0), 30, 30, gocv.MatTypeCV32F,
	)
	defer scores.Close()

	// Rectangle hangs over the top-left corner; only the intersection is
	// written.
	PoisonRegion(&scores, image.Rect(-10, -10, 5, 5), 1.0)

	if got := scores.GetFloatAt(0, 0); got != 1.0 {
		t.Errorf("expected poisoned corner, got %f", got)
	}
	if got := scores.GetFloatAt(4, 4); got != 1.0 {
		t.Errorf("expected poisoned cell inside rect, got %f", got)
	}
	if got := scores.GetFloatAt(5, 5); got != 0 {
		t.Errorf("expected untouched cell outside rect, got %f", got)
	}
}

func TestIsConvex(t *testing.T) {
	tests := []struct {
		name string
		poly []image.Point
		want bool
	}{
		{
			"square",
			[]image.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
			true,
		},
		{
			"square reversed winding",
			[]image.Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}},
			true,
		},
		{
			"dart",
			[]image.Point{{0, 0}, {10, 0}, {2, 2}, {0, 10}},
			false,
		},
		{
			"degenerate pair",
			[]image.Point{{0, 0}, {10, 0}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConvex(tt.poly); got != tt.want {
				t.Errorf("IsConvex(%v) = %v, want %v", tt.poly, got, tt.want)
			}
		})
	}
}

func TestEdgesShape(t *testing.T) {
	gray := uniformGray(40, 40, 0)
	defer gray.Close()

	edges := Edges(gray)
	defer edges.Close()

	if edges.Cols() != 40 || edges.Rows() != 40 {
		t.Errorf("expected edge map same size as input, got %dx%d", edges.Cols(), edges.Rows())
	}
	if gocv.CountNonZero(edges) != 0 {
		t.Error("uniform image should produce no edges")
	}
}
