// Package imaging is a thin layer over gocv for the handful of image
// primitives the vision pipeline needs: grayscale conversion, binary
// thresholding, cropping, edge detection and template matching.
//
// All functions return fresh Mats the caller owns and must Close.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// ErrEmptyImage reports an operation on an empty frame.
var ErrEmptyImage = errors.New("empty image")

// GrayFromRGBA converts a captured RGBA frame to a single-channel 8-bit Mat.
// The result has the same width and height as the source.
func GrayFromRGBA(img *image.RGBA) (gocv.Mat, error) {
	if img == nil {
		return gocv.Mat{}, ErrEmptyImage
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return gocv.Mat{}, ErrEmptyImage
	}

	// Repack RGBA into BGRA row by row; the capture buffer may carry row
	// padding, so rows are copied via the image stride.
	data := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		srcRow := img.Pix[y*img.Stride : y*img.Stride+width*4]
		dstRow := data[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			dstRow[x*4+0] = srcRow[x*4+2] // B
			dstRow[x*4+1] = srcRow[x*4+1] // G
			dstRow[x*4+2] = srcRow[x*4+0] // R
			dstRow[x*4+3] = srcRow[x*4+3] // A
		}
	}

	bgra, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to build mat from frame: %w", err)
	}
	defer bgra.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(bgra, &gray, gocv.ColorBGRAToGray)
	return gray, nil
}

// Binarize thresholds a grayscale Mat: pixels >= threshold become 255,
// the rest 0.
func Binarize(gray gocv.Mat, threshold float64) gocv.Mat {
	bin := gocv.NewMat()
	// OpenCV compares strictly (>); for 8-bit pixels p >= t is p > ceil(t)-1.
	gocv.Threshold(gray, &bin, float32(math.Ceil(threshold)-1), 255, gocv.ThresholdBinary)
	return bin
}

// BinarizeInv is the inverse threshold: pixels >= threshold become 0,
// the rest 255. Used to count dark pixels.
func BinarizeInv(gray gocv.Mat, threshold float64) gocv.Mat {
	bin := gocv.NewMat()
	gocv.Threshold(gray, &bin, float32(math.Ceil(threshold)-1), 255, gocv.ThresholdBinaryInv)
	return bin
}

// SubImage clones a rectangular region, clipped to the Mat bounds.
func SubImage(m gocv.Mat, r image.Rectangle) (gocv.Mat, error) {
	bounds := image.Rect(0, 0, m.Cols(), m.Rows())
	r = r.Intersect(bounds)
	if r.Empty() {
		return gocv.Mat{}, fmt.Errorf("%w: crop region out of bounds", ErrEmptyImage)
	}

	region := m.Region(r)
	defer region.Close()
	return region.Clone(), nil
}

// Edges runs Canny edge detection with the 50/150 thresholds the board
// locator expects. No pre-blur, so board borders stay sharp.
func Edges(gray gocv.Mat) gocv.Mat {
	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, 50, 150)
	return edges
}

// MatchTemplateSqDiffNormed slides tmpl over img and returns the normalized
// squared-difference score map. Small values mean strong matches. Both inputs
// are expected to be binary already, so no mask is used.
func MatchTemplateSqDiffNormed(img, tmpl gocv.Mat) (gocv.Mat, error) {
	if img.Empty() || tmpl.Empty() {
		return gocv.Mat{}, ErrEmptyImage
	}
	if tmpl.Rows() > img.Rows() || tmpl.Cols() > img.Cols() {
		return gocv.Mat{}, fmt.Errorf("template %dx%d larger than image %dx%d",
			tmpl.Cols(), tmpl.Rows(), img.Cols(), img.Rows())
	}

	result := gocv.NewMat()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(img, tmpl, &result, gocv.TmSqdiffNormed, mask)
	return result, nil
}

// PoisonRegion overwrites a rectangle of a CV32F score map with value so the
// area cannot match again. The rectangle is clipped to the map bounds.
func PoisonRegion(scoreMap *gocv.Mat, r image.Rectangle, value float32) {
	bounds := image.Rect(0, 0, scoreMap.Cols(), scoreMap.Rows())
	r = r.Intersect(bounds)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			scoreMap.SetFloatAt(y, x, value)
		}
	}
}

// IsConvex reports whether a closed polygon is convex: every cross product
// of consecutive edge pairs carries the same sign.
func IsConvex(poly []image.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	sign := 0
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		c := poly[(i+2)%n]

		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		if cross == 0 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// CountDark returns the number of non-zero pixels after an inverse binary
// threshold at the given level, i.e. the count of "dark" source pixels.
func CountDark(gray gocv.Mat, threshold float64) int {
	bin := BinarizeInv(gray, threshold)
	defer bin.Close()
	return gocv.CountNonZero(bin)
}
