// Package vision recovers the chess position from screen pixels: it locates
// the board on a full-screen capture, decides the player's color, slices
// piece templates out of the starting position and template-matches later
// frames back into a symbolic board.
package vision

import (
	"errors"
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/thyrook/chesseye/internal/imaging"
	"github.com/thyrook/chesseye/internal/logger"
)

// ErrBoardNotFound reports that no contour on the screen qualified as a
// chessboard. Calibration has to be redone.
var ErrBoardNotFound = errors.New("board not found")

// ErrTemplateExtraction reports that a starting square could not be cropped.
var ErrTemplateExtraction = errors.New("template extraction failed")

// LocateBoard finds the chessboard region on a grayscale full-screen image.
//
// The screen is edge-detected, external contours are approximated to
// polygons, and the largest convex quadrilateral with a near-square bounding
// box wins. The returned rectangle is the box spanned by the quad's first
// and third vertices.
func LocateBoard(gray gocv.Mat) (image.Rectangle, error) {
	edges := imaging.Edges(gray)
	defer edges.Close()

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var (
		maxArea  float64
		bestQuad []image.Point
	)

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)

		peri := gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, 0.02*peri, true)

		if approx.Size() == 4 {
			quad := approx.ToPoints()
			if imaging.IsConvex(quad) {
				area := gocv.ContourArea(approx)
				bounding := gocv.BoundingRect(approx)

				aspect := float64(bounding.Dx()) / float64(bounding.Dy())
				if area > maxArea && aspect > 0.8 && aspect < 1.2 {
					maxArea = area
					bestQuad = quad
				}
			}
		}
		approx.Close()
	}

	if bestQuad == nil {
		return image.Rectangle{}, ErrBoardNotFound
	}

	region := image.Rect(bestQuad[0].X, bestQuad[0].Y, bestQuad[2].X, bestQuad[2].Y)
	logger.L().Debug("board region located",
		zap.Int("x", region.Min.X),
		zap.Int("y", region.Min.Y),
		zap.Int("w", region.Dx()),
		zap.Int("h", region.Dy()),
	)
	return region, nil
}
