package vision

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/thyrook/chesseye/internal/board"
	"github.com/thyrook/chesseye/internal/imaging"
)

// namedField ties a starting square (in grid column/row coordinates) to the
// piece letter sliced from it.
type namedField struct {
	col, row int
	piece    byte
}

// whiteNamedFields lists one starting square per piece kind when the player
// has the White pieces at the bottom of the screen.
var whiteNamedFields = []namedField{
	{0, 0, 'r'},
	{1, 0, 'n'},
	{2, 0, 'b'},
	{3, 0, 'q'},
	{4, 0, 'k'},
	{0, 1, 'p'},
	{0, 6, 'P'},
	{0, 7, 'R'},
	{1, 7, 'N'},
	{2, 7, 'B'},
	{3, 7, 'Q'},
	{4, 7, 'K'},
}

// blackNamedFields is the mirrored table for a Black player: uppercase
// letters sit on the top half of the screen, and the king/queen files are
// swapped.
var blackNamedFields = []namedField{
	{0, 0, 'R'},
	{1, 0, 'N'},
	{2, 0, 'B'},
	{3, 0, 'K'},
	{4, 0, 'Q'},
	{0, 1, 'P'},
	{0, 6, 'p'},
	{0, 7, 'r'},
	{1, 7, 'n'},
	{2, 7, 'b'},
	{3, 7, 'k'},
	{4, 7, 'q'},
}

// TemplateSet maps piece letters to their binarized template images. Exactly
// twelve entries; built once per game and shared read-only by the detector
// workers. Close releases every template.
type TemplateSet map[byte]gocv.Mat

// Close releases all template Mats.
func (ts TemplateSet) Close() {
	for _, mat := range ts {
		mat.Close()
	}
}

// ExtractPieces slices the twelve canonical piece templates out of the
// starting-position board image. Each template is the starting square of its
// piece, inset by margin pixels on every side and binarized with the
// extraction threshold.
func ExtractPieces(grayBoard gocv.Mat, margin int, extractThreshold float64, color board.Color) (TemplateSet, error) {
	size := grayBoard.Rows()
	if grayBoard.Cols() < size {
		size = grayBoard.Cols()
	}

	// Nine equally spaced edges per axis; rounding spreads a non-multiple
	// of 8 across the squares instead of pushing it into the last one.
	var edges [9]int
	for i := 0; i <= 8; i++ {
		edges[i] = int(math.Round(float64(i) * float64(size) / 8.0))
	}

	fields := whiteNamedFields
	if color == board.Black {
		fields = blackNamedFields
	}

	result := make(TemplateSet, len(fields))
	for _, field := range fields {
		x := edges[field.col] + margin
		y := edges[field.row] + margin
		w := edges[field.col+1] - edges[field.col] - 2*margin
		h := edges[field.row+1] - edges[field.row] - 2*margin

		if w <= 0 || h <= 0 {
			result.Close()
			return nil, fmt.Errorf("%w: square %c shrank to %dx%d after %dpx margin",
				ErrTemplateExtraction, field.piece, w, h, margin)
		}

		square, err := imaging.SubImage(grayBoard, image.Rect(x, y, x+w, y+h))
		if err != nil {
			result.Close()
			return nil, fmt.Errorf("%w: square %c: %s", ErrTemplateExtraction, field.piece, err)
		}

		bin := imaging.Binarize(square, extractThreshold)
		square.Close()
		result[field.piece] = bin
	}

	return result, nil
}
