package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/thyrook/chesseye/internal/imaging"
)

// diffDarkThreshold binarizes cells before counting: pixels darker than this
// count as piece mass.
const diffDarkThreshold = 50.0

// ImagesDiffer is the cheap change gate run on every captured frame. Both
// grayscale boards are divided into an 8x8 cell grid (the rightmost column
// and bottom row absorb any remainder); a cell whose dark-pixel counts sit on
// opposite sides of the level in the two images means a piece appeared or
// vanished there. Anti-aliasing drift moves counts a little but does not
// cross the level, so it does not trigger re-detection.
func ImagesDiffer(prev, curr gocv.Mat, level int) bool {
	if prev.Cols() != curr.Cols() || prev.Rows() != curr.Rows() {
		return true
	}

	cols := prev.Cols()
	rows := prev.Rows()
	cellW := cols / 8
	cellH := rows / 8
	if cellW == 0 || cellH == 0 {
		return false
	}

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			x := col * cellW
			y := row * cellH

			w := cellW
			if col == 7 {
				w = cols - x
			}
			h := cellH
			if row == 7 {
				h = rows - y
			}

			roi := image.Rect(x, y, x+w, y+h)

			prevCell := prev.Region(roi)
			currCell := curr.Region(roi)

			prevDark := imaging.CountDark(prevCell, diffDarkThreshold)
			currDark := imaging.CountDark(currCell, diffDarkThreshold)

			prevCell.Close()
			currCell.Close()

			if (prevDark > level) != (currDark > level) {
				return true
			}
		}
	}

	return false
}
