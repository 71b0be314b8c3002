package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/thyrook/chesseye/internal/board"
	"github.com/thyrook/chesseye/internal/imaging"
)

// orientationThreshold is the low binarization level used before sampling the
// corner square; only truly dark pixels survive it.
const orientationThreshold = 50.0

// blackRookRatio separates the two rooks by silhouette weight: the white rook
// fills roughly 14% of its square with dark pixels, the black one roughly 26%.
const blackRookRatio = 0.2

// DetectPlayerColor decides which side the local player has from the cropped
// board at the start of the game. The bottom-left square always holds one of
// the player's own rooks; a heavy dark silhouette there means it is the black
// rook, so the player is Black.
func DetectPlayerColor(grayBoard gocv.Mat) board.Color {
	bin := imaging.Binarize(grayBoard, orientationThreshold)
	defer bin.Close()

	squareW := bin.Cols() / 8
	squareH := bin.Rows() / 8

	roi := image.Rect(0, bin.Rows()-squareH, squareW, bin.Rows())
	square := bin.Region(roi)
	defer square.Close()

	total := square.Rows() * square.Cols()
	if total == 0 {
		return board.White
	}

	blackPixels := total - gocv.CountNonZero(square)
	ratio := float64(blackPixels) / float64(total)

	if ratio > blackRookRatio {
		return board.Black
	}
	return board.White
}
