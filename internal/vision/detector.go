package vision

import (
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/thyrook/chesseye/internal/board"
	"github.com/thyrook/chesseye/internal/imaging"
)

const (
	// poisonSize is the side length of the square overwritten around an
	// accepted match so neighbouring offsets cannot match again.
	poisonSize = 45
	// poisonOffset shifts the poison square's origin so it roughly centres
	// on the match anchor.
	poisonOffset = -22
	// poisonValue is the worst possible normalized squared-difference
	// score.
	poisonValue = 1.0
)

// FindAllPieces recovers the symbolic board from a grayscale board image.
//
// The board is binarized once, then each of the twelve templates is matched
// in its own goroutine. Every match below the piece threshold registers the
// piece into a worker-local grid; the locals are merged first-writer-wins
// under a single lock. Workers share the binarized board and their own
// template read-only, so no synchronization is needed until the merge.
func FindAllPieces(grayBoard gocv.Mat, templates TemplateSet, pieceThreshold, boardThreshold float64) (board.Grid, error) {
	binBoard := imaging.Binarize(grayBoard, boardThreshold)
	defer binBoard.Close()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		merged   board.Grid
		firstErr error
	)
	for row := range merged {
		for col := range merged[row] {
			merged[row][col] = board.Empty
		}
	}

	for sign, tmpl := range templates {
		wg.Add(1)
		go func(sign byte, tmpl gocv.Mat) {
			defer wg.Done()

			local, err := findPieceLocations(binBoard, tmpl, pieceThreshold, sign)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for row := 0; row < 8; row++ {
				for col := 0; col < 8; col++ {
					if local[row][col] != board.Empty && merged[row][col] == board.Empty {
						merged[row][col] = local[row][col]
					}
				}
			}
		}(sign, tmpl)
	}

	wg.Wait()

	if firstErr != nil {
		return board.Grid{}, firstErr
	}
	return merged, nil
}

// findPieceLocations matches one template against the binarized board and
// returns a grid holding that piece's occurrences. The score map is poisoned
// around each accepted match before re-scanning, and the scan stops once the
// global minimum rises above the threshold.
func findPieceLocations(binBoard, tmpl gocv.Mat, threshold float64, sign byte) (board.Grid, error) {
	var result board.Grid
	for row := range result {
		for col := range result[row] {
			result[row][col] = board.Empty
		}
	}

	scoreMap, err := imaging.MatchTemplateSqDiffNormed(binBoard, tmpl)
	if err != nil {
		return result, err
	}
	defer scoreMap.Close()

	boardW := binBoard.Cols()
	boardH := binBoard.Rows()

	for {
		minVal, _, minLoc, _ := gocv.MinMaxLoc(scoreMap)
		if float64(minVal) >= threshold {
			break
		}

		board.RegisterPiece(minLoc, boardW, boardH, sign, &result)

		poison := image.Rect(
			minLoc.X+poisonOffset,
			minLoc.Y+poisonOffset,
			minLoc.X+poisonOffset+poisonSize,
			minLoc.Y+poisonOffset+poisonSize,
		)
		imaging.PoisonRegion(&scoreMap, poison, poisonValue)
	}

	return result, nil
}
