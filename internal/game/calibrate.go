package game

import (
	"bufio"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/thyrook/chesseye/internal/board"
	"github.com/thyrook/chesseye/internal/imaging"
	"github.com/thyrook/chesseye/internal/monitor"
	"github.com/thyrook/chesseye/internal/moves"
	"github.com/thyrook/chesseye/internal/profile"
	"github.com/thyrook/chesseye/internal/vision"
)

// nextImageKey advances the image walkthrough ('0').
const nextImageKey = 48

// Calibrate walks through every stage of the vision pipeline interactively
// so the tuning knobs can be dialed in: full screen, cropped board, each
// extracted template, the binarized board, the reconstructed position, and
// finally move detection on a single user-made move.
//
// When saveProfile is non-empty, the tuned values are stored under that name
// at the end.
func (r *Runner) Calibrate(saveProfile string, store *profile.Store) error {
	r.log.Info("interactive calibration: follow the steps to verify every stage of the pipeline")

	r.log.Info("[Step 1/7] collected parameters",
		zap.Any("monitor", r.cfg.Monitor),
		zap.Any("stockfish", r.cfg.Stockfish),
		zap.Any("imgproc", r.cfg.ImgProc),
		zap.Any("engine", r.cfg.Engine),
	)

	r.log.Info("[Step 2/7] showing the grayscale screen and the cropped board; press '0' for the next image")

	mon, err := monitor.Select(r.cfg.Monitor.Name)
	if err != nil {
		return err
	}

	raw, err := mon.CaptureFull()
	if err != nil {
		return err
	}
	gray, err := imaging.GrayFromRGBA(raw)
	if err != nil {
		return err
	}
	defer gray.Close()

	if err := show(gray, "Entire screen"); err != nil {
		return err
	}

	region, err := vision.LocateBoard(gray)
	if err != nil {
		return err
	}
	boardMat, err := imaging.SubImage(gray, region)
	if err != nil {
		return err
	}
	defer boardMat.Close()

	if err := show(boardMat, "Cropped board"); err != nil {
		return err
	}

	playerColor := vision.DetectPlayerColor(boardMat)
	r.log.Warn("[Step 3/7] detected player color", zap.Stringer("color", playerColor))

	r.log.Info("[Step 4/7] showing every extracted piece; blurry or clipped templates mean margin or extract-piece-threshold need adjusting")
	templates, err := vision.ExtractPieces(
		boardMat,
		r.cfg.ImgProc.Margin,
		r.cfg.ImgProc.ExtractPieceThreshold,
		playerColor,
	)
	if err != nil {
		return err
	}
	defer templates.Close()

	for sign, tmpl := range templates {
		if err := show(tmpl, fmt.Sprintf("Extracted piece: %c", sign)); err != nil {
			return err
		}
	}

	r.log.Info("[Step 5/7] showing the board converted to binary")
	binBoard := imaging.Binarize(boardMat, r.cfg.ImgProc.BoardThreshold)
	defer binBoard.Close()
	if err := show(binBoard, "Binary board"); err != nil {
		return err
	}

	r.log.Info("[Step 6/7] check that every piece lands on its square")
	grid, err := vision.FindAllPieces(
		boardMat,
		templates,
		r.cfg.ImgProc.PieceThreshold,
		r.cfg.ImgProc.BoardThreshold,
	)
	if err != nil {
		return err
	}

	printer := board.PrinterFor(r.cfg.Engine.Pretty)
	view := board.ViewFor(playerColor)
	board.New(grid, printer, view).Print(r.out)

	r.log.Info("[Step 7/7] make exactly one move on the web board, then press enter (difference-level tunes this step)")
	if _, err := bufio.NewReader(r.in).ReadString('\n'); err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	cropped, err := mon.CaptureRegion(region.Min.X, region.Min.Y, region.Dx(), region.Dy())
	if err != nil {
		return err
	}
	newBoardMat, err := imaging.GrayFromRGBA(cropped)
	if err != nil {
		return err
	}
	defer newBoardMat.Close()

	if !vision.ImagesDiffer(boardMat, newBoardMat, r.cfg.ImgProc.DifferenceLevel) {
		r.log.Error("the move was not detected by the difference gate")
		return moves.ErrNoMoveDetected
	}

	newGrid, err := vision.FindAllPieces(
		newBoardMat,
		templates,
		r.cfg.ImgProc.PieceThreshold,
		r.cfg.ImgProc.BoardThreshold,
	)
	if err != nil {
		return err
	}

	move, kind, err := moves.Detect(grid, newGrid, playerColor)
	if err != nil {
		return err
	}
	r.log.Info("detected move", zap.String("move", move), zap.Stringer("kind", kind))

	if saveProfile != "" && store != nil {
		if err := store.Save(saveProfile, r.cfg.ImgProc); err != nil {
			return err
		}
		r.log.Info("calibration profile saved", zap.String("name", saveProfile))
	}

	return nil
}

// show displays a Mat in a window until the walkthrough key is pressed.
func show(mat gocv.Mat, title string) error {
	window := gocv.NewWindow(title)
	defer window.Close()

	window.IMShow(mat)
	for {
		if window.WaitKey(0) == nextImageKey {
			return nil
		}
	}
}
