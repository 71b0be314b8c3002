// Package game orchestrates the perception and control loop: capture,
// change gate, detection, move inference, engine interaction and printing.
package game

import (
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/thyrook/chesseye/internal/advisor"
	"github.com/thyrook/chesseye/internal/board"
	"github.com/thyrook/chesseye/internal/config"
	"github.com/thyrook/chesseye/internal/imaging"
	"github.com/thyrook/chesseye/internal/logger"
	"github.com/thyrook/chesseye/internal/monitor"
	"github.com/thyrook/chesseye/internal/moves"
	"github.com/thyrook/chesseye/internal/stockfish"
	"github.com/thyrook/chesseye/internal/vision"
)

// sampleInterval paces the capture loop. Sampling slower than typical move
// animations keeps the difference gate looking at steady-state frames.
const sampleInterval = 100 * time.Millisecond

// adviceHistorySize bounds the advisor's session history.
const adviceHistorySize = 256

// Runner owns one game session.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
	out io.Writer
	in  io.Reader
	adv *advisor.Advisor
}

// NewRunner builds a session around the given configuration, writing boards
// and reports to out.
func NewRunner(cfg *config.Config, out io.Writer) *Runner {
	log := logger.L().Named("game")
	return &Runner{
		cfg: cfg,
		log: log,
		out: out,
		in:  os.Stdin,
		adv: advisor.New(adviceHistorySize, log),
	}
}

// Play runs the steady-state loop until the engine reports the game over or
// a fatal error occurs.
func (r *Runner) Play() error {
	engine, err := r.startEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	mon, err := monitor.Select(r.cfg.Monitor.Name)
	if err != nil {
		return err
	}

	region, boardMat, err := r.locateBoard(mon)
	if err != nil {
		return err
	}

	playerColor := vision.DetectPlayerColor(boardMat)
	r.log.Info("detected player color", zap.Stringer("color", playerColor))

	printer := board.PrinterFor(r.cfg.Engine.Pretty)
	current := board.NewStart(playerColor, printer)

	clearScreen(r.out)
	current.Print(r.out)

	templates, err := vision.ExtractPieces(
		boardMat,
		r.cfg.ImgProc.Margin,
		r.cfg.ImgProc.ExtractPieceThreshold,
		playerColor,
	)
	if err != nil {
		boardMat.Close()
		return err
	}
	defer templates.Close()

	summaries, err := engine.Summary(r.cfg.Stockfish.PV)
	if err != nil {
		boardMat.Close()
		return err
	}
	fmt.Fprint(r.out, r.adv.Report(summaries))

	prevMat := boardMat
	defer func() { prevMat.Close() }()

	for {
		time.Sleep(sampleInterval)
		start := time.Now()

		cropped, err := mon.CaptureRegion(region.Min.X, region.Min.Y, region.Dx(), region.Dy())
		if err != nil {
			return err
		}
		grayBoard, err := imaging.GrayFromRGBA(cropped)
		if err != nil {
			return err
		}

		if !vision.ImagesDiffer(prevMat, grayBoard, r.cfg.ImgProc.DifferenceLevel) {
			grayBoard.Close()
			continue
		}

		newGrid, err := vision.FindAllPieces(
			grayBoard,
			templates,
			r.cfg.ImgProc.PieceThreshold,
			r.cfg.ImgProc.BoardThreshold,
		)
		if err != nil {
			grayBoard.Close()
			return err
		}
		r.log.Debug("piece detection finished",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("raw_board", board.RawString(newGrid)),
		)

		move, kind, err := moves.Detect(current.Raw(), newGrid, playerColor)
		if err != nil {
			// A failed cycle keeps the previous baseline; the next frame
			// gets another chance.
			r.log.Error("move inference failed", zap.Error(err))
			grayBoard.Close()
			continue
		}
		r.log.Info("detected move",
			zap.String("move", move),
			zap.Stringer("kind", kind),
		)

		if err := engine.MakeMove([]string{move}); err != nil {
			grayBoard.Close()
			return err
		}

		clearScreen(r.out)
		newBoard := board.New(newGrid, printer, board.ViewFor(playerColor))
		newBoard.Print(r.out)

		summaries, err := engine.Summary(r.cfg.Stockfish.PV)
		if err != nil {
			grayBoard.Close()
			return err
		}
		if gameOver(summaries) {
			grayBoard.Close()
			r.log.Info("game over")
			return nil
		}
		fmt.Fprint(r.out, r.adv.Report(summaries))

		prevMat.Close()
		prevMat = grayBoard
		current = newBoard
		r.log.Debug("cycle finished", zap.Duration("elapsed", time.Since(start)))
	}
}

// startEngine spawns and configures the engine subprocess.
func (r *Runner) startEngine() (*stockfish.Engine, error) {
	sf := r.cfg.Stockfish

	engine, err := stockfish.New(sf.Path, sf.Depth)
	if err != nil {
		return nil, err
	}
	if err := engine.SetConfig(sf.Elo, sf.Skill, sf.Hash, sf.PV); err != nil {
		engine.Close()
		return nil, err
	}

	r.log.Info("engine ready", zap.String("version", engine.Version()))
	return engine, nil
}

// locateBoard captures the full monitor, finds the board region and returns
// it together with the cropped grayscale board.
func (r *Runner) locateBoard(mon monitor.Monitor) (region image.Rectangle, boardMat gocv.Mat, err error) {
	raw, err := mon.CaptureFull()
	if err != nil {
		return region, boardMat, err
	}

	gray, err := imaging.GrayFromRGBA(raw)
	if err != nil {
		return region, boardMat, err
	}
	defer gray.Close()

	region, err = vision.LocateBoard(gray)
	if err != nil {
		return region, boardMat, err
	}

	boardMat, err = imaging.SubImage(gray, region)
	if err != nil {
		return region, boardMat, err
	}
	return region, boardMat, nil
}

// gameOver reports whether every engine line came back empty.
func gameOver(summaries []stockfish.Summary) bool {
	for _, s := range summaries {
		if len(s.MainLine) > 0 {
			return false
		}
	}
	return len(summaries) > 0
}

// clearScreen resets the terminal before reprinting the board.
func clearScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[2J\x1b[H")
}
