// chesseye watches a chess game on screen and prints engine analysis after
// every detected move.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/thyrook/chesseye/internal/config"
	"github.com/thyrook/chesseye/internal/game"
	"github.com/thyrook/chesseye/internal/logger"
	"github.com/thyrook/chesseye/internal/monitor"
	"github.com/thyrook/chesseye/internal/profile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chesseye: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		mode         = flag.String("mode", "game", "run mode: game or test (interactive calibration)")
		configPath   = flag.String("config", "", "optional TOML config file")
		verbose      = flag.Bool("v", false, "debug logging")
		quiet        = flag.Bool("q", false, "errors only")
		listMonitors = flag.Bool("list-monitors", false, "list detected displays and exit")

		profileName = flag.String("profile", "", "load a saved calibration profile")
		saveProfile = flag.String("save-profile", "", "store the tuned values under this name after calibration")
		profileDB   = flag.String("profile-db", profile.DefaultPath(), "calibration profile database")

		monitorName = flag.String("monitor-name", "", "monitor to capture (empty: primary)")

		stockfishPath = flag.String("stockfish-path", "", "path to the stockfish binary")
		elo           = flag.Int("elo", 0, "engine elo rating")
		skill         = flag.Int("skill", -1, "engine skill level (0-20)")
		depth         = flag.Int("depth", 0, "engine search depth")
		hash          = flag.Int("hash", 0, "engine hash size in MB")
		pv            = flag.Int("pv", 0, "number of engine lines to show")

		margin          = flag.Int("margin", -1, "template extraction inset in pixels")
		pieceThreshold  = flag.Float64("piece-threshold", 0, "template match acceptance threshold")
		extractPieceThr = flag.Float64("extract-piece-threshold", -1, "binarization threshold for template extraction")
		boardThreshold  = flag.Float64("board-threshold", -1, "binarization threshold for the board image")
		differenceLevel = flag.Int("difference-level", 0, "difference gate sensitivity")

		pretty = flag.Bool("pretty", false, "render the board with Unicode chess glyphs")
	)
	flag.Parse()

	level := logger.LevelInfo
	if *verbose {
		level = logger.LevelDebug
	}
	if *quiet {
		level = logger.LevelError
	}
	if err := logger.Setup(level); err != nil {
		return err
	}
	defer logger.Sync()

	if *listMonitors {
		for _, m := range monitor.All() {
			primary := ""
			if m.Primary {
				primary = " (primary)"
			}
			fmt.Printf("%s  %dx%d at (%d,%d)%s\n",
				m.Name, m.Bounds.Dx(), m.Bounds.Dy(), m.Bounds.Min.X, m.Bounds.Min.Y, primary)
		}
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// A saved profile overrides the file, explicit flags override both.
	var store *profile.Store
	if *profileName != "" || *saveProfile != "" {
		store, err = profile.Open(*profileDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	if *profileName != "" {
		imgproc, err := store.Load(*profileName)
		if err != nil {
			return err
		}
		cfg.ImgProc = imgproc
		logger.L().Info("calibration profile loaded", zap.String("name", *profileName))
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "monitor-name":
			cfg.Monitor.Name = *monitorName
		case "stockfish-path":
			cfg.Stockfish.Path = *stockfishPath
		case "elo":
			cfg.Stockfish.Elo = *elo
		case "skill":
			cfg.Stockfish.Skill = *skill
		case "depth":
			cfg.Stockfish.Depth = *depth
		case "hash":
			cfg.Stockfish.Hash = *hash
		case "pv":
			cfg.Stockfish.PV = *pv
		case "margin":
			cfg.ImgProc.Margin = *margin
		case "piece-threshold":
			cfg.ImgProc.PieceThreshold = *pieceThreshold
		case "extract-piece-threshold":
			cfg.ImgProc.ExtractPieceThreshold = *extractPieceThr
		case "board-threshold":
			cfg.ImgProc.BoardThreshold = *boardThreshold
		case "difference-level":
			cfg.ImgProc.DifferenceLevel = *differenceLevel
		case "pretty":
			cfg.Engine.Pretty = *pretty
		}
	})

	if err := cfg.Validate(); err != nil {
		return err
	}

	runner := game.NewRunner(cfg, os.Stdout)

	switch *mode {
	case "game":
		return runner.Play()
	case "test":
		return runner.Calibrate(*saveProfile, store)
	default:
		return fmt.Errorf("unknown mode %q (want game or test)", *mode)
	}
}

// loadConfig reads the TOML file when given, otherwise starts from the
// built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, err
	}
	return cfg, nil
}
