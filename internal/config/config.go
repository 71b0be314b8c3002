// Package config holds the runtime configuration for chesseye.
//
// Values come from three layers, weakest first: built-in defaults, an optional
// TOML file, and command-line flags. The structure mirrors the flag groups so
// a config file reads like the invocation it replaces.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full application configuration.
type Config struct {
	Monitor   MonitorConfig   `toml:"monitor"`
	Stockfish StockfishConfig `toml:"stockfish"`
	ImgProc   ImgProcConfig   `toml:"imgproc"`
	Engine    EngineConfig    `toml:"engine"`
}

// MonitorConfig selects the display to watch.
type MonitorConfig struct {
	// Name of the monitor; empty selects the primary display.
	Name string `toml:"name"`
}

// StockfishConfig configures the engine subprocess.
type StockfishConfig struct {
	Path  string `toml:"path"`
	Elo   int    `toml:"elo"`
	Skill int    `toml:"skill"`
	Depth int    `toml:"depth"`
	Hash  int    `toml:"hash"`
	PV    int    `toml:"pv"`
}

// ImgProcConfig holds the vision tuning knobs. These are the values the
// calibration mode exists to dial in.
type ImgProcConfig struct {
	// Margin is the symmetric inset in pixels applied when slicing piece
	// templates, so square borders and highlights stay out of the template.
	Margin int `toml:"margin"`
	// PieceThreshold is the template-match score below which a location
	// counts as a piece (squared-difference scores: smaller is better).
	PieceThreshold float64 `toml:"piece_threshold"`
	// ExtractPieceThreshold binarizes squares during template extraction.
	ExtractPieceThreshold float64 `toml:"extract_piece_threshold"`
	// BoardThreshold binarizes the board image before matching.
	BoardThreshold float64 `toml:"board_threshold"`
	// DifferenceLevel is the per-cell dark-pixel count around which the
	// difference gate decides two frames diverge.
	DifferenceLevel int `toml:"difference_level"`
}

// EngineConfig controls presentation.
type EngineConfig struct {
	// Pretty switches the board printer to Unicode chess glyphs.
	Pretty bool `toml:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Stockfish: StockfishConfig{
			Path:  "stockfish",
			Elo:   1700,
			Skill: 20,
			Depth: 5,
			Hash:  16,
			PV:    1,
		},
		ImgProc: ImgProcConfig{
			Margin:                5,
			PieceThreshold:        0.1,
			ExtractPieceThreshold: 127.0,
			BoardThreshold:        100.0,
			DifferenceLevel:       500,
		},
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as TOML, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks ranges before any subsystem is started.
func (c *Config) Validate() error {
	if c.Stockfish.Path == "" {
		return fmt.Errorf("stockfish path must not be empty")
	}
	if c.Stockfish.Depth < 1 {
		return fmt.Errorf("invalid depth: %d", c.Stockfish.Depth)
	}
	if c.Stockfish.PV < 1 {
		return fmt.Errorf("invalid pv count: %d", c.Stockfish.PV)
	}
	if c.Stockfish.Skill < 0 || c.Stockfish.Skill > 20 {
		return fmt.Errorf("invalid skill level: %d (must be 0-20)", c.Stockfish.Skill)
	}
	if c.ImgProc.Margin < 0 {
		return fmt.Errorf("invalid margin: %d", c.ImgProc.Margin)
	}
	if c.ImgProc.PieceThreshold <= 0 || c.ImgProc.PieceThreshold >= 1 {
		return fmt.Errorf("invalid piece_threshold: %f (must be in (0,1))", c.ImgProc.PieceThreshold)
	}
	if c.ImgProc.ExtractPieceThreshold < 0 || c.ImgProc.ExtractPieceThreshold > 255 {
		return fmt.Errorf("invalid extract_piece_threshold: %f", c.ImgProc.ExtractPieceThreshold)
	}
	if c.ImgProc.BoardThreshold < 0 || c.ImgProc.BoardThreshold > 255 {
		return fmt.Errorf("invalid board_threshold: %f", c.ImgProc.BoardThreshold)
	}
	if c.ImgProc.DifferenceLevel <= 0 {
		return fmt.Errorf("invalid difference_level: %d", c.ImgProc.DifferenceLevel)
	}
	return nil
}
