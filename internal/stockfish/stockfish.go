package stockfish

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/thyrook/chesseye/internal/logger"
)

var (
	reBestmove = regexp.MustCompile(`^bestmove\b`)
	reUCIOK    = regexp.MustCompile(`^uciok\b`)
	reFen      = regexp.MustCompile(`Fen`)
)

// Summary is one principal variation of an evaluation request: the score in
// pawn units (or ±M<n> for mate) and the engine's line.
type Summary struct {
	Eval     string
	MainLine []string
}

// IllegalMoveError reports a move the engine refused for the current
// position. The caller must treat the game state as diverged.
type IllegalMoveError struct {
	Move string
}

// Error implements error.
func (e IllegalMoveError) Error() string {
	return fmt.Sprintf("move %q is not valid for the current position or engine state", e.Move)
}

// Engine owns a UCI engine subprocess: its configuration state, search
// depth, and the scratch info line kept from the last search.
type Engine struct {
	proc     Process
	params   map[string]string
	depth    int
	info     string
	quitSent bool
	version  string
	log      *zap.Logger
}

// New spawns the engine binary and performs the UCI handshake.
func New(path string, depth int) (*Engine, error) {
	proc, err := newExecProcess(path)
	if err != nil {
		return nil, err
	}
	return NewWithProcess(proc, depth)
}

// NewWithProcess wires the driver over an existing transport. The first line
// the engine prints is cached as its version banner, then `uci` is sent and
// everything up to `uciok` is discarded.
func NewWithProcess(proc Process, depth int) (*Engine, error) {
	e := &Engine{
		proc:   proc,
		params: make(map[string]string),
		depth:  depth,
		log:    logger.L().Named("stockfish"),
	}

	version, err := proc.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read engine banner: %w", err)
	}
	e.version = version

	if err := e.put("uci"); err != nil {
		return nil, err
	}
	if _, err := proc.Lines(reUCIOK); err != nil {
		return nil, fmt.Errorf("uci handshake failed: %w", err)
	}

	e.log.Debug("engine started", zap.String("version", version))
	return e, nil
}

// Version returns the engine's identification banner.
func (e *Engine) Version() string {
	return e.version
}

// Info returns the last info line seen before the most recent bestmove.
func (e *Engine) Info() string {
	return e.info
}

// SetConfig applies the default option table for a game: hash size, multi-PV
// count, strength limits and WDL reporting.
func (e *Engine) SetConfig(elo, skill, hash, multiPV int) error {
	defaults := map[string]string{
		"Debug Log File":    "",
		"Ponder":            "false",
		"Hash":              strconv.Itoa(hash),
		"MultiPV":           strconv.Itoa(multiPV),
		"Skill Level":       strconv.Itoa(skill),
		"Move Overhead":     "10",
		"UCI_Chess960":      "false",
		"UCI_LimitStrength": "true",
		"UCI_Elo":           strconv.Itoa(elo),
		"UCI_ShowWDL":       "true",
	}
	return e.updateParams(defaults)
}

// SetSkillLevel switches the engine to skill-based strength limiting.
func (e *Engine) SetSkillLevel(level int) error {
	return e.updateParams(map[string]string{
		"UCI_LimitStrength": "false",
		"Skill Level":       strconv.Itoa(level),
	})
}

// SetEloRating switches the engine to Elo-based strength limiting.
func (e *Engine) SetEloRating(rating int) error {
	return e.updateParams(map[string]string{
		"UCI_LimitStrength": "true",
		"UCI_Elo":           strconv.Itoa(rating),
	})
}

// updateParams sends setoption commands with an isready handshake after each
// one. Once the initial configuration is in place, unknown option names are
// programmer errors. Providing only one of Skill Level / UCI_Elo forces
// UCI_LimitStrength to the matching value.
func (e *Engine) updateParams(params map[string]string) error {
	if len(e.params) > 0 {
		for name := range params {
			if _, known := e.params[name]; !known {
				return fmt.Errorf("unknown engine option %q", name)
			}
		}
	}

	_, hasSkill := params["Skill Level"]
	_, hasElo := params["UCI_Elo"]
	if hasSkill != hasElo {
		if hasSkill {
			params["UCI_LimitStrength"] = "false"
		} else {
			params["UCI_LimitStrength"] = "true"
		}
	}

	for _, name := range orderedOptionNames(params) {
		value := params[name]
		if err := e.put(fmt.Sprintf("setoption name %s value %s", name, value)); err != nil {
			return err
		}
		e.params[name] = value
		if err := e.isReady(); err != nil {
			return err
		}
	}

	fen, err := e.GetFENPosition()
	if err != nil {
		return err
	}
	return e.setFENPosition(fen, false)
}

// orderedOptionNames yields a deterministic option order. Threads precedes
// Hash so the engine sizes its hash for the final thread count.
func orderedOptionNames(params map[string]string) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	// Threads sorts under Hash's key and wins the tie, so it lands directly
	// before Hash while the ordering stays transitive.
	key := func(name string) string {
		if name == "Threads" {
			return "Hash"
		}
		return name
	}
	sort.Slice(names, func(i, j int) bool {
		ki, kj := key(names[i]), key(names[j])
		if ki != kj {
			return ki < kj
		}
		return names[i] == "Threads" && names[j] != "Threads"
	})
	return names
}

// MakeMove verifies each move against the engine, then advances the current
// position by it. No ucinewgame is sent; the engine keeps its game state.
func (e *Engine) MakeMove(moves []string) error {
	if len(moves) == 0 {
		return nil
	}

	if err := e.prepareForNewPosition(false); err != nil {
		return err
	}

	for _, move := range moves {
		ok, err := e.isCorrectMove(move)
		if err != nil {
			return err
		}
		if !ok {
			return IllegalMoveError{Move: move}
		}

		fen, err := e.GetFENPosition()
		if err != nil {
			return err
		}
		if err := e.put(fmt.Sprintf("position fen %s moves %s", fen, move)); err != nil {
			return err
		}
	}
	return nil
}

// GetBestMove searches the current position at the configured depth. The
// second return is false when the engine answers `bestmove (none)`, i.e. the
// game is over.
func (e *Engine) GetBestMove() (string, bool, error) {
	if err := e.goDepth(); err != nil {
		return "", false, err
	}
	return e.moveFromProc()
}

// Summary evaluates the current position and extracts the top searchLines
// principal variations. Scores are reported from White's point of view: the
// sign flips when the side to move is Black.
func (e *Engine) Summary(searchLines int) ([]Summary, error) {
	fen, err := e.GetFENPosition()
	if err != nil {
		return nil, err
	}

	scalar := 1.0
	if sideToMove(fen) == "b" {
		scalar = -1.0
	}

	if err := e.put("position fen " + fen); err != nil {
		return nil, err
	}
	if err := e.goDepth(); err != nil {
		return nil, err
	}

	lines, err := e.proc.Lines(reBestmove)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	output := make([]Summary, 0, searchLines)
	for nth := 1; nth <= searchLines; nth++ {
		eval, pv := e.extractValues(lines, nth, scalar)
		output = append(output, Summary{Eval: eval, MainLine: pv})
	}
	return output, nil
}

// GetWDLStats searches the current position and returns the last
// win/draw/loss triple the engine reported, in permille.
func (e *Engine) GetWDLStats() ([3]int, error) {
	fen, err := e.GetFENPosition()
	if err != nil {
		return [3]int{}, err
	}
	if err := e.put("position fen " + fen); err != nil {
		return [3]int{}, err
	}
	if err := e.goDepth(); err != nil {
		return [3]int{}, err
	}

	lines, err := e.proc.Lines(reBestmove)
	if err != nil {
		return [3]int{}, err
	}

	var result [3]int
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "info" {
			continue
		}
		for i, field := range fields {
			if field != "wdl" || i+3 >= len(fields) {
				continue
			}
			win, err1 := strconv.Atoi(fields[i+1])
			draw, err2 := strconv.Atoi(fields[i+2])
			loss, err3 := strconv.Atoi(fields[i+3])
			if err1 == nil && err2 == nil && err3 == nil {
				result = [3]int{win, draw, loss}
			}
		}
	}
	return result, nil
}

// GetFENPosition asks the engine to dump the current position and returns
// the FEN line's payload.
func (e *Engine) GetFENPosition() (string, error) {
	if err := e.put("d"); err != nil {
		return "", err
	}

	lines, err := e.proc.Lines(reFen)
	if err != nil {
		return "", fmt.Errorf("fen retrieval failed: %w", err)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("fen retrieval failed: no output")
	}

	last := strings.TrimSpace(lines[len(lines)-1])
	if !strings.HasPrefix(last, "Fen: ") {
		return "", fmt.Errorf("fen retrieval failed: unexpected line %q", last)
	}
	return strings.TrimPrefix(last, "Fen: "), nil
}

// Close sends quit before tearing the transport down.
func (e *Engine) Close() error {
	if err := e.put("quit"); err != nil {
		return err
	}
	return e.proc.Close()
}

// extractValues scans the captured search output backwards for the last
// full-depth line of the requested multipv and parses its score and pv.
// Malformed info lines are skipped; when nothing matches, the summary comes
// back empty, which callers read as "game over".
func (e *Engine) extractValues(data []string, nth int, scalar float64) (string, []string) {
	pattern := regexp.MustCompile(fmt.Sprintf(`info depth %d\s+.*multipv %d\b`, e.depth, nth))

	for i := len(data) - 1; i >= 0; i-- {
		line := data[i]
		if !pattern.MatchString(line) {
			continue
		}

		fields := strings.Fields(line)
		eval := ""
		var pv []string

		for j, field := range fields {
			switch field {
			case "score":
				if j+2 >= len(fields) {
					continue
				}
				kind := fields[j+1]
				value := fields[j+2]
				switch kind {
				case "cp":
					cp, err := strconv.ParseFloat(value, 64)
					if err != nil {
						continue
					}
					eval = strconv.FormatFloat(cp*scalar/100.0, 'f', -1, 64)
				case "mate":
					mate, err := strconv.ParseFloat(value, 64)
					if err != nil {
						continue
					}
					// The engine's mate count is from the side to move;
					// combine its sign with the color flip.
					sign := ""
					if (mate < 0) != (scalar < 0) {
						sign = "-"
					}
					if mate < 0 {
						mate = -mate
					}
					eval = fmt.Sprintf("%sM%d", sign, int(mate))
				}
			case "pv":
				pv = append([]string{}, fields[j+1:]...)
			}
		}

		if eval == "" {
			continue
		}
		return eval, pv
	}

	return "", nil
}

// moveFromProc consumes search output up to bestmove, remembering the last
// info line as a diagnostic. Returns found=false for `bestmove (none)`.
func (e *Engine) moveFromProc() (string, bool, error) {
	lines, err := e.proc.Lines(reBestmove)
	if err != nil {
		return "", false, fmt.Errorf("search failed: %w", err)
	}

	lastInfo := ""
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "bestmove" {
			e.info = lastInfo
			if len(fields) < 2 || fields[1] == "(none)" {
				return "", false, nil
			}
			return fields[1], true, nil
		}

		if fields[0] == "info" {
			lastInfo = line
		}
	}

	return "", false, fmt.Errorf("search failed: no bestmove in engine output")
}

// isCorrectMove probes a move with a minimal constrained search: the engine
// answers `bestmove (none)` for moves that are illegal in the current
// position. The diagnostic info line is preserved across the probe.
func (e *Engine) isCorrectMove(move string) (bool, error) {
	oldInfo := e.info
	defer func() { e.info = oldInfo }()

	if err := e.put("go depth 1 searchmoves " + move); err != nil {
		return false, err
	}
	_, found, err := e.moveFromProc()
	if err != nil {
		return false, err
	}
	return found, nil
}

// setFENPosition loads a position, optionally resetting the engine's game
// state first.
func (e *Engine) setFENPosition(fen string, newGame bool) error {
	if err := e.prepareForNewPosition(newGame); err != nil {
		return err
	}
	return e.put("position fen " + fen)
}

// prepareForNewPosition synchronizes with the engine and clears the scratch
// info line.
func (e *Engine) prepareForNewPosition(newGame bool) error {
	if newGame {
		if err := e.put("ucinewgame"); err != nil {
			return err
		}
	}
	if err := e.isReady(); err != nil {
		return err
	}
	e.info = ""
	return nil
}

// isReady performs one isready/readyok handshake, consuming exactly one
// readyok.
func (e *Engine) isReady() error {
	if err := e.put("isready"); err != nil {
		return err
	}

	for {
		line, err := e.proc.ReadLine()
		if err != nil {
			return fmt.Errorf("isready handshake failed: %w", err)
		}
		if line == "readyok" {
			return nil
		}
	}
}

// goDepth launches a search at the configured depth.
func (e *Engine) goDepth() error {
	return e.put(fmt.Sprintf("go depth %d", e.depth))
}

// GoMovetime launches a time-bound search instead of a depth-bound one.
func (e *Engine) GoMovetime(ms int) error {
	return e.put(fmt.Sprintf("go movetime %d", ms))
}

// put writes one command line. Writes to a dead process are dropped; quit is
// only ever sent once.
func (e *Engine) put(cmd string) error {
	if !e.proc.IsRunning() || e.quitSent {
		return nil
	}

	e.log.Debug("engine write", zap.String("cmd", cmd))
	if err := e.proc.WriteLine(cmd); err != nil {
		return err
	}

	if cmd == "quit" {
		e.quitSent = true
	}
	return nil
}

// sideToMove extracts the active-color field from a FEN string.
func sideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return "w"
	}
	return fields[1]
}
