// Package advisor turns raw engine summaries into the report printed after
// each detected move, and keeps a bounded history of the advice given over
// the session.
package advisor

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thyrook/chesseye/internal/stockfish"
)

// Advice is one rendered engine line with its assessment.
type Advice struct {
	Rank      int
	Eval      string
	MainLine  []string
	Category  string
	Timestamp time.Time
}

// Advisor formats engine output and tracks session statistics.
type Advisor struct {
	logger  *zap.Logger
	maxSize int

	mu      sync.RWMutex
	history []Advice
	counts  map[string]int
}

// New creates an advisor keeping at most historySize entries.
func New(historySize int, logger *zap.Logger) *Advisor {
	return &Advisor{
		logger:  logger,
		maxSize: historySize,
		counts:  make(map[string]int),
	}
}

// Report renders the engine summaries as a boxed block, records them in the
// history and returns the text for printing.
func (a *Advisor) Report(summaries []stockfish.Summary) string {
	var sb strings.Builder
	now := time.Now()

	for i, summary := range summaries {
		category := Categorize(summary.Eval)

		sb.WriteString(fmt.Sprintf("┌────────────── engine line #%d ──────────────────\n", i+1))
		sb.WriteString(fmt.Sprintf("│ Evaluation : %s (%s)\n", summary.Eval, category))
		sb.WriteString(fmt.Sprintf("│ Line       : %s\n", FormatMoves(summary.MainLine)))
		sb.WriteString("└─────────────────────────────────────────────────\n")

		a.record(Advice{
			Rank:      i + 1,
			Eval:      summary.Eval,
			MainLine:  summary.MainLine,
			Category:  category,
			Timestamp: now,
		})
	}

	a.logger.Debug("advice recorded", zap.Int("lines", len(summaries)))
	return sb.String()
}

// record appends one advice entry, evicting the oldest past the cap.
func (a *Advisor) record(advice Advice) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, advice)
	if len(a.history) > a.maxSize {
		a.history = a.history[1:]
	}
	a.counts[advice.Category]++
}

// Recent returns up to n most recent advice entries, newest last.
func (a *Advisor) Recent(n int) []Advice {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if n > len(a.history) {
		n = len(a.history)
	}
	out := make([]Advice, n)
	copy(out, a.history[len(a.history)-n:])
	return out
}

// Stats summarizes the advice given so far.
type Stats struct {
	Total          int
	CategoryCounts map[string]int
}

// Stats returns a snapshot of the session statistics.
func (a *Advisor) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		counts[k] = v
	}
	return Stats{Total: len(a.history), CategoryCounts: counts}
}

// FormatMoves renders a principal variation as numbered move pairs:
// "1. d2d4 d7d5 2. c2c4".
func FormatMoves(moves []string) string {
	if len(moves) == 0 {
		return "-"
	}

	var parts []string
	for i := 0; i < len(moves); i += 2 {
		first := moves[i]
		second := ""
		if i+1 < len(moves) {
			second = " " + moves[i+1]
		}
		parts = append(parts, fmt.Sprintf("%d. %s%s", i/2+1, first, second))
	}
	return strings.Join(parts, " ")
}

// Categorize maps an evaluation string (White's point of view) to a coarse
// verdict for the report.
func Categorize(eval string) string {
	if eval == "" {
		return "Over"
	}
	if strings.HasPrefix(eval, "M") {
		return "Mating"
	}
	if strings.HasPrefix(eval, "-M") {
		return "Mated"
	}

	value, err := strconv.ParseFloat(eval, 64)
	if err != nil {
		return "Unknown"
	}

	switch {
	case value >= 2.0:
		return "Winning"
	case value >= 0.5:
		return "Better"
	case value > -0.5:
		return "Equal"
	case value > -2.0:
		return "Worse"
	default:
		return "Losing"
	}
}
