package advisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/thyrook/chesseye/internal/stockfish"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		eval string
		want string
	}{
		{"3.2", "Winning"},
		{"2.0", "Winning"},
		{"0.8", "Better"},
		{"0.1", "Equal"},
		{"-0.49", "Equal"},
		{"-1.1", "Worse"},
		{"-4.5", "Losing"},
		{"M3", "Mating"},
		{"-M2", "Mated"},
		{"", "Over"},
		{"nonsense", "Unknown"},
	}

	for _, tt := range tests {
		if got := Categorize(tt.eval); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.eval, got, tt.want)
		}
	}
}

func TestFormatMoves(t *testing.T) {
	assert.Equal(t, "-", FormatMoves(nil))
	assert.Equal(t, "1. e2e4", FormatMoves([]string{"e2e4"}))
	assert.Equal(t, "1. e2e4 e7e5", FormatMoves([]string{"e2e4", "e7e5"}))
	assert.Equal(t,
		"1. d2d4 d7d5 2. c2c4",
		FormatMoves([]string{"d2d4", "d7d5", "c2c4"}),
	)
}

func TestReportRendersEachLine(t *testing.T) {
	a := New(10, zap.NewNop())

	out := a.Report([]stockfish.Summary{
		{Eval: "0.42", MainLine: []string{"d2d4", "d7d5"}},
		{Eval: "-M1", MainLine: []string{"g2g4"}},
	})

	assert.Contains(t, out, "engine line #1")
	assert.Contains(t, out, "engine line #2")
	assert.Contains(t, out, "0.42 (Equal)")
	assert.Contains(t, out, "-M1 (Mated)")
	assert.Contains(t, out, "1. d2d4 d7d5")
	assert.Equal(t, 2, strings.Count(out, "└"))
}

func TestHistoryIsBounded(t *testing.T) {
	a := New(3, zap.NewNop())

	for i := 0; i < 5; i++ {
		a.Report([]stockfish.Summary{{Eval: "0.1", MainLine: []string{"e2e4"}}})
	}

	recent := a.Recent(10)
	assert.Len(t, recent, 3)

	stats := a.Stats()
	assert.Equal(t, 3, stats.Total)
	// Counts track everything ever reported, not just the retained window.
	assert.Equal(t, 5, stats.CategoryCounts["Equal"])
}

func TestRecentReturnsNewestLast(t *testing.T) {
	a := New(10, zap.NewNop())
	a.Report([]stockfish.Summary{{Eval: "2.5", MainLine: []string{"a2a4"}}})
	a.Report([]stockfish.Summary{{Eval: "-3.0", MainLine: []string{"b2b4"}}})

	recent := a.Recent(2)
	assert.Equal(t, "Winning", recent[0].Category)
	assert.Equal(t, "Losing", recent[1].Category)
}
