// Package board models the symbolic 8x8 chess board recovered by the vision
// pipeline: single-character piece codes, orientation-aware coordinate
// mapping and terminal rendering.
//
// Row 0 is the top rank as rendered on screen, column 0 the leftmost file.
// Uppercase letters are White pieces, lowercase Black, ' ' an empty square.
package board

import (
	"fmt"
	"image"
	"io"
)

// Color is the local player's side, fixed for the whole game.
type Color int

const (
	White Color = iota
	Black
)

// String implements fmt.Stringer for log output.
func (c Color) String() string {
	if c == Black {
		return "Black"
	}
	return "White"
}

// Grid is the raw symbolic board. Being an array it has value semantics:
// assignments copy, which the game loop relies on when keeping the previous
// cycle's board.
type Grid [8][8]byte

// Empty marks a square with no piece.
const Empty = ' '

// DefaultWhite is the starting position as seen by a player with the White
// pieces at the bottom of the screen.
func DefaultWhite() Grid {
	return Grid{
		{'r', 'n', 'b', 'q', 'k', 'b', 'n', 'r'},
		{'p', 'p', 'p', 'p', 'p', 'p', 'p', 'p'},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P'},
		{'R', 'N', 'B', 'Q', 'K', 'B', 'N', 'R'},
	}
}

// DefaultBlack is the starting position as seen from the Black side. The
// board is mirrored about both axes, which swaps the king and queen files.
func DefaultBlack() Grid {
	return Grid{
		{'R', 'N', 'B', 'K', 'Q', 'B', 'N', 'R'},
		{'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P'},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{'p', 'p', 'p', 'p', 'p', 'p', 'p', 'p'},
		{'r', 'n', 'b', 'k', 'q', 'b', 'n', 'r'},
	}
}

// DefaultFor returns the starting grid for the given player color.
func DefaultFor(color Color) Grid {
	if color == Black {
		return DefaultBlack()
	}
	return DefaultWhite()
}

// RegisterPiece writes a piece character into the grid cell covering the
// given pixel anchor. The anchor is the top-left corner of a template match
// on a board image of boardW x boardH pixels.
func RegisterPiece(anchor image.Point, boardW, boardH int, piece byte, grid *Grid) {
	tileW := boardW / 8
	tileH := boardH / 8

	row := clamp(anchor.Y/tileH, 0, 7)
	col := clamp(anchor.X/tileW, 0, 7)
	grid[row][col] = piece
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RawString renders a grid as a compact debug block, one row per line.
func RawString(grid Grid) string {
	out := "\n"
	for _, row := range grid {
		for _, piece := range row {
			out += string(piece) + " "
		}
		out += "\n"
	}
	return out
}

// Board couples a grid with a printing style and a view orientation.
type Board struct {
	grid    Grid
	printer Printer
	view    View
}

// New builds a board over an already-detected grid.
func New(grid Grid, printer Printer, view View) *Board {
	return &Board{grid: grid, printer: printer, view: view}
}

// NewStart builds the canonical starting board for the player's color.
func NewStart(color Color, printer Printer) *Board {
	return New(DefaultFor(color), printer, ViewFor(color))
}

// Raw returns the underlying matrix. Printing never mutates it.
func (b *Board) Raw() Grid {
	return b.grid
}

// View returns the board's coordinate mapping.
func (b *Board) View() View {
	return b.view
}

// Print writes the labelled grid: file letters above and below, rank numbers
// on both sides, cells fenced by +---+ borders.
func (b *Board) Print(w io.Writer) {
	border := "  +---+---+---+---+---+---+---+---+"

	files := "   "
	for col := 0; col < 8; col++ {
		files += fmt.Sprintf(" %c  ", b.view.FileLabel(col))
	}

	fmt.Fprintln(w, files)
	fmt.Fprintln(w, border)
	for row := 0; row < 8; row++ {
		rank := b.view.RankLabel(row)
		fmt.Fprintf(w, "%d |", rank)
		for col := 0; col < 8; col++ {
			fmt.Fprintf(w, " %s |", b.printer.Piece(b.grid[row][col]))
		}
		fmt.Fprintf(w, " %d\n", rank)
		fmt.Fprintln(w, border)
	}
	fmt.Fprintln(w, files)
}
