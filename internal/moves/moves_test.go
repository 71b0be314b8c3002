package moves

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thyrook/chesseye/internal/board"
)

func gridFrom(rows [8]string) board.Grid {
	var g board.Grid
	for i, row := range rows {
		if len(row) != 8 {
			panic("fixture row must have 8 cells")
		}
		copy(g[i][:], row)
	}
	return g
}

func TestDetectIdenticalBoards(t *testing.T) {
	g := board.DefaultWhite()
	_, _, err := Detect(g, g, board.White)
	assert.ErrorIs(t, err, ErrNoMoveDetected)
}

func TestDetectPawnPush(t *testing.T) {
	before := board.DefaultWhite()
	after := before
	after[6][4] = board.Empty
	after[4][4] = 'P'

	move, kind, err := Detect(before, after, board.White)
	require.NoError(t, err)
	assert.Equal(t, "e2e4", move)
	assert.Equal(t, Normal, kind)
}

func TestDetectKnightDevelopment(t *testing.T) {
	before := board.DefaultWhite()
	after := before
	after[0][1] = board.Empty
	after[2][2] = 'n'

	move, kind, err := Detect(before, after, board.White)
	require.NoError(t, err)
	assert.Equal(t, "b8c6", move)
	assert.Equal(t, Normal, kind)
}

func TestDetectKnightFromBlackView(t *testing.T) {
	// Black player's own knight leaves the bottom-left corner area of the
	// flipped board: g8 -> f6 in Black-view coordinates.
	before := board.DefaultBlack()
	after := before
	after[7][1] = board.Empty
	after[5][2] = 'n'

	move, kind, err := Detect(before, after, board.Black)
	require.NoError(t, err)
	assert.Equal(t, "g8f6", move)
	assert.Equal(t, Normal, kind)
}

func TestDetectBlackPawnDoublePush(t *testing.T) {
	before := gridFrom([8]string{
		"rnbqkbnr",
		"pp  pppp",
		"        ",
		" P    N ",
		"  pqP   ",
		"        ",
		"P P  P P",
		"RN QKBNR",
	})
	after := before
	after[1][7] = board.Empty
	after[3][7] = 'p'

	move, kind, err := Detect(before, after, board.White)
	require.NoError(t, err)
	assert.Equal(t, "h7h5", move)
	assert.Equal(t, Normal, kind)
}

func TestDetectCaptureReplacesPiece(t *testing.T) {
	// White pawn on h7 takes whatever holds h5: the destination square
	// transitions piece -> different piece.
	before := board.DefaultWhite()
	before[1][7] = 'P'
	before[3][7] = 'p'
	after := before
	after[1][7] = board.Empty
	after[3][7] = 'P'

	move, kind, err := Detect(before, after, board.White)
	require.NoError(t, err)
	assert.Equal(t, "h7h5", move)
	assert.Equal(t, Capture, kind)
}

func TestDetectKingsideCastling(t *testing.T) {
	before := gridFrom([8]string{
		"rnbqk  r",
		"pppp ppp",
		"     n  ",
		"    p   ",
		"    P   ",
		"     N  ",
		"PPPP PPP",
		"RNBQK  R",
	})
	after := before
	// White short castling: e1g1, rook h1 -> f1.
	after[7][4] = board.Empty
	after[7][7] = board.Empty
	after[7][6] = 'K'
	after[7][5] = 'R'

	move, kind, err := Detect(before, after, board.White)
	require.NoError(t, err)
	assert.Equal(t, "e1g1", move)
	assert.Equal(t, Castling, kind)
}

func TestDetectQueensideCastlingBlackView(t *testing.T) {
	// Black player's own long castling on the flipped board: the king sits
	// at [7][3] (e8), travels two files toward [7][5] (c8), the rook comes
	// from [7][7] (a8) to [7][4] (d8).
	before := gridFrom([8]string{
		"RNBKQBNR",
		"PPPPPPPP",
		"        ",
		"        ",
		"        ",
		"  b n   ",
		"pppqpppp",
		"rnbk   r",
	})
	after := before
	after[7][3] = board.Empty
	after[7][7] = board.Empty
	after[7][5] = 'k'
	after[7][4] = 'r'

	move, kind, err := Detect(before, after, board.Black)
	require.NoError(t, err)
	assert.Equal(t, "e8c8", move)
	assert.Equal(t, Castling, kind)
}

func TestDetectEnPassant(t *testing.T) {
	// White pawn e5 takes d5 en passant: e5 and d5 vacate, d6 appears.
	before := gridFrom([8]string{
		"rnbqkbnr",
		"ppp pppp",
		"        ",
		"   pP   ",
		"        ",
		"        ",
		"PPPP PPP",
		"RNBQKBNR",
	})
	after := before
	after[3][4] = board.Empty
	after[3][3] = board.Empty
	after[2][3] = 'P'

	move, kind, err := Detect(before, after, board.White)
	require.NoError(t, err)
	assert.Equal(t, "e5d6", move)
	assert.Equal(t, EnPassant, kind)
}

func TestDetectPromotion(t *testing.T) {
	before := gridFrom([8]string{
		"r bqkbnr",
		"pP  pppp",
		"        ",
		"        ",
		"        ",
		"        ",
		"P P  P P",
		"RN QKBNR",
	})
	after := before
	after[1][1] = board.Empty
	after[0][1] = 'Q'

	move, kind, err := Detect(before, after, board.White)
	require.NoError(t, err)
	assert.Equal(t, "b7b8q", move)
	assert.Equal(t, Promotion, kind)
}

func TestDetectCapturePromotion(t *testing.T) {
	before := gridFrom([8]string{
		"rnbqkbnr",
		"pP  pppp",
		"        ",
		"        ",
		"        ",
		"        ",
		"P P  P P",
		"RN QKBNR",
	})
	after := before
	after[1][1] = board.Empty
	after[0][0] = 'N'

	move, kind, err := Detect(before, after, board.White)
	require.NoError(t, err)
	assert.Equal(t, "b7a8n", move)
	assert.Equal(t, Promotion, kind)
}

func TestDetectInvalidChangeCount(t *testing.T) {
	before := board.DefaultWhite()
	after := before
	// Three unrelated vacated squares match no move shape.
	after[6][0] = board.Empty
	after[6][1] = board.Empty
	after[6][2] = board.Empty

	_, _, err := Detect(before, after, board.White)

	var invalid InvalidChangeCountError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 3, invalid.Changes)
}

func TestDetectRejectsFakeCastlingShape(t *testing.T) {
	before := board.DefaultWhite()
	after := before
	// Two pawns disappear and two reappear elsewhere on different ranks.
	after[6][0] = board.Empty
	after[6][7] = board.Empty
	after[4][0] = 'P'
	after[5][7] = 'P'

	_, _, err := Detect(before, after, board.White)
	var invalid InvalidChangeCountError
	assert.True(t, errors.As(err, &invalid))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Normal", Normal.String())
	assert.Equal(t, "Capture", Capture.String())
	assert.Equal(t, "Castling", Castling.String())
	assert.Equal(t, "EnPassant", EnPassant.String())
	assert.Equal(t, "Promotion", Promotion.String())
}
