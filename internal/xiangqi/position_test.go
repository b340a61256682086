package xiangqi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
)

func TestParsePosition(t *testing.T) {
	t.Run("Decodes row then column", func(t *testing.T) {
		pos, err := ParsePosition("04")

		require.NoError(t, err)
		assert.Equal(t, Position{Row: 0, Col: 4}, pos)
		assert.Equal(t, "04", pos.String())
	})

	t.Run("Accepts the far corner", func(t *testing.T) {
		pos, err := ParsePosition("98")

		require.NoError(t, err)
		assert.Equal(t, Position{Row: 9, Col: 8}, pos)
	})

	for _, code := range []string{"", "0", "040", "09", "a1", "-1", " 4"} {
		t.Run("Rejects "+code, func(t *testing.T) {
			_, err := ParsePosition(code)

			assert.ErrorIs(t, err, ErrInvalidPosition)
		})
	}
}

func TestParseMove(t *testing.T) {
	t.Run("Splits origin and destination", func(t *testing.T) {
		from, to, err := ParseMove("04_14")

		require.NoError(t, err)
		assert.Equal(t, Position{Row: 0, Col: 4}, from)
		assert.Equal(t, Position{Row: 1, Col: 4}, to)
	})

	for _, move := range []string{"99_99", "04-14", "0414", "04_1", "04_149", "a4_14", "", "04_19"} {
		t.Run("Rejects "+move, func(t *testing.T) {
			_, _, err := ParseMove(move)

			assert.ErrorIs(t, err, apperror.ErrInvalidMoveFormat)
		})
	}
}

func TestBoard_NewBoard(t *testing.T) {
	board := NewBoard()

	cases := map[Position]Piece{
		{Row: 0, Col: 0}: {Kind: Chariot, Side: "red"},
		{Row: 0, Col: 4}: {Kind: General, Side: "red"},
		{Row: 2, Col: 7}: {Kind: Cannon, Side: "red"},
		{Row: 3, Col: 8}: {Kind: Soldier, Side: "red"},
		{Row: 9, Col: 4}: {Kind: General, Side: "black"},
		{Row: 9, Col: 1}: {Kind: Horse, Side: "black"},
		{Row: 7, Col: 1}: {Kind: Cannon, Side: "black"},
		{Row: 6, Col: 0}: {Kind: Soldier, Side: "black"},
	}

	for pos, expected := range cases {
		piece, ok := board.PieceAt(pos)

		require.True(t, ok, "expected a piece on %s", pos)
		assert.Equal(t, expected, piece, "piece on %s", pos)
	}

	for _, pos := range []Position{{Row: 1, Col: 4}, {Row: 4, Col: 0}, {Row: 5, Col: 8}, {Row: 3, Col: 1}} {
		assert.True(t, board.IsEmpty(pos), "expected %s to be empty", pos)
	}

	assert.Len(t, strings.Split(board.String(), "_"), 32)
}

func TestBoard_Move(t *testing.T) {
	t.Run("Relocates the piece", func(t *testing.T) {
		board := NewBoard()

		board.Move(Position{Row: 0, Col: 4}, Position{Row: 1, Col: 4})

		assert.True(t, board.IsEmpty(Position{Row: 0, Col: 4}))
		piece, ok := board.PieceAt(Position{Row: 1, Col: 4})
		require.True(t, ok)
		assert.Equal(t, General, piece.Kind)
	})

	t.Run("Overwrites the occupant", func(t *testing.T) {
		board := NewBoard()

		board.Move(Position{Row: 0, Col: 0}, Position{Row: 9, Col: 0})

		piece, ok := board.PieceAt(Position{Row: 9, Col: 0})
		require.True(t, ok)
		assert.Equal(t, Piece{Kind: Chariot, Side: "red"}, piece)
		assert.Len(t, strings.Split(board.String(), "_"), 31)
	})

	t.Run("Ignores cells off the board", func(t *testing.T) {
		board := NewBoard()

		board.Move(Position{Row: 0, Col: 0}, Position{Row: 10, Col: 0})

		assert.True(t, board.Equal(NewBoard()))
	})
}

func TestBoard_String(t *testing.T) {
	board := &Board{}
	board.cells[0][4] = Piece{Kind: General, Side: "red"}
	board.cells[9][3] = Piece{Kind: Advisor, Side: "black"}

	assert.Equal(t, "04rge_93bad", board.String())
}

func TestBoard_Clone(t *testing.T) {
	board := NewBoard()
	clone := board.Clone()

	clone.Move(Position{Row: 0, Col: 4}, Position{Row: 1, Col: 4})

	assert.False(t, board.Equal(clone))
	assert.True(t, board.Equal(NewBoard()))
}
