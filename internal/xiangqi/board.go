package xiangqi

import (
	"strings"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

var backRank = [Cols]Kind{Chariot, Horse, Elephant, Advisor, General, Advisor, Elephant, Horse, Chariot}

// Board is the 10x9 grid. The zero Piece marks an empty cell.
type Board struct {
	cells [Rows][Cols]Piece
}

// NewBoard returns the standard opening layout: red on rows 0-4, black on rows 5-9.
func NewBoard() *Board {
	board := &Board{}

	board.setup(entity.SideRed, 0, 2, 3)
	board.setup(entity.SideBlack, 9, 7, 6)

	return board
}

func (that *Board) setup(side entity.Side, backRow, cannonRow, soldierRow int) {
	for col, kind := range backRank {
		that.cells[backRow][col] = Piece{Kind: kind, Side: side}
	}

	that.cells[cannonRow][1] = Piece{Kind: Cannon, Side: side}
	that.cells[cannonRow][7] = Piece{Kind: Cannon, Side: side}

	for col := 0; col < Cols; col += 2 {
		that.cells[soldierRow][col] = Piece{Kind: Soldier, Side: side}
	}
}

// PieceAt returns the occupant of pos; false when the cell is empty or off the board.
func (that *Board) PieceAt(pos Position) (Piece, bool) {
	if !pos.InBounds() {
		return Piece{}, false
	}

	piece := that.cells[pos.Row][pos.Col]

	return piece, !piece.IsEmpty()
}

func (that *Board) IsEmpty(pos Position) bool {
	_, ok := that.PieceAt(pos)
	return !ok
}

// Move relocates whatever stands on from to to, overwriting any occupant.
// Legality is the caller's concern.
func (that *Board) Move(from, to Position) {
	if !from.InBounds() || !to.InBounds() {
		return
	}

	that.cells[to.Row][to.Col] = that.cells[from.Row][from.Col]
	that.cells[from.Row][from.Col] = Piece{}
}

func (that *Board) Clone() *Board {
	clone := *that
	return &clone
}

func (that *Board) Equal(other *Board) bool {
	return other != nil && that.cells == other.cells
}

// countBetween counts pieces strictly between two cells on the same row or column.
func (that *Board) countBetween(from, to Position) int {
	dRow, dCol := sign(to.Row-from.Row), sign(to.Col-from.Col)

	count := 0
	for row, col := from.Row+dRow, from.Col+dCol; row != to.Row || col != to.Col; row, col = row+dRow, col+dCol {
		if !that.cells[row][col].IsEmpty() {
			count++
		}
	}

	return count
}

// String encodes every occupied cell as "<row><col><side><kind>", joined by "_".
func (that *Board) String() string {
	parts := make([]string, 0, 32)

	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			piece := that.cells[row][col]
			if piece.IsEmpty() {
				continue
			}

			parts = append(parts, Position{Row: row, Col: col}.String()+piece.Code())
		}
	}

	return strings.Join(parts, "_")
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
