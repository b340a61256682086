package xiangqi

import "github.com/rocketscienceinc/xiangqi-backend/internal/entity"

// rule checks the geometry of one piece kind. Bounds, identity and own-piece
// captures are already rejected by Piece.IsValidMove.
type rule func(board *Board, side entity.Side, from, to Position) bool

var rules = map[Kind]rule{
	General:  generalMove,
	Advisor:  advisorMove,
	Elephant: elephantMove,
	Horse:    horseMove,
	Chariot:  chariotMove,
	Cannon:   cannonMove,
	Soldier:  soldierMove,
}

func generalMove(board *Board, side entity.Side, from, to Position) bool {
	dRow, dCol := abs(to.Row-from.Row), abs(to.Col-from.Col)
	if dRow+dCol == 1 {
		return inPalace(side, to)
	}

	// flying general: capture the other general along an open file
	target, ok := board.PieceAt(to)

	return ok && target.Kind == General && from.Col == to.Col && board.countBetween(from, to) == 0
}

func advisorMove(_ *Board, side entity.Side, from, to Position) bool {
	return abs(to.Row-from.Row) == 1 && abs(to.Col-from.Col) == 1 && inPalace(side, to)
}

func elephantMove(board *Board, side entity.Side, from, to Position) bool {
	if abs(to.Row-from.Row) != 2 || abs(to.Col-from.Col) != 2 {
		return false
	}

	if !inOwnHalf(side, to) {
		return false
	}

	eye := Position{Row: (from.Row + to.Row) / 2, Col: (from.Col + to.Col) / 2}

	return board.IsEmpty(eye)
}

func horseMove(board *Board, _ entity.Side, from, to Position) bool {
	dRow, dCol := to.Row-from.Row, to.Col-from.Col

	var leg Position
	switch {
	case abs(dRow) == 2 && abs(dCol) == 1:
		leg = Position{Row: from.Row + sign(dRow), Col: from.Col}
	case abs(dRow) == 1 && abs(dCol) == 2:
		leg = Position{Row: from.Row, Col: from.Col + sign(dCol)}
	default:
		return false
	}

	return board.IsEmpty(leg)
}

func chariotMove(board *Board, _ entity.Side, from, to Position) bool {
	if from.Row != to.Row && from.Col != to.Col {
		return false
	}

	return board.countBetween(from, to) == 0
}

func cannonMove(board *Board, _ entity.Side, from, to Position) bool {
	if from.Row != to.Row && from.Col != to.Col {
		return false
	}

	screens := board.countBetween(from, to)
	if board.IsEmpty(to) {
		return screens == 0
	}

	return screens == 1
}

func soldierMove(_ *Board, side entity.Side, from, to Position) bool {
	dRow, dCol := to.Row-from.Row, to.Col-from.Col

	if dCol == 0 && dRow == forward(side) {
		return true
	}

	return dRow == 0 && abs(dCol) == 1 && !inOwnHalf(side, from)
}

func inPalace(side entity.Side, pos Position) bool {
	if pos.Col < 3 || pos.Col > 5 {
		return false
	}

	if side == entity.SideRed {
		return pos.Row <= 2
	}

	return pos.Row >= 7
}

// inOwnHalf reports whether pos is on side's bank of the river.
func inOwnHalf(side entity.Side, pos Position) bool {
	if side == entity.SideRed {
		return pos.Row <= 4
	}

	return pos.Row >= 5
}

func forward(side entity.Side) int {
	if side == entity.SideRed {
		return 1
	}

	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
