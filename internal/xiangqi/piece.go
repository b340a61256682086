package xiangqi

import "github.com/rocketscienceinc/xiangqi-backend/internal/entity"

type Kind int8

const (
	KindNone Kind = iota
	General
	Advisor
	Elephant
	Horse
	Chariot
	Cannon
	Soldier
)

var kindCodes = map[Kind]string{
	General:  "ge",
	Advisor:  "ad",
	Elephant: "el",
	Horse:    "ho",
	Chariot:  "ch",
	Cannon:   "ca",
	Soldier:  "so",
}

var kindNames = map[Kind]string{
	General:  "general",
	Advisor:  "advisor",
	Elephant: "elephant",
	Horse:    "horse",
	Chariot:  "chariot",
	Cannon:   "cannon",
	Soldier:  "soldier",
}

func (that Kind) String() string {
	if name, ok := kindNames[that]; ok {
		return name
	}

	return "unknown"
}

// Piece is identified by kind and side only; it carries no other state.
type Piece struct {
	Kind Kind        `json:"kind"`
	Side entity.Side `json:"side"`
}

func (that Piece) IsEmpty() bool {
	return that.Kind == KindNone
}

// Code is the piece part of the board status encoding, e.g. "rge" for the red general.
func (that Piece) Code() string {
	side := "b"
	if that.Side == entity.SideRed {
		side = "r"
	}

	return side + kindCodes[that.Kind]
}

// IsValidMove reports whether the piece standing on from may move to to.
// Kinds without a rule reject every move.
func (that Piece) IsValidMove(board *Board, from, to Position) bool {
	if board == nil || that.IsEmpty() || !from.InBounds() || !to.InBounds() || from == to {
		return false
	}

	if target, ok := board.PieceAt(to); ok && target.Side == that.Side {
		return false
	}

	rule, ok := rules[that.Kind]
	if !ok {
		return false
	}

	return rule(board, that.Side, from, to)
}
