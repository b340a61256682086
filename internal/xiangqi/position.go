package xiangqi

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
)

const (
	Rows = 10
	Cols = 9
)

var (
	ErrInvalidPosition = errors.New("invalid position")

	moveFormat = regexp.MustCompile(`^[0-9][0-8]_[0-9][0-8]$`)
)

// Position is a board cell. Row 0 is red's back rank, Col 0 the leftmost file.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ParsePosition decodes a two digit cell code, row first: "04" is row 0, column 4.
func ParsePosition(code string) (Position, error) {
	if len(code) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, code)
	}

	row, col := int(code[0])-'0', int(code[1])-'0'
	pos := Position{Row: row, Col: col}
	if !pos.InBounds() {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, code)
	}

	return pos, nil
}

// ParseMove splits a move string like "04_14" into its origin and destination.
func ParseMove(move string) (Position, Position, error) {
	if !moveFormat.MatchString(move) {
		return Position{}, Position{}, fmt.Errorf("%w: %q", apperror.ErrInvalidMoveFormat, move)
	}

	from, err := ParsePosition(move[:2])
	if err != nil {
		return Position{}, Position{}, fmt.Errorf("%w: %w", apperror.ErrInvalidMoveFormat, err)
	}

	to, err := ParsePosition(move[3:])
	if err != nil {
		return Position{}, Position{}, fmt.Errorf("%w: %w", apperror.ErrInvalidMoveFormat, err)
	}

	return from, to, nil
}

func (that Position) InBounds() bool {
	return that.Row >= 0 && that.Row < Rows && that.Col >= 0 && that.Col < Cols
}

func (that Position) String() string {
	return fmt.Sprintf("%d%d", that.Row, that.Col)
}
