package xiangqi

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

const (
	StatusNotStarted Status = "not_started"
	StatusPlaying    Status = "playing"
	StatusFinished   Status = "finished"
)

type Status string

// Result describes how a finished game ended.
type Result struct {
	Winner string `json:"winner,omitempty"`
	Loser  string `json:"loser,omitempty"`
	Reason string `json:"reason"`
}

// PlayingGame is the turn engine of one match. All methods are safe for concurrent use;
// moves are applied one at a time.
type PlayingGame struct {
	mu sync.Mutex

	id      string
	red     *entity.Player
	black   *entity.Player
	board   *Board
	status  Status
	redTurn bool
	moves   []string
	result  *Result
}

func NewPlayingGame(red, black *entity.Player) *PlayingGame {
	return &PlayingGame{
		id:     uuid.NewString(),
		red:    red,
		black:  black,
		status: StatusNotStarted,
	}
}

// Start sets up the opening position with red to move.
func (that *PlayingGame) Start() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch that.status {
	case StatusPlaying:
		return apperror.ErrGameAlreadyStarted
	case StatusFinished:
		return apperror.ErrGameFinished
	}

	that.board = NewBoard()
	that.redTurn = true
	that.moves = make([]string, 0, 64)
	that.status = StatusPlaying

	return nil
}

// DoMove validates and applies a move string such as "04_14" for player.
// A rejected move leaves the game untouched.
func (that *PlayingGame) DoMove(player *entity.Player, move string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmPlaying(); err != nil {
		return err
	}

	from, to, err := ParseMove(move)
	if err != nil {
		return err
	}

	side := that.sideOf(player)
	if side == entity.SideNone {
		return apperror.ErrPlayerNotInRoom
	}

	if side != that.sideToMove() {
		return fmt.Errorf("%w: %s", apperror.ErrNotYourTurn, player.Username)
	}

	piece, ok := that.board.PieceAt(from)
	if !ok || piece.Side != side || !piece.IsValidMove(that.board, from, to) {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidMove, move)
	}

	that.board.Move(from, to)
	that.redTurn = !that.redTurn
	that.moves = append(that.moves, move)

	return nil
}

// IsOver reports whether the position itself ends the game. Terminal positions are not
// detected, so games end only through Finish.
func (that *PlayingGame) IsOver() bool {
	return false
}

// Finish ends a playing game with the given result.
func (that *PlayingGame) Finish(result Result) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmPlaying(); err != nil {
		return err
	}

	that.status = StatusFinished
	that.result = &result

	return nil
}

// Forfeit finishes the game against loser and in favor of the opponent.
func (that *PlayingGame) Forfeit(loser, reason string) (Result, error) {
	result := Result{Loser: loser, Reason: reason}

	switch loser {
	case that.red.Username:
		result.Winner = that.black.Username
	case that.black.Username:
		result.Winner = that.red.Username
	default:
		return Result{}, apperror.ErrPlayerNotInRoom
	}

	if err := that.Finish(result); err != nil {
		return Result{}, err
	}

	return result, nil
}

func (that *PlayingGame) confirmPlaying() error {
	switch that.status {
	case StatusPlaying:
		return nil
	case StatusFinished:
		return apperror.ErrGameFinished
	default:
		return apperror.ErrGameIsNotStarted
	}
}

func (that *PlayingGame) sideOf(player *entity.Player) entity.Side {
	switch {
	case player.Equal(that.red):
		return entity.SideRed
	case player.Equal(that.black):
		return entity.SideBlack
	default:
		return entity.SideNone
	}
}

func (that *PlayingGame) sideToMove() entity.Side {
	if that.redTurn {
		return entity.SideRed
	}

	return entity.SideBlack
}

func (that *PlayingGame) ID() string {
	return that.id
}

func (that *PlayingGame) Red() *entity.Player {
	return that.red
}

func (that *PlayingGame) Black() *entity.Player {
	return that.black
}

func (that *PlayingGame) Status() Status {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

func (that *PlayingGame) IsPlaying() bool {
	return that.Status() == StatusPlaying
}

func (that *PlayingGame) IsRedTurn() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.redTurn
}

// NextTurn returns the player to move, or nil when the game is not playing.
func (that *PlayingGame) NextTurn() *entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status != StatusPlaying {
		return nil
	}

	if that.redTurn {
		return that.red
	}

	return that.black
}

// Moves returns a copy of the accepted moves in order.
func (that *PlayingGame) Moves() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	moves := make([]string, len(that.moves))
	copy(moves, that.moves)

	return moves
}

// Board returns a copy of the current board, nil before Start.
func (that *PlayingGame) Board() *Board {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.board == nil {
		return nil
	}

	return that.board.Clone()
}

func (that *PlayingGame) BoardStatus() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.board == nil {
		return ""
	}

	return that.board.String()
}

func (that *PlayingGame) Result() *Result {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.result == nil {
		return nil
	}

	result := *that.result

	return &result
}

// Replay rebuilds a board from the opening position by applying moves in order,
// checking each one against the side to move.
func Replay(moves []string) (*Board, error) {
	board := NewBoard()
	side := entity.SideRed

	for i, move := range moves {
		from, to, err := ParseMove(move)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}

		piece, ok := board.PieceAt(from)
		if !ok || piece.Side != side || !piece.IsValidMove(board, from, to) {
			return nil, fmt.Errorf("move %d: %w: %s", i, apperror.ErrInvalidMove, move)
		}

		board.Move(from, to)
		side = side.Opponent()
	}

	return board, nil
}
