package room

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/xiangqi"
)

const Capacity = 2

// Forfeit records a game that ended because a seated player went away.
type Forfeit struct {
	GameID string
	xiangqi.Result
}

// Room holds up to two seated players, any number of viewers and at most one game.
// Methods do not lock; callers hold the room lock through Acquire/Release.
type Room struct {
	id   int
	lock *Lock

	red     *entity.Player
	black   *entity.Player
	viewers map[string]*entity.Player
	game    *xiangqi.PlayingGame
}

func New(id int) *Room {
	return &Room{
		id:      id,
		lock:    NewLock(),
		viewers: make(map[string]*entity.Player),
	}
}

func (that *Room) ID() int {
	return that.id
}

func (that *Room) Acquire(ctx context.Context) error {
	if err := that.lock.Acquire(ctx); err != nil {
		return fmt.Errorf("room %d: %w", that.id, err)
	}

	return nil
}

func (that *Room) Release() {
	that.lock.Release()
}

// AddPlayer seats player on the first free side, red before black.
// The room keeps its own copy of the player.
func (that *Room) AddPlayer(player *entity.Player) (entity.Side, error) {
	if that.Has(player.Username) {
		return entity.SideNone, apperror.ErrAlreadyInRoom
	}

	seated := *player
	seated.Ready = false

	switch {
	case that.red == nil:
		seated.Side = entity.SideRed
		that.red = &seated
	case that.black == nil:
		seated.Side = entity.SideBlack
		that.black = &seated
	default:
		return entity.SideNone, apperror.ErrRoomFull
	}

	return seated.Side, nil
}

// RemovePlayer frees the player's seat. It reports false when the player was not seated.
func (that *Room) RemovePlayer(player *entity.Player) bool {
	switch {
	case player.Equal(that.red):
		that.red = nil
	case player.Equal(that.black):
		that.black = nil
	default:
		return false
	}

	return true
}

// Abandon removes a seated player. A game in progress is forfeited to the opponent,
// cleared from the room, and the remaining player has to get ready again.
func (that *Room) Abandon(username, reason string) (bool, *Forfeit, error) {
	player := that.Seat(username)
	if player == nil {
		return false, nil, nil
	}

	var forfeit *Forfeit
	if that.IsPlaying() {
		result, err := that.game.Forfeit(username, reason)
		if err != nil {
			return false, nil, fmt.Errorf("failed to forfeit game: %w", err)
		}

		forfeit = &Forfeit{GameID: that.game.ID(), Result: result}
	}

	that.RemovePlayer(player)

	if forfeit != nil {
		that.game = nil

		for _, seated := range that.seats() {
			seated.Ready = false
		}
	}

	return true, forfeit, nil
}

func (that *Room) AddViewer(viewer *entity.Player) error {
	if that.Seat(viewer.Username) != nil {
		return apperror.ErrAlreadyInRoom
	}

	watching := *viewer
	watching.Side = entity.SideNone
	watching.Ready = false
	that.viewers[viewer.Username] = &watching

	return nil
}

func (that *Room) RemoveViewer(viewer *entity.Player) bool {
	if _, ok := that.viewers[viewer.Username]; !ok {
		return false
	}

	delete(that.viewers, viewer.Username)

	return true
}

// SetReady updates the ready flag of a seated player. It reports false when username is not seated.
func (that *Room) SetReady(username string, ready bool) bool {
	player := that.Seat(username)
	if player == nil {
		return false
	}

	player.Ready = ready

	return true
}

func (that *Room) CountReady() int {
	count := 0
	for _, player := range that.seats() {
		if player.Ready {
			count++
		}
	}

	return count
}

// TryStart starts a new game when both seats are taken and both players are ready.
// It reports whether a game was started by this call.
func (that *Room) TryStart() (bool, error) {
	if that.IsPlaying() || that.CurrentPlayers() < Capacity || that.CountReady() < Capacity {
		return false, nil
	}

	game := xiangqi.NewPlayingGame(that.red, that.black)
	if err := game.Start(); err != nil {
		return false, fmt.Errorf("failed to start game: %w", err)
	}

	that.game = game

	return true, nil
}

// Move plays moveText for the seated player username.
func (that *Room) Move(username, moveText string) error {
	player := that.Seat(username)
	if player == nil {
		return apperror.ErrPlayerNotInRoom
	}

	if that.game == nil {
		return apperror.ErrGameIsNotStarted
	}

	return that.game.DoMove(player, moveText)
}

func (that *Room) Seat(username string) *entity.Player {
	for _, player := range that.seats() {
		if player.Username == username {
			return player
		}
	}

	return nil
}

func (that *Room) IsViewer(username string) bool {
	_, ok := that.viewers[username]

	return ok
}

// Has reports whether username is seated or watching here.
func (that *Room) Has(username string) bool {
	return that.Seat(username) != nil || that.IsViewer(username)
}

func (that *Room) CurrentPlayers() int {
	return len(that.seats())
}

func (that *Room) HasCapacity() bool {
	return that.CurrentPlayers() < Capacity
}

func (that *Room) IsPlaying() bool {
	return that.game != nil && that.game.IsPlaying()
}

// IsEmpty reports whether nobody is seated or watching and no game is running.
func (that *Room) IsEmpty() bool {
	return that.CurrentPlayers() == 0 && len(that.viewers) == 0 && !that.IsPlaying()
}

func (that *Room) Game() *xiangqi.PlayingGame {
	return that.game
}

func (that *Room) View() entity.RoomView {
	view := entity.RoomView{
		ID:             that.id,
		RedPlayer:      copyPlayer(that.red),
		BlackPlayer:    copyPlayer(that.black),
		Viewers:        make([]*entity.Player, 0, len(that.viewers)),
		CurrentPlayers: that.CurrentPlayers(),
		Playing:        that.IsPlaying(),
	}

	for _, viewer := range that.viewers {
		view.Viewers = append(view.Viewers, copyPlayer(viewer))
	}

	slices.SortFunc(view.Viewers, func(a, b *entity.Player) int {
		return strings.Compare(a.Username, b.Username)
	})

	if that.game != nil {
		view.GameID = that.game.ID()
		view.BoardStatus = that.game.BoardStatus()
		view.Moves = that.game.Moves()

		if next := that.game.NextTurn(); next != nil {
			view.NextTurn = next.Username
		}
	}

	return view
}

func (that *Room) seats() []*entity.Player {
	seats := make([]*entity.Player, 0, Capacity)
	if that.red != nil {
		seats = append(seats, that.red)
	}

	if that.black != nil {
		seats = append(seats, that.black)
	}

	return seats
}

func copyPlayer(player *entity.Player) *entity.Player {
	if player == nil {
		return nil
	}

	cp := *player

	return &cp
}
