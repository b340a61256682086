package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/room"
)

const (
	DefaultLockTimeout = 5 * time.Second
	MaxChatLength      = 500
)

type publisher interface {
	Publish(ctx context.Context, event *entity.Event) error
}

// Matchmaker assigns players to rooms and drives the room lifecycle.
//
// Membership changes (join, leave, kick, watch) run under the registry lock and then the
// room lock, so a kick can never interleave with a join of the same player. Readiness
// and moves use the registry only to find the room.
type Matchmaker struct {
	logger      *slog.Logger
	registry    *room.Registry
	publisher   publisher
	lockTimeout time.Duration
}

// NewMatchmaker bounds every lock wait by lockTimeout, DefaultLockTimeout when it is not positive.
func NewMatchmaker(logger *slog.Logger, publisher publisher, lockTimeout time.Duration) *Matchmaker {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	return &Matchmaker{
		logger:      logger,
		registry:    room.NewRegistry(),
		publisher:   publisher,
		lockTimeout: lockTimeout,
	}
}

// JoinAvailableRoom seats player in the lowest-id room that has a free seat and no game
// running, creating a room when there is none. A player already seated gets their room back.
func (that *Matchmaker) JoinAvailableRoom(ctx context.Context, player *entity.Player) (entity.RoomView, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var (
		view    entity.RoomView
		changed bool
	)

	err := that.withRegistry(ctx, func() error {
		if id, ok := that.registry.SeatOf(player.Username); ok {
			current, _ := that.registry.Get(id)

			return that.withRoom(ctx, current, func() error {
				view = current.View()

				return nil
			})
		}

		target, err := that.findAvailable(ctx, player.Username)
		if err != nil {
			return err
		}

		if target == nil {
			target = that.registry.Create()
		}

		return that.withRoom(ctx, target, func() error {
			if _, err := target.AddPlayer(player); err != nil {
				return err
			}

			that.registry.BindSeat(player.Username, target.ID())
			view = target.View()
			changed = true

			return nil
		})
	})
	if err != nil {
		return entity.RoomView{}, fmt.Errorf("failed to join available room: %w", err)
	}

	if changed {
		that.logger.With("method", "JoinAvailableRoom").
			Info("player joined room", "username", player.Username, "room_id", view.ID)
		that.publish(ctx, roomUpdated(view, player.Username))
	}

	return view, nil
}

// JoinSpecificRoom seats player in the room with the given id.
func (that *Matchmaker) JoinSpecificRoom(ctx context.Context, player *entity.Player, roomID int) (entity.RoomView, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var (
		view    entity.RoomView
		changed bool
	)

	err := that.withRegistry(ctx, func() error {
		target, err := that.getRoom(roomID)
		if err != nil {
			return err
		}

		if id, ok := that.registry.SeatOf(player.Username); ok && id != roomID {
			return fmt.Errorf("%w: room %d", apperror.ErrAlreadyInRoom, id)
		}

		return that.withRoom(ctx, target, func() error {
			if target.Seat(player.Username) == nil {
				if _, err := target.AddPlayer(player); err != nil {
					return err
				}

				that.registry.BindSeat(player.Username, roomID)
				changed = true
			}

			view = target.View()

			return nil
		})
	})
	if err != nil {
		return entity.RoomView{}, fmt.Errorf("failed to join room %d: %w", roomID, err)
	}

	if changed {
		that.logger.With("method", "JoinSpecificRoom").
			Info("player joined room", "username", player.Username, "room_id", roomID)
		that.publish(ctx, roomUpdated(view, player.Username))
	}

	return view, nil
}

// LeaveRoom frees the player's seat in the room. Leaving a running game forfeits it.
// It reports false when the player was not seated there.
func (that *Matchmaker) LeaveRoom(ctx context.Context, player *entity.Player, roomID int) (bool, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var events []*entity.Event

	err := that.withRegistry(ctx, func() error {
		target, err := that.getRoom(roomID)
		if err != nil {
			return err
		}

		return that.withRoom(ctx, target, func() error {
			events, err = that.abandon(target, player.Username, entity.ReasonLeave)

			return err
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to leave room %d: %w", roomID, err)
	}

	that.publish(ctx, events...)

	return len(events) > 0, nil
}

// KickPlayer removes the player from every room they sit in or watch. The locks of all those
// rooms are taken before anything changes, so a busy room fails the kick as a whole.
func (that *Matchmaker) KickPlayer(ctx context.Context, player *entity.Player) (bool, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var events []*entity.Event

	err := that.withRegistry(ctx, func() error {
		targets := that.registry.RoomsOf(player.Username)

		release, err := that.acquireAll(ctx, targets)
		if err != nil {
			return err
		}
		defer release()

		for _, current := range targets {
			removed, err := that.abandon(current, player.Username, entity.ReasonKick)
			events = append(events, removed...)

			if err != nil {
				return err
			}

			if current.RemoveViewer(player) {
				that.registry.UnbindViewer(player.Username, current.ID())
				events = append(events, roomUpdated(current.View(), player.Username))
				that.registry.Retire(current)
			}
		}

		return nil
	})

	if len(events) > 0 {
		that.logger.With("method", "KickPlayer").Info("player kicked", "username", player.Username)
	}

	// whatever was committed is reported, even when a later room failed
	that.publish(ctx, events...)

	if err != nil {
		return len(events) > 0, fmt.Errorf("failed to kick player: %w", err)
	}

	return len(events) > 0, nil
}

// SetReady updates the player's ready flag and starts the game once both players are ready.
// It reports whether this call started the game.
func (that *Matchmaker) SetReady(ctx context.Context, username string, roomID int, ready bool) (bool, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	target, err := that.lookup(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("failed to set ready: %w", err)
	}

	var (
		view    entity.RoomView
		started bool
	)

	err = that.withRoom(ctx, target, func() error {
		if !target.SetReady(username, ready) {
			return apperror.ErrPlayerNotInRoom
		}

		if started, err = target.TryStart(); err != nil {
			return err
		}

		view = target.View()

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to set ready in room %d: %w", roomID, err)
	}

	events := []*entity.Event{roomUpdated(view, username)}
	if started {
		that.logger.With("method", "SetReady").Info("game started", "room_id", roomID, "game_id", view.GameID)
		events = append(events, gameStarted(view))
	}

	that.publish(ctx, events...)

	return started, nil
}

// StartGame starts the room's game if both seats are taken and ready.
func (that *Matchmaker) StartGame(ctx context.Context, roomID int) (bool, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	target, err := that.lookup(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("failed to start game: %w", err)
	}

	var (
		view    entity.RoomView
		started bool
	)

	err = that.withRoom(ctx, target, func() error {
		if started, err = target.TryStart(); err != nil {
			return err
		}

		view = target.View()

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to start game in room %d: %w", roomID, err)
	}

	if started {
		that.publish(ctx, gameStarted(view))
	}

	return started, nil
}

// GetAvailableRoom previews the room JoinAvailableRoom would pick. It reports false
// when a join would open a new room.
func (that *Matchmaker) GetAvailableRoom(ctx context.Context) (entity.RoomView, bool, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var (
		view  entity.RoomView
		found bool
	)

	err := that.withRegistry(ctx, func() error {
		target, err := that.findAvailable(ctx, "")
		if err != nil || target == nil {
			return err
		}

		found = true

		return that.withRoom(ctx, target, func() error {
			view = target.View()

			return nil
		})
	})
	if err != nil {
		return entity.RoomView{}, false, fmt.Errorf("failed to get available room: %w", err)
	}

	return view, found, nil
}

// DoMove plays moveText for username in the room's running game.
func (that *Matchmaker) DoMove(ctx context.Context, username string, roomID int, moveText string) (entity.RoomView, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	target, err := that.lookup(ctx, roomID)
	if err != nil {
		return entity.RoomView{}, fmt.Errorf("failed to do move: %w", err)
	}

	var view entity.RoomView

	err = that.withRoom(ctx, target, func() error {
		if err := target.Move(username, moveText); err != nil {
			return err
		}

		view = target.View()

		return nil
	})
	if err != nil {
		return entity.RoomView{}, fmt.Errorf("failed to do move in room %d: %w", roomID, err)
	}

	that.publish(ctx, &entity.Event{
		Type:        entity.EventGameMoved,
		RoomID:      view.ID,
		GameID:      view.GameID,
		Username:    username,
		Move:        moveText,
		BoardStatus: view.BoardStatus,
		NextTurn:    view.NextTurn,
	})

	return view, nil
}

// Watch adds viewer to the room's audience. Seated players cannot watch.
func (that *Matchmaker) Watch(ctx context.Context, viewer *entity.Player, roomID int) (entity.RoomView, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var view entity.RoomView

	err := that.withRegistry(ctx, func() error {
		target, err := that.getRoom(roomID)
		if err != nil {
			return err
		}

		if id, ok := that.registry.SeatOf(viewer.Username); ok {
			return fmt.Errorf("%w: room %d", apperror.ErrAlreadyInRoom, id)
		}

		return that.withRoom(ctx, target, func() error {
			if err := target.AddViewer(viewer); err != nil {
				return err
			}

			that.registry.BindViewer(viewer.Username, roomID)
			view = target.View()

			return nil
		})
	})
	if err != nil {
		return entity.RoomView{}, fmt.Errorf("failed to watch room %d: %w", roomID, err)
	}

	that.publish(ctx, roomUpdated(view, viewer.Username))

	return view, nil
}

func (that *Matchmaker) Unwatch(ctx context.Context, viewer *entity.Player, roomID int) (bool, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var (
		view    entity.RoomView
		removed bool
	)

	err := that.withRegistry(ctx, func() error {
		target, err := that.getRoom(roomID)
		if err != nil {
			return err
		}

		return that.withRoom(ctx, target, func() error {
			if removed = target.RemoveViewer(viewer); removed {
				that.registry.UnbindViewer(viewer.Username, roomID)
				view = target.View()
				that.registry.Retire(target)
			}

			return nil
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to unwatch room %d: %w", roomID, err)
	}

	if removed {
		that.publish(ctx, roomUpdated(view, viewer.Username))
	}

	return removed, nil
}

// Chat relays message from a player seated in or watching the room.
func (that *Matchmaker) Chat(ctx context.Context, username string, roomID int, message string) error {
	message = strings.TrimSpace(message)
	if message == "" || utf8.RuneCountInString(message) > MaxChatLength {
		return fmt.Errorf("%w: 1 to %d characters", apperror.ErrInvalidChatMessage, MaxChatLength)
	}

	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	target, err := that.lookup(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to chat: %w", err)
	}

	var gameID string

	err = that.withRoom(ctx, target, func() error {
		if !target.Has(username) {
			return apperror.ErrPlayerNotInRoom
		}

		if game := target.Game(); game != nil {
			gameID = game.ID()
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to chat in room %d: %w", roomID, err)
	}

	that.publish(ctx, &entity.Event{
		Type:     entity.EventRoomChat,
		RoomID:   roomID,
		GameID:   gameID,
		Username: username,
		Message:  message,
	})

	return nil
}

func (that *Matchmaker) GetRoom(ctx context.Context, roomID int) (entity.RoomView, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	target, err := that.lookup(ctx, roomID)
	if err != nil {
		return entity.RoomView{}, fmt.Errorf("failed to get room: %w", err)
	}

	var view entity.RoomView

	err = that.withRoom(ctx, target, func() error {
		view = target.View()

		return nil
	})
	if err != nil {
		return entity.RoomView{}, fmt.Errorf("failed to get room %d: %w", roomID, err)
	}

	return view, nil
}

// ListRooms returns every live room ordered by id.
func (that *Matchmaker) ListRooms(ctx context.Context) ([]entity.RoomView, error) {
	ctx, cancel := that.withTimeout(ctx)
	defer cancel()

	var views []entity.RoomView

	err := that.withRegistry(ctx, func() error {
		rooms := that.registry.Rooms()
		views = make([]entity.RoomView, 0, len(rooms))

		for _, current := range rooms {
			err := that.withRoom(ctx, current, func() error {
				views = append(views, current.View())

				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return views, nil
}

// abandon frees username's seat in target and retires the room when nothing is left in it.
// Both locks are held by the caller.
func (that *Matchmaker) abandon(target *room.Room, username, reason string) ([]*entity.Event, error) {
	removed, forfeit, err := target.Abandon(username, reason)
	if err != nil || !removed {
		return nil, err
	}

	that.registry.UnbindSeat(username)

	var events []*entity.Event
	if forfeit != nil {
		that.logger.With("method", "abandon").
			Info("game forfeited", "room_id", target.ID(), "game_id", forfeit.GameID, "loser", username, "reason", reason)

		events = append(events, &entity.Event{
			Type:     entity.EventGameForfeit,
			RoomID:   target.ID(),
			GameID:   forfeit.GameID,
			Username: username,
			Winner:   forfeit.Winner,
			Reason:   reason,
		})
	}

	events = append(events, roomUpdated(target.View(), username))

	if that.registry.Retire(target) {
		that.logger.With("method", "abandon").Debug("room retired", "room_id", target.ID())
	}

	return events, nil
}

// findAvailable returns the lowest-id room with a free seat and no game running, skipping rooms
// username is already part of. The registry lock is held by the caller.
func (that *Matchmaker) findAvailable(ctx context.Context, username string) (*room.Room, error) {
	for _, current := range that.registry.Rooms() {
		var available bool

		err := that.withRoom(ctx, current, func() error {
			available = current.HasCapacity() && !current.IsPlaying() && !current.Has(username)

			return nil
		})
		if err != nil {
			return nil, err
		}

		if available {
			return current, nil
		}
	}

	return nil, nil
}

// lookup finds a room holding the registry lock only for the lookup itself.
func (that *Matchmaker) lookup(ctx context.Context, roomID int) (*room.Room, error) {
	var target *room.Room

	err := that.withRegistry(ctx, func() error {
		var err error
		target, err = that.getRoom(roomID)

		return err
	})

	return target, err
}

func (that *Matchmaker) getRoom(roomID int) (*room.Room, error) {
	target, ok := that.registry.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", apperror.ErrRoomNotFound, roomID)
	}

	return target, nil
}

func (that *Matchmaker) withRegistry(ctx context.Context, fn func() error) error {
	if err := that.registry.Acquire(ctx); err != nil {
		return err
	}
	defer that.registry.Release()

	return fn()
}

func (that *Matchmaker) withRoom(ctx context.Context, target *room.Room, fn func() error) error {
	if err := target.Acquire(ctx); err != nil {
		return err
	}
	defer target.Release()

	return fn()
}

// acquireAll takes the locks of targets in id order. On failure nothing stays locked.
func (that *Matchmaker) acquireAll(ctx context.Context, targets []*room.Room) (func(), error) {
	release := func(locked []*room.Room) {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Release()
		}
	}

	for i, target := range targets {
		if err := target.Acquire(ctx); err != nil {
			release(targets[:i])

			return nil, err
		}
	}

	return func() { release(targets) }, nil
}

func (that *Matchmaker) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, that.lockTimeout)
}

// publish is called after the locks are released. Delivery failures are only logged.
func (that *Matchmaker) publish(ctx context.Context, events ...*entity.Event) {
	log := that.logger.With("method", "publish")
	ctx = context.WithoutCancel(ctx)

	for _, event := range events {
		if err := that.publisher.Publish(ctx, event); err != nil {
			log.Error("failed to publish event", "type", event.Type, "room_id", event.RoomID, "error", err)
		}
	}
}

func roomUpdated(view entity.RoomView, username string) *entity.Event {
	return &entity.Event{
		Type:     entity.EventRoomUpdated,
		RoomID:   view.ID,
		GameID:   view.GameID,
		Username: username,
		Room:     &view,
	}
}

func gameStarted(view entity.RoomView) *entity.Event {
	return &entity.Event{
		Type:        entity.EventGameStarted,
		RoomID:      view.ID,
		GameID:      view.GameID,
		BoardStatus: view.BoardStatus,
		NextTurn:    view.NextTurn,
		Room:        &view,
	}
}
