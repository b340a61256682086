package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

// RoomsChannel carries every event; RoomChannel(id) only the events of one room.
const RoomsChannel = "rooms"

func RoomChannel(roomID int) string {
	return "room:" + strconv.Itoa(roomID)
}

type EventRepository interface {
	Publish(ctx context.Context, event *entity.Event) error
}

type dbEvent struct {
	client *redis.Client
}

func NewEventRepository(client *redis.Client) EventRepository {
	return &dbEvent{
		client: client,
	}
}

func (that *dbEvent) Publish(ctx context.Context, event *entity.Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := that.client.Pipeline()
	pipe.Publish(ctx, RoomChannel(event.RoomID), eventJSON)
	pipe.Publish(ctx, RoomsChannel, eventJSON)

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// MultiPublisher hands every event to all of its publishers and joins their errors.
type MultiPublisher []EventRepository

func (that MultiPublisher) Publish(ctx context.Context, event *entity.Event) error {
	var errs []error
	for _, publisher := range that {
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
