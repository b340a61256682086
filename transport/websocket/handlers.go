package websocket

import (
	"context"
	"errors"
)

var (
	errMoveRequired    = errors.New("move is required")
	errMessageRequired = errors.New("message is required")
)

func (that *Hub) handleReady(ctx context.Context, cl *client, payload *Payload) error {
	ready := true
	if payload.Ready != nil {
		ready = *payload.Ready
	}

	_, err := that.manager.SetReady(ctx, cl.player.Username, cl.roomID, ready)

	return err
}

func (that *Hub) handleLeave(ctx context.Context, cl *client, _ *Payload) error {
	_, err := that.manager.LeaveRoom(ctx, cl.player, cl.roomID)

	return err
}

func (that *Hub) handleMove(ctx context.Context, cl *client, payload *Payload) error {
	if payload.Move == "" {
		return errMoveRequired
	}

	_, err := that.manager.DoMove(ctx, cl.player.Username, cl.roomID, payload.Move)

	return err
}

func (that *Hub) handleChat(ctx context.Context, cl *client, payload *Payload) error {
	if payload.Message == "" {
		return errMessageRequired
	}

	return that.manager.Chat(ctx, cl.player.Username, cl.roomID, payload.Message)
}
