package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

type mockRoomManager struct {
	mock.Mock
}

func (that *mockRoomManager) SetReady(ctx context.Context, username string, roomID int, ready bool) (bool, error) {
	args := that.Called(ctx, username, roomID, ready)

	return args.Bool(0), args.Error(1)
}

func (that *mockRoomManager) LeaveRoom(ctx context.Context, player *entity.Player, roomID int) (bool, error) {
	args := that.Called(ctx, player, roomID)

	return args.Bool(0), args.Error(1)
}

func (that *mockRoomManager) KickPlayer(ctx context.Context, player *entity.Player) (bool, error) {
	args := that.Called(ctx, player)

	return args.Bool(0), args.Error(1)
}

func (that *mockRoomManager) DoMove(ctx context.Context, username string, roomID int, moveText string) (entity.RoomView, error) {
	args := that.Called(ctx, username, roomID, moveText)

	view, _ := args.Get(0).(entity.RoomView)

	return view, args.Error(1)
}

func (that *mockRoomManager) Chat(ctx context.Context, username string, roomID int, message string) error {
	return that.Called(ctx, username, roomID, message).Error(0)
}

const testRoomID = 1

func newTestHub(t *testing.T, manager *mockRoomManager) (*Hub, *websocket.Conn) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	hub.SetRoomManager(manager)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		hub.Stream(c, &entity.Player{Username: c.Query("username")}, testRoomID)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?username=alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.Connections(testRoomID) == 1
	}, time.Second, 5*time.Millisecond)

	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (Message, Payload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	var payload Payload
	require.NoError(t, json.Unmarshal(message.Payload, &payload))

	return message, payload
}

func TestHub_Publish(t *testing.T) {
	// Given: a socket open on room 1
	manager := &mockRoomManager{}
	manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	hub, conn := newTestHub(t, manager)
	defer conn.Close()

	// When: an event for the room is published, and one for another room
	require.NoError(t, hub.Publish(context.Background(), &entity.Event{Type: entity.EventRoomUpdated, RoomID: 2}))
	require.NoError(t, hub.Publish(context.Background(), &entity.Event{
		Type:     entity.EventGameMoved,
		RoomID:   testRoomID,
		Move:     "21_24",
		NextTurn: "bob",
	}))

	// Then: only the room's event arrives
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, actionEvent, message.Action)

	var event entity.Event
	require.NoError(t, json.Unmarshal(message.Payload, &event))
	assert.Equal(t, entity.EventGameMoved, event.Type)
	assert.Equal(t, "21_24", event.Move)
	assert.Equal(t, "bob", event.NextTurn)
}

func TestHub_Actions(t *testing.T) {
	t.Run("Move is forwarded", func(t *testing.T) {
		manager := &mockRoomManager{}
		moved := make(chan struct{})
		manager.On("DoMove", mock.Anything, "alice", testRoomID, "21_24").
			Return(entity.RoomView{ID: testRoomID}, nil).
			Run(func(mock.Arguments) { close(moved) }).
			Once()
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()

		_, conn := newTestHub(t, manager)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{
			"action":  actionMove,
			"payload": map[string]any{"move": "21_24"},
		}))

		select {
		case <-moved:
		case <-time.After(time.Second):
			t.Fatal("move was not forwarded")
		}
	})

	t.Run("Rejected move is reported to the sender", func(t *testing.T) {
		manager := &mockRoomManager{}
		manager.On("DoMove", mock.Anything, "alice", testRoomID, "60_50").
			Return(entity.RoomView{}, apperror.ErrNotYourTurn).
			Once()
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()

		_, conn := newTestHub(t, manager)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{
			"action":  actionMove,
			"payload": map[string]any{"move": "60_50"},
		}))

		message, payload := readMessage(t, conn)
		assert.Equal(t, actionError, message.Action)
		assert.Equal(t, apperror.ErrNotYourTurn.Error(), payload.Error)
	})

	t.Run("Ready defaults to true", func(t *testing.T) {
		manager := &mockRoomManager{}
		done := make(chan struct{})
		manager.On("SetReady", mock.Anything, "alice", testRoomID, true).
			Return(false, nil).
			Run(func(mock.Arguments) { close(done) }).
			Once()
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()

		_, conn := newTestHub(t, manager)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{"action": actionReady}))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("ready was not forwarded")
		}
	})

	t.Run("Chat is forwarded", func(t *testing.T) {
		manager := &mockRoomManager{}
		sent := make(chan struct{})
		manager.On("Chat", mock.Anything, "alice", testRoomID, "good luck").
			Return(nil).
			Run(func(mock.Arguments) { close(sent) }).
			Once()
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()

		_, conn := newTestHub(t, manager)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{
			"action":  actionChat,
			"payload": map[string]any{"message": "good luck"},
		}))

		select {
		case <-sent:
		case <-time.After(time.Second):
			t.Fatal("chat was not forwarded")
		}
	})

	t.Run("Chat from an outsider is reported", func(t *testing.T) {
		manager := &mockRoomManager{}
		manager.On("Chat", mock.Anything, "alice", testRoomID, "hi").
			Return(apperror.ErrPlayerNotInRoom).
			Once()
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()

		_, conn := newTestHub(t, manager)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{
			"action":  actionChat,
			"payload": map[string]any{"message": "hi"},
		}))

		message, payload := readMessage(t, conn)
		assert.Equal(t, actionError, message.Action)
		assert.Equal(t, apperror.ErrPlayerNotInRoom.Error(), payload.Error)
	})

	t.Run("Empty chat", func(t *testing.T) {
		manager := &mockRoomManager{}
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()

		_, conn := newTestHub(t, manager)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{"action": actionChat}))

		message, payload := readMessage(t, conn)
		assert.Equal(t, actionError, message.Action)
		assert.Equal(t, errMessageRequired.Error(), payload.Error)
		manager.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown action", func(t *testing.T) {
		manager := &mockRoomManager{}
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()

		_, conn := newTestHub(t, manager)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{"action": "game:undo"}))

		message, payload := readMessage(t, conn)
		assert.Equal(t, actionError, message.Action)
		assert.Contains(t, payload.Error, "game:undo")
	})
}

func TestHub_DisconnectKicksPlayer(t *testing.T) {
	// Given: an open socket
	manager := &mockRoomManager{}
	kicked := make(chan string, 1)
	manager.On("KickPlayer", mock.Anything, mock.Anything).
		Return(true, nil).
		Run(func(args mock.Arguments) {
			kicked <- args.Get(1).(*entity.Player).Username
		}).
		Once()

	hub, conn := newTestHub(t, manager)

	// When: the client goes away
	require.NoError(t, conn.Close())

	// Then: the player is kicked and the socket is forgotten
	select {
	case username := <-kicked:
		assert.Equal(t, "alice", username)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect did not kick the player")
	}

	assert.Eventually(t, func() bool {
		return hub.Connections(testRoomID) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_ChatEventReachesTheRoom(t *testing.T) {
	manager := &mockRoomManager{}
	manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	hub, conn := newTestHub(t, manager)
	defer conn.Close()

	require.NoError(t, hub.Publish(context.Background(), &entity.Event{
		Type:     entity.EventRoomChat,
		RoomID:   testRoomID,
		Username: "bob",
		Message:  "good game",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	var event entity.Event
	require.NoError(t, json.Unmarshal(message.Payload, &event))
	assert.Equal(t, entity.EventRoomChat, event.Type)
	assert.Equal(t, "bob", event.Username)
	assert.Equal(t, "good game", event.Message)
}

func TestHub_ReconnectIsNotKicked(t *testing.T) {
	newClient := func() *client {
		return &client{
			player: &entity.Player{Username: "alice"},
			roomID: testRoomID,
			send:   make(chan []byte, sendBuffer),
		}
	}

	t.Run("Reconnect before the kick", func(t *testing.T) {
		// Given: alice's only socket goes away
		manager := &mockRoomManager{}
		hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
		hub.SetRoomManager(manager)

		first := newClient()
		hub.register(first)
		last, generation := hub.unregister(first)
		require.True(t, last)

		// When: she reconnects before the disconnect is handled
		hub.register(newClient())
		hub.disconnect(context.Background(), first, generation)

		// Then: she keeps her seat
		manager.AssertNotCalled(t, "KickPlayer", mock.Anything, mock.Anything)
		assert.Equal(t, 1, hub.Connections(testRoomID))
	})

	t.Run("Reconnect and leave again before the kick", func(t *testing.T) {
		manager := &mockRoomManager{}
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Once()
		hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
		hub.SetRoomManager(manager)

		first := newClient()
		hub.register(first)
		_, stale := hub.unregister(first)

		second := newClient()
		hub.register(second)
		last, current := hub.unregister(second)
		require.True(t, last)

		// the stale disconnect is skipped, the current one kicks once
		hub.disconnect(context.Background(), first, stale)
		hub.disconnect(context.Background(), second, current)

		manager.AssertNumberOfCalls(t, "KickPlayer", 1)
	})

	t.Run("No reconnect", func(t *testing.T) {
		manager := &mockRoomManager{}
		manager.On("KickPlayer", mock.Anything, mock.Anything).Return(true, nil).Once()
		hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
		hub.SetRoomManager(manager)

		only := newClient()
		hub.register(only)
		_, generation := hub.unregister(only)
		hub.disconnect(context.Background(), only, generation)

		manager.AssertExpectations(t)
	})
}
