package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

type roomManager interface {
	SetReady(ctx context.Context, username string, roomID int, ready bool) (bool, error)
	LeaveRoom(ctx context.Context, player *entity.Player, roomID int) (bool, error)
	KickPlayer(ctx context.Context, player *entity.Player) (bool, error)
	DoMove(ctx context.Context, username string, roomID int, moveText string) (entity.RoomView, error)
	Chat(ctx context.Context, username string, roomID int, message string) error
}

type client struct {
	conn   *websocket.Conn
	player *entity.Player
	roomID int
	send   chan []byte
}

// Hub keeps the open room sockets, pushes room events to them and turns the last
// disconnect of a user into a kick.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	manager  roomManager

	mu    sync.RWMutex
	rooms map[int]map[*client]struct{}
	users map[string]int
	// registrations per user since the user was last forgotten
	connects map[string]uint64

	handlers map[string]func(ctx context.Context, c *client, payload *Payload) error
}

func NewHub(logger *slog.Logger) *Hub {
	hub := &Hub{
		logger: logger.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		rooms:    make(map[int]map[*client]struct{}),
		users:    make(map[string]int),
		connects: make(map[string]uint64),
	}

	hub.handlers = map[string]func(context.Context, *client, *Payload) error{
		actionReady: hub.handleReady,
		actionLeave: hub.handleLeave,
		actionMove:  hub.handleMove,
		actionChat:  hub.handleChat,
	}

	return hub
}

// SetRoomManager must be called before the hub serves connections.
func (that *Hub) SetRoomManager(manager roomManager) {
	that.manager = manager
}

// Stream upgrades the request and serves a room socket for player until it disconnects.
func (that *Hub) Stream(c *gin.Context, player *entity.Player, roomID int) {
	log := that.logger.With("method", "Stream", "username", player.Username, "room_id", roomID)

	conn, err := that.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	cl := &client{
		conn:   conn,
		player: player,
		roomID: roomID,
		send:   make(chan []byte, sendBuffer),
	}

	that.register(cl)
	log.Info("WebSocket connection established")

	go that.writePump(cl)
	that.readPump(context.WithoutCancel(c.Request.Context()), cl)

	if last, generation := that.unregister(cl); last {
		that.disconnect(context.WithoutCancel(c.Request.Context()), cl, generation)
	}
}

// Publish pushes event to every socket open on its room.
func (that *Hub) Publish(_ context.Context, event *entity.Event) error {
	message, err := encode(actionEvent, event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for cl := range that.rooms[event.RoomID] {
		that.deliver(cl, message)
	}

	return nil
}

// Connections returns the number of open sockets on a room.
func (that *Hub) Connections(roomID int) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms[roomID])
}

func (that *Hub) readPump(ctx context.Context, cl *client) {
	log := that.logger.With("method", "readPump", "username", cl.player.Username)

	defer cl.conn.Close()

	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var message Message
		if err := cl.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}

			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendError(cl, fmt.Sprintf("unknown action %q", message.Action))
			continue
		}

		var payload Payload
		if len(message.Payload) > 0 {
			if err := json.Unmarshal(message.Payload, &payload); err != nil {
				that.sendError(cl, "invalid payload")
				continue
			}
		}

		if err := handler(ctx, cl, &payload); err != nil {
			log.Debug("action rejected", "action", message.Action, "error", err)
			that.sendError(cl, err.Error())
		}
	}
}

func (that *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case message, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Hub) register(cl *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[cl.roomID]; !ok {
		that.rooms[cl.roomID] = make(map[*client]struct{})
	}

	that.rooms[cl.roomID][cl] = struct{}{}
	that.users[cl.player.Username]++
	that.connects[cl.player.Username]++
}

// unregister reports whether cl was the user's last open socket, along with the user's
// connect count at that moment.
func (that *Hub) unregister(cl *client) (bool, uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[cl.roomID][cl]; !ok {
		return false, 0
	}

	delete(that.rooms[cl.roomID], cl)
	if len(that.rooms[cl.roomID]) == 0 {
		delete(that.rooms, cl.roomID)
	}

	close(cl.send)

	that.users[cl.player.Username]--
	if that.users[cl.player.Username] > 0 {
		return false, 0
	}

	delete(that.users, cl.player.Username)

	return true, that.connects[cl.player.Username]
}

// gone reports whether username has not reconnected since the connect count was generation.
// A user that is gone for good is forgotten.
func (that *Hub) gone(username string, generation uint64) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.users[username] > 0 || that.connects[username] != generation {
		return false
	}

	delete(that.connects, username)

	return true
}

func (that *Hub) disconnect(ctx context.Context, cl *client, generation uint64) {
	log := that.logger.With("method", "disconnect", "username", cl.player.Username)

	if that.manager == nil {
		return
	}

	if !that.gone(cl.player.Username, generation) {
		log.Debug("player reconnected, not kicking")
		return
	}

	kicked, err := that.manager.KickPlayer(ctx, cl.player)
	if err != nil {
		log.Error("failed to kick disconnected player", "error", err)
		return
	}

	log.Info("player disconnected", "kicked", kicked)
}

// deliver never blocks; a client that cannot keep up loses the message. Callers hold mu.
func (that *Hub) deliver(cl *client, message []byte) {
	select {
	case cl.send <- message:
	default:
		that.logger.Warn("dropping message for slow client", "username", cl.player.Username)
	}
}

func (that *Hub) sendError(cl *client, errorMsg string) {
	message, err := encode(actionError, Payload{RoomID: cl.roomID, Error: errorMsg})
	if err != nil {
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	if _, ok := that.rooms[cl.roomID][cl]; ok {
		that.deliver(cl, message)
	}
}
