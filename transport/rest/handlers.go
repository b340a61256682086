package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

type matchmaker interface {
	JoinAvailableRoom(ctx context.Context, player *entity.Player) (entity.RoomView, error)
	JoinSpecificRoom(ctx context.Context, player *entity.Player, roomID int) (entity.RoomView, error)
	LeaveRoom(ctx context.Context, player *entity.Player, roomID int) (bool, error)
	SetReady(ctx context.Context, username string, roomID int, ready bool) (bool, error)
	StartGame(ctx context.Context, roomID int) (bool, error)
	GetAvailableRoom(ctx context.Context) (entity.RoomView, bool, error)
	DoMove(ctx context.Context, username string, roomID int, moveText string) (entity.RoomView, error)
	Watch(ctx context.Context, viewer *entity.Player, roomID int) (entity.RoomView, error)
	Unwatch(ctx context.Context, viewer *entity.Player, roomID int) (bool, error)
	GetRoom(ctx context.Context, roomID int) (entity.RoomView, error)
	ListRooms(ctx context.Context) ([]entity.RoomView, error)
	Chat(ctx context.Context, username string, roomID int, message string) error
}

type userService interface {
	Register(ctx context.Context, username, passwordHash string) (*entity.User, error)
	GetUser(ctx context.Context, username string) (*entity.User, error)
}

type authService interface {
	GenerateToken(username string) (string, error)
	ParseToken(token string) (string, error)
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) error
}

type roomStream interface {
	Stream(c *gin.Context, player *entity.Player, roomID int)
}

type handlers struct {
	logger *slog.Logger

	rooms  matchmaker
	users  userService
	auth   authService
	stream roomStream
}

func newHandlers(logger *slog.Logger, rooms matchmaker, users userService, auth authService, stream roomStream) *handlers {
	return &handlers{
		logger: logger.With("component", "rest"),
		rooms:  rooms,
		users:  users,
		auth:   auth,
		stream: stream,
	}
}

type moveRequest struct {
	RoomID int    `json:"roomId"`
	Move   string `json:"move" binding:"required"`
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

type readyRequest struct {
	Ready *bool `json:"ready"`
}

var errRoomMismatch = errors.New("roomId in body does not match the path")

func (that *handlers) ListRooms(c *gin.Context) {
	views, err := that.rooms.ListRooms(c.Request.Context())
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

func (that *handlers) JoinAvailableRoom(c *gin.Context) {
	view, err := that.rooms.JoinAvailableRoom(c.Request.Context(), playerFrom(c))
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *handlers) GetAvailableRoom(c *gin.Context) {
	view, found, err := that.rooms.GetAvailableRoom(c.Request.Context())
	if err != nil {
		that.fail(c, err)
		return
	}

	if !found {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *handlers) GetRoom(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	view, err := that.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *handlers) JoinSpecificRoom(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	view, err := that.rooms.JoinSpecificRoom(c.Request.Context(), playerFrom(c), roomID)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *handlers) LeaveRoom(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	left, err := that.rooms.LeaveRoom(c.Request.Context(), playerFrom(c), roomID)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"left": left})
}

func (that *handlers) SetReady(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	var req readyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			that.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
	}

	ready := true
	if req.Ready != nil {
		ready = *req.Ready
	}

	started, err := that.rooms.SetReady(c.Request.Context(), playerFrom(c).Username, roomID, ready)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ready": ready, "started": started})
}

func (that *handlers) StartGame(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	started, err := that.rooms.StartGame(c.Request.Context(), roomID)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"started": started})
}

func (that *handlers) DoMove(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		that.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	if req.RoomID != 0 && req.RoomID != roomID {
		that.fail(c, fmt.Errorf("%w: %w", errBadRequest, errRoomMismatch))
		return
	}

	view, err := that.rooms.DoMove(c.Request.Context(), playerFrom(c).Username, roomID, req.Move)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *handlers) Watch(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	view, err := that.rooms.Watch(c.Request.Context(), playerFrom(c), roomID)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *handlers) Unwatch(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	removed, err := that.rooms.Unwatch(c.Request.Context(), playerFrom(c), roomID)
	if err != nil {
		that.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (that *handlers) Chat(c *gin.Context) {
	roomID, ok := that.roomID(c)
	if !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		that.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	if err := that.rooms.Chat(c.Request.Context(), playerFrom(c).Username, roomID, req.Message); err != nil {
		that.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Stream opens the room socket given by the room_id query parameter.
func (that *handlers) Stream(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Query("room_id"))
	if err != nil || roomID <= 0 {
		that.fail(c, fmt.Errorf("%w: room_id must be a positive integer", errBadRequest))
		return
	}

	if _, err = that.rooms.GetRoom(c.Request.Context(), roomID); err != nil {
		that.fail(c, err)
		return
	}

	that.stream.Stream(c, playerFrom(c), roomID)
}

func (that *handlers) roomID(c *gin.Context) (int, bool) {
	roomID, err := strconv.Atoi(c.Param("roomId"))
	if err != nil || roomID <= 0 {
		that.fail(c, fmt.Errorf("%w: roomId must be a positive integer", errBadRequest))
		return 0, false
	}

	return roomID, true
}
