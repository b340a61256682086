package apperror

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrAlreadyInRoom      = errors.New("player is already in a room")
	ErrPlayerNotInRoom    = errors.New("player is not in room")
	ErrGameFinished       = errors.New("game is already finished")
	ErrGameIsNotStarted   = errors.New("game is not started")
	ErrGameAlreadyStarted = errors.New("game is already started")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrInvalidMoveFormat  = errors.New("move is not valid format: [0-9][0-8]_[0-9][0-8]")
	ErrInvalidMove        = errors.New("invalid move")
	ErrLockTimeout        = errors.New("timed out waiting for room")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidChatMessage = errors.New("invalid chat message")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
