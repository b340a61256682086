package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
)

var errBadRequest = errors.New("bad request")

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound), errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrRoomFull), errors.Is(err, apperror.ErrAlreadyInRoom),
		errors.Is(err, apperror.ErrGameFinished), errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrGameAlreadyStarted), errors.Is(err, apperror.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidMoveFormat), errors.Is(err, apperror.ErrInvalidMove),
		errors.Is(err, apperror.ErrInvalidChatMessage), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotYourTurn), errors.Is(err, apperror.ErrPlayerNotInRoom):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrUnauthorized), errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail aborts the request with the status matching err. Internal errors are logged and not echoed.
func (that *handlers) fail(c *gin.Context, err error) {
	status := statusOf(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "path", c.FullPath(), "error", err)
		message = http.StatusText(status)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
