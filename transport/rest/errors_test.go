package rest

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
)

func TestStatusOf(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{err: apperror.ErrRoomNotFound, status: http.StatusNotFound},
		{err: apperror.ErrNotFound, status: http.StatusNotFound},
		{err: apperror.ErrRoomFull, status: http.StatusConflict},
		{err: apperror.ErrAlreadyInRoom, status: http.StatusConflict},
		{err: apperror.ErrGameFinished, status: http.StatusConflict},
		{err: apperror.ErrGameIsNotStarted, status: http.StatusConflict},
		{err: apperror.ErrGameAlreadyStarted, status: http.StatusConflict},
		{err: apperror.ErrUserExists, status: http.StatusConflict},
		{err: apperror.ErrInvalidMoveFormat, status: http.StatusBadRequest},
		{err: apperror.ErrInvalidMove, status: http.StatusBadRequest},
		{err: apperror.ErrInvalidChatMessage, status: http.StatusBadRequest},
		{err: errBadRequest, status: http.StatusBadRequest},
		{err: apperror.ErrNotYourTurn, status: http.StatusForbidden},
		{err: apperror.ErrPlayerNotInRoom, status: http.StatusForbidden},
		{err: apperror.ErrUnauthorized, status: http.StatusUnauthorized},
		{err: apperror.ErrInvalidCredentials, status: http.StatusUnauthorized},
		{err: apperror.ErrLockTimeout, status: http.StatusServiceUnavailable},
		{err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	} {
		t.Run(tc.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("failed to do something: %w", tc.err)

			assert.Equal(t, tc.status, statusOf(wrapped))
		})
	}
}
