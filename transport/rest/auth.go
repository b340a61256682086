package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

const (
	playerKey = "player"
	userKey   = "user"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=1,max=32"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// SignUp registers a new username with a password and issues a token.
func (that *handlers) SignUp(c *gin.Context) {
	log := that.logger.With("method", "SignUp")

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		that.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	hash, err := that.auth.HashPassword(req.Password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		that.fail(c, err)
		return
	}

	user, err := that.users.Register(c.Request.Context(), req.Username, hash)
	if err != nil {
		that.fail(c, err)
		return
	}

	that.issueToken(c, http.StatusCreated, user)
}

// Login checks the password of a registered user and issues a token.
func (that *handlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		that.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	user, err := that.users.GetUser(c.Request.Context(), req.Username)
	if errors.Is(err, apperror.ErrNotFound) {
		that.fail(c, apperror.ErrInvalidCredentials)
		return
	}

	if err != nil {
		that.fail(c, err)
		return
	}

	if err = that.auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		that.fail(c, apperror.ErrInvalidCredentials)
		return
	}

	that.issueToken(c, http.StatusOK, user)
}

// Validate echoes the profile behind a still valid token.
func (that *handlers) Validate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": c.MustGet(userKey)})
}

// Authenticate resolves the bearer token, or the token query parameter for sockets, into a player.
func (that *handlers) Authenticate(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		token = c.Query("token")
	}

	if token == "" {
		that.fail(c, apperror.ErrUnauthorized)
		return
	}

	username, err := that.auth.ParseToken(token)
	if err != nil {
		that.fail(c, err)
		return
	}

	user, err := that.users.GetUser(c.Request.Context(), username)
	if errors.Is(err, apperror.ErrNotFound) {
		that.fail(c, fmt.Errorf("%w: unknown user %s", apperror.ErrUnauthorized, username))
		return
	}

	if err != nil {
		that.fail(c, err)
		return
	}

	c.Set(userKey, user)
	c.Set(playerKey, entity.NewPlayer(user))
	c.Next()
}

func (that *handlers) issueToken(c *gin.Context, status int, user *entity.User) {
	token, err := that.auth.GenerateToken(user.Username)
	if err != nil {
		that.logger.Error("failed to generate auth token", "error", err)
		that.fail(c, err)
		return
	}

	c.JSON(status, loginResponse{Token: token, User: user})
}

func playerFrom(c *gin.Context) *entity.Player {
	player, _ := c.MustGet(playerKey).(*entity.Player)

	return player
}
