package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	router *gin.Engine
}

// New builds the HTTP API: public ping, signup and login, everything else behind token auth.
func New(logger *slog.Logger, rooms matchmaker, users userService, auth authService, stream roomStream) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	h := newHandlers(logger, rooms, users, auth, stream)

	router.GET("/ping", h.Ping)

	api := router.Group("/api")
	api.POST("/auth/signup", h.SignUp)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/validate", h.Authenticate, h.Validate)

	authorized := api.Group("/rooms", h.Authenticate)
	authorized.GET("", h.ListRooms)
	authorized.GET("/join", h.JoinAvailableRoom)
	authorized.GET("/available", h.GetAvailableRoom)
	authorized.GET("/:roomId", h.GetRoom)
	authorized.GET("/:roomId/join", h.JoinSpecificRoom)
	authorized.GET("/:roomId/leave", h.LeaveRoom)
	authorized.POST("/:roomId/ready", h.SetReady)
	authorized.POST("/:roomId/start", h.StartGame)
	authorized.POST("/:roomId/move", h.DoMove)
	authorized.POST("/:roomId/watch", h.Watch)
	authorized.POST("/:roomId/unwatch", h.Unwatch)
	authorized.POST("/:roomId/chat", h.Chat)

	router.GET("/ws", h.Authenticate, h.Stream)

	return &Server{
		logger: logger.With("component", "http"),
		router: router,
	}
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start serves on port until ctx is done, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
