package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

type UserService interface {
	Register(ctx context.Context, username, passwordHash string) (*entity.User, error)
	SaveUser(ctx context.Context, user *entity.User) error
	GetUser(ctx context.Context, username string) (*entity.User, error)
}

type userRepo interface {
	Create(ctx context.Context, user *entity.User) error
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, username string) (*entity.User, error)
}

type userService struct {
	logger   *slog.Logger
	userRepo userRepo
}

func NewUserService(logger *slog.Logger, userRepo userRepo) UserService {
	return &userService{
		logger:   logger,
		userRepo: userRepo,
	}
}

// Register stores a new profile with the default rating. ErrUserExists when the username is taken.
func (that *userService) Register(ctx context.Context, username, passwordHash string) (*entity.User, error) {
	user := entity.NewUser(username)
	user.PasswordHash = passwordHash

	if err := that.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("could not register user: %w", err)
	}

	that.logger.With("method", "Register").Info("user registered", "username", username)

	return user, nil
}

func (that *userService) SaveUser(ctx context.Context, user *entity.User) error {
	if err := that.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("could not save user: %w", err)
	}

	return nil
}

func (that *userService) GetUser(ctx context.Context, username string) (*entity.User, error) {
	user, err := that.userRepo.Find(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("could not get user by username: %w", err)
	}

	return user, nil
}
