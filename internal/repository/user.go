package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, username string) (*entity.User, error)
}

type userRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

// Create inserts a new user. ErrUserExists when the username is taken.
func (that *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (username, elo, pass_hashed) VALUES (?, ?, ?)
		ON CONFLICT (username) DO NOTHING`

	res, err := that.conn.ExecContext(ctx, query, user.Username, user.Elo, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("can't create user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't create user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", apperror.ErrUserExists, user.Username)
	}

	return nil
}

// Save inserts the user or updates an existing one in place.
func (that *userRepository) Save(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (username, elo, pass_hashed) VALUES (?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET elo = excluded.elo, pass_hashed = excluded.pass_hashed`

	_, err := that.conn.ExecContext(ctx, query, user.Username, user.Elo, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("can't save user: %w", err)
	}

	return nil
}

func (that *userRepository) Find(ctx context.Context, username string) (*entity.User, error) {
	query := `SELECT username, elo, pass_hashed FROM users WHERE username = ?`

	var user entity.User

	err := that.conn.QueryRowContext(ctx, query, username).Scan(&user.Username, &user.Elo, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find user: %w", err)
	}

	return &user, nil
}
