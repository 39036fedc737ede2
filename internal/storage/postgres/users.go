package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/jackc/pgx/v4"
)

func (s *Storage) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO users (username, password_hash) VALUES ($1, $2)",
		user.Username, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserExists
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, username string) (model.User, error) {
	user := model.User{Username: username}
	err := s.pool.QueryRow(ctx, "SELECT password_hash FROM users WHERE username = $1", username).
		Scan(&user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, storage.ErrNoUser
		}
		return model.User{}, fmt.Errorf("error querying user: %w", err)
	}
	return user, nil
}

func (s *Storage) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE users SET password_hash = $1 WHERE username = $2", passwordHash, username)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoUser
	}
	return nil
}
