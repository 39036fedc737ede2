package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

// TokenIssuer signs credentials for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// UserService manages accounts and hands out credentials on login.
type UserService struct {
	store  storage.UserStore
	issuer TokenIssuer
	cost   int
}

func NewUserService(store storage.UserStore, issuer TokenIssuer) *UserService {
	return &UserService{
		store:  store,
		issuer: issuer,
		cost:   bcrypt.DefaultCost,
	}
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return validationError(fmt.Sprintf("username must be %d-%d characters", minUsernameLength, maxUsernameLength))
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return validationError(fmt.Sprintf("password must be %d-%d bytes", minPasswordLength, maxPasswordLength))
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	err = s.store.CreateUser(ctx, model.User{Username: username, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return ErrUserExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	log.Info().Str("username", username).Msg("User registered")
	return nil
}

// authenticate checks the password of username.
func (s *UserService) authenticate(ctx context.Context, username, password string) error {
	user, err := s.store.GetUser(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNoUser) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("error reading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies the password and returns a signed credential whose principal is username.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if err := s.authenticate(ctx, username, password); err != nil {
		return "", err
	}

	token, err := s.issuer.GenerateToken(username)
	if err != nil {
		return "", fmt.Errorf("error issuing token: %w", err)
	}
	return token, nil
}

func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	username = strings.TrimSpace(username)
	if err := s.authenticate(ctx, username, oldPassword); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if err := s.store.UpdatePasswordHash(ctx, username, string(hash)); err != nil {
		if errors.Is(err, storage.ErrNoUser) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}
