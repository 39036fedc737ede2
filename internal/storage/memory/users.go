package memory

import (
	"context"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
)

// CreateUser stores a new account. Usernames are unique.
func (s *Storage) CreateUser(_ context.Context, user model.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return storage.ErrUserExists
	}

	if err := s.record(Mutation{Op: OpCreateUser, User: &user}); err != nil {
		return err
	}

	s.users[user.Username] = user
	return nil
}

// GetUser looks up an account by name.
func (s *Storage) GetUser(_ context.Context, username string) (model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return model.User{}, storage.ErrNoUser
	}
	return user, nil
}

// UpdatePasswordHash replaces the stored password hash of an existing account.
func (s *Storage) UpdatePasswordHash(_ context.Context, username, passwordHash string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	user, ok := s.users[username]
	if !ok {
		return storage.ErrNoUser
	}
	user.PasswordHash = passwordHash

	if err := s.record(Mutation{Op: OpUserPassword, User: &user}); err != nil {
		return err
	}

	s.users[username] = user
	return nil
}
