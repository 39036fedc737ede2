package storage

import (
	"context"
	"errors"

	"github.com/MikhailRaia/shortlinks/internal/model"
)

var (
	ErrNotFound   = errors.New("short link not found")
	ErrForbidden  = errors.New("requester does not own the short link")
	ErrEmptyOwner = errors.New("short link owner is empty")
	ErrUserExists = errors.New("user already exists")
	ErrNoUser     = errors.New("user not found")
)

// ClearScope selects which links Clear removes.
type ClearScope int

const (
	// ClearAll wipes every link as long as the requester is authenticated.
	ClearAll ClearScope = iota
	// ClearOwned removes only the links owned by the requester.
	ClearOwned
)

// LinkStore is the authoritative keyspace of short links.
//
// Implementations must make Reserve linearizable with respect to every other mutation:
// of two concurrent reservations of the same id exactly one returns true. UpdateDestination
// and Remove never change a record whose owner differs from the requester.
type LinkStore interface {
	Reserve(ctx context.Context, link model.ShortLink) (bool, error)
	Get(ctx context.Context, id string) (model.ShortLink, error)
	FindByDestination(ctx context.Context, destination string) (model.ShortLink, error)
	UpdateDestination(ctx context.Context, id, destination, requester string) (model.ShortLink, error)
	Remove(ctx context.Context, id, requester string) error
	List(ctx context.Context, requester string) ([]model.ShortLink, error)
	Clear(ctx context.Context, requester string, scope ClearScope) (int, error)
	Ping(ctx context.Context) error
	Close()
}

// UserStore keeps the accounts used to issue credentials.
type UserStore interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, username string) (model.User, error)
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) error
}
