package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Storage implements LinkStore and UserStore on top of PostgreSQL.
// Reservation atomicity comes from the primary key on links.id.
type Storage struct {
	pool *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is empty")
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Storage{
		pool: pool,
	}

	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS links (
			id VARCHAR(64) PRIMARY KEY,
			destination TEXT NOT NULL,
			owner TEXT NOT NULL CHECK (owner <> ''),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			seq BIGSERIAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_destination ON links(destination)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (s *Storage) Reserve(ctx context.Context, link model.ShortLink) (bool, error) {
	if link.Owner == "" {
		return false, storage.ErrEmptyOwner
	}

	tag, err := s.pool.Exec(ctx,
		"INSERT INTO links (id, destination, owner) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
		link.ID, link.Destination, link.Owner)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("error inserting link: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *Storage) Get(ctx context.Context, id string) (model.ShortLink, error) {
	link := model.ShortLink{ID: id}
	err := s.pool.QueryRow(ctx, "SELECT destination, owner FROM links WHERE id = $1", id).
		Scan(&link.Destination, &link.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ShortLink{}, storage.ErrNotFound
		}
		return model.ShortLink{}, fmt.Errorf("error querying link: %w", err)
	}
	return link, nil
}

func (s *Storage) FindByDestination(ctx context.Context, destination string) (model.ShortLink, error) {
	link := model.ShortLink{Destination: destination}
	err := s.pool.QueryRow(ctx,
		"SELECT id, owner FROM links WHERE destination = $1 ORDER BY seq LIMIT 1", destination).
		Scan(&link.ID, &link.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ShortLink{}, storage.ErrNotFound
		}
		return model.ShortLink{}, fmt.Errorf("error querying link by destination: %w", err)
	}
	return link, nil
}

// lockOwned locks the row for id inside tx and checks that requester owns it.
func lockOwned(ctx context.Context, tx pgx.Tx, id, requester string) (model.ShortLink, error) {
	link := model.ShortLink{ID: id}
	err := tx.QueryRow(ctx, "SELECT destination, owner FROM links WHERE id = $1 FOR UPDATE", id).
		Scan(&link.Destination, &link.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ShortLink{}, storage.ErrNotFound
		}
		return model.ShortLink{}, fmt.Errorf("error locking link: %w", err)
	}
	if link.Owner != requester {
		return model.ShortLink{}, storage.ErrForbidden
	}
	return link, nil
}

func (s *Storage) UpdateDestination(ctx context.Context, id, destination, requester string) (model.ShortLink, error) {
	var updated model.ShortLink
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		link, err := lockOwned(ctx, tx, id, requester)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, "UPDATE links SET destination = $1 WHERE id = $2", destination, id); err != nil {
			return fmt.Errorf("error updating link: %w", err)
		}

		link.Destination = destination
		updated = link
		return nil
	})
	if err != nil {
		return model.ShortLink{}, err
	}
	return updated, nil
}

func (s *Storage) Remove(ctx context.Context, id, requester string) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := lockOwned(ctx, tx, id, requester); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, "DELETE FROM links WHERE id = $1", id); err != nil {
			return fmt.Errorf("error deleting link: %w", err)
		}
		return nil
	})
}

func (s *Storage) List(ctx context.Context, requester string) ([]model.ShortLink, error) {
	if requester == "" {
		return nil, storage.ErrForbidden
	}

	rows, err := s.pool.Query(ctx, "SELECT id, destination, owner FROM links ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("error listing links: %w", err)
	}
	defer rows.Close()

	links := make([]model.ShortLink, 0)
	for rows.Next() {
		var l model.ShortLink
		if err := rows.Scan(&l.ID, &l.Destination, &l.Owner); err != nil {
			return nil, fmt.Errorf("error scanning link: %w", err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}

func (s *Storage) Clear(ctx context.Context, requester string, scope storage.ClearScope) (int, error) {
	if requester == "" {
		return 0, storage.ErrForbidden
	}

	var (
		tag pgconn.CommandTag
		err error
	)
	if scope == storage.ClearOwned {
		tag, err = s.pool.Exec(ctx, "DELETE FROM links WHERE owner = $1", requester)
	} else {
		tag, err = s.pool.Exec(ctx, "DELETE FROM links")
	}
	if err != nil {
		return 0, fmt.Errorf("error clearing links: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
