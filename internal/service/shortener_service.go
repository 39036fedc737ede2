package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MikhailRaia/shortlinks/internal/generator"
	"github.com/MikhailRaia/shortlinks/internal/metrics"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/MikhailRaia/shortlinks/internal/validator"
	"github.com/rs/zerolog/log"
)

const (
	DefaultIDLength    = 5
	DefaultMaxAttempts = 1000
)

// PrincipalResolver turns an opaque credential into the identity of its holder.
type PrincipalResolver interface {
	Resolve(credential string) (string, error)
}

// Options tune ShortenerService.
type Options struct {
	// IDLength is used when a create call does not ask for a length.
	IDLength int
	// MaxAttempts bounds the collision retry loop.
	MaxAttempts int
	// ReuseExisting makes Create return the oldest link that already points at the
	// destination, whoever owns it, instead of minting a new one. It costs a lookup per create.
	ReuseExisting bool
	// ClearScope decides whether DeleteAll wipes every link or only the caller's.
	ClearScope storage.ClearScope
	// ValidateURL overrides validator.IsValidURL.
	ValidateURL func(string) bool
}

// DefaultOptions returns the stock configuration: five-symbol ids, 1000 attempts,
// destination reuse on and a global DeleteAll.
func DefaultOptions() Options {
	return Options{
		IDLength:      DefaultIDLength,
		MaxAttempts:   DefaultMaxAttempts,
		ReuseExisting: true,
		ClearScope:    storage.ClearAll,
		ValidateURL:   validator.IsValidURL,
	}
}

// ShortenerService implements the short link operations on top of a LinkStore.
// Reads are public; every mutation and the listing require a resolvable credential.
type ShortenerService struct {
	store    storage.LinkStore
	resolver PrincipalResolver
	opts     Options
}

// NewShortenerService constructs a ShortenerService. Unset IDLength, MaxAttempts and
// ValidateURL fall back to their defaults.
func NewShortenerService(store storage.LinkStore, resolver PrincipalResolver, opts Options) *ShortenerService {
	defaults := DefaultOptions()
	if opts.IDLength <= 0 {
		opts.IDLength = defaults.IDLength
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaults.MaxAttempts
	}
	if opts.ValidateURL == nil {
		opts.ValidateURL = defaults.ValidateURL
	}

	return &ShortenerService{
		store:    store,
		resolver: resolver,
		opts:     opts,
	}
}

func (s *ShortenerService) resolve(credential string) (string, error) {
	if credential == "" {
		return "", ErrUnauthorized
	}

	principal, err := s.resolver.Resolve(credential)
	if err != nil || principal == "" {
		log.Debug().Err(err).Msg("Credential rejected")
		return "", ErrUnauthorized
	}
	return principal, nil
}

// Create shortens destination on behalf of the credential holder.
// A non-positive length selects the configured default.
func (s *ShortenerService) Create(ctx context.Context, destination, credential string, length int) (model.ShortLink, error) {
	owner, err := s.resolve(credential)
	if err != nil {
		return model.ShortLink{}, err
	}

	destination = strings.TrimSpace(destination)
	if !s.opts.ValidateURL(destination) {
		return model.ShortLink{}, validationError("invalid url")
	}

	if length <= 0 {
		length = s.opts.IDLength
	}
	if length > generator.MaxLength {
		return model.ShortLink{}, validationError(fmt.Sprintf("length must not exceed %d", generator.MaxLength))
	}

	if s.opts.ReuseExisting {
		existing, err := s.store.FindByDestination(ctx, destination)
		if err == nil {
			metrics.LinksReused.Inc()
			return existing, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return model.ShortLink{}, fmt.Errorf("error looking up destination: %w", err)
		}
	}

	for attempt := 0; attempt < s.opts.MaxAttempts; attempt++ {
		link := model.ShortLink{
			ID:          generator.Candidate(destination, length, attempt),
			Destination: destination,
			Owner:       owner,
		}

		reserved, err := s.store.Reserve(ctx, link)
		if err != nil {
			return model.ShortLink{}, fmt.Errorf("error reserving id: %w", err)
		}

		if reserved {
			metrics.LinksCreated.Inc()
			log.Debug().
				Str("id", link.ID).
				Str("owner", owner).
				Int("attempt", attempt).
				Msg("Short link created")
			return link, nil
		}

		metrics.ReservationCollisions.Inc()
	}

	metrics.ReservationsExhausted.Inc()
	log.Error().
		Str("destination", destination).
		Int("length", length).
		Int("attempts", s.opts.MaxAttempts).
		Msg("Short id space exhausted")

	return model.ShortLink{}, ErrExhausted
}

// Read resolves id. It needs no credential.
func (s *ShortenerService) Read(ctx context.Context, id string) (model.ShortLink, error) {
	link, err := s.store.Get(ctx, id)
	if err != nil {
		return model.ShortLink{}, fromStore("error reading link", err)
	}
	return link, nil
}

// Update points id at a new destination. Checks run in this order: credential, presence of
// id, destination format, ownership.
func (s *ShortenerService) Update(ctx context.Context, id, destination, credential string) (model.ShortLink, error) {
	requester, err := s.resolve(credential)
	if err != nil {
		return model.ShortLink{}, err
	}

	if _, err := s.store.Get(ctx, id); err != nil {
		return model.ShortLink{}, fromStore("error reading link", err)
	}

	destination = strings.TrimSpace(destination)
	if !s.opts.ValidateURL(destination) {
		return model.ShortLink{}, validationError("invalid url")
	}

	link, err := s.store.UpdateDestination(ctx, id, destination, requester)
	if err != nil {
		return model.ShortLink{}, fromStore("error updating link", err)
	}
	return link, nil
}

// Delete removes a link owned by the credential holder.
func (s *ShortenerService) Delete(ctx context.Context, id, credential string) error {
	requester, err := s.resolve(credential)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, id, requester); err != nil {
		return fromStore("error deleting link", err)
	}
	return nil
}

// ListAll returns every link, regardless of owner, to any authenticated caller.
func (s *ShortenerService) ListAll(ctx context.Context, credential string) ([]model.ShortLink, error) {
	requester, err := s.resolve(credential)
	if err != nil {
		return nil, err
	}

	links, err := s.store.List(ctx, requester)
	if err != nil {
		return nil, fromStore("error listing links", err)
	}
	return links, nil
}

// DeleteAll clears links according to the configured scope and returns how many went away.
func (s *ShortenerService) DeleteAll(ctx context.Context, credential string) (int, error) {
	requester, err := s.resolve(credential)
	if err != nil {
		return 0, err
	}

	n, err := s.store.Clear(ctx, requester, s.opts.ClearScope)
	if err != nil {
		return 0, fromStore("error clearing links", err)
	}

	log.Info().
		Str("requester", requester).
		Int("removed", n).
		Msg("Short links cleared")
	return n, nil
}

// Ping checks the underlying store.
func (s *ShortenerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
