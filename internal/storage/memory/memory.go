package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
)

// Journal receives every mutation before it is applied. A non-nil error aborts the mutation.
type Journal interface {
	Append(m Mutation) error
}

type entry struct {
	link model.ShortLink
	seq  uint64
}

// Storage implements an in-memory LinkStore and UserStore.
type Storage struct {
	links   map[string]entry
	users   map[string]model.User
	seq     uint64
	journal Journal
	mutex   sync.RWMutex
}

// NewStorage creates a new in-memory storage instance.
func NewStorage() *Storage {
	return &Storage{
		links: make(map[string]entry),
		users: make(map[string]model.User),
	}
}

// SetJournal attaches a journal that is written before every later mutation.
func (s *Storage) SetJournal(j Journal) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.journal = j
}

func (s *Storage) record(m Mutation) error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Append(m)
}

// Reserve inserts link only if its id is free.
func (s *Storage) Reserve(_ context.Context, link model.ShortLink) (bool, error) {
	if link.Owner == "" {
		return false, storage.ErrEmptyOwner
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, taken := s.links[link.ID]; taken {
		return false, nil
	}

	if err := s.record(Mutation{Op: OpReserve, Link: link}); err != nil {
		return false, err
	}

	s.insert(link)
	return true, nil
}

func (s *Storage) insert(link model.ShortLink) {
	s.seq++
	s.links[link.ID] = entry{link: link, seq: s.seq}
}

// Get returns a copy of the link stored under id.
func (s *Storage) Get(_ context.Context, id string) (model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.links[id]
	if !ok {
		return model.ShortLink{}, storage.ErrNotFound
	}
	return e.link, nil
}

// FindByDestination returns the oldest link pointing at destination.
func (s *Storage) FindByDestination(_ context.Context, destination string) (model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var (
		found model.ShortLink
		best  uint64
	)
	for _, e := range s.links {
		if e.link.Destination != destination {
			continue
		}
		if best == 0 || e.seq < best {
			found, best = e.link, e.seq
		}
	}

	if best == 0 {
		return model.ShortLink{}, storage.ErrNotFound
	}
	return found, nil
}

// UpdateDestination replaces the destination of a link owned by requester.
func (s *Storage) UpdateDestination(_ context.Context, id, destination, requester string) (model.ShortLink, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.links[id]
	if !ok {
		return model.ShortLink{}, storage.ErrNotFound
	}
	if e.link.Owner != requester {
		return model.ShortLink{}, storage.ErrForbidden
	}

	if err := s.record(Mutation{Op: OpUpdate, Link: model.ShortLink{ID: id, Destination: destination, Owner: requester}}); err != nil {
		return model.ShortLink{}, err
	}

	e.link.Destination = destination
	s.links[id] = e
	return e.link, nil
}

// Remove deletes a link owned by requester.
func (s *Storage) Remove(_ context.Context, id, requester string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.links[id]
	if !ok {
		return storage.ErrNotFound
	}
	if e.link.Owner != requester {
		return storage.ErrForbidden
	}

	if err := s.record(Mutation{Op: OpRemove, Link: e.link}); err != nil {
		return err
	}

	delete(s.links, id)
	return nil
}

// List returns every link in creation order. Ownership does not filter the result.
func (s *Storage) List(_ context.Context, requester string) ([]model.ShortLink, error) {
	if requester == "" {
		return nil, storage.ErrForbidden
	}

	s.mutex.RLock()
	entries := make([]entry, 0, len(s.links))
	for _, e := range s.links {
		entries = append(entries, e)
	}
	s.mutex.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]model.ShortLink, len(entries))
	for i, e := range entries {
		result[i] = e.link
	}
	return result, nil
}

// Clear removes links according to scope and reports how many were removed.
func (s *Storage) Clear(_ context.Context, requester string, scope storage.ClearScope) (int, error) {
	if requester == "" {
		return 0, storage.ErrForbidden
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.record(Mutation{Op: OpClear, Requester: requester, Scope: scope}); err != nil {
		return 0, err
	}

	return s.clear(requester, scope), nil
}

func (s *Storage) clear(requester string, scope storage.ClearScope) int {
	if scope == storage.ClearAll {
		n := len(s.links)
		s.links = make(map[string]entry)
		return n
	}

	n := 0
	for id, e := range s.links {
		if e.link.Owner == requester {
			delete(s.links, id)
			n++
		}
	}
	return n
}

// Ping always succeeds for the in-memory store.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Storage) Close() {}

// GetStats returns the number of stored links and users.
func (s *Storage) GetStats() (int, int) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.links), len(s.users)
}
