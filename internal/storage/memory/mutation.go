package memory

import (
	"fmt"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
)

// Op names a kind of mutation.
type Op string

const (
	OpReserve      Op = "reserve"
	OpUpdate       Op = "update"
	OpRemove       Op = "remove"
	OpClear        Op = "clear"
	OpCreateUser   Op = "create_user"
	OpUserPassword Op = "user_password"
)

// Mutation is one applied change to the storage.
type Mutation struct {
	Op        Op                 `json:"op"`
	Link      model.ShortLink    `json:"link,omitempty"`
	Requester string             `json:"requester,omitempty"`
	Scope     storage.ClearScope `json:"scope,omitempty"`
	User      *model.User        `json:"user,omitempty"`
}

// Apply replays m without consulting the journal. It is used to rebuild state on start-up.
func (s *Storage) Apply(m Mutation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch m.Op {
	case OpReserve:
		s.insert(m.Link)
	case OpUpdate:
		e, ok := s.links[m.Link.ID]
		if !ok {
			return fmt.Errorf("update of unknown link %q", m.Link.ID)
		}
		e.link.Destination = m.Link.Destination
		s.links[m.Link.ID] = e
	case OpRemove:
		delete(s.links, m.Link.ID)
	case OpClear:
		s.clear(m.Requester, m.Scope)
	case OpCreateUser, OpUserPassword:
		if m.User == nil {
			return fmt.Errorf("%s mutation without user", m.Op)
		}
		s.users[m.User.Username] = *m.User
	default:
		return fmt.Errorf("unknown mutation %q", m.Op)
	}

	return nil
}
