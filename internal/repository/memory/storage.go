// Package memory keeps credentials in process memory.
// Used when no database configured and in fast service tests. Data is lost on restart.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/realit/internal/models"
	"github.com/nkiryanov/realit/internal/repository"
)

type state struct {
	users    map[uuid.UUID]models.User
	profiles map[uuid.UUID]models.Profile
	tokens   map[uuid.UUID]models.RefreshToken
}

func (st *state) clone() state {
	return state{
		users:    maps.Clone(st.users),
		profiles: maps.Clone(st.profiles),
		tokens:   maps.Clone(st.tokens),
	}
}

type db struct {
	mu sync.Mutex
	st state
}

// Storage is safe for concurrent use
// InTx holds the store-wide lock until fn returns, so transactions are serialized
type Storage struct {
	db *db

	// true when the storage is bound to a running transaction and the lock is held already
	locked bool
}

func NewStorage() *Storage {
	return &Storage{
		db: &db{
			st: state{
				users:    make(map[uuid.UUID]models.User),
				profiles: make(map[uuid.UUID]models.Profile),
				tokens:   make(map[uuid.UUID]models.RefreshToken),
			},
		},
	}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{s: s}
}

func (s *Storage) Profile() repository.ProfileRepo {
	return &ProfileRepo{s: s}
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return &RefreshTokenRepo{s: s}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.locked {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}

	snapshot := s.db.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.db.st = snapshot
			panic(p)
		}
	}()

	err := fn(&Storage{db: s.db, locked: true})
	if err != nil {
		s.db.st = snapshot
	}

	return err
}

// Run fn against the state holding the lock if caller does not hold it yet
func (s *Storage) do(fn func(st *state) error) error {
	if !s.locked {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}
	return fn(&s.db.st)
}
