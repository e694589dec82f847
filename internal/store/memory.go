// In-memory session store.
//
// Characteristics:
//   - Stores *game.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; word history survives in the
//     SQLite key-value table.
//   - Idle sessions are reaped by Sweep.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/buchstabensalat/salad/internal/game"
)

// ErrNotFound is returned for unknown IDs.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for player sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Sweep drops sessions idle for longer than maxIdle and returns them.
	Sweep(maxIdle time.Duration) []*game.Session
}

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{sessions: make(map[string]*game.Session)}
}

func (m *Memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// Sweep drops sessions idle for longer than maxIdle and returns them so the
// caller can release timers.
func (m *Memory) Sweep(maxIdle time.Duration) []*game.Session {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []*game.Session
	for id, s := range m.sessions {
		if s.LastAccess().Before(cutoff) {
			removed = append(removed, s)
			delete(m.sessions, id)
		}
	}
	return removed
}
