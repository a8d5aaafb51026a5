// Package memory provides an in-memory ingest.Store.
package memory

import (
	"context"
	"sync"

	"github.com/warp/booking-ops/ingest"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps the latest saved state and the sequence of saved versions.
type Memory struct {
	mu       sync.RWMutex
	current  *ingest.State
	versions []int64
	failNext error
}

func New() *Memory {
	return &Memory{}
}

// Load returns a copy of the latest saved state, or ingest.ErrNoState.
func (m *Memory) Load(_ context.Context) (*ingest.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return nil, ingest.ErrNoState
	}
	return m.current.Clone(), nil
}

// Save stores a copy of s. Callers may keep mutating s afterwards.
func (m *Memory) Save(_ context.Context, s *ingest.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.current = s.Clone()
	m.versions = append(m.versions, s.Version)
	return nil
}

// Versions lists the versions saved so far, oldest first.
func (m *Memory) Versions() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int64(nil), m.versions...)
}

// FailNextSave makes the next Save return err. Used to exercise the
// controller's rollback path.
func (m *Memory) FailNextSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Reset drops everything.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.versions = nil
}
