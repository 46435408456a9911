package stats

import (
	"sync"

	"github.com/0xmhha/kaizen/pkg/mover"
)

// memoryStore implements Store in memory for tests and ephemeral runs.
type memoryStore struct {
	mu      sync.RWMutex
	ledger  Snapshot
	moves   []mover.Outcome
	saves   int
	closed  bool
	saveErr error
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

// LoadLedger implements Store.LoadLedger.
func (s *memoryStore) LoadLedger() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Snapshot{}, ErrStoreClosed
	}
	return s.ledger, nil
}

// SaveLedger implements Store.SaveLedger.
func (s *memoryStore) SaveLedger(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ledger = snap
	s.saves++
	return nil
}

// AppendMove implements Store.AppendMove.
func (s *memoryStore) AppendMove(out mover.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if out.Err != nil && out.Error == "" {
		out.Error = out.Err.Error()
	}
	s.moves = append(s.moves, out)
	return nil
}

// RecentMoves implements Store.RecentMoves.
func (s *memoryStore) RecentMoves(limit int) ([]mover.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	out := make([]mover.Outcome, 0, len(s.moves))
	for i := len(s.moves) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.moves[i])
	}
	return out, nil
}

// Close implements Store.Close.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
