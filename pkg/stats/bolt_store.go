package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/kaizen/pkg/logger"
	"github.com/0xmhha/kaizen/pkg/mover"
)

// Bucket names.
var (
	bucketLedger = []byte("ledger") // "current" -> Snapshot
	bucketMoves  = []byte("moves")  // UUIDv7 -> mover.Outcome

	keyCurrent = []byte("current")
)

// boltStore implements Store using BoltDB.
type boltStore struct {
	db     *bolt.DB
	logger logger.Logger
	config StoreConfig

	// Serializes AppendMove; moves is the entry count of bucketMoves.
	mu    sync.Mutex
	moves int
}

// OpenBoltStore opens (or creates) the database file.
//
// Parameters:
//   - cfg: Store configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Store
//   - Error if database cannot be opened
func OpenBoltStore(cfg StoreConfig, log logger.Logger) (Store, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, ErrNoDBPath
	}

	// Set defaults.
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 1000
	}

	dbPath := expandHome(cfg.DBPath)

	// Create directory if it doesn't exist.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Initialize buckets.
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, createErr := tx.CreateBucketIfNotExists(bucketLedger); createErr != nil {
			return fmt.Errorf("failed to create ledger bucket: %w", createErr)
		}
		if _, createErr := tx.CreateBucketIfNotExists(bucketMoves); createErr != nil {
			return fmt.Errorf("failed to create moves bucket: %w", createErr)
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error",
				"error", closeErr)
		}
		return nil, err
	}

	var moves int
	if err := db.View(func(tx *bolt.Tx) error {
		moves = tx.Bucket(bucketMoves).Stats().KeyN
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to count move history: %w", err)
	}

	log.Debug("stats store opened", "db_path", dbPath, "moves", moves)

	return &boltStore{
		db:     db,
		logger: log,
		config: cfg,
		moves:  moves,
	}, nil
}

// LoadLedger implements Store.LoadLedger.
func (s *boltStore) LoadLedger() (Snapshot, error) {
	var snap Snapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketLedger).Get(keyCurrent)
		if data == nil {
			return nil
		}

		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptLedger, err)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// SaveLedger implements Store.SaveLedger.
func (s *boltStore) SaveLedger(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketLedger).Put(keyCurrent, data); err != nil {
			return fmt.Errorf("failed to store ledger: %w", err)
		}
		return nil
	})
}

// AppendMove implements Store.AppendMove.
//
// Keys are version 7 UUIDs, so bucket order is chronological.
func (s *boltStore) AppendMove(out mover.Outcome) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate move id: %w", err)
	}

	if out.Err != nil && out.Error == "" {
		out.Error = out.Err.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.moves + 1
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMoves)
		if err := b.Put(id[:], data); err != nil {
			return fmt.Errorf("failed to store outcome: %w", err)
		}

		// Prune oldest entries beyond the limit.
		excess := count - s.config.MaxHistory
		if excess <= 0 {
			return nil
		}
		var stale [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && len(stale) < excess; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("failed to prune history: %w", err)
			}
		}
		count -= len(stale)
		return nil
	})
	if err != nil {
		return err
	}

	s.moves = count
	return nil
}

// RecentMoves implements Store.RecentMoves.
func (s *boltStore) RecentMoves(limit int) ([]mover.Outcome, error) {
	outcomes := make([]mover.Outcome, 0, 10)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketMoves).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(outcomes) >= limit {
				break
			}

			var out mover.Outcome
			if err := json.Unmarshal(v, &out); err != nil {
				s.logger.Warn("failed to unmarshal move", "error", err)
				continue // Skip invalid entries.
			}
			outcomes = append(outcomes, out)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	return outcomes, nil
}

// Close implements Store.Close.
func (s *boltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.logger.Debug("stats store closed")
	return nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(homeDir, path[1:])
}
