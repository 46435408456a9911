package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/0xmhha/kaizen/pkg/mover"
)

// ErrUnknownDimension is returned for an unrecognized dimension name.
var ErrUnknownDimension = errors.New("unknown dimension")

// keySeparator joins dimension values in a group key.
const keySeparator = " / "

// aggregator implements the Aggregator interface.
type aggregator struct {
	config Config

	mu     sync.RWMutex
	stats  Statistics
	groups map[string]*Statistics
}

// New creates a new aggregator.
//
// Parameters:
//   - cfg: Aggregator configuration
//
// Returns a configured Aggregator.
func New(cfg Config) Aggregator {
	// Set defaults.
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &aggregator{
		config: cfg,
		groups: make(map[string]*Statistics),
	}
}

// Add implements Aggregator.Add.
func (a *aggregator) Add(out mover.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	update(&a.stats, out)

	if len(a.config.GroupBy) == 0 {
		return
	}

	key := a.dimensionKey(out)
	g, ok := a.groups[key]
	if !ok {
		g = &Statistics{}
		a.groups[key] = g
	}
	update(g, out)
}

// Stats implements Aggregator.Stats.
func (a *aggregator) Stats() Statistics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.stats
}

// Groups implements Aggregator.Groups.
func (a *aggregator) Groups() []Group {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.config.GroupBy) == 0 {
		return nil
	}

	result := make([]Group, 0, len(a.groups))
	for key, g := range a.groups {
		result = append(result, Group{Key: key, Statistics: *g})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Moved != result[j].Moved {
			return result[i].Moved > result[j].Moved
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// Reset implements Aggregator.Reset.
func (a *aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats = Statistics{}
	a.groups = make(map[string]*Statistics)
}

// dimensionKey builds the group key of out.
func (a *aggregator) dimensionKey(out mover.Outcome) string {
	parts := make([]string, 0, len(a.config.GroupBy))
	at := out.FinishedAt.In(a.config.Location)

	for _, dim := range a.config.GroupBy {
		switch dim {
		case DimCategory:
			parts = append(parts, out.Category)
		case DimDate:
			parts = append(parts, at.Format("2006-01-02"))
		case DimHour:
			parts = append(parts, at.Format("2006-01-02 15:00"))
		case DimResult:
			if out.Succeeded {
				parts = append(parts, "moved")
			} else {
				parts = append(parts, "failed")
			}
		}
	}

	return strings.Join(parts, keySeparator)
}

// update folds out into s.
func update(s *Statistics, out mover.Outcome) {
	s.Count++
	if out.Succeeded {
		s.Moved++
	} else {
		s.Failed++
	}

	s.Attempts += out.Attempts
	if out.Attempts > 1 {
		s.Retried++
	}
	if out.Attempts > s.MaxAttempts {
		s.MaxAttempts = out.Attempts
	}

	if out.FinishedAt.IsZero() {
		return
	}
	if s.FirstSeen.IsZero() || out.FinishedAt.Before(s.FirstSeen) {
		s.FirstSeen = out.FinishedAt
	}
	if out.FinishedAt.After(s.LastSeen) {
		s.LastSeen = out.FinishedAt
	}
}

func parseDimensions(s string) ([]Dimension, error) {
	var dims []Dimension
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		switch dim := Dimension(part); dim {
		case DimCategory, DimDate, DimHour, DimResult:
			dims = append(dims, dim)
		default:
			return nil, fmt.Errorf("%w: %q (want category, date, hour or result)", ErrUnknownDimension, part)
		}
	}
	return dims, nil
}
