package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dafgraph/backend/pkg/common"
)

// Store is an in-memory GraphStorage used by tests and dry runs. It also
// serves as the reference implementation of the replace-steps atomicity
// contract.
type Store struct {
	mu       sync.RWMutex
	units    map[string]common.DiscourseUnit
	steps    map[string][]common.StepNode
	segments map[string][]string

	// FailReplace makes the next ReplaceSteps call fail without touching
	// state, to exercise failure paths in tests.
	FailReplace bool
	// FailUpsert does the same for UpsertDiscourseUnit.
	FailUpsert bool

	now func() time.Time
}

func New() *Store {
	return &Store{
		units:    make(map[string]common.DiscourseUnit),
		steps:    make(map[string][]common.StepNode),
		segments: make(map[string][]string),
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source, for deterministic tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) UpsertDiscourseUnit(ctx context.Context, unit common.DiscourseUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpsert {
		return common.ErrPersistence
	}

	now := s.now()
	if existing, ok := s.units[unit.PageRef]; ok {
		unit.CreatedAt = existing.CreatedAt
	} else {
		unit.CreatedAt = now
	}
	unit.UpdatedAt = now
	s.units[unit.PageRef] = unit
	return nil
}

func (s *Store) ReplaceSteps(ctx context.Context, pageRef string, steps []common.StepNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailReplace {
		return common.ErrPersistence
	}

	replacement := make([]common.StepNode, len(steps))
	copy(replacement, steps)
	s.steps[pageRef] = replacement
	return nil
}

func (s *Store) LinkSegments(ctx context.Context, pageRef string, segmentIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	linked := make([]string, len(segmentIDs))
	copy(linked, segmentIDs)
	s.segments[pageRef] = linked
	return nil
}

func (s *Store) GetDiscourseUnit(ctx context.Context, pageRef string) (*common.DiscourseUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unit, ok := s.units[pageRef]
	if !ok {
		return nil, nil
	}
	return &unit, nil
}

func (s *Store) GetSteps(ctx context.Context, pageRef string) ([]common.StepNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := make([]common.StepNode, len(s.steps[pageRef]))
	copy(steps, s.steps[pageRef])
	return steps, nil
}

func (s *Store) ListDiscourseUnits(ctx context.Context) ([]common.DiscourseUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	units := make([]common.DiscourseUnit, 0, len(s.units))
	for _, u := range s.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].PageRef < units[j].PageRef })
	return units, nil
}

// LinkedSegments exposes the containment edges of a page, for tests.
func (s *Store) LinkedSegments(pageRef string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segments[pageRef]
}
