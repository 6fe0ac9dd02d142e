package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/skillstake/wager-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	platform *model.Platform
	profiles map[string]*model.PlayerProfile
	matches  map[uint64]*model.Match
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*model.PlayerProfile),
		matches:  make(map[uint64]*model.Match),
	}
}

func (s *MemoryStore) CreatePlatform(_ context.Context, p *model.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.platform != nil {
		return ErrPlatformExists
	}
	copy := *p
	s.platform = &copy
	return nil
}

func (s *MemoryStore) GetPlatform(_ context.Context) (*model.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.platform == nil {
		return nil, ErrPlatformNotFound
	}
	copy := *s.platform
	return &copy, nil
}

func (s *MemoryStore) UpdatePlatform(_ context.Context, p *model.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.platform == nil {
		return ErrPlatformNotFound
	}
	copy := *p
	s.platform = &copy
	return nil
}

func (s *MemoryStore) CreateProfile(_ context.Context, p *model.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.Owner]; ok {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Owner)
	}
	copy := *p
	s.profiles[p.Owner] = &copy
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, owner string) (*model.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[owner]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, owner)
	}
	copy := *p
	return &copy, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, p *model.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.Owner]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, p.Owner)
	}
	copy := *p
	s.profiles[p.Owner] = &copy
	return nil
}

func (s *MemoryStore) ListTopProfiles(_ context.Context, limit int) ([]model.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]model.PlayerProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Rating != profiles[j].Rating {
			return profiles[i].Rating > profiles[j].Rating
		}
		return profiles[i].Owner < profiles[j].Owner
	})
	if limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

func (s *MemoryStore) CreateMatch(_ context.Context, m *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.MatchID]; ok {
		return fmt.Errorf("store: match %d already exists", m.MatchID)
	}
	copy := *m
	s.matches[m.MatchID] = &copy
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, matchID uint64) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMatchNotFound, matchID)
	}
	copy := *m
	return &copy, nil
}

func (s *MemoryStore) ListMatches(_ context.Context) ([]model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.Match, 0, len(s.matches))
	for _, m := range s.matches {
		matches = append(matches, *m)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].MatchID > matches[j].MatchID
	})
	return matches, nil
}

func (s *MemoryStore) UpdateMatch(_ context.Context, m *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.MatchID]; !ok {
		return fmt.Errorf("%w: %d", ErrMatchNotFound, m.MatchID)
	}
	copy := *m
	s.matches[m.MatchID] = &copy
	return nil
}

func (s *MemoryStore) DeleteMatch(_ context.Context, matchID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[matchID]; !ok {
		return fmt.Errorf("%w: %d", ErrMatchNotFound, matchID)
	}
	delete(s.matches, matchID)
	return nil
}

func (s *MemoryStore) OpenExposure(_ context.Context, player string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total uint64
	for _, m := range s.matches {
		if m.Resolved() {
			continue
		}
		if m.PlayerOne == player || m.PlayerTwo == player {
			total += m.StakeAmount
		}
	}
	return total, nil
}
