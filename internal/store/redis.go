package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillstake/wager-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreatePlatform(ctx context.Context, p *model.Platform) error {
	if err := s.primary.CreatePlatform(ctx, p); err != nil {
		return err
	}
	s.cachePlatform(ctx, p)
	return nil
}

func (s *CachedStore) UpdatePlatform(ctx context.Context, p *model.Platform) error {
	if err := s.primary.UpdatePlatform(ctx, p); err != nil {
		return err
	}
	s.cachePlatform(ctx, p)
	return nil
}

func (s *CachedStore) CreateProfile(ctx context.Context, p *model.PlayerProfile) error {
	if err := s.primary.CreateProfile(ctx, p); err != nil {
		return err
	}
	s.cacheProfile(ctx, p)
	s.rdb.Del(ctx, leaderboardKey())
	return nil
}

func (s *CachedStore) UpdateProfile(ctx context.Context, p *model.PlayerProfile) error {
	if err := s.primary.UpdateProfile(ctx, p); err != nil {
		return err
	}
	s.cacheProfile(ctx, p)
	s.rdb.Del(ctx, leaderboardKey())
	return nil
}

func (s *CachedStore) CreateMatch(ctx context.Context, m *model.Match) error {
	if err := s.primary.CreateMatch(ctx, m); err != nil {
		return err
	}
	s.cacheMatch(ctx, m)
	return nil
}

func (s *CachedStore) UpdateMatch(ctx context.Context, m *model.Match) error {
	if err := s.primary.UpdateMatch(ctx, m); err != nil {
		return err
	}
	// Invalidate; next read re-populates from the primary.
	s.rdb.Del(ctx, matchKey(m.MatchID))
	return nil
}

func (s *CachedStore) DeleteMatch(ctx context.Context, matchID uint64) error {
	if err := s.primary.DeleteMatch(ctx, matchID); err != nil {
		return err
	}
	s.rdb.Del(ctx, matchKey(matchID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetPlatform(ctx context.Context) (*model.Platform, error) {
	data, err := s.rdb.Get(ctx, platformKey()).Bytes()
	if err == nil {
		var p model.Platform
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	p, err := s.primary.GetPlatform(ctx)
	if err != nil {
		return nil, err
	}
	s.cachePlatform(ctx, p)
	return p, nil
}

func (s *CachedStore) GetProfile(ctx context.Context, owner string) (*model.PlayerProfile, error) {
	data, err := s.rdb.Get(ctx, profileKey(owner)).Bytes()
	if err == nil {
		var p model.PlayerProfile
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	p, err := s.primary.GetProfile(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, p)
	return p, nil
}

func (s *CachedStore) GetMatch(ctx context.Context, matchID uint64) (*model.Match, error) {
	data, err := s.rdb.Get(ctx, matchKey(matchID)).Bytes()
	if err == nil {
		var m model.Match
		if json.Unmarshal(data, &m) == nil {
			return &m, nil
		}
	}

	m, err := s.primary.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.cacheMatch(ctx, m)
	return m, nil
}

func (s *CachedStore) ListTopProfiles(ctx context.Context, limit int) ([]model.PlayerProfile, error) {
	data, err := s.rdb.Get(ctx, leaderboardKey()).Bytes()
	if err == nil {
		var profiles []model.PlayerProfile
		if json.Unmarshal(data, &profiles) == nil && len(profiles) >= limit {
			return profiles[:limit], nil
		}
	}

	profiles, err := s.primary.ListTopProfiles(ctx, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(profiles); err == nil {
		s.rdb.Set(ctx, leaderboardKey(), data, s.ttl)
	}
	return profiles, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListMatches(ctx context.Context) ([]model.Match, error) {
	return s.primary.ListMatches(ctx)
}

func (s *CachedStore) OpenExposure(ctx context.Context, player string) (uint64, error) {
	return s.primary.OpenExposure(ctx, player)
}

// --- Cache helpers ---

func (s *CachedStore) cachePlatform(ctx context.Context, p *model.Platform) {
	if data, err := json.Marshal(p); err == nil {
		s.rdb.Set(ctx, platformKey(), data, s.ttl)
	}
}

func (s *CachedStore) cacheProfile(ctx context.Context, p *model.PlayerProfile) {
	if data, err := json.Marshal(p); err == nil {
		s.rdb.Set(ctx, profileKey(p.Owner), data, s.ttl)
	}
}

func (s *CachedStore) cacheMatch(ctx context.Context, m *model.Match) {
	if data, err := json.Marshal(m); err == nil {
		s.rdb.Set(ctx, matchKey(m.MatchID), data, s.ttl)
	}
}

func platformKey() string            { return "platform" }
func profileKey(owner string) string { return fmt.Sprintf("profile:%s", owner) }
func matchKey(id uint64) string      { return "match:" + strconv.FormatUint(id, 10) }
func leaderboardKey() string         { return "leaderboard" }
