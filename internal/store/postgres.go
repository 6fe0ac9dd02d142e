package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillstake/wager-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// The platform registry is a single-row table guarded by a fixed primary key.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreatePlatform(ctx context.Context, p *model.Platform) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO platform (id, authority, fee_bps, treasury, total_matches, total_volume, created_at)
		 VALUES (1, $1, $2, $3, $4, $5, $6)`,
		p.Authority, p.FeeBps, p.Treasury, int64(p.TotalMatches), int64(p.TotalVolume), p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrPlatformExists
	}
	return err
}

func (s *PostgresStore) GetPlatform(ctx context.Context) (*model.Platform, error) {
	var p model.Platform
	var totalMatches, totalVolume int64

	err := s.pool.QueryRow(ctx,
		`SELECT authority, fee_bps, treasury, total_matches, total_volume, created_at
		 FROM platform WHERE id = 1`).
		Scan(&p.Authority, &p.FeeBps, &p.Treasury, &totalMatches, &totalVolume, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlatformNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get platform: %w", err)
	}

	p.TotalMatches = uint64(totalMatches)
	p.TotalVolume = uint64(totalVolume)
	return &p, nil
}

func (s *PostgresStore) UpdatePlatform(ctx context.Context, p *model.Platform) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE platform
		 SET fee_bps = $1, treasury = $2, total_matches = $3, total_volume = $4
		 WHERE id = 1`,
		p.FeeBps, p.Treasury, int64(p.TotalMatches), int64(p.TotalVolume),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlatformNotFound
	}
	return nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p *model.PlayerProfile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (owner, display_name, rating, wins, losses, ties,
		                       games_played, total_pnl, current_streak, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.Owner, p.DisplayName, p.Rating, p.Wins, p.Losses, p.Ties,
		p.GamesPlayed, p.TotalPnL, p.CurrentStreak, p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Owner)
	}
	return err
}

func (s *PostgresStore) GetProfile(ctx context.Context, owner string) (*model.PlayerProfile, error) {
	var p model.PlayerProfile

	err := s.pool.QueryRow(ctx,
		`SELECT owner, display_name, rating, wins, losses, ties,
		        games_played, total_pnl, current_streak, created_at
		 FROM profiles WHERE owner = $1`, owner).
		Scan(&p.Owner, &p.DisplayName, &p.Rating, &p.Wins, &p.Losses, &p.Ties,
			&p.GamesPlayed, &p.TotalPnL, &p.CurrentStreak, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", owner, err)
	}
	return &p, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, p *model.PlayerProfile) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles
		 SET rating = $2, wins = $3, losses = $4, ties = $5,
		     games_played = $6, total_pnl = $7, current_streak = $8
		 WHERE owner = $1`,
		p.Owner, p.Rating, p.Wins, p.Losses, p.Ties,
		p.GamesPlayed, p.TotalPnL, p.CurrentStreak,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, p.Owner)
	}
	return nil
}

func (s *PostgresStore) ListTopProfiles(ctx context.Context, limit int) ([]model.PlayerProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT owner, display_name, rating, wins, losses, ties,
		        games_played, total_pnl, current_streak, created_at
		 FROM profiles ORDER BY rating DESC, owner LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []model.PlayerProfile
	for rows.Next() {
		var p model.PlayerProfile
		if err := rows.Scan(&p.Owner, &p.DisplayName, &p.Rating, &p.Wins, &p.Losses, &p.Ties,
			&p.GamesPlayed, &p.TotalPnL, &p.CurrentStreak, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *PostgresStore) CreateMatch(ctx context.Context, m *model.Match) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matches (match_id, player_one, player_two, stake_amount, timeframe_seconds,
		                      escrow_account, status, winner, player_one_pnl, player_two_pnl,
		                      player_one_deposited, player_two_deposited,
		                      start_time, end_time, settled_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		int64(m.MatchID), m.PlayerOne, m.PlayerTwo, int64(m.StakeAmount), m.TimeframeSeconds,
		m.EscrowAccount, m.Status, m.Winner, m.PlayerOnePnL, m.PlayerTwoPnL,
		m.PlayerOneDeposited, m.PlayerTwoDeposited,
		m.StartTime, m.EndTime, m.SettledAt, m.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetMatch(ctx context.Context, matchID uint64) (*model.Match, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx,
		matchSelect+` WHERE match_id = $1`, int64(matchID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrMatchNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("get match %d: %w", matchID, err)
	}
	return m, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context) ([]model.Match, error) {
	rows, err := s.pool.Query(ctx, matchSelect+` ORDER BY match_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) UpdateMatch(ctx context.Context, m *model.Match) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE matches
		 SET status = $2, winner = $3, player_one_pnl = $4, player_two_pnl = $5,
		     player_one_deposited = $6, player_two_deposited = $7,
		     start_time = $8, end_time = $9, settled_at = $10
		 WHERE match_id = $1`,
		int64(m.MatchID), m.Status, m.Winner, m.PlayerOnePnL, m.PlayerTwoPnL,
		m.PlayerOneDeposited, m.PlayerTwoDeposited,
		m.StartTime, m.EndTime, m.SettledAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrMatchNotFound, m.MatchID)
	}
	return nil
}

func (s *PostgresStore) DeleteMatch(ctx context.Context, matchID uint64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM matches WHERE match_id = $1`, int64(matchID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrMatchNotFound, matchID)
	}
	return nil
}

func (s *PostgresStore) OpenExposure(ctx context.Context, player string) (uint64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(stake_amount), 0)
		 FROM matches
		 WHERE status IN ('pending', 'active')
		   AND (player_one = $1 OR player_two = $1)`, player).
		Scan(&total)
	if err != nil {
		return 0, err
	}
	return uint64(total), nil
}

const matchSelect = `SELECT match_id, player_one, player_two, stake_amount, timeframe_seconds,
       escrow_account, status, winner, player_one_pnl, player_two_pnl,
       player_one_deposited, player_two_deposited,
       start_time, end_time, settled_at, created_at
  FROM matches`

// pgxRow covers both pgx.Row and pgx.Rows for scanning one match.
type pgxRow interface {
	Scan(dest ...any) error
}

func scanMatch(row pgxRow) (*model.Match, error) {
	var m model.Match
	var matchID, stake int64

	if err := row.Scan(&matchID, &m.PlayerOne, &m.PlayerTwo, &stake, &m.TimeframeSeconds,
		&m.EscrowAccount, &m.Status, &m.Winner, &m.PlayerOnePnL, &m.PlayerTwoPnL,
		&m.PlayerOneDeposited, &m.PlayerTwoDeposited,
		&m.StartTime, &m.EndTime, &m.SettledAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.MatchID = uint64(matchID)
	m.StakeAmount = uint64(stake)
	return &m, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
