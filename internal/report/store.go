package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the reports table. EnsureSchema runs it at startup so
// deployments do not need a separate migration step.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
	id UUID PRIMARY KEY,
	match_id TEXT NOT NULL UNIQUE,
	summoner_name TEXT NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT '',
	verdict JSONB,
	model TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reports_summoner_created_idx ON reports (summoner_name, created_at DESC);
`

var (
	// ErrNotFound is returned when no report exists for the requested match.
	ErrNotFound = errors.New("report not found")

	// ErrInvalidReport is returned when a report is missing its match id
	// or summoner name.
	ErrInvalidReport = errors.New("report requires a match id and summoner name")
)

// Store reads and writes reports through a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a report store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the reports table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create reports schema: %w", err)
	}
	return nil
}

// Upsert inserts the report, or refreshes the stored verdict when the
// match has been analyzed before.
func (s *Store) Upsert(ctx context.Context, r *Report) error {
	if r == nil || r.MatchID == "" || r.SummonerName == "" {
		return ErrInvalidReport
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()

	const query = `
		INSERT INTO reports (id, match_id, summoner_name, overall_score, summary, verdict, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (match_id) DO UPDATE SET
			summoner_name = EXCLUDED.summoner_name,
			overall_score = EXCLUDED.overall_score,
			summary = EXCLUDED.summary,
			verdict = EXCLUDED.verdict,
			model = EXCLUDED.model,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		r.ID,
		r.MatchID,
		r.SummonerName,
		r.OverallScore,
		r.Summary,
		r.Verdict,
		r.Model,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert report %s: %w", r.MatchID, err)
	}
	return nil
}

// GetByMatchID retrieves the stored report for a match.
func (s *Store) GetByMatchID(ctx context.Context, matchID string) (*Report, error) {
	if matchID == "" {
		return nil, ErrInvalidReport
	}

	const query = `
		SELECT id, match_id, summoner_name, overall_score, summary, verdict, model, created_at, updated_at
		FROM reports
		WHERE match_id = $1
	`
	var r Report
	err := s.pool.QueryRow(ctx, query, matchID).Scan(
		&r.ID,
		&r.MatchID,
		&r.SummonerName,
		&r.OverallScore,
		&r.Summary,
		&r.Verdict,
		&r.Model,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report %s: %w", matchID, err)
	}
	return &r, nil
}

// ListBySummoner returns the most recent reports for a summoner, newest
// first. A non-positive limit falls back to 20.
func (s *Store) ListBySummoner(ctx context.Context, summonerName string, limit int) ([]Report, error) {
	if summonerName == "" {
		return nil, ErrInvalidReport
	}
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT id, match_id, summoner_name, overall_score, summary, verdict, model, created_at, updated_at
		FROM reports
		WHERE summoner_name = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, summonerName, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", summonerName, err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(
			&r.ID,
			&r.MatchID,
			&r.SummonerName,
			&r.OverallScore,
			&r.Summary,
			&r.Verdict,
			&r.Model,
			&r.CreatedAt,
			&r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", summonerName, err)
	}
	return reports, nil
}
