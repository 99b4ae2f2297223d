package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // registers the postgres driver

	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/rating"
)

const uniqueViolation = "23505"

// PGStore implements Store on Postgres via database/sql. Selected with the
// "postgres" storage backend; the engine's contract is identical to MemStore.
type PGStore struct {
	db *sql.DB
}

// OpenPG connects to Postgres, verifies the connection, and bootstraps the
// schema. The schema statements are idempotent.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &PGStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PGStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *PGStore) PutCompetitor(ctx context.Context, c model.Competitor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competitors (id, name, belt, weight, start_rating, current_rating)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, int(c.Belt), c.Weight, c.Rating.Start, c.Rating.Current,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	if err != nil {
		return fmt.Errorf("insert competitor: %w", err)
	}
	return nil
}

func (s *PGStore) GetCompetitor(ctx context.Context, id string) (model.Competitor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, belt, weight, start_rating, current_rating
		FROM competitors WHERE id = $1`, id,
	)
	c, err := scanCompetitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Competitor{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Competitor{}, fmt.Errorf("select competitor: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompetitor(row rowScanner) (model.Competitor, error) {
	var (
		c      model.Competitor
		belt   int
		weight sql.NullFloat64
	)
	if err := row.Scan(&c.ID, &c.Name, &belt, &weight, &c.Rating.Start, &c.Rating.Current); err != nil {
		return model.Competitor{}, err
	}
	c.Belt = rating.Belt(belt)
	if weight.Valid {
		w := weight.Float64
		c.Weight = &w
	}
	return c, nil
}

func (s *PGStore) ListCompetitors(ctx context.Context) ([]model.Competitor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, belt, weight, start_rating, current_rating
		FROM competitors ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	var out []model.Competitor
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	return out, nil
}

func (s *PGStore) UpdateRating(ctx context.Context, id string, r rating.Rating) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE competitors SET current_rating = $2 WHERE id = $1`, id, r.Current,
	)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PGStore) AppendMatch(ctx context.Context, m model.Match) (model.Match, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO matches (id, side_a, side_b, outcome, ts, event_id, method, duration_ns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`,
		m.ID, m.SideA, m.SideB, string(m.Outcome), m.TS, m.Event, m.Method, int64(m.Duration),
	)
	if err := row.Scan(&m.Seq); err != nil {
		if isUniqueViolation(err) {
			return model.Match{}, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		return model.Match{}, fmt.Errorf("insert match: %w", err)
	}
	return m, nil
}

func (s *PGStore) ListMatches(ctx context.Context) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, side_a, side_b, outcome, ts, seq, event_id, method, duration_ns
		FROM matches ORDER BY ts, seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var (
			m          model.Match
			outcome    string
			durationNs int64
		)
		if err := rows.Scan(&m.ID, &m.SideA, &m.SideB, &outcome, &m.TS, &m.Seq, &m.Event, &m.Method, &durationNs); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Outcome = model.Outcome(outcome)
		m.Duration = time.Duration(durationNs)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return out, nil
}

func (s *PGStore) AppendSnapshots(ctx context.Context, entries ...model.SnapshotEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertSnapshots(ctx, tx, entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}
	return nil
}

func insertSnapshots(ctx context.Context, tx *sql.Tx, entries []model.SnapshotEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rating_history (match_id, competitor_id, rating_before, rating_after, delta, ts)
		VALUES ($1, $2, $3, $4, $5, $6)`,
	)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.MatchID, e.CompetitorID, e.Before, e.After, e.Delta, e.TS); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	return nil
}

func (s *PGStore) ListSnapshots(ctx context.Context, competitorID string) ([]model.SnapshotEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, competitor_id, rating_before, rating_after, delta, ts
		FROM rating_history WHERE competitor_id = $1 ORDER BY id`, competitorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.SnapshotEntry
	for rows.Next() {
		var e model.SnapshotEntry
		if err := rows.Scan(&e.MatchID, &e.CompetitorID, &e.Before, &e.After, &e.Delta, &e.TS); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func (s *PGStore) CommitRatings(ctx context.Context, ratings map[string]rating.Rating, snapshots []model.SnapshotEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for id, r := range ratings {
		res, err := tx.ExecContext(ctx, `
			UPDATE competitors SET current_rating = $2 WHERE id = $1`, id, r.Current,
		)
		if err != nil {
			return fmt.Errorf("commit rating: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rating_history`); err != nil {
		return fmt.Errorf("clear rating history: %w", err)
	}
	if err := insertSnapshots(ctx, tx, snapshots); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ratings: %w", err)
	}
	return nil
}

func (s *PGStore) CountCompetitors(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM competitors`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *PGStore) CountMatches(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		return 0
	}
	return n
}
