// Package repository defines the storage contract the engine replays from,
// plus the in-memory and Postgres implementations behind it.
package repository

import (
	"context"

	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/rating"
)

// Store is the single source of truth for competitors, the ordered match
// log, and the derived rating snapshots. The engine owns only derived state;
// everything here is replayable.
type Store interface {
	// PutCompetitor inserts a competitor. Returns ErrDuplicateID when the
	// id is already taken.
	PutCompetitor(ctx context.Context, c model.Competitor) error

	// GetCompetitor returns a competitor by id, or ErrNotFound.
	GetCompetitor(ctx context.Context, id string) (model.Competitor, error)

	// ListCompetitors returns all competitors, ordered by id for
	// deterministic iteration.
	ListCompetitors(ctx context.Context) ([]model.Competitor, error)

	// UpdateRating writes a competitor's current rating. The starting
	// rating never changes after creation.
	UpdateRating(ctx context.Context, id string, r rating.Rating) error

	// AppendMatch appends to the match log, assigning the sequence number
	// that breaks timestamp ties. The stored match is returned.
	AppendMatch(ctx context.Context, m model.Match) (model.Match, error)

	// ListMatches returns the full log ordered by (timestamp, sequence).
	ListMatches(ctx context.Context) ([]model.Match, error)

	// AppendSnapshots appends rating-snapshot entries from an incremental
	// update.
	AppendSnapshots(ctx context.Context, entries ...model.SnapshotEntry) error

	// ListSnapshots returns a competitor's snapshot history in replay order.
	ListSnapshots(ctx context.Context, competitorID string) ([]model.SnapshotEntry, error)

	// CommitRatings atomically installs a recalculated rating set and
	// replaces the snapshot history wholesale. All-or-nothing: a failed
	// run must not leave the ladder half-updated.
	CommitRatings(ctx context.Context, ratings map[string]rating.Rating, snapshots []model.SnapshotEntry) error

	// CountCompetitors and CountMatches report store sizes for monitoring.
	CountCompetitors(ctx context.Context) int
	CountMatches(ctx context.Context) int
}
