// Package journal persists accepted lifecycle envelopes to PostgreSQL as an
// append-only audit trail, queryable per entity key. It is optional and
// best-effort; the tracker's in-memory state never depends on it.
package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
)

// Store implements tracker.JournalSink using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new journal store with the given database connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the journal table and index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, queryCreateTable)
	return err
}

// Entry is one journaled envelope.
type Entry struct {
	ID         uuid.UUID
	Kind       domain.Kind
	Key        string
	Status     domain.Status
	Error      *string
	AuxID      *int64
	ReportedAt *time.Time // envelope's advisory timestamp, when parseable
	RecordedAt time.Time
}

// Append journals one accepted envelope.
func (s *Store) Append(ctx context.Context, kind domain.Kind, env domain.Envelope) error {
	var reportedAt *time.Time
	if env.Timestamp != nil {
		if ts, err := time.Parse(time.RFC3339, *env.Timestamp); err == nil {
			utc := ts.UTC()
			reportedAt = &utc
		}
	}

	_, err := s.db.ExecContext(ctx, queryInsertEvent,
		uuid.New(), string(kind), env.Key, string(env.Status),
		env.Error, env.AuxID, reportedAt, time.Now().UTC())
	return err
}

// ListByKey returns journaled events for one entity, newest first.
func (s *Store) ListByKey(ctx context.Context, key string, limit, offset int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, queryListByKey, key, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind, status string
		if err := rows.Scan(&e.ID, &kind, &e.Key, &status, &e.Error, &e.AuxID, &e.ReportedAt, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Kind = domain.Kind(kind)
		e.Status = domain.Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
