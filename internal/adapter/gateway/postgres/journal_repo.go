package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/journal"
)

// JournalRepo persists snapshot write attempts. Only counts and outcomes are
// stored, never the lists themselves.
type JournalRepo struct {
	db *sql.DB
}

var _ journal.Recorder = (*JournalRepo)(nil)

func NewJournalRepo(db *sql.DB) *JournalRepo { return &JournalRepo{db: db} }

const journalDDL = `
CREATE TABLE IF NOT EXISTS snapshot_journal (
	id                 UUID PRIMARY KEY,
	kind               TEXT        NOT NULL,
	ok                 BOOLEAN     NOT NULL,
	reference_count    INTEGER     NOT NULL DEFAULT 0,
	comparison_a_count INTEGER     NOT NULL DEFAULT 0,
	comparison_b_count INTEGER     NOT NULL DEFAULT 0,
	error              TEXT        NOT NULL DEFAULT '',
	at                 TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshot_journal_at_idx ON snapshot_journal (at DESC);
`

func (r *JournalRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, journalDDL); err != nil {
		return fmt.Errorf("journal schema: %w", err)
	}
	return nil
}

func (r *JournalRepo) Record(ctx context.Context, e journal.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshot_journal
			(id, kind, ok, reference_count, comparison_a_count, comparison_b_count, error, at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING`,
		e.ID.String(), string(e.Kind), e.OK,
		e.ReferenceCount, e.ComparisonACount, e.ComparisonBCount, e.Error, e.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert journal: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *JournalRepo) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, ok, reference_count, comparison_a_count, comparison_b_count, error, at
		FROM snapshot_journal
		ORDER BY at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	out := make([]journal.Entry, 0, limit)
	for rows.Next() {
		var (
			e    journal.Entry
			id   string
			kind string
		)
		if err := rows.Scan(&id, &kind, &e.OK, &e.ReferenceCount, &e.ComparisonACount,
			&e.ComparisonBCount, &e.Error, &e.At); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("journal id %q: %w", id, err)
		}
		e.Kind = journal.Kind(kind)
		e.At = e.At.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
