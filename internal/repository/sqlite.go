package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS split_run (
	id            TEXT PRIMARY KEY,
	source_path   TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	format        TEXT NOT NULL,
	page_count    INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL,
	error_message TEXT,
	started_at    TEXT NOT NULL,
	finished_at   TEXT
);
CREATE INDEX IF NOT EXISTS split_run_content_hash_idx ON split_run (content_hash);
CREATE TABLE IF NOT EXISTS split_document (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES split_run(id) ON DELETE CASCADE,
	ordinal        INTEGER NOT NULL,
	document_type  TEXT NOT NULL,
	label          TEXT NOT NULL,
	page_range     TEXT NOT NULL,
	first_page     INTEGER NOT NULL,
	last_page      INTEGER NOT NULL,
	confidence     REAL NOT NULL,
	text_length    INTEGER NOT NULL,
	extracted_text TEXT NOT NULL,
	UNIQUE (run_id, ordinal)
);`

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps runs in an embedded database. Timestamps are stored as
// RFC 3339 text in UTC.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{db: db, logger: logger}
}

// Migrate creates the tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		s.logger.Error("schema migration failed", "error", err)
		return fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
	}
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run entity.Run, docs []entity.DocumentRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsertRunSQL,
		run.ID.String(), run.SourcePath, run.ContentHash, run.Format, run.PageCount,
		run.Status, nullString(run.ErrorMessage), formatTime(run.StartedAt), nullTime(run.FinishedAt),
	); err != nil {
		s.logger.Error("split_run upsert failed", "run_id", run.ID, "error", err)
		return fmt.Errorf("%w: save run: %v", common.ErrDatabase, err)
	}
	if _, err := tx.ExecContext(ctx, deleteDocumentsSQL, run.ID.String()); err != nil {
		return fmt.Errorf("%w: clear documents: %v", common.ErrDatabase, err)
	}
	for i, d := range docs {
		if _, err := tx.ExecContext(ctx, insertDocumentSQL,
			uuid.NewString(), run.ID.String(), i+1, d.DocumentType, d.Label, d.PageRange,
			d.FirstPage(), d.LastPage(), d.Confidence, d.TextLength, d.CombinedText,
		); err != nil {
			s.logger.Error("split_document insert failed", "run_id", run.ID, "ordinal", i+1, "error", err)
			return fmt.Errorf("%w: save document %d: %v", common.ErrDatabase, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	s.logger.Info("run saved", "run_id", run.ID, "status", run.Status, "documents", len(docs))
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	r, err := scanSQLiteRun(s.db.QueryRowContext(ctx, selectRunSQL, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get run: %v", common.ErrDatabase, err)
	}
	return r, nil
}

func (s *SQLiteStore) FindSegmentedByHash(ctx context.Context, contentHash string) (*entity.Run, error) {
	r, err := scanSQLiteRun(s.db.QueryRowContext(ctx, selectRunByHashSQL, contentHash, string(constants.RunStatusSegmented)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no run for hash %s", common.ErrNotFound, contentHash)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find run: %v", common.ErrDatabase, err)
	}
	return r, nil
}

func scanSQLiteRun(row *sql.Row) (*entity.Run, error) {
	var (
		r                  entity.Run
		rawID, started     string
		errMsg, finishedAt sql.NullString
	)
	if err := row.Scan(
		&rawID, &r.SourcePath, &r.ContentHash, &r.Format, &r.PageCount,
		&r.Status, &errMsg, &started, &finishedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if r.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("bad run id %q: %w", rawID, err)
	}
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("bad started_at %q: %w", started, err)
	}
	if errMsg.Valid {
		m := errMsg.String
		r.ErrorMessage = &m
	}
	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad finished_at %q: %w", finishedAt.String, err)
		}
		r.FinishedAt = &t
	}
	return &r, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, runID uuid.UUID) ([]entity.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectDocumentsSQL, runID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.DocumentRecord
	for rows.Next() {
		var (
			d           entity.DocumentRecord
			first, last int
		)
		if err := rows.Scan(&d.DocumentType, &d.Label, &d.PageRange, &first, &last, &d.Confidence, &d.TextLength, &d.CombinedText); err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", common.ErrDatabase, err)
		}
		d.Pages = pagesFromRange(first, last)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
