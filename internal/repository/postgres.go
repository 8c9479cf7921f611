package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS split_run (
	id            UUID PRIMARY KEY,
	source_path   TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	format        TEXT NOT NULL,
	page_count    INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL,
	error_message TEXT,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS split_run_content_hash_idx ON split_run (content_hash);
CREATE TABLE IF NOT EXISTS split_document (
	id             UUID PRIMARY KEY,
	run_id         UUID NOT NULL REFERENCES split_run(id) ON DELETE CASCADE,
	ordinal        INTEGER NOT NULL,
	document_type  TEXT NOT NULL,
	label          TEXT NOT NULL,
	page_range     TEXT NOT NULL,
	first_page     INTEGER NOT NULL,
	last_page      INTEGER NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL,
	text_length    INTEGER NOT NULL,
	extracted_text TEXT NOT NULL,
	UNIQUE (run_id, ordinal)
);`

type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		s.logger.Error("schema migration failed", "error", err)
		return fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run entity.Run, docs []entity.DocumentRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, rebind(upsertRunSQL),
		run.ID, run.SourcePath, run.ContentHash, run.Format, run.PageCount,
		run.Status, run.ErrorMessage, run.StartedAt, run.FinishedAt,
	); err != nil {
		s.logger.Error("split_run upsert failed", "run_id", run.ID, "error", err)
		return fmt.Errorf("%w: save run: %v", common.ErrDatabase, err)
	}

	batch := &pgx.Batch{}
	batch.Queue(rebind(deleteDocumentsSQL), run.ID)
	for i, d := range docs {
		batch.Queue(rebind(insertDocumentSQL),
			uuid.New(), run.ID, i+1, d.DocumentType, d.Label, d.PageRange,
			d.FirstPage(), d.LastPage(), d.Confidence, d.TextLength, d.CombinedText,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		s.logger.Error("split_document insert failed", "run_id", run.ID, "error", err)
		return fmt.Errorf("%w: save documents: %v", common.ErrDatabase, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	s.logger.Info("run saved", "run_id", run.ID, "status", run.Status, "documents", len(docs))
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx, rebind(selectRunSQL), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get run: %v", common.ErrDatabase, err)
	}
	return r, nil
}

func (s *PostgresStore) FindSegmentedByHash(ctx context.Context, contentHash string) (*entity.Run, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx, rebind(selectRunByHashSQL), contentHash, string(constants.RunStatusSegmented)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no run for hash %s", common.ErrNotFound, contentHash)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find run: %v", common.ErrDatabase, err)
	}
	return r, nil
}

func scanPgRun(row pgx.Row) (*entity.Run, error) {
	var r entity.Run
	err := row.Scan(
		&r.ID, &r.SourcePath, &r.ContentHash, &r.Format, &r.PageCount,
		&r.Status, &r.ErrorMessage, &r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, runID uuid.UUID) ([]entity.DocumentRecord, error) {
	rows, err := s.pool.Query(ctx, rebind(selectDocumentsSQL), runID)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

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

func (s *PostgresStore) Ping(ctx context.Context) error {
	return HealthCheck(ctx, s.pool, 0, s.logger)
}

// Pool exposes the underlying pool for health checks.
func (s *PostgresStore) Pool() *pgxpool.Pool { return s.pool }

func (s *PostgresStore) Close() error {
	Close(s.pool, s.logger)
	return nil
}
