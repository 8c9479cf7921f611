package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

// DocumentStore persists runs and the documents found in them.
type DocumentStore interface {
	// SaveRun upserts the run and replaces its documents in one transaction.
	SaveRun(ctx context.Context, run entity.Run, docs []entity.DocumentRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	// FindSegmentedByHash returns the latest successful run for a content hash.
	FindSegmentedByHash(ctx context.Context, contentHash string) (*entity.Run, error)
	ListDocuments(ctx context.Context, runID uuid.UUID) ([]entity.DocumentRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// Queries use '?' placeholders; Postgres rebinds them to $N.
const (
	upsertRunSQL = `INSERT INTO split_run (id, source_path, content_hash, format, page_count, status, error_message, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	page_count = excluded.page_count,
	status = excluded.status,
	error_message = excluded.error_message,
	finished_at = excluded.finished_at`

	deleteDocumentsSQL = `DELETE FROM split_document WHERE run_id = ?`

	insertDocumentSQL = `INSERT INTO split_document (id, run_id, ordinal, document_type, label, page_range, first_page, last_page, confidence, text_length, extracted_text)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRunSQL = `SELECT id, source_path, content_hash, format, page_count, status, error_message, started_at, finished_at
FROM split_run WHERE id = ?`

	selectRunByHashSQL = `SELECT id, source_path, content_hash, format, page_count, status, error_message, started_at, finished_at
FROM split_run WHERE content_hash = ? AND status = ? ORDER BY started_at DESC LIMIT 1`

	selectDocumentsSQL = `SELECT document_type, label, page_range, first_page, last_page, confidence, text_length, extracted_text
FROM split_document WHERE run_id = ? ORDER BY ordinal`
)

// rebind rewrites '?' placeholders as $1..$N.
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// pagesFromRange rebuilds the contiguous page list stored as first/last.
func pagesFromRange(first, last int) []int {
	if first <= 0 || last < first {
		return nil
	}
	out := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		out = append(out, p)
	}
	return out
}
