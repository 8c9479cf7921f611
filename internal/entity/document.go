package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentRecord is one constituent document detected inside a package.
// Pages is contiguous and ascending.
type DocumentRecord struct {
	Label        string  `json:"label"`
	DocumentType string  `json:"document_type"`
	Pages        []int   `json:"pages"`
	PageRange    string  `json:"page_range"`
	Confidence   float64 `json:"confidence"`
	CombinedText string  `json:"extracted_text"`
	TextLength   int     `json:"text_length"`
}

// FirstPage returns the first page of the record, or 0 when empty.
func (d DocumentRecord) FirstPage() int {
	if len(d.Pages) == 0 {
		return 0
	}
	return d.Pages[0]
}

// LastPage returns the last page of the record, or 0 when empty.
func (d DocumentRecord) LastPage() int {
	if len(d.Pages) == 0 {
		return 0
	}
	return d.Pages[len(d.Pages)-1]
}

// Run represents a single processed package for data transfer between layers.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	SourcePath   string     `json:"source_path"`
	ContentHash  string     `json:"content_hash"`
	Format       string     `json:"format"`
	PageCount    int        `json:"page_count"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
