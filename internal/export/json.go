// Package export renders segmented documents as JSON and XLSX reports.
package export

import (
	"encoding/json"
	"io"

	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

// Document is the serialised form of one DocumentRecord.
type Document struct {
	DocumentType  string  `json:"document_type"`
	Label         string  `json:"label"`
	PageRange     string  `json:"page_range"`
	Pages         []int   `json:"pages"`
	Confidence    float64 `json:"confidence"`
	ExtractedText string  `json:"extracted_text"`
	TextLength    int     `json:"text_length"`
}

// Report wraps the documents of one run.
type Report struct {
	RunID         string     `json:"run_id,omitempty"`
	Source        string     `json:"source,omitempty"`
	TotalPages    int        `json:"total_pages"`
	DocumentCount int        `json:"document_count"`
	Documents     []Document `json:"documents"`
}

// ToOutput converts records, cutting extracted_text to previewLimit runes
// (0 keeps the full text). text_length always reports the full length.
func ToOutput(records []entity.DocumentRecord, previewLimit int) []Document {
	out := make([]Document, 0, len(records))
	for _, r := range records {
		out = append(out, Document{
			DocumentType:  r.DocumentType,
			Label:         r.Label,
			PageRange:     r.PageRange,
			Pages:         append([]int(nil), r.Pages...),
			Confidence:    r.Confidence,
			ExtractedText: Preview(r.CombinedText, previewLimit),
			TextLength:    r.TextLength,
		})
	}
	return out
}

// NewReport builds a Report; run may be nil.
func NewReport(run *entity.Run, records []entity.DocumentRecord, previewLimit int) Report {
	rep := Report{Documents: ToOutput(records, previewLimit), DocumentCount: len(records)}
	for _, r := range records {
		rep.TotalPages += len(r.Pages)
	}
	if run != nil {
		rep.RunID = run.ID.String()
		rep.Source = run.SourcePath
	}
	return rep
}

// WriteJSON writes an indented report to w.
func WriteJSON(w io.Writer, run *entity.Run, records []entity.DocumentRecord, previewLimit int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(run, records, previewLimit))
}

// WriteReports writes a single report as an object and several as an array.
func WriteReports(w io.Writer, reports []Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	if reports == nil {
		reports = []Report{}
	}
	return enc.Encode(reports)
}

// Preview returns the first limit runes of s followed by "..." when s is longer.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
