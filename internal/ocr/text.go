package ocr

import (
	"fmt"
	"os"
	"strings"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

// extractTXT reads pre-extracted text where pages are separated by form feeds,
// the same convention pdftotext uses.
func (e *Extractor) extractTXT(path string) ([]entity.Page, Result, error) {
	res := Result{SourceType: constants.TXT}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, res, fmt.Errorf("read text: %w", err)
	}
	pages := SplitFormFeed(string(data))
	res.TotalPages = len(pages)
	pages = pages[:e.limit(len(pages))]
	res.Pages = len(pages)
	return pages, res, nil
}

// SplitFormFeed splits text on \f into pages 1..N. A trailing form feed does
// not produce an extra empty page.
func SplitFormFeed(text string) []entity.Page {
	text = strings.TrimSuffix(text, "\f")
	parts := strings.Split(text, "\f")
	pages := make([]entity.Page, 0, len(parts))
	for i, p := range parts {
		pg := entity.NewPage(i+1, Normalize(p))
		pg.Method = MethodTXT
		pages = append(pages, pg)
	}
	return pages
}
