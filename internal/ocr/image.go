package ocr

import (
	"context"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

// extractImage treats an image as a single-page package.
func (e *Extractor) extractImage(ctx context.Context, path string) ([]entity.Page, Result, error) {
	res := Result{SourceType: constants.IMAGE, TotalPages: 1, Pages: 1}
	txt, err := e.recognizer.Recognize(ctx, path)
	if err != nil {
		// an unreadable image is still page 1, with no text
		res.Warnings = append(res.Warnings, err.Error())
		txt = ""
	} else {
		res.OCRPages = 1
	}
	pg := entity.NewPage(1, Normalize(txt))
	pg.Method = MethodImageOCR
	return []entity.Page{pg}, res, nil
}
