package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

func pdfPageCount(path string) (int, error) {
	return api.PageCountFile(path)
}

func (e *Extractor) extractPDF(ctx context.Context, path string) ([]entity.Page, Result, error) {
	res := Result{SourceType: constants.PDF}
	total, err := e.pageCount(path)
	if err != nil {
		e.logger.Error("pdf page count failed", "path", path, "error", err)
		return nil, res, fmt.Errorf("page count: %w", err)
	}
	if total == 0 {
		return nil, res, fmt.Errorf("pdf has no pages: %s", path)
	}
	res.TotalPages = total
	n := e.limit(total)
	if n < total {
		e.logger.Warn("page sequence truncated", "path", path, "total_pages", total, "max_pages", n)
	}

	pages := make([]entity.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, res, err
		}
		text, err := e.pdfPageText(ctx, path, i)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: pdftotext: %v", i, err))
		}
		method := MethodPDFText
		if utf8.RuneCountInString(strings.TrimSpace(text)) < e.cfg.MinTextChars {
			ocrText, err := e.pdfPageOCR(ctx, path, i)
			switch {
			case err != nil:
				res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: ocr: %v", i, err))
			case len(strings.TrimSpace(ocrText)) > len(strings.TrimSpace(text)):
				text = ocrText
				method = MethodPDFOCR
				res.OCRPages++
			}
		}
		pg := entity.NewPage(i, Normalize(text))
		pg.Method = method
		pages = append(pages, pg)
	}
	res.Pages = len(pages)
	return pages, res, nil
}

// pdfPageText reads one page of the text layer.
func (e *Extractor) pdfPageText(ctx context.Context, path string, page int) (string, error) {
	p := strconv.Itoa(page)
	// pdftotext -f N -l N -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-f", p, "-l", p, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, clip(string(errb), 512))
	}
	// a form-feed \f terminates every page
	return strings.TrimRight(string(out), "\f\n"), nil
}

// pdfPageOCR rasterises one page and runs the recognizer on it.
func (e *Extractor) pdfPageOCR(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "lcsplit-pp-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	p := strconv.Itoa(page)
	// pdftoppm -f N -l N -r 300 -png -singlefile <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-f", p, "-l", p, "-r", strconv.Itoa(e.cfg.DPI), "-png", "-singlefile", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, clip(string(errb), 512))
	}
	return e.recognizer.Recognize(ctx, prefix+".png")
}
