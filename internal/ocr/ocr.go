// Package ocr is the text source for the pipeline: it turns a PDF, image or
// pre-extracted text file into one entity.Page per source page, reading the
// PDF text layer first and falling back to OCR for pages that have none.
package ocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

// Extraction methods recorded on each page.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
	MethodTXT      = "txt"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int    // e.g., 6 is good for uniform block of text
	Engine        string // "tesseract-cli" (default) | "gosseract"

	DPI          int // rasterization DPI for scanned pages, default 300
	MaxPages     int // 0 = no limit
	MinTextChars int // text-layer pages shorter than this are OCR'd, default 50

	ToolTimeout time.Duration // per external tool invocation, 0 = none
}

// Result summarises one extraction.
type Result struct {
	Pages      int
	TotalPages int // pages in the source before MaxPages truncation
	SourceType string
	Duration   time.Duration
	Warnings   []string
	OCRPages   int
}

type Extractor struct {
	cfg        Config
	runner     Runner
	recognizer Recognizer
	pageCount  func(path string) (int, error)
	logger     *slog.Logger
}

// Option customises an Extractor (mostly for tests).
type Option func(*Extractor)

// WithRunner replaces the external command runner.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithRecognizer replaces the OCR engine.
func WithRecognizer(r Recognizer) Option {
	return func(e *Extractor) { e.recognizer = r }
}

// WithPageCounter replaces the PDF page counter.
func WithPageCounter(fn func(path string) (int, error)) Option {
	return func(e *Extractor) { e.pageCount = fn }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 50
	}
	e := &Extractor{cfg: cfg, runner: execRunner{timeout: cfg.ToolTimeout, logger: logger}, pageCount: pdfPageCount, logger: logger}
	for _, o := range opts {
		o(e)
	}
	if e.recognizer == nil {
		rec, err := newRecognizer(cfg, e.runner)
		if err != nil {
			return nil, err
		}
		e.recognizer = rec
	}
	return e, nil
}

// Close releases the OCR engine when it holds resources (the in-process
// Tesseract handle). Safe to call more than once.
func (e *Extractor) Close() error {
	c, ok := e.recognizer.(io.Closer)
	if !ok {
		return nil
	}
	e.recognizer = nil
	return c.Close()
}

func newRecognizer(cfg Config, r Runner) (Recognizer, error) {
	switch cfg.Engine {
	case "", "tesseract-cli":
		return &TesseractCLI{Runner: r, Binary: cfg.Tesseract, Lang: cfg.TesseractLang, TessdataDir: cfg.TessdataDir, PSM: cfg.PSM}, nil
	case "gosseract":
		return NewGosseract(cfg.TesseractLang, cfg.TessdataDir, cfg.PSM)
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
	}
}

// Pages picks a strategy based on file extension and returns pages 1..N.
// A page whose extraction fails comes back with empty text and a warning.
func (e *Extractor) Pages(ctx context.Context, path string) ([]entity.Page, Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)

	var (
		pages []entity.Page
		res   Result
		err   error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		pages, res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		pages, res, err = e.extractImage(ctx, path)
	case constants.TXT:
		pages, res, err = e.extractTXT(path)
	default:
		e.logger.Error("unsupported extension", "extension", ext)
		return nil, Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return nil, res, err
	}
	e.logger.Info("text extraction done",
		"path", path,
		"source_type", res.SourceType,
		"pages", res.Pages,
		"ocr_pages", res.OCRPages,
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return pages, res, nil
}

func (e *Extractor) limit(n int) int {
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		return e.cfg.MaxPages
	}
	return n
}

// ReadPages is Pages without the extraction summary; per-page warnings are logged.
func (e *Extractor) ReadPages(ctx context.Context, path string) ([]entity.Page, error) {
	pages, res, err := e.Pages(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		e.logger.Warn("page extraction degraded", "path", path, "detail", w)
	}
	return pages, nil
}

// ConfigFrom maps application configuration onto extractor configuration.
func ConfigFrom(c common.OCRConfig, maxPages int) Config {
	return Config{
		Pdftotext:     c.Pdftotext,
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.TesseractLang,
		TessdataDir:   c.TessdataDir,
		PSM:           c.PSM,
		Engine:        c.Engine,
		DPI:           c.DPI,
		MaxPages:      maxPages,
		MinTextChars:  c.MinTextChars,
		ToolTimeout:   c.ToolTimeout,
	}
}
