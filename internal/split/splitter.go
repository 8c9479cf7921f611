// Package split writes each detected document of a package out as its own PDF.
package split

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

// TrimFunc extracts the selected pages of in into out.
type TrimFunc func(in, out string, selectedPages []string) error

type Splitter struct {
	trim    TrimFunc
	workers int
	logger  *slog.Logger
}

// Option customises a Splitter.
type Option func(*Splitter)

// WithTrimFunc replaces the pdfcpu page extraction (tests).
func WithTrimFunc(fn TrimFunc) Option {
	return func(s *Splitter) { s.trim = fn }
}

// WithWorkers bounds concurrent writes (default 4).
func WithWorkers(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.workers = n
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Splitter{trim: pdfcpuTrim, workers: 4, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

func pdfcpuTrim(in, out string, selectedPages []string) error {
	return api.TrimFile(in, out, selectedPages, nil)
}

// Write creates outDir and one PDF per record, named by FileName.
// It returns the written paths in record order.
func (s *Splitter) Write(ctx context.Context, sourcePDF, outDir string, records []entity.DocumentRecord) ([]string, error) {
	for i, rec := range records {
		if len(rec.Pages) == 0 {
			return nil, fmt.Errorf("record %d has no pages", i+1)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rec := range records {
		out := filepath.Join(outDir, FileName(i+1, rec))
		paths[i] = out
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sel := []string{fmt.Sprintf("%d-%d", rec.FirstPage(), rec.LastPage())}
			if err := s.trim(sourcePDF, out, sel); err != nil {
				s.logger.Error("failed to write document pdf", "path", out, "pages", sel[0], "error", err)
				return fmt.Errorf("document %d (%s): %w", i+1, rec.PageRange, err)
			}
			s.logger.Debug("document pdf written", "path", out, "pages", sel[0])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Info("package split", "source", sourcePDF, "documents", len(records), "out_dir", outDir)
	return paths, nil
}

// FileName renders the output file name for the ordinal-th record.
func FileName(ordinal int, rec entity.DocumentRecord) string {
	pages := fmt.Sprintf("%d", rec.FirstPage())
	if rec.LastPage() != rec.FirstPage() {
		pages = fmt.Sprintf("%d-%d", rec.FirstPage(), rec.LastPage())
	}
	return fmt.Sprintf("%02d_%s_p%s.pdf", ordinal, Slug(rec.DocumentType), pages)
}

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases s and joins its alphanumeric runs with underscores.
func Slug(s string) string {
	out := strings.Trim(reNonSlug.ReplaceAllString(strings.ToLower(s), "_"), "_")
	if out == "" {
		return "document"
	}
	return out
}
