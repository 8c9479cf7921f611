package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
	"github.com/joseph-ayodele/lcsplit/internal/ingest"
	"github.com/joseph-ayodele/lcsplit/internal/repository"
	"github.com/joseph-ayodele/lcsplit/internal/split"
)

// TextSource turns a package file into pages 1..N.
type TextSource interface {
	ReadPages(ctx context.Context, path string) ([]entity.Page, error)
}

// FileResult is the outcome of processing one package file.
type FileResult struct {
	Run        entity.Run
	Documents  []entity.DocumentRecord
	SplitFiles []string
	Reused     bool // documents were loaded from an earlier run with the same content hash
}

// Processor runs one file end to end: text source, pipeline, persistence and
// optional PDF splitting.
type Processor struct {
	source   TextSource
	pipeline *Pipeline
	store    repository.DocumentStore
	splitter *split.Splitter
	splitDir string
	logger   *slog.Logger
}

type ProcessorOption func(*Processor)

// WithStore persists every run to store.
func WithStore(store repository.DocumentStore) ProcessorOption {
	return func(p *Processor) { p.store = store }
}

// WithSplitter writes one PDF per document under outDir/<file stem>/.
func WithSplitter(s *split.Splitter, outDir string) ProcessorOption {
	return func(p *Processor) {
		p.splitter = s
		p.splitDir = outDir
	}
}

func NewProcessor(source TextSource, pl *Pipeline, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{source: source, pipeline: pl, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessFile segments the package at path. With a store configured, a file
// whose content hash already has a segmented run is not processed again
// unless force is set.
func (p *Processor) ProcessFile(ctx context.Context, path string, force bool) (*FileResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	format := constants.MapExtToFormat(filepath.Ext(abs))
	if format == "" {
		return nil, fmt.Errorf("%w: unsupported extension %q", common.ErrInvalidInput, filepath.Ext(abs))
	}
	hash, err := ingest.HashFile(abs)
	if err != nil {
		p.logger.Error("failed to hash file", "path", abs, "error", err)
		return nil, err
	}

	if p.store != nil && !force {
		prev, err := p.store.FindSegmentedByHash(ctx, hash)
		switch {
		case err == nil:
			docs, err := p.store.ListDocuments(ctx, prev.ID)
			if err != nil {
				return nil, err
			}
			p.logger.Info("skipping already segmented file", "path", abs, "run_id", prev.ID, "content_hash", hash)
			return &FileResult{Run: *prev, Documents: docs, Reused: true}, nil
		case !errors.Is(err, common.ErrNotFound):
			return nil, err
		}
	}

	run := entity.Run{
		ID:          uuid.New(),
		SourcePath:  abs,
		ContentHash: hash,
		Format:      format,
		Status:      string(constants.RunStatusRunning),
		StartedAt:   time.Now().UTC(),
	}
	ctx = common.WithContentHash(common.WithRunID(ctx, run.ID.String()), hash)
	log := common.LoggerFor(ctx, p.logger)
	log.Info("processing package", "path", abs, "format", format)

	if err := p.save(ctx, run, nil); err != nil {
		return nil, err
	}

	res, err := p.segment(ctx, abs, &run)
	if err != nil {
		msg := err.Error()
		finished := time.Now().UTC()
		run.Status = string(constants.RunStatusFailed)
		run.ErrorMessage = &msg
		run.FinishedAt = &finished
		if serr := p.save(ctx, run, nil); serr != nil {
			log.Error("failed to record run failure", "error", serr)
		}
		log.Error("package failed", "error", err)
		return &FileResult{Run: run}, err
	}
	return res, nil
}

func (p *Processor) segment(ctx context.Context, abs string, run *entity.Run) (*FileResult, error) {
	pages, err := p.source.ReadPages(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("read pages: %w", err)
	}
	run.PageCount = len(pages)

	docs, err := p.pipeline.Run(ctx, pages)
	if err != nil {
		return nil, err
	}

	finished := time.Now().UTC()
	run.Status = string(constants.RunStatusSegmented)
	run.FinishedAt = &finished
	if err := p.save(ctx, *run, docs); err != nil {
		return nil, err
	}

	res := &FileResult{Run: *run, Documents: docs}
	if p.splitter != nil && run.Format == constants.PDF {
		out := filepath.Join(p.splitDir, stem(abs))
		files, err := p.splitter.Write(ctx, abs, out, docs)
		if err != nil {
			// the run itself succeeded; splitting is reported but not fatal
			common.LoggerFor(ctx, p.logger).Error("failed to split package", "error", err)
		} else {
			res.SplitFiles = files
		}
	}
	return res, nil
}

func (p *Processor) save(ctx context.Context, run entity.Run, docs []entity.DocumentRecord) error {
	if p.store == nil {
		return nil
	}
	return p.store.SaveRun(ctx, run, docs)
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
