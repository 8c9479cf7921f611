// Package pipeline wires classification, identifier extraction, boundary
// detection and assembly into a single run over a package's pages.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/lcsplit/internal/assemble"
	"github.com/joseph-ayodele/lcsplit/internal/catalog"
	"github.com/joseph-ayodele/lcsplit/internal/classify"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
	"github.com/joseph-ayodele/lcsplit/internal/identifiers"
	"github.com/joseph-ayodele/lcsplit/internal/segment"
)

// Config collects everything a Pipeline needs besides the catalog.
type Config struct {
	Classify           classify.Options
	Thresholds         segment.Thresholds
	HeaderPatterns     []string
	IdentifierPatterns []string
	Workers            int // parallel page classification, default 4
}

// ConfigFrom maps application configuration onto pipeline configuration.
func ConfigFrom(c *common.Config) Config {
	s := c.Segmentation
	return Config{
		Classify: classify.Options{
			Floor:              s.ClassificationFloor,
			FallbackConfidence: s.FallbackConfidence,
			ExtraMatchBoost:    s.ExtraMatchBoost,
			MaxConfidence:      s.MaxConfidence,
			Exact:              true,
		},
		Thresholds: segment.Thresholds{
			StrongConfidence:   s.StrongConfidence,
			ModerateConfidence: s.ModerateConfidence,
			SimilarityFloor:    s.SimilarityFloor,
			RunSoftCap:         s.RunSoftCap,
			Exact:              true,
		},
		HeaderPatterns:     s.HeaderPatterns,
		IdentifierPatterns: s.IdentifierPatterns,
		Workers:            c.Pipeline.Workers,
	}
}

// Pipeline is immutable after New and safe for concurrent Runs.
type Pipeline struct {
	classifier *classify.Classifier
	extractor  *identifiers.Extractor
	detector   *segment.Detector
	assembler  *assemble.Assembler
	workers    int
	logger     *slog.Logger
}

// New builds a Pipeline around cat. A nil or empty catalog is a configuration error.
func New(cat *catalog.Catalog, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cat == nil || cat.Len() == 0 {
		return nil, common.NewConfigError("catalog", "at least one signature entry is required")
	}
	ext, err := identifiers.New(cfg.IdentifierPatterns)
	if err != nil {
		return nil, common.NewConfigError("identifier_patterns", err.Error())
	}
	det, err := segment.New(cfg.Thresholds, cfg.HeaderPatterns, cat.FallbackType(), logger)
	if err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Pipeline{
		classifier: classify.New(cat, cfg.Classify, logger),
		extractor:  ext,
		detector:   det,
		assembler:  assemble.New(cat.FallbackType()),
		workers:    cfg.Workers,
		logger:     logger,
	}, nil
}

// Analysis is the full outcome of a run, including per-page intermediates.
type Analysis struct {
	Classifications []entity.Classification
	Identifiers     map[int][]string
	Runs            []segment.Run
	Documents       []entity.DocumentRecord
}

// Run segments pages into documents. See Analyze.
func (p *Pipeline) Run(ctx context.Context, pages []entity.Page) ([]entity.DocumentRecord, error) {
	a, err := p.Analyze(ctx, pages)
	if err != nil {
		return nil, err
	}
	return a.Documents, nil
}

// Analyze checks the page contract (indices 1..N, in order, no gaps or
// duplicates), classifies and extracts identifiers per page in parallel, then
// segments and assembles in one ordered pass.
func (p *Pipeline) Analyze(ctx context.Context, pages []entity.Page) (*Analysis, error) {
	start := time.Now()
	log := common.LoggerFor(ctx, p.logger)

	if err := ValidatePages(pages); err != nil {
		log.Error("page contract violated", "error", err)
		return nil, err
	}

	classes := make([]entity.Classification, len(pages))
	idLists := make([][]string, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			classes[i] = p.classifier.Classify(pages[i].Index, pages[i].Text)
			idLists[i] = p.extractor.Extract(pages[i].Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make(map[int][]string, len(pages))
	for i, pg := range pages {
		ids[pg.Index] = idLists[i]
	}

	runs, err := p.detector.Segment(pages, classes, ids)
	if err != nil {
		log.Error("segmentation failed", "error", err)
		return nil, err
	}

	pageByIdx := make(map[int]entity.Page, len(pages))
	classByIdx := make(map[int]entity.Classification, len(pages))
	for i, pg := range pages {
		pageByIdx[pg.Index] = pg
		classByIdx[pg.Index] = classes[i]
	}

	docs := make([]entity.DocumentRecord, 0, len(runs))
	for _, r := range runs {
		rec, err := p.assembler.Assemble(r.Pages, pageByIdx, classByIdx, ids)
		if err != nil {
			return nil, err
		}
		docs = append(docs, rec)
	}

	log.Info("package segmented",
		"pages", len(pages),
		"documents", len(docs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Analysis{Classifications: classes, Identifiers: ids, Runs: runs, Documents: docs}, nil
}

// ValidatePages enforces the input contract: at least one page, indices
// exactly 1..N in order.
func ValidatePages(pages []entity.Page) error {
	if len(pages) == 0 {
		return common.NewInputContractError(0, "no pages")
	}
	for i, pg := range pages {
		want := i + 1
		switch {
		case pg.Index == want:
		case pg.Index < want:
			return common.NewInputContractError(pg.Index, "duplicate or out-of-order page at position %d", want)
		default:
			return common.NewInputContractError(want, "missing page (next index is %d)", pg.Index)
		}
	}
	return nil
}

// FromConfig loads the signature catalog named by c (the built-in one when
// unset) and builds a Pipeline.
func FromConfig(c *common.Config, logger *slog.Logger) (*Pipeline, error) {
	cat, err := catalog.Load(c.Catalog.Path)
	if err != nil {
		return nil, err
	}
	return New(cat, ConfigFrom(c), logger)
}
