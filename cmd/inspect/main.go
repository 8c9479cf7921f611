package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/ocr"
	"github.com/joseph-ayodele/lcsplit/internal/pipeline"
	"github.com/joseph-ayodele/lcsplit/internal/segment"
)

// inspect prints the per-page classification, identifiers and the rule that
// opened each document, for tuning thresholds against real packages.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "inspect <package.pdf|image|txt>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := common.LoadConfig("")
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	extractor, err := ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR, cfg.Pipeline.MaxPages), logger)
	if err != nil {
		logger.Error("build extractor", "error", err)
		os.Exit(2)
	}
	defer func() {
		if err := extractor.Close(); err != nil {
			logger.Error("failed to close text extractor", "error", err)
		}
	}()
	pl, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(2)
	}

	pages, res, err := extractor.Pages(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}
	a, err := pl.Analyze(ctx, pages)
	if err != nil {
		logger.Error("segmentation failed", "error", err)
		os.Exit(1)
	}

	opens := map[int]segment.Reason{}
	for _, r := range a.Runs {
		opens[r.Pages[0]] = r.Reason
	}

	fmt.Printf("%s: %d pages (%d via OCR) in %s\n", path, res.Pages, res.OCRPages, res.Duration.Round(time.Millisecond))
	for _, w := range res.Warnings {
		color.Yellow("  warning: %s", w)
	}
	for i, pg := range pages {
		c := a.Classifications[i]
		if reason, ok := opens[pg.Index]; ok {
			color.Cyan("── new document (%s)", reason)
		}
		fmt.Printf("  p%-3d %-6s %-34s %.2f  chars=%-5d ids=[%s]\n",
			pg.Index, pg.Method, c.DocumentType, c.Confidence, pg.TextLength,
			strings.Join(a.Identifiers[pg.Index], ", "))
	}
	fmt.Println()
	for i, d := range a.Documents {
		fmt.Printf("%2d. %-12s %s  [%.2f]\n", i+1, d.PageRange, d.Label, d.Confidence)
	}
}
