package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/export"
	"github.com/joseph-ayodele/lcsplit/internal/ingest"
	"github.com/joseph-ayodele/lcsplit/internal/ocr"
	"github.com/joseph-ayodele/lcsplit/internal/pipeline"
	repo "github.com/joseph-ayodele/lcsplit/internal/repository"
	"github.com/joseph-ayodele/lcsplit/internal/split"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (default $LCSPLIT_CONFIG)")
		catalogPath = flag.String("catalog", "", "signature catalog file, YAML or JSON (overrides config)")
		dir         = flag.String("dir", "", "process every package file under this directory")
		jsonOut     = flag.String("json", "", "write the JSON report to this file ('-' for stdout)")
		xlsxOut     = flag.String("xlsx", "", "write an XLSX summary to this file")
		splitDir    = flag.String("split", "", "write one PDF per detected document under this directory")
		dsn         = flag.String("db", "", "persist runs to this database DSN (postgres:// or sqlite file)")
		inmem       = flag.Bool("inmem", false, "persist runs to an in-memory SQLite database")
		force       = flag.Bool("force", false, "re-process files already segmented in the database")
		quiet       = flag.Bool("quiet", false, "no progress bar or summary")
	)
	flag.Usage = func() {
		printError("usage: lcsplit [flags] file...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	// logs go to stderr so that --json - stays clean
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files := flag.Args()
	if *dir != "" {
		found, _, err := ingest.WalkDirectory(ctx, *dir, nil, true, logger)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	pl, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		if common.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	extractor, err := ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR, cfg.Pipeline.MaxPages), logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	defer func() {
		if err := extractor.Close(); err != nil {
			logger.Error("failed to close text extractor", "error", err)
		}
	}()

	var opts []pipeline.ProcessorOption
	if *inmem || *dsn != "" {
		dbCfg := repo.ConfigFrom(cfg.Database)
		switch {
		case *inmem:
			dbCfg.Driver, dbCfg.DSN = "sqlite", "file::memory:?_pragma=foreign_keys(1)"
		case isPostgresDSN(*dsn):
			dbCfg.Driver, dbCfg.DSN = "postgres", *dsn
		default:
			dbCfg.Driver, dbCfg.DSN = "sqlite", *dsn
		}
		store, err := repo.NewStore(ctx, dbCfg, logger)
		if err != nil {
			printError("Error: opening database: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close store", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithStore(store))
	}
	if *splitDir != "" {
		opts = append(opts, pipeline.WithSplitter(split.New(logger, split.WithWorkers(cfg.Pipeline.Workers)), *splitDir))
	}
	proc := pipeline.NewProcessor(extractor, pl, logger, opts...)

	var bar *progressbar.ProgressBar
	if !*quiet {
		bar = getProgressBar(len(files), "Splitting packages")
	}

	var (
		reports []export.Report
		results []*pipeline.FileResult
		failed  int
	)
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		res, err := proc.ProcessFile(ctx, f, *force)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			failed++
			if bar != nil {
				_ = bar.Clear()
			}
			_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s: %v\n", f, err)
			continue
		}
		results = append(results, res)
		reports = append(reports, export.NewReport(&res.Run, res.Documents, cfg.Pipeline.TextPreviewLimit))
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	if !*quiet {
		for _, r := range results {
			printSummary(r)
		}
	}

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, reports); err != nil {
			printError("Error: writing JSON: %v\n", err)
			os.Exit(1)
		}
	}
	if *xlsxOut != "" {
		data, err := export.XLSX(reports, logger)
		if err == nil {
			err = os.WriteFile(*xlsxOut, data, 0o644)
		}
		if err != nil {
			printError("Error: writing XLSX: %v\n", err)
			os.Exit(1)
		}
		_, _ = color.New(color.FgGreen).Fprintf(os.Stderr, "✓ Wrote %s\n", *xlsxOut)
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		os.Exit(130)
	}
	if failed > 0 {
		if failed == len(files) {
			os.Exit(1)
		}
		os.Exit(3)
	}
}

func writeJSON(path string, reports []export.Report) error {
	var buf bytes.Buffer
	if err := export.WriteReports(&buf, reports); err != nil {
		return err
	}
	if path == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func printSummary(r *pipeline.FileResult) {
	title := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s  %d pages → %d documents", title(r.Run.SourcePath), r.Run.PageCount, len(r.Documents))
	if r.Reused {
		fmt.Fprint(os.Stderr, color.YellowString("  (cached run %s)", r.Run.ID))
	}
	fmt.Fprintln(os.Stderr)
	for i, d := range r.Documents {
		conf := confidenceColor(d.Confidence).Sprintf("%.2f", d.Confidence)
		fmt.Fprintf(os.Stderr, "  %2d. %-12s %s  [%s]\n", i+1, d.PageRange, d.Label, conf)
	}
	for _, f := range r.SplitFiles {
		fmt.Fprintf(os.Stderr, "      → %s\n", f)
	}
}

func confidenceColor(c float64) *color.Color {
	switch {
	case c >= 0.6:
		return color.New(color.FgGreen)
	case c >= 0.4:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
