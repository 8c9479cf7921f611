package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lcsplit/internal/async"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/ingest"
	"github.com/joseph-ayodele/lcsplit/internal/ocr"
	"github.com/joseph-ayodele/lcsplit/internal/pipeline"
	repo "github.com/joseph-ayodele/lcsplit/internal/repository"
	"github.com/joseph-ayodele/lcsplit/internal/server"
	"github.com/joseph-ayodele/lcsplit/internal/split"
)

func main() {
	cfg, err := common.LoadConfig("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if cfg.Watch.Inbox == "" {
		logger.Error("missing WATCH_INBOX (or watch.inbox in the config file)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.NewStore(ctx, repo.ConfigFrom(cfg.Database), logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	pl, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(2)
	}
	extractor, err := ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR, cfg.Pipeline.MaxPages), logger)
	if err != nil {
		logger.Error("failed to build text extractor", "error", err)
		os.Exit(2)
	}
	defer func() {
		if err := extractor.Close(); err != nil {
			logger.Error("failed to close text extractor", "error", err)
		}
	}()

	opts := []pipeline.ProcessorOption{pipeline.WithStore(store)}
	if cfg.Watch.Outbox != "" {
		opts = append(opts, pipeline.WithSplitter(split.New(logger), cfg.Watch.Outbox))
	}
	processor := pipeline.NewProcessor(extractor, pl, logger, opts...)

	queue := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
		_, err := processor.ProcessFile(ctx, job.Path, job.Force)
		return err
	}, logger,
		async.WithWorkers(cfg.Watch.Workers),
		async.WithQueueSize(512),
		async.WithJobTimeout(cfg.Watch.JobTimeout),
	)

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Watch.Inbox},
		InitialScan: cfg.Watch.InitialScan,
		Debounce:    cfg.Watch.Debounce,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "inbox", cfg.Watch.Inbox, "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	srv := server.New(logger)
	go srv.Monitor(ctx, store.Ping, 30*time.Second, 3*time.Second)
	go func() {
		if err := srv.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	logger.Info("lcsplitd watching", "inbox", cfg.Watch.Inbox, "outbox", cfg.Watch.Outbox, "addr", cfg.Server.GRPCAddr)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case path, ok := <-events:
			if !ok {
				break loop
			}
			job := async.Job{Path: path, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
			if err := queue.Enqueue(ctx, job); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("enqueue failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher reported error", "error", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	srv.Stop()
}
