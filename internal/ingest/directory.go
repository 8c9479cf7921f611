package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// WalkDirectory walks root and returns matching files in lexical order.
// includeExts defaults to the package formats; hidden entries are skipped when
// skipHidden is set. Unreadable entries are counted and the walk continues.
func WalkDirectory(ctx context.Context, root string, includeExts []string, skipHidden bool, logger *slog.Logger) ([]string, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(includeExts)

	var (
		paths []string
		stats DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("walk error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path, exts) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Strings(paths)
	logger.Info("directory scanned", "root", root, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
	return paths, stats, nil
}
