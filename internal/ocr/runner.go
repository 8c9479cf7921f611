package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner executes an external tool (pdftotext, pdftoppm, tesseract) and
// returns what it wrote to stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ErrToolMissing means a required binary is not installed or not on PATH.
var ErrToolMissing = errors.New("external tool not found")

// execRunner runs tools with os/exec; timeout bounds each invocation.
type execRunner struct {
	timeout time.Duration
	logger  *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrToolMissing, name)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	log := r.logger.With(
		"tool", filepath.Base(name),
		"args", strings.Join(args, " "),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%s: %w", filepath.Base(name), ctxErr)
		}
		log.Error("external tool failed", "error", err, "stderr", clip(stderr.String(), 8<<10))
		return stdout.Bytes(), stderr.Bytes(), err
	}
	log.Debug("external tool ok", "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

// clip shortens tool output for logs and error messages.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
