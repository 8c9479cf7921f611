//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract runs Tesseract in-process. A gosseract client is not safe for
// concurrent use, so calls are serialised.
type Gosseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewGosseract creates an in-process recognizer for lang (e.g. "eng").
// tessdataDir and psm are optional.
func NewGosseract(lang, tessdataDir string, psm int) (*Gosseract, error) {
	c := gosseract.NewClient()
	if tessdataDir != "" {
		if err := c.SetTessdataPrefix(tessdataDir); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("gosseract tessdata prefix: %w", err)
		}
	}
	if psm > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("gosseract page seg mode: %w", err)
		}
	}
	if lang != "" {
		if err := c.SetLanguage(lang); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("gosseract language: %w", err)
		}
	}
	return &Gosseract{client: c}, nil
}

func (g *Gosseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("gosseract set image: %w", err)
	}
	text, err := g.client.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases the Tesseract handle.
func (g *Gosseract) Close() error {
	return g.client.Close()
}
