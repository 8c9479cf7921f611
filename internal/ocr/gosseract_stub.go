//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned when the in-process engine was not compiled in.
// Rebuild with -tags ocr (requires libtesseract) to enable it.
var ErrOCRNotEnabled = errors.New("gosseract engine not enabled; rebuild with -tags ocr")

type Gosseract struct{}

func NewGosseract(string, string, int) (*Gosseract, error) {
	return nil, ErrOCRNotEnabled
}

func (*Gosseract) Recognize(context.Context, string) (string, error) {
	return "", ErrOCRNotEnabled
}

func (*Gosseract) Close() error { return nil }
