package ocr

import (
	"context"
	"fmt"
	"strconv"
)

// Recognizer turns one page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// TesseractCLI shells out to the tesseract binary.
type TesseractCLI struct {
	Runner      Runner
	Binary      string
	Lang        string
	TessdataDir string
	PSM         int
}

func (t *TesseractCLI) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", t.Lang}
	if t.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PSM))
	}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := t.Runner.Run(ctx, t.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, clip(string(errb), 512))
	}

	return stripRules(string(out)), nil
}
