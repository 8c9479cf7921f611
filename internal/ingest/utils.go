package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/lcsplit/constants"
)

// AllowedExt checks if a file extension is in the default allowed set.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && strings.HasPrefix(base, ".")
}

// extSet builds a lookup from user-supplied extensions, falling back to the defaults.
func extSet(include []string) map[string]struct{} {
	if len(include) == 0 {
		return constants.AllowedExtensions
	}
	exts := map[string]struct{}{}
	for _, e := range include {
		e = constants.NormalizeExt(strings.TrimSpace(e))
		if e != "" {
			exts[e] = struct{}{}
		}
	}
	return exts
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
