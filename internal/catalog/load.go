package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/lcsplit/internal/common"
)

// File is the on-disk catalog layout (YAML or JSON).
type File struct {
	FallbackType string  `json:"fallback_type,omitempty" yaml:"fallback_type,omitempty"`
	Entries      []Entry `json:"entries" yaml:"entries"`
}

// LoadFile reads a YAML (.yaml/.yml) or JSON catalog, validates it against
// BuildCatalogJSONSchema and builds a Catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "read catalog", fmt.Errorf("%w: %v", common.ErrConfiguration, err))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseYAML converts YAML to JSON and delegates to ParseJSON so both formats
// go through the same schema.
func ParseYAML(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "parse catalog yaml", fmt.Errorf("%w: %v", common.ErrConfiguration, err))
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "convert catalog yaml", fmt.Errorf("%w: %v", common.ErrConfiguration, err))
	}
	return ParseJSON(b)
}

// ParseJSON validates and decodes a JSON catalog document.
func ParseJSON(data []byte) (*Catalog, error) {
	if err := ValidateJSONAgainstSchema(BuildCatalogJSONSchema(), data); err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "invalid catalog", fmt.Errorf("%w: %v", common.ErrConfiguration, err))
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "decode catalog", fmt.Errorf("%w: %v", common.ErrConfiguration, err))
	}
	return New(f.Entries, WithFallbackType(f.FallbackType))
}

// Load returns the catalog at path, or Default when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
