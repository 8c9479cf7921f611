// Package catalog holds the signature taxonomy used to classify pages: one
// entry per document type with its signature phrases and base confidence.
// A Catalog is immutable once built and safe for concurrent use.
package catalog

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/common"
)

// Entry is one document type and its signature phrases.
type Entry struct {
	DocumentType   string   `json:"document_type" yaml:"document_type"`
	Keywords       []string `json:"keywords" yaml:"keywords"`
	BaseConfidence float64  `json:"base_confidence" yaml:"base_confidence"`
}

// Catalog is an ordered, read-only list of entries. Order is the classifier's
// tie-break.
type Catalog struct {
	entries  []Entry
	byType   map[string]int
	fallback string
}

// Option customises a Catalog.
type Option func(*Catalog)

// WithFallbackType overrides the type assigned to pages nothing matched.
func WithFallbackType(name string) Option {
	return func(c *Catalog) {
		if s := strings.TrimSpace(name); s != "" {
			c.fallback = s
		}
	}
}

// New validates and copies entries. Keywords are lower-cased, trimmed and
// de-duplicated keeping first occurrence. Any problem is a configuration error.
func New(entries []Entry, opts ...Option) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, common.NewConfigError("catalog", "at least one signature entry is required")
	}
	c := &Catalog{
		entries:  make([]Entry, 0, len(entries)),
		byType:   make(map[string]int, len(entries)),
		fallback: string(constants.Unclassified),
	}
	for _, o := range opts {
		o(c)
	}

	for i, e := range entries {
		name := strings.TrimSpace(e.DocumentType)
		field := fmt.Sprintf("catalog.entries[%d]", i)
		if name == "" {
			return nil, common.NewConfigError(field+".document_type", "is required")
		}
		if _, dup := c.byType[name]; dup {
			return nil, common.NewConfigError(field+".document_type", fmt.Sprintf("duplicate document type %q", name))
		}
		if e.BaseConfidence <= 0 || e.BaseConfidence > 1 {
			return nil, common.NewConfigError(field+".base_confidence", fmt.Sprintf("must be in (0, 1], got %g", e.BaseConfidence))
		}
		kws := normalizeKeywords(e.Keywords)
		if len(kws) == 0 {
			return nil, common.NewConfigError(field+".keywords", "at least one non-blank keyword is required")
		}
		c.byType[name] = len(c.entries)
		c.entries = append(c.entries, Entry{DocumentType: name, Keywords: kws, BaseConfidence: e.BaseConfidence})
	}
	if _, clash := c.byType[c.fallback]; clash {
		return nil, common.NewConfigError("catalog.fallback_type", fmt.Sprintf("%q is also a signature entry", c.fallback))
	}
	return c, nil
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.Join(strings.Fields(strings.ToLower(k)), " ")
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// FallbackType is the type assigned when no entry scores above the floor.
func (c *Catalog) FallbackType() string { return c.fallback }

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = Entry{
			DocumentType:   e.DocumentType,
			Keywords:       append([]string(nil), e.Keywords...),
			BaseConfidence: e.BaseConfidence,
		}
	}
	return out
}

// Each calls fn for every entry in catalog order without copying. fn must not
// modify the keyword slice.
func (c *Catalog) Each(fn func(i int, e Entry)) {
	for i, e := range c.entries {
		fn(i, e)
	}
}

// Lookup returns the entry for a document type. Common abbreviations of the
// built-in types ("b/l", "lc", "coo", ...) resolve as well.
func (c *Catalog) Lookup(documentType string) (Entry, bool) {
	i, ok := c.byType[strings.TrimSpace(documentType)]
	if !ok {
		dt, known := constants.Canonicalize(documentType)
		if !known {
			return Entry{}, false
		}
		if i, ok = c.byType[string(dt)]; !ok {
			return Entry{}, false
		}
	}
	e := c.entries[i]
	e.Keywords = append([]string(nil), e.Keywords...)
	return e, true
}

// Types returns the document type names in catalog order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.DocumentType
	}
	return out
}
