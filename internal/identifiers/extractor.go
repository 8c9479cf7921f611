// Package identifiers pulls reference-number-like tokens (invoice, B/L,
// certificate numbers) out of page text.
package identifiers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultPatterns match common reference-number shapes on lower-cased text.
// When a pattern has a capture group, group 1 is the identifier.
var DefaultPatterns = []string{
	`(?:no|number|ref)[.:\s]+([a-z0-9\-/]{3,15})`,
	`[a-z]{2,4}[-_/]\d{3,8}`,
	`\d{4,8}[-_/][a-z0-9]{2,8}`,
}

// Extractor is immutable and safe for concurrent use.
type Extractor struct {
	patterns []*regexp.Regexp
}

// New compiles patterns; nil or empty uses DefaultPatterns.
func New(patterns []string) (*Extractor, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	e := &Extractor{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile identifier pattern %q: %w", p, err)
		}
		e.patterns = append(e.patterns, re)
	}
	return e, nil
}

// Default returns an Extractor over DefaultPatterns.
func Default() *Extractor {
	e, err := New(nil)
	if err != nil {
		panic(err)
	}
	return e
}

type hit struct {
	pos   int
	token string
}

// Extract returns the distinct lower-cased identifiers found in text, ordered
// by first position in the text. Text without identifiers yields nil.
func (e *Extractor) Extract(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var hits []hit
	for _, re := range e.patterns {
		for _, m := range re.FindAllStringSubmatchIndex(lower, -1) {
			start, end := m[0], m[1]
			if len(m) >= 4 && m[2] >= 0 {
				start, end = m[2], m[3]
			}
			hits = append(hits, hit{pos: start, token: lower[start:end]})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]struct{}, len(hits))
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.token]; ok {
			continue
		}
		seen[h.token] = struct{}{}
		out = append(out, h.token)
	}
	return out
}

// Disjoint reports whether a and b are both non-empty and share no identifier.
func Disjoint(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return false
		}
	}
	return true
}
