// Package classify scores page text against a signature catalog.
package classify

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/lcsplit/internal/catalog"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

// Options tunes scoring. Zero values fall back to defaults unless Exact is
// set, in which case every field is used as given.
type Options struct {
	Floor              float64 // minimum score for a catalog match, default 0.15
	FallbackConfidence float64 // confidence of the fallback type for non-empty text, default 0.3
	ExtraMatchBoost    float64 // added per match beyond the first, default 0.05; negative disables
	MaxConfidence      float64 // score cap, default 0.98
	Exact              bool
}

func (o Options) withDefaults() Options {
	if o.Exact {
		if o.ExtraMatchBoost < 0 {
			o.ExtraMatchBoost = 0
		}
		return o
	}
	if o.Floor <= 0 {
		o.Floor = 0.15
	}
	if o.FallbackConfidence <= 0 {
		o.FallbackConfidence = 0.3
	}
	if o.ExtraMatchBoost < 0 {
		o.ExtraMatchBoost = 0
	} else if o.ExtraMatchBoost == 0 {
		o.ExtraMatchBoost = 0.05
	}
	if o.MaxConfidence <= 0 || o.MaxConfidence > 1 {
		o.MaxConfidence = 0.98
	}
	return o
}

// Classifier is stateless apart from its immutable catalog and options; it is
// safe for concurrent use.
type Classifier struct {
	catalog *catalog.Catalog
	opts    Options
	logger  *slog.Logger
}

func New(cat *catalog.Catalog, opts Options, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{catalog: cat, opts: opts.withDefaults(), logger: logger}
}

// Classify returns the best-scoring catalog type for text. It never fails:
// blank text yields the fallback type at confidence 0, unmatched text the
// fallback type at the fallback confidence.
func (c *Classifier) Classify(pageIndex int, text string) entity.Classification {
	norm := Normalize(text)
	if norm == "" {
		return entity.Classification{
			PageIndex:    pageIndex,
			DocumentType: c.catalog.FallbackType(),
			Confidence:   0,
		}
	}

	var (
		bestType    string
		bestScore   float64
		bestMatches []string
	)
	c.catalog.Each(func(_ int, e catalog.Entry) {
		matched := matchKeywords(norm, e.Keywords)
		if len(matched) == 0 {
			return
		}
		score := c.score(len(matched), len(e.Keywords), e.BaseConfidence)
		// strict > keeps the earlier entry on ties
		if score > bestScore {
			bestType, bestScore, bestMatches = e.DocumentType, score, matched
		}
	})

	if bestType == "" || bestScore < c.opts.Floor {
		c.logger.Debug("page unclassified",
			"page", pageIndex,
			"best_type", bestType,
			"best_score", bestScore,
			"text_chars", len(norm),
		)
		return entity.Classification{
			PageIndex:    pageIndex,
			DocumentType: c.catalog.FallbackType(),
			Confidence:   c.opts.FallbackConfidence,
		}
	}

	c.logger.Debug("page classified",
		"page", pageIndex,
		"document_type", bestType,
		"confidence", bestScore,
		"matches", len(bestMatches),
	)
	return entity.Classification{
		PageIndex:       pageIndex,
		DocumentType:    bestType,
		Confidence:      bestScore,
		MatchedKeywords: bestMatches,
	}
}

// FallbackType exposes the catalog's fallback type name.
func (c *Classifier) FallbackType() string { return c.catalog.FallbackType() }

func (c *Classifier) score(matches, total int, base float64) float64 {
	s := float64(matches) / float64(total) * base
	if matches > 1 {
		s += float64(matches-1) * c.opts.ExtraMatchBoost
	}
	if s > c.opts.MaxConfidence {
		s = c.opts.MaxConfidence
	}
	return s
}

func matchKeywords(norm string, keywords []string) []string {
	var out []string
	for _, k := range keywords {
		if strings.Contains(norm, k) {
			out = append(out, k)
		}
	}
	return out
}

// Normalize lower-cases text and collapses all whitespace runs to one space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
