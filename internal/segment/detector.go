// Package segment decides where one constituent document ends and the next
// begins in a classified page sequence.
package segment

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
	"github.com/joseph-ayodele/lcsplit/internal/identifiers"
)

// DefaultHeaderPatterns recognise text that typically opens a new document.
var DefaultHeaderPatterns = []string{
	`\b(certificate|bill|letter|declaration|statement) of\b`,
	`\b(commercial |proforma |freight )?invoice\b`,
	`\bpacking list\b`,
	`\bwe hereby (certify|declare|confirm|guarantee)\b`,
	`\bthis is to certify\b`,
}

// Thresholds are the boundary rule knobs. Zero values fall back to defaults
// unless Exact is set; a SimilarityFloor of 0 then disables the header rule.
type Thresholds struct {
	StrongConfidence   float64 // type change splits only at or above this, default 0.6
	ModerateConfidence float64 // soft-cap split needs at least this, default 0.4
	SimilarityFloor    float64 // header rule needs Jaccard below this, default 0.15
	RunSoftCap         int     // pages before a run is re-evaluated, default 8
	Exact              bool
}

func (t Thresholds) withDefaults() Thresholds {
	if t.Exact {
		if t.RunSoftCap <= 0 {
			t.RunSoftCap = 8
		}
		return t
	}
	if t.StrongConfidence <= 0 {
		t.StrongConfidence = 0.6
	}
	if t.ModerateConfidence <= 0 {
		t.ModerateConfidence = 0.4
	}
	if t.SimilarityFloor <= 0 {
		t.SimilarityFloor = 0.15
	}
	if t.RunSoftCap <= 0 {
		t.RunSoftCap = 8
	}
	return t
}

// Reason names the rule that opened a run.
type Reason string

const (
	ReasonFirstPage            Reason = "first_page"
	ReasonTypeChange           Reason = "type_change"
	ReasonIdentifierDivergence Reason = "identifier_divergence"
	ReasonHeaderCue            Reason = "header_cue"
	ReasonSoftCap              Reason = "soft_cap"
)

// Run is a contiguous ascending page range assigned to one document.
type Run struct {
	Pages  []int
	Reason Reason
}

// Detector holds immutable rule configuration; Segment keeps its accumulator
// local, so a Detector is safe for concurrent use.
type Detector struct {
	th       Thresholds
	headers  []*regexp.Regexp
	fallback string
	logger   *slog.Logger
}

// New builds a Detector. fallbackType is the classifier's unclassified type;
// it never claims a run's type while a real type is available.
func New(th Thresholds, headerPatterns []string, fallbackType string, logger *slog.Logger) (*Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(headerPatterns) == 0 {
		headerPatterns = DefaultHeaderPatterns
	}
	d := &Detector{th: th.withDefaults(), fallback: fallbackType, logger: logger}
	for _, p := range headerPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, common.NewConfigError("segmentation.header_patterns", fmt.Sprintf("compile %q: %v", p, err))
		}
		d.headers = append(d.headers, re)
	}
	return d, nil
}

// current is the single accumulator threaded through Segment.
type current struct {
	docType string
	pages   []int
	reason  Reason
}

// Segment partitions pages 1..N into contiguous runs. pages, classes and ids
// must all cover exactly the same 1..N range; anything else is an input
// contract violation.
func (d *Detector) Segment(pages []entity.Page, classes []entity.Classification, ids map[int][]string) ([]Run, error) {
	if err := checkCoverage(pages, classes, ids); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}

	var runs []Run
	cur := current{docType: classes[0].DocumentType, pages: []int{1}, reason: ReasonFirstPage}

	for i := 1; i < len(pages); i++ {
		idx := pages[i].Index
		reason, split := d.startNewRun(cur, pages[i-1], pages[i], classes[i], ids[idx-1], ids[idx])
		if split {
			d.logger.Debug("document boundary",
				"page", idx,
				"reason", string(reason),
				"previous_type", cur.docType,
				"document_type", classes[i].DocumentType,
				"confidence", classes[i].Confidence,
			)
			runs = append(runs, Run{Pages: cur.pages, Reason: cur.reason})
			cur = current{docType: classes[i].DocumentType, pages: []int{idx}, reason: reason}
			continue
		}
		cur.pages = append(cur.pages, idx)
		// a run opened by an unclassified page adopts the first real type it sees
		if cur.docType == d.fallback && classes[i].DocumentType != d.fallback {
			cur.docType = classes[i].DocumentType
		}
	}
	runs = append(runs, Run{Pages: cur.pages, Reason: cur.reason})
	return runs, nil
}

// startNewRun evaluates the boundary rules in priority order; the first rule
// that fires decides.
func (d *Detector) startNewRun(cur current, prev, page entity.Page, class entity.Classification, prevIDs, pageIDs []string) (Reason, bool) {
	if class.DocumentType != cur.docType && class.DocumentType != d.fallback && class.Confidence >= d.th.StrongConfidence {
		return ReasonTypeChange, true
	}
	if identifiers.Disjoint(prevIDs, pageIDs) {
		return ReasonIdentifierDivergence, true
	}
	if Jaccard(prev.Text, page.Text) < d.th.SimilarityFloor && d.hasHeaderCue(page.Text) {
		return ReasonHeaderCue, true
	}
	if len(cur.pages) >= d.th.RunSoftCap && class.DocumentType != d.fallback && class.Confidence >= d.th.ModerateConfidence {
		return ReasonSoftCap, true
	}
	return "", false
}

func (d *Detector) hasHeaderCue(text string) bool {
	for _, re := range d.headers {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func checkCoverage(pages []entity.Page, classes []entity.Classification, ids map[int][]string) error {
	if len(classes) != len(pages) {
		return common.NewInputContractError(0, "%d classifications for %d pages", len(classes), len(pages))
	}
	for i, p := range pages {
		want := i + 1
		if p.Index != want {
			return common.NewInputContractError(want, "page sequence out of order or has a gap (got index %d)", p.Index)
		}
		if classes[i].PageIndex != want {
			return common.NewInputContractError(want, "classification belongs to page %d", classes[i].PageIndex)
		}
		if _, ok := ids[want]; !ok {
			return common.NewInputContractError(want, "missing identifier entry")
		}
	}
	if len(ids) != len(pages) {
		return common.NewInputContractError(0, "identifier map has %d entries for %d pages", len(ids), len(pages))
	}
	return nil
}
