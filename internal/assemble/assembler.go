// Package assemble turns a contiguous run of classified pages into a
// DocumentRecord.
package assemble

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

// MaxLabelIdentifier caps the identifier shown in a label.
const MaxLabelIdentifier = 15

// Assembler is a pure function holder; it keeps only the fallback type name.
type Assembler struct {
	fallback string
}

func New(fallbackType string) *Assembler {
	return &Assembler{fallback: fallbackType}
}

// Assemble builds the record for run. pages, classes and ids are keyed by
// 1-based page index and must contain every page of run.
func (a *Assembler) Assemble(run []int, pages map[int]entity.Page, classes map[int]entity.Classification, ids map[int][]string) (entity.DocumentRecord, error) {
	if len(run) == 0 {
		return entity.DocumentRecord{}, common.NewInputContractError(0, "empty run")
	}
	runClasses := make([]entity.Classification, 0, len(run))
	for i, idx := range run {
		if i > 0 && idx != run[i-1]+1 {
			return entity.DocumentRecord{}, common.NewInputContractError(idx, "run is not contiguous after page %d", run[i-1])
		}
		if _, ok := pages[idx]; !ok {
			return entity.DocumentRecord{}, common.NewInputContractError(idx, "missing page")
		}
		c, ok := classes[idx]
		if !ok {
			return entity.DocumentRecord{}, common.NewInputContractError(idx, "missing classification")
		}
		runClasses = append(runClasses, c)
	}

	docType := a.majorityType(runClasses)
	pageRange := FormatPageRange(run)
	combined := combineText(run, pages)

	label := docType + " (" + pageRange + ")"
	if id := firstIdentifier(run, ids); id != "" {
		label = docType + " (" + truncate(id, MaxLabelIdentifier) + ")"
	}

	return entity.DocumentRecord{
		Label:        label,
		DocumentType: docType,
		Pages:        append([]int(nil), run...),
		PageRange:    pageRange,
		Confidence:   maxConfidence(runClasses),
		CombinedText: combined,
		TextLength:   utf8.RuneCountInString(combined),
	}, nil
}

// majorityType votes over the run's classifications. Ties go to the type seen
// first. Fallback pages only vote when nothing else was classified.
func (a *Assembler) majorityType(classes []entity.Classification) string {
	counts := make(map[string]int)
	var order []string
	for _, c := range classes {
		if c.DocumentType == a.fallback {
			continue
		}
		if _, ok := counts[c.DocumentType]; !ok {
			order = append(order, c.DocumentType)
		}
		counts[c.DocumentType]++
	}
	if len(order) == 0 {
		return classes[0].DocumentType
	}
	best := order[0]
	for _, t := range order[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}

func maxConfidence(classes []entity.Classification) float64 {
	m := classes[0].Confidence
	for _, c := range classes[1:] {
		if c.Confidence > m {
			m = c.Confidence
		}
	}
	return m
}

func combineText(run []int, pages map[int]entity.Page) string {
	var b strings.Builder
	for i, idx := range run {
		if i > 0 {
			fmt.Fprintf(&b, constants.PageBreakMarker, idx)
		}
		b.WriteString(pages[idx].Text)
	}
	return b.String()
}

func firstIdentifier(run []int, ids map[int][]string) string {
	for _, idx := range run {
		if list := ids[idx]; len(list) > 0 {
			return list[0]
		}
	}
	return ""
}

// FormatPageRange renders "Page N" for one page and "Pages N-M" otherwise.
func FormatPageRange(run []int) string {
	if len(run) == 1 {
		return fmt.Sprintf("Page %d", run[0])
	}
	return fmt.Sprintf("Pages %d-%d", run[0], run[len(run)-1])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
