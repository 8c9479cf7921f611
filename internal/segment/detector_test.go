package segment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

const fallback = "Unclassified Trade Document"

type page struct {
	text string
	typ  string
	conf float64
	ids  []string
}

func build(in []page) ([]entity.Page, []entity.Classification, map[int][]string) {
	pages := make([]entity.Page, len(in))
	classes := make([]entity.Classification, len(in))
	ids := make(map[int][]string, len(in))
	for i, p := range in {
		pages[i] = entity.NewPage(i+1, p.text)
		classes[i] = entity.Classification{PageIndex: i + 1, DocumentType: p.typ, Confidence: p.conf}
		ids[i+1] = p.ids
	}
	return pages, classes, ids
}

func newDetector(t *testing.T, th Thresholds) *Detector {
	t.Helper()
	d, err := New(th, nil, fallback, nil)
	require.NoError(t, err)
	return d
}

func runPages(runs []Run) [][]int {
	out := make([][]int, len(runs))
	for i, r := range runs {
		out[i] = r.Pages
	}
	return out
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name    string
		pages   []page
		want    [][]int
		reasons []Reason
	}{
		{
			name:    "single page",
			pages:   []page{{text: "anything", typ: "Commercial Invoice", conf: 0.75}},
			want:    [][]int{{1}},
			reasons: []Reason{ReasonFirstPage},
		},
		{
			name: "strong type change",
			pages: []page{
				{text: "commercial invoice seller buyer", typ: "Commercial Invoice", conf: 0.75},
				{text: "bill of lading shipper consignee", typ: "Bill of Lading", conf: 0.84},
			},
			want:    [][]int{{1}, {2}},
			reasons: []Reason{ReasonFirstPage, ReasonTypeChange},
		},
		{
			name: "weak type change continues",
			pages: []page{
				{text: "commercial invoice seller buyer goods", typ: "Commercial Invoice", conf: 0.75},
				{text: "seller buyer goods draft", typ: "Bill of Exchange", conf: 0.5},
			},
			want:    [][]int{{1, 2}},
			reasons: []Reason{ReasonFirstPage},
		},
		{
			name: "identifier divergence with same type",
			pages: []page{
				{text: "commercial invoice no inv-001", typ: "Commercial Invoice", conf: 0.75, ids: []string{"inv-001"}},
				{text: "commercial invoice no inv-002", typ: "Commercial Invoice", conf: 0.75, ids: []string{"inv-002"}},
			},
			want:    [][]int{{1}, {2}},
			reasons: []Reason{ReasonFirstPage, ReasonIdentifierDivergence},
		},
		{
			name: "shared identifier keeps run",
			pages: []page{
				{text: "commercial invoice no inv-001", typ: "Commercial Invoice", conf: 0.75, ids: []string{"inv-001"}},
				{text: "page two of inv-001", typ: fallback, conf: 0.3, ids: []string{"inv-001"}},
			},
			want:    [][]int{{1, 2}},
			reasons: []Reason{ReasonFirstPage},
		},
		{
			name: "header cue on dissimilar page",
			pages: []page{
				{text: "commercial invoice seller buyer goods", typ: "Commercial Invoice", conf: 0.75},
				{text: "WE HEREBY CERTIFY that the cargo was fumigated", typ: fallback, conf: 0.3},
			},
			want:    [][]int{{1}, {2}},
			reasons: []Reason{ReasonFirstPage, ReasonHeaderCue},
		},
		{
			name: "header cue on similar page continues",
			pages: []page{
				{text: "packing list cartons gross weight net weight", typ: "Packing List", conf: 0.9},
				{text: "packing list cartons gross weight net weight", typ: "Packing List", conf: 0.9},
			},
			want:    [][]int{{1, 2}},
			reasons: []Reason{ReasonFirstPage},
		},
		{
			name: "unclassified run adopts first real type",
			pages: []page{
				{text: "", typ: fallback, conf: 0},
				{text: "seller acme buyer globex", typ: "Commercial Invoice", conf: 0.5},
				{text: "seller acme buyer globex commercial invoice", typ: "Commercial Invoice", conf: 0.75},
			},
			want:    [][]int{{1, 2, 3}},
			reasons: []Reason{ReasonFirstPage},
		},
		{
			name: "all empty pages",
			pages: []page{
				{typ: fallback}, {typ: fallback}, {typ: fallback}, {typ: fallback},
			},
			want:    [][]int{{1, 2, 3, 4}},
			reasons: []Reason{ReasonFirstPage},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, classes, ids := build(tt.pages)
			runs, err := newDetector(t, Thresholds{}).Segment(pages, classes, ids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, runPages(runs))

			reasons := make([]Reason, len(runs))
			for i, r := range runs {
				reasons[i] = r.Reason
			}
			assert.Equal(t, tt.reasons, reasons)
		})
	}
}

func TestSegment_SoftCap(t *testing.T) {
	in := make([]page, 12)
	for i := range in {
		in[i] = page{text: "packing list gross weight net weight", typ: "Packing List", conf: 0.9}
	}
	pages, classes, ids := build(in)

	runs, err := newDetector(t, Thresholds{RunSoftCap: 8}).Segment(pages, classes, ids)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5, 6, 7, 8}, {9, 10, 11, 12}}, runPages(runs))
	assert.Equal(t, ReasonSoftCap, runs[1].Reason)

	runs, err = newDetector(t, Thresholds{RunSoftCap: 5}).Segment(pages, classes, ids)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}, {11, 12}}, runPages(runs))
}

func TestSegment_SoftCapIgnoresWeakPages(t *testing.T) {
	in := make([]page, 10)
	for i := range in {
		in[i] = page{text: "continued description", typ: fallback, conf: 0.3}
	}
	in[0] = page{text: "continued description", typ: "Packing List", conf: 0.9}
	pages, classes, ids := build(in)

	runs, err := newDetector(t, Thresholds{RunSoftCap: 3}).Segment(pages, classes, ids)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSegment_ContractViolations(t *testing.T) {
	d := newDetector(t, Thresholds{})
	pages, classes, ids := build([]page{{text: "a", typ: fallback}, {text: "b", typ: fallback}})

	t.Run("classification count", func(t *testing.T) {
		_, err := d.Segment(pages, classes[:1], ids)
		assert.True(t, errors.Is(err, common.ErrInputContract))
	})
	t.Run("gap in pages", func(t *testing.T) {
		bad := []entity.Page{pages[0], entity.NewPage(3, "c")}
		_, err := d.Segment(bad, classes, ids)
		var ce *common.ContractError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 2, ce.Page)
	})
	t.Run("missing identifiers", func(t *testing.T) {
		_, err := d.Segment(pages, classes, map[int][]string{1: nil})
		var ce *common.ContractError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 2, ce.Page)
	})
	t.Run("classification for wrong page", func(t *testing.T) {
		swapped := []entity.Classification{classes[1], classes[0]}
		_, err := d.Segment(pages, swapped, ids)
		assert.True(t, errors.Is(err, common.ErrInputContract))
	})
}

func TestNew_BadHeaderPattern(t *testing.T) {
	_, err := New(Thresholds{}, []string{"("}, fallback, nil)
	require.Error(t, err)
	assert.True(t, common.IsConfigError(err))
}
