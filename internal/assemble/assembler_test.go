package assemble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
)

const fallback = "Unclassified Trade Document"

type fixture struct {
	pages   map[int]entity.Page
	classes map[int]entity.Classification
	ids     map[int][]string
}

func newFixture() *fixture {
	return &fixture{
		pages:   map[int]entity.Page{},
		classes: map[int]entity.Classification{},
		ids:     map[int][]string{},
	}
}

func (f *fixture) add(idx int, text, typ string, conf float64, ids ...string) *fixture {
	f.pages[idx] = entity.NewPage(idx, text)
	f.classes[idx] = entity.Classification{PageIndex: idx, DocumentType: typ, Confidence: conf}
	f.ids[idx] = ids
	return f
}

func TestAssemble_Basic(t *testing.T) {
	f := newFixture().
		add(1, "COMMERCIAL INVOICE", "Commercial Invoice", 0.75, "inv-001").
		add(2, "continued", fallback, 0.3)

	rec, err := New(fallback).Assemble([]int{1, 2}, f.pages, f.classes, f.ids)
	require.NoError(t, err)

	assert.Equal(t, "Commercial Invoice", rec.DocumentType)
	assert.Equal(t, "Commercial Invoice (inv-001)", rec.Label)
	assert.Equal(t, []int{1, 2}, rec.Pages)
	assert.Equal(t, "Pages 1-2", rec.PageRange)
	assert.InDelta(t, 0.75, rec.Confidence, 1e-9)
	assert.Equal(t, "COMMERCIAL INVOICE\n\n--- Page 2 ---\ncontinued", rec.CombinedText)
	assert.Equal(t, len([]rune(rec.CombinedText)), rec.TextLength)
}

func TestAssemble_LabelWithoutIdentifier(t *testing.T) {
	f := newFixture().add(4, "packing list", "Packing List", 0.6)

	rec, err := New(fallback).Assemble([]int{4}, f.pages, f.classes, f.ids)
	require.NoError(t, err)
	assert.Equal(t, "Packing List (Page 4)", rec.Label)
	assert.Equal(t, "Page 4", rec.PageRange)
	assert.Equal(t, "packing list", rec.CombinedText)
}

func TestAssemble_LabelIdentifierTruncated(t *testing.T) {
	f := newFixture().
		add(1, "x", "Bill of Lading", 0.8).
		add(2, "y", "Bill of Lading", 0.8, "abcdefghijklmnopqrst", "zz-1")

	rec, err := New(fallback).Assemble([]int{1, 2}, f.pages, f.classes, f.ids)
	require.NoError(t, err)
	assert.Equal(t, "Bill of Lading (abcdefghijklmno)", rec.Label)
}

func TestAssemble_MajorityType(t *testing.T) {
	t.Run("fallback pages do not vote", func(t *testing.T) {
		f := newFixture().
			add(1, "a", fallback, 0.3).
			add(2, "b", fallback, 0.3).
			add(3, "c", "Packing List", 0.5)
		rec, err := New(fallback).Assemble([]int{1, 2, 3}, f.pages, f.classes, f.ids)
		require.NoError(t, err)
		assert.Equal(t, "Packing List", rec.DocumentType)
	})
	t.Run("tie goes to first seen", func(t *testing.T) {
		f := newFixture().
			add(1, "a", "Bill of Exchange", 0.5).
			add(2, "b", "Commercial Invoice", 0.7)
		rec, err := New(fallback).Assemble([]int{1, 2}, f.pages, f.classes, f.ids)
		require.NoError(t, err)
		assert.Equal(t, "Bill of Exchange", rec.DocumentType)
		assert.InDelta(t, 0.7, rec.Confidence, 1e-9)
	})
	t.Run("majority wins", func(t *testing.T) {
		f := newFixture().
			add(1, "a", "Bill of Exchange", 0.5).
			add(2, "b", "Commercial Invoice", 0.7).
			add(3, "c", "Commercial Invoice", 0.6)
		rec, err := New(fallback).Assemble([]int{1, 2, 3}, f.pages, f.classes, f.ids)
		require.NoError(t, err)
		assert.Equal(t, "Commercial Invoice", rec.DocumentType)
	})
	t.Run("all fallback", func(t *testing.T) {
		f := newFixture().add(1, "", fallback, 0).add(2, "", fallback, 0)
		rec, err := New(fallback).Assemble([]int{1, 2}, f.pages, f.classes, f.ids)
		require.NoError(t, err)
		assert.Equal(t, fallback, rec.DocumentType)
		assert.Zero(t, rec.Confidence)
		assert.Equal(t, "Unclassified Trade Document (Pages 1-2)", rec.Label)
	})
}

func TestAssemble_TextLengthCountsRunes(t *testing.T) {
	f := newFixture().add(1, "Zürich €", "Certificate", 0.6)
	rec, err := New(fallback).Assemble([]int{1}, f.pages, f.classes, f.ids)
	require.NoError(t, err)
	assert.Equal(t, 8, rec.TextLength)
}

func TestAssemble_ContractViolations(t *testing.T) {
	f := newFixture().add(1, "a", fallback, 0.3).add(2, "b", fallback, 0.3).add(4, "d", fallback, 0.3)
	a := New(fallback)

	_, err := a.Assemble(nil, f.pages, f.classes, f.ids)
	assert.True(t, errors.Is(err, common.ErrInputContract))

	_, err = a.Assemble([]int{2, 4}, f.pages, f.classes, f.ids)
	var ce *common.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 4, ce.Page)

	delete(f.classes, 2)
	_, err = a.Assemble([]int{1, 2}, f.pages, f.classes, f.ids)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Page)
}

func TestFormatPageRange(t *testing.T) {
	assert.Equal(t, "Page 1", FormatPageRange([]int{1}))
	assert.Equal(t, "Pages 3-7", FormatPageRange([]int{3, 4, 5, 6, 7}))
}
