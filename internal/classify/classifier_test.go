package classify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lcsplit/internal/catalog"
)

func newDefault() *Classifier {
	return New(catalog.Default(), Options{}, nil)
}

func TestClassify_EmptyText(t *testing.T) {
	c := newDefault()
	for _, text := range []string{"", "   \n\t  "} {
		got := c.Classify(3, text)
		assert.Equal(t, 3, got.PageIndex)
		assert.Equal(t, "Unclassified Trade Document", got.DocumentType)
		assert.Zero(t, got.Confidence)
		assert.Empty(t, got.MatchedKeywords)
	}
}

func TestClassify_NoMatch(t *testing.T) {
	got := newDefault().Classify(2, "continued goods description, packed in 10 cartons")
	assert.Equal(t, "Unclassified Trade Document", got.DocumentType)
	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
}

func TestClassify_CommercialInvoice(t *testing.T) {
	got := newDefault().Classify(1, "COMMERCIAL INVOICE Invoice No: INV-001 Seller: X Buyer: Y Total Amount: 500")

	assert.Equal(t, "Commercial Invoice", got.DocumentType)
	// 4 of 6 keywords at 0.9 plus 3 extra-match boosts
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)
	assert.Equal(t, []string{"commercial invoice", "invoice no", "seller", "buyer"}, got.MatchedKeywords)
}

func TestClassify_BillOfLading(t *testing.T) {
	got := newDefault().Classify(3, "BILL OF LADING B/L No: BL-900 Shipper: X Consignee: Y Vessel: MV Star")

	assert.Equal(t, "Bill of Lading", got.DocumentType)
	assert.InDelta(t, 5.0/7.0*0.9+0.2, got.Confidence, 1e-9)
}

func TestClassify_CaseAndWhitespaceInsensitive(t *testing.T) {
	c := newDefault()
	a := c.Classify(1, "packing   LIST\n\ngross\tweight")
	b := c.Classify(1, "Packing List Gross Weight")
	assert.Equal(t, a, b)
	assert.Equal(t, "Packing List", a.DocumentType)
}

func TestClassify_TieKeepsCatalogOrder(t *testing.T) {
	cat, err := catalog.New([]catalog.Entry{
		{DocumentType: "First", Keywords: []string{"shared phrase"}, BaseConfidence: 0.8},
		{DocumentType: "Second", Keywords: []string{"shared phrase"}, BaseConfidence: 0.8},
	})
	require.NoError(t, err)

	got := New(cat, Options{}, nil).Classify(1, "a shared phrase here")
	assert.Equal(t, "First", got.DocumentType)
}

func TestClassify_BelowFloorFallsBack(t *testing.T) {
	cat, err := catalog.New([]catalog.Entry{
		{DocumentType: "Wide", Keywords: []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10"}, BaseConfidence: 0.5},
	})
	require.NoError(t, err)

	got := New(cat, Options{}, nil).Classify(1, "only a9 here")
	assert.Equal(t, cat.FallbackType(), got.DocumentType)
	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
}

func TestClassify_Capped(t *testing.T) {
	cat, err := catalog.New([]catalog.Entry{
		{DocumentType: "Strong", Keywords: []string{"alpha", "beta"}, BaseConfidence: 1},
	})
	require.NoError(t, err)

	got := New(cat, Options{}, nil).Classify(1, "alpha beta")
	assert.InDelta(t, 0.98, got.Confidence, 1e-9)

	got = New(cat, Options{MaxConfidence: 0.9, ExtraMatchBoost: -1}, nil).Classify(1, "alpha beta")
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
}

func TestClassify_ConfidenceInRange(t *testing.T) {
	c := newDefault()
	texts := []string{
		"letter of credit documentary credit l/c no lc no credit no issuing bank beneficiary",
		"certificate",
		"receipt acknowledgment",
		"x",
	}
	for _, text := range texts {
		got := c.Classify(1, text)
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 1.0)
	}
}

func TestClassify_ConcurrentUse(t *testing.T) {
	c := newDefault()
	want := c.Classify(1, "bill of lading shipper consignee")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, c.Classify(1, "bill of lading shipper consignee"))
		}()
	}
	wg.Wait()
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  A\n\tb   C "))
	assert.Equal(t, "", Normalize(" \n "))
}
