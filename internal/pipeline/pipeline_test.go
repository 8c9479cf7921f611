package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lcsplit/constants"
	"github.com/joseph-ayodele/lcsplit/internal/catalog"
	"github.com/joseph-ayodele/lcsplit/internal/common"
	"github.com/joseph-ayodele/lcsplit/internal/entity"
	"github.com/joseph-ayodele/lcsplit/internal/segment"
)

func pagesOf(texts ...string) []entity.Page {
	out := make([]entity.Page, len(texts))
	for i, t := range texts {
		out[i] = entity.NewPage(i+1, t)
	}
	return out
}

func newPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	p, err := New(catalog.Default(), cfg, nil)
	require.NoError(t, err)
	return p
}

func TestRun_InvoiceContinuationThenBillOfLading(t *testing.T) {
	p := newPipeline(t, Config{})
	docs, err := p.Run(context.Background(), pagesOf(
		"COMMERCIAL INVOICE Invoice No: INV-001 Seller: X Buyer: Y Total Amount: 500",
		"continued goods description, packed in 10 cartons",
		"BILL OF LADING B/L No: BL-900 Shipper: X Consignee: Y Vessel: MV Star",
	))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Commercial Invoice", docs[0].DocumentType)
	assert.Equal(t, []int{1, 2}, docs[0].Pages)
	assert.Equal(t, "Commercial Invoice (inv-001)", docs[0].Label)
	assert.InDelta(t, 0.75, docs[0].Confidence, 1e-9)
	assert.Contains(t, docs[0].CombinedText, "\n\n--- Page 2 ---\ncontinued goods")

	assert.Equal(t, "Bill of Lading", docs[1].DocumentType)
	assert.Equal(t, []int{3}, docs[1].Pages)
	assert.Equal(t, "Page 3", docs[1].PageRange)
	assert.Equal(t, "Bill of Lading (bl-900)", docs[1].Label)
	assert.InDelta(t, 5.0/7.0*0.9+0.2, docs[1].Confidence, 1e-9)
}

func TestRun_SameTypeDifferentIdentifiers(t *testing.T) {
	p := newPipeline(t, Config{})
	docs, err := p.Run(context.Background(), pagesOf(
		"COMMERCIAL INVOICE Invoice No: INV-001 Seller: X Buyer: Y",
		"COMMERCIAL INVOICE Invoice No: INV-002 Seller: X Buyer: Y",
	))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Commercial Invoice", docs[0].DocumentType)
	assert.Equal(t, "Commercial Invoice", docs[1].DocumentType)
	assert.Equal(t, []int{1}, docs[0].Pages)
	assert.Equal(t, []int{2}, docs[1].Pages)
}

func TestRun_AllPagesEmpty(t *testing.T) {
	p := newPipeline(t, Config{})
	docs, err := p.Run(context.Background(), pagesOf("", "   ", "\n"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, string(constants.Unclassified), docs[0].DocumentType)
	assert.Zero(t, docs[0].Confidence)
	assert.Equal(t, []int{1, 2, 3}, docs[0].Pages)
}

func TestRun_SoftCapSplitsLongRun(t *testing.T) {
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = "PACKING LIST Gross Weight 120 kg Net Weight 100 kg Packages 10 Dimensions 120x80"
	}

	docs, err := newPipeline(t, Config{Thresholds: segment.Thresholds{RunSoftCap: 8}}).Run(context.Background(), pagesOf(texts...))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Pages 1-8", docs[0].PageRange)
	assert.Equal(t, "Pages 9-12", docs[1].PageRange)
	for _, d := range docs {
		assert.Equal(t, "Packing List", d.DocumentType)
	}
}

func TestRun_Properties(t *testing.T) {
	inputs := [][]string{
		{"COMMERCIAL INVOICE Invoice No: INV-001 Seller: X Buyer: Y", "continued", "", "BILL OF LADING B/L No: BL-900 Shipper: X"},
		{"", "random words only", "CERTIFICATE OF ORIGIN Country of Origin: Ghana", "We hereby certify that the cargo was fumigated"},
		{"LETTER OF CREDIT Documentary Credit No: LC-12345 Issuing Bank: ABC Beneficiary: XYZ"},
	}
	p := newPipeline(t, Config{Workers: 2})

	for _, texts := range inputs {
		pages := pagesOf(texts...)
		docs, err := p.Run(context.Background(), pages)
		require.NoError(t, err)
		require.NotEmpty(t, docs)

		next := 1
		for _, d := range docs {
			require.NotEmpty(t, d.Pages)
			for _, idx := range d.Pages {
				assert.Equal(t, next, idx, "pages must be covered once, in order")
				next++
			}
			assert.GreaterOrEqual(t, d.Confidence, 0.0)
			assert.LessOrEqual(t, d.Confidence, 1.0)
			assert.Equal(t, len([]rune(d.CombinedText)), d.TextLength)
		}
		assert.Equal(t, len(pages)+1, next)

		again, err := p.Run(context.Background(), pages)
		require.NoError(t, err)
		assert.Equal(t, docs, again)
	}
}

func TestAnalyze_ExposesIntermediates(t *testing.T) {
	a, err := newPipeline(t, Config{}).Analyze(context.Background(), pagesOf(
		"COMMERCIAL INVOICE Invoice No: INV-001 Seller: X Buyer: Y",
		"continued",
	))
	require.NoError(t, err)
	require.Len(t, a.Classifications, 2)
	assert.Equal(t, 1, a.Classifications[0].PageIndex)
	assert.Equal(t, []string{"inv-001"}, a.Identifiers[1])
	assert.Empty(t, a.Identifiers[2])
	require.Len(t, a.Runs, 1)
	assert.Equal(t, []int{1, 2}, a.Runs[0].Pages)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPipeline(t, Config{}).Run(ctx, pagesOf("a", "b"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestValidatePages(t *testing.T) {
	tests := []struct {
		name  string
		pages []entity.Page
		page  int
	}{
		{"empty", nil, 0},
		{"starts at two", []entity.Page{entity.NewPage(2, "x")}, 1},
		{"gap", []entity.Page{entity.NewPage(1, "x"), entity.NewPage(3, "y")}, 2},
		{"duplicate", []entity.Page{entity.NewPage(1, "x"), entity.NewPage(1, "y")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePages(tt.pages)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInputContract))
			var ce *common.ContractError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.page, ce.Page)
		})
	}
	assert.NoError(t, ValidatePages(pagesOf("a", "b")))
}

func TestRun_ContractViolation(t *testing.T) {
	_, err := newPipeline(t, Config{}).Run(context.Background(), []entity.Page{entity.NewPage(1, "a"), entity.NewPage(3, "c")})
	assert.True(t, errors.Is(err, common.ErrInputContract))
}

func TestNew_ConfigErrors(t *testing.T) {
	_, err := New(nil, Config{}, nil)
	assert.True(t, common.IsConfigError(err))

	_, err = New(catalog.Default(), Config{IdentifierPatterns: []string{"("}}, nil)
	assert.True(t, common.IsConfigError(err))

	_, err = New(catalog.Default(), Config{HeaderPatterns: []string{"[a-"}}, nil)
	assert.True(t, common.IsConfigError(err))
}

func TestFromConfig(t *testing.T) {
	cfg := common.DefaultConfig()
	p, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, p.workers)

	cfg.Catalog.Path = "does-not-exist.yaml"
	_, err = FromConfig(cfg, nil)
	assert.True(t, common.IsConfigError(err))
}

func TestConfigFrom(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Segmentation.RunSoftCap = 3
	cfg.Segmentation.HeaderPatterns = []string{`\bmanifest\b`}
	got := ConfigFrom(cfg)
	assert.Equal(t, 3, got.Thresholds.RunSoftCap)
	assert.InDelta(t, 0.6, got.Thresholds.StrongConfidence, 1e-9)
	assert.InDelta(t, 0.15, got.Classify.Floor, 1e-9)
	assert.Equal(t, []string{`\bmanifest\b`}, got.HeaderPatterns)
	assert.True(t, got.Classify.Exact)
	assert.True(t, got.Thresholds.Exact)
}

func TestFromConfig_ZeroThresholdsAreHonoured(t *testing.T) {
	pages := pagesOf(
		"COMMERCIAL INVOICE Invoice No: INV-001 Seller: X Buyer: Y Total Amount: 500",
		"WE HEREBY CERTIFY the goods",
	)

	t.Run("defaults", func(t *testing.T) {
		p, err := FromConfig(common.DefaultConfig(), nil)
		require.NoError(t, err)
		a, err := p.Analyze(context.Background(), pages)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, a.Classifications[0].Confidence, 1e-9)
		assert.InDelta(t, 0.3, a.Classifications[1].Confidence, 1e-9)
		require.Len(t, a.Runs, 2)
		assert.Equal(t, segment.ReasonHeaderCue, a.Runs[1].Reason)
	})

	t.Run("boost, fallback and similarity floor set to zero", func(t *testing.T) {
		cfg := common.DefaultConfig()
		cfg.Segmentation.ExtraMatchBoost = 0
		cfg.Segmentation.FallbackConfidence = 0
		cfg.Segmentation.SimilarityFloor = 0
		require.NoError(t, cfg.Validate())

		p, err := FromConfig(cfg, nil)
		require.NoError(t, err)
		a, err := p.Analyze(context.Background(), pages)
		require.NoError(t, err)
		assert.InDelta(t, 4.0/6.0*0.9, a.Classifications[0].Confidence, 1e-9)
		assert.Equal(t, string(constants.Unclassified), a.Classifications[1].DocumentType)
		assert.Zero(t, a.Classifications[1].Confidence)
		require.Len(t, a.Runs, 1)
		require.Len(t, a.Documents, 1)
		assert.Equal(t, []int{1, 2}, a.Documents[0].Pages)
		assert.InDelta(t, 4.0/6.0*0.9, a.Documents[0].Confidence, 1e-9)
	})

	t.Run("identifier patterns from config", func(t *testing.T) {
		cfg := common.DefaultConfig()
		cfg.Segmentation.IdentifierPatterns = []string{`lc-\d+`}
		p, err := FromConfig(cfg, nil)
		require.NoError(t, err)
		a, err := p.Analyze(context.Background(), pagesOf("credit reference LC-42 and INV-001"))
		require.NoError(t, err)
		assert.Equal(t, []string{"lc-42"}, a.Identifiers[1])

		cfg.Segmentation.IdentifierPatterns = []string{"("}
		_, err = FromConfig(cfg, nil)
		assert.True(t, common.IsConfigError(err))
	})
}
