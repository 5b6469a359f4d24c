package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceapi/internal/model"
)

func sampleRecord() model.InvoiceRecord {
	return model.InvoiceRecord{
		InvoiceID:      "INV-001",
		InvoiceDate:    "2026-01-15",
		DueDate:        "2026-02-14",
		VendorName:     "Acme Corp",
		CustomerName:   "Globex Inc",
		SubtotalAmount: "100.00",
		TotalTaxAmount: "8.00",
		TotalAmount:    "108.00",
		AmountDue:      "108.00",
		Currency:       "USD",
		LineItems: []model.LineItem{
			{Description: "Widget", Quantity: "2", UnitPrice: "50.00", Amount: "100.00"},
		},
	}
}

func TestRenderHTML_Deterministic(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	first, err := r.RenderHTML(sampleRecord())
	require.NoError(t, err)
	second, err := r.RenderHTML(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderHTML_FieldSubstitution(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	html, err := r.RenderHTML(sampleRecord())
	require.NoError(t, err)

	assert.Contains(t, html, "INV-001")
	assert.Contains(t, html, "Widget")
	assert.Contains(t, html, "100.00")
	assert.Contains(t, html, "Acme Corp")
	assert.Contains(t, html, "Globex Inc")
	assert.Contains(t, html, "USD")
}

func TestRenderHTML_MissingFieldsRenderPlaceholder(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	html, err := r.RenderHTML(model.InvoiceRecord{})
	require.NoError(t, err)

	assert.Contains(t, html, "N/A")
	// Optional tax-id lines disappear entirely when absent
	assert.NotContains(t, html, "Tax ID:")
}

func TestRenderHTML_ZeroLineItems(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	rec := sampleRecord()
	rec.LineItems = nil

	html, err := r.RenderHTML(rec)
	require.NoError(t, err)

	// Header row survives, no data rows and no placeholder row
	assert.Contains(t, html, "<th>Description</th>")
	assert.Equal(t, 0, strings.Count(html, "<td"))
}

func TestRenderHTML_DiscountRow(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	t.Run("hidden when zero", func(t *testing.T) {
		rec := sampleRecord()
		rec.TotalDiscountAmount = "0.00"

		html, err := r.RenderHTML(rec)
		require.NoError(t, err)
		assert.NotContains(t, html, "Discount")
	})

	t.Run("hidden when absent", func(t *testing.T) {
		html, err := r.RenderHTML(sampleRecord())
		require.NoError(t, err)
		assert.NotContains(t, html, "Discount")
	})

	t.Run("shown when set", func(t *testing.T) {
		rec := sampleRecord()
		rec.TotalDiscountAmount = "5.00"

		html, err := r.RenderHTML(rec)
		require.NoError(t, err)
		assert.Contains(t, html, "Discount")
		assert.Contains(t, html, "5.00")
	})
}

func TestRenderHTML_EscapesMarkup(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	rec := sampleRecord()
	rec.VendorName = `<script>alert("x")</script>`

	html, err := r.RenderHTML(rec)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
}
