package render

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceapi/internal/config"
	"invoiceapi/internal/model"
)

// chromeAvailable reports whether a Chrome/Chromium executable is in PATH.
func chromeAvailable() bool {
	for _, name := range []string{
		"chromium-browser", "chromium", "google-chrome",
		"google-chrome-stable", "chrome",
	} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func newTestConverter(t *testing.T) PDFConverter {
	t.Helper()
	if !chromeAvailable() {
		t.Skip("skipping: Chrome/Chromium not found in PATH")
	}
	c, err := NewChromeConverter(config.RenderConfig{
		NoSandbox: true,
		Timeout:   30 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// isPDF checks whether data starts with the PDF magic number.
func isPDF(data []byte) bool {
	return len(data) > 4 && string(data[:5]) == "%PDF-"
}

func TestConvert_Basic(t *testing.T) {
	c := newTestConverter(t)

	pdf, err := c.Convert(context.Background(), "<h1>Invoice</h1>")
	require.NoError(t, err)
	assert.True(t, isPDF(pdf), "output is not a valid PDF")
	assert.Greater(t, len(pdf), 100)
}

func TestConvert_RenderedInvoice(t *testing.T) {
	c := newTestConverter(t)

	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	html, err := r.RenderHTML(model.InvoiceRecord{
		InvoiceID:   "INV-001",
		TotalAmount: "100.00",
		Currency:    "USD",
		LineItems: []model.LineItem{
			{Description: "Widget", Quantity: "2", UnitPrice: "50.00", Amount: "100.00"},
		},
	})
	require.NoError(t, err)

	pdf, err := c.Convert(context.Background(), html)
	require.NoError(t, err)
	assert.True(t, isPDF(pdf))
}

func TestConvert_Concurrent(t *testing.T) {
	c := newTestConverter(t)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := c.Convert(context.Background(), "<p>tab isolation</p>")
			errs <- err
		}()
	}
	for i := 0; i < 2; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestConverter_CloseIdempotent(t *testing.T) {
	if !chromeAvailable() {
		t.Skip("skipping: Chrome/Chromium not found in PATH")
	}

	c, err := NewChromeConverter(config.RenderConfig{NoSandbox: true})
	require.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestConverter_UsedAfterClose(t *testing.T) {
	if !chromeAvailable() {
		t.Skip("skipping: Chrome/Chromium not found in PATH")
	}

	c, err := NewChromeConverter(config.RenderConfig{NoSandbox: true})
	require.NoError(t, err)
	c.Close()

	_, err = c.Convert(context.Background(), "<p>test</p>")
	assert.ErrorIs(t, err, ErrConverterClosed)
}
