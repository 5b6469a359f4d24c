package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"invoiceapi/internal/extraction"
	"invoiceapi/internal/model"
	"invoiceapi/internal/render"
)

var (
	ErrEmptyDocument   = errors.New("document is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidJSON     = errors.New("request body is not valid JSON")
)

// supportedExtensions are the upload formats the analyzer accepts.
var supportedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

var supportedMediaTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
	"image/bmp":       true,
}

// InvoiceService defines the use cases for invoice extraction and PDF
// generation. The service is stateless; nothing survives a request.
type InvoiceService interface {
	// Analyze validates the upload, submits it to the extraction
	// analyzer, and returns the normalized field set plus raw payload.
	Analyze(ctx context.Context, r io.Reader, filename, contentType string) (*model.AnalysisResult, error)

	// GeneratePDF renders a JSON invoice body (bare record or full
	// analyze response, auto-unwrapped) to PDF bytes and a download
	// filename.
	GeneratePDF(ctx context.Context, body []byte) ([]byte, string, error)

	// CheckExtraction verifies the extraction service is reachable with
	// the configured credentials.
	CheckExtraction(ctx context.Context) error
}

type invoiceService struct {
	extractor extraction.Client
	html      render.HTMLRenderer
	pdf       render.PDFConverter
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(extractor extraction.Client, html render.HTMLRenderer, pdf render.PDFConverter) InvoiceService {
	return &invoiceService{extractor: extractor, html: html, pdf: pdf}
}

func (s *invoiceService) Analyze(ctx context.Context, r io.Reader, filename, contentType string) (*model.AnalysisResult, error) {
	mediaType, err := resolveMediaType(filename, contentType)
	if err != nil {
		return nil, err
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyDocument
	}

	res, err := s.extractor.Analyze(ctx, content, mediaType)
	if err != nil {
		return nil, err
	}

	return &model.AnalysisResult{
		Status:    "success",
		Data:      res.Fields,
		RawResult: res.Raw,
	}, nil
}

// resolveMediaType validates the declared type of an upload. The file
// extension wins when present; otherwise the declared content type must
// be one of the supported media types.
func resolveMediaType(filename, contentType string) (string, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		mt, ok := supportedExtensions[ext]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
		}
		return mt, nil
	}

	base := contentType
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if !supportedMediaTypes[strings.ToLower(base)] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return base, nil
}

func (s *invoiceService) GeneratePDF(ctx context.Context, body []byte) ([]byte, string, error) {
	rec, err := decodeRecord(body)
	if err != nil {
		return nil, "", err
	}

	html, err := s.html.RenderHTML(rec)
	if err != nil {
		return nil, "", err
	}

	pdf, err := s.pdf.Convert(ctx, html)
	if err != nil {
		return nil, "", err
	}

	return pdf, downloadFilename(rec), nil
}

func (s *invoiceService) CheckExtraction(ctx context.Context) error {
	return s.extractor.Ping(ctx)
}

// decodeRecord parses the generate-pdf input, which is either a bare
// InvoiceRecord or a full analyze-invoice response. A body carrying both
// a status and a data key is treated as the latter and unwrapped, so the
// analyze output can be posted back unchanged.
func decodeRecord(body []byte) (model.InvoiceRecord, error) {
	var rec model.InvoiceRecord

	var probe struct {
		Status *string         `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if probe.Status != nil && probe.Data != nil {
		body = probe.Data
	}

	if err := json.Unmarshal(body, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	// The analyzer sometimes reports the total as an object carrying a
	// currency code; lift it into the record when no currency is set.
	if rec.Currency == "" {
		var raw map[string]json.RawMessage
		if json.Unmarshal(body, &raw) == nil {
			if total, ok := raw["TotalAmount"]; ok {
				var obj struct {
					CurrencyCode string     `json:"CurrencyCode"`
					Amount       model.Text `json:"Amount"`
				}
				if json.Unmarshal(total, &obj) == nil && obj.CurrencyCode != "" {
					rec.Currency = model.Text(obj.CurrencyCode)
					if rec.TotalAmount == "" {
						rec.TotalAmount = obj.Amount
					}
				}
			}
		}
	}

	return rec, nil
}

// downloadFilename builds the attachment name for a generated PDF.
func downloadFilename(rec model.InvoiceRecord) string {
	id := sanitizeFilename(rec.InvoiceID.String())
	if id == "" {
		return "invoice.pdf"
	}
	return "invoice_" + id + ".pdf"
}

// sanitizeFilename keeps the invoice ID safe for a Content-Disposition
// header and a local filesystem.
func sanitizeFilename(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('-')
		}
	}
	return strings.Trim(sb.String(), "-.")
}
