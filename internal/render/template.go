package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"invoiceapi/internal/model"
)

//go:embed invoice.html.tmpl
var templateFS embed.FS

// HTMLRenderer produces an HTML invoice document from a record.
type HTMLRenderer interface {
	RenderHTML(rec model.InvoiceRecord) (string, error)
}

// templateRenderer fills the fixed invoice layout with field values.
// Rendering is a pure function: identical records yield byte-identical
// HTML.
type templateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer parses the embedded invoice layout.
func NewTemplateRenderer() (HTMLRenderer, error) {
	tmpl, err := template.New("invoice.html.tmpl").Funcs(template.FuncMap{
		"orNA": func(t model.Text) string {
			if t == "" {
				return "N/A"
			}
			return t.String()
		},
	}).ParseFS(templateFS, "invoice.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &templateRenderer{tmpl: tmpl}, nil
}

func (r *templateRenderer) RenderHTML(rec model.InvoiceRecord) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, rec); err != nil {
		return "", fmt.Errorf("render invoice: %w", err)
	}
	return sb.String(), nil
}
