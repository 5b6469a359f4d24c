package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Text is a lenient scalar used for extracted invoice fields. The analyzer
// emits strings, numbers and nulls interchangeably depending on the source
// document, so Text accepts any JSON scalar and carries it as a string.
// Null and non-scalar values decode to the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case string:
		*t = Text(val)
	case json.Number:
		*t = Text(val.String())
	case bool:
		*t = Text(strconv.FormatBool(val))
	default:
		// null, objects and arrays render as an absent field
		*t = ""
	}
	return nil
}

// String returns the underlying string value.
func (t Text) String() string {
	return string(t)
}

// IsZero reports whether the value is empty or a numeric zero. Used to
// decide whether optional amount rows appear on the rendered invoice.
func (t Text) IsZero() bool {
	if t == "" {
		return true
	}
	f, err := strconv.ParseFloat(string(t), 64)
	return err == nil && f == 0
}

// LineItem is one row of an invoice's line-item table.
type LineItem struct {
	Description Text `json:"description"`
	Quantity    Text `json:"quantity"`
	UnitPrice   Text `json:"unitPrice"`
	Amount      Text `json:"amount"`
}

// InvoiceRecord is the flat field set describing one invoice, as produced
// by the extraction analyzer. Missing fields stay zero-valued and render
// as empty or "N/A". This is a pure domain model with no persistence; an
// InvoiceRecord lives only for the duration of one request.
type InvoiceRecord struct {
	InvoiceID           Text       `json:"InvoiceId"`
	InvoiceDate         Text       `json:"InvoiceDate"`
	DueDate             Text       `json:"DueDate"`
	VendorName          Text       `json:"VendorName"`
	VendorAddress       Text       `json:"VendorAddress"`
	VendorTaxID         Text       `json:"VendorTaxId"`
	CustomerName        Text       `json:"CustomerName"`
	CustomerAddress     Text       `json:"CustomerAddress"`
	CustomerTaxID       Text       `json:"CustomerTaxId"`
	SubtotalAmount      Text       `json:"SubtotalAmount"`
	TotalTaxAmount      Text       `json:"TotalTaxAmount"`
	TotalDiscountAmount Text       `json:"TotalDiscountAmount"`
	TotalAmount         Text       `json:"TotalAmount"`
	AmountDue           Text       `json:"AmountDue"`
	PaymentTerm         Text       `json:"PaymentTerm"`
	Currency            Text       `json:"Currency"`
	LineItems           []LineItem `json:"LineItems"`
}

// AnalysisResult wraps the normalized field set together with the raw,
// unmodified analyzer response. It is the body of a successful
// /analyze-invoice call and an accepted input shape for /generate-pdf.
type AnalysisResult struct {
	Status    string          `json:"status"`
	Data      map[string]any  `json:"data"`
	RawResult json.RawMessage `json:"raw_result"`
}
