package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Text
	}{
		{"string", `"INV-001"`, "INV-001"},
		{"integer", `2`, "2"},
		{"float keeps literal", `100.50`, "100.50"},
		{"bool", `true`, "true"},
		{"null", `null`, ""},
		{"object ignored", `{"CurrencyCode":"USD","Amount":100}`, ""},
		{"array ignored", `[1,2]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Text
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextIsZero(t *testing.T) {
	assert.True(t, Text("").IsZero())
	assert.True(t, Text("0").IsZero())
	assert.True(t, Text("0.00").IsZero())
	assert.False(t, Text("10.00").IsZero())
	assert.False(t, Text("free").IsZero())
}

func TestInvoiceRecordUnmarshal(t *testing.T) {
	body := `{
		"InvoiceId": "INV-001",
		"TotalAmount": "100.00",
		"LineItems": [
			{"description": "Widget", "quantity": "2", "unitPrice": "50.00", "amount": "100.00"},
			{"description": "Gadget", "quantity": 1, "unitPrice": 25.5, "amount": 25.5}
		]
	}`

	var rec InvoiceRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))

	assert.Equal(t, Text("INV-001"), rec.InvoiceID)
	assert.Equal(t, Text("100.00"), rec.TotalAmount)
	// Untouched fields stay zero-valued
	assert.Equal(t, Text(""), rec.VendorName)
	require.Len(t, rec.LineItems, 2)
	assert.Equal(t, Text("Widget"), rec.LineItems[0].Description)
	assert.Equal(t, Text("1"), rec.LineItems[1].Quantity)
	assert.Equal(t, Text("25.5"), rec.LineItems[1].UnitPrice)
}
