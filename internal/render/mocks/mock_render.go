package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceapi/internal/model"
)

type MockHTMLRenderer struct {
	mock.Mock
}

func (m *MockHTMLRenderer) RenderHTML(rec model.InvoiceRecord) (string, error) {
	args := m.Called(rec)
	return args.String(0), args.Error(1)
}

type MockPDFConverter struct {
	mock.Mock
}

func (m *MockPDFConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPDFConverter) Close() error {
	args := m.Called()
	return args.Error(0)
}
