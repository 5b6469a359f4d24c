package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"invoiceapi/internal/model"
)

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Analyze(ctx context.Context, r io.Reader, filename, contentType string) (*model.AnalysisResult, error) {
	args := m.Called(ctx, r, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisResult), args.Error(1)
}

func (m *MockInvoiceService) GeneratePDF(ctx context.Context, body []byte) ([]byte, string, error) {
	args := m.Called(ctx, body)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockInvoiceService) CheckExtraction(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
