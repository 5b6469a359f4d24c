package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceapi/internal/extraction"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Analyze(ctx context.Context, content []byte, contentType string) (*extraction.Result, error) {
	args := m.Called(ctx, content, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extraction.Result), args.Error(1)
}

func (m *MockClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
