package extraction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceapi/internal/config"
)

func testConfig(endpoint string) config.AzureConfig {
	return config.AzureConfig{
		Endpoint:     endpoint,
		Key:          "test-key",
		AnalyzerID:   "invoice-analyzer",
		APIVersion:   "2024-12-01-preview",
		PollInterval: 10 * time.Millisecond,
		Timeout:      2 * time.Second,
	}
}

// fakeAzure simulates the analyze submit + operation poll surface.
type fakeAzure struct {
	t            *testing.T
	polls        atomic.Int32
	pollBodies   []string // returned in order; last repeats
	submitStatus int
	srv          *httptest.Server
}

func newFakeAzure(t *testing.T, pollBodies ...string) *fakeAzure {
	f := &fakeAzure{t: t, pollBodies: pollBodies, submitStatus: http.StatusAccepted}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAzure) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Ocp-Apim-Subscription-Key") != "test-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodPost:
		if f.submitStatus != http.StatusAccepted {
			w.WriteHeader(f.submitStatus)
			w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			return
		}
		w.Header().Set("Operation-Location", f.srv.URL+"/operations/op-1")
		w.WriteHeader(http.StatusAccepted)
	case r.Method == http.MethodGet && r.URL.Path == "/operations/op-1":
		i := int(f.polls.Add(1)) - 1
		if i >= len(f.pollBodies) {
			i = len(f.pollBodies) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(f.pollBodies[i]))
	default:
		// list analyzers (Ping)
		w.Write([]byte(`{"value":[]}`))
	}
}

func TestAnalyze_Succeeds(t *testing.T) {
	fake := newFakeAzure(t,
		`{"status":"Running"}`,
		`{"status":"Succeeded","result":{"contents":[{"fields":{
			"InvoiceId":{"valueString":"INV-001"},
			"TotalAmount":{"valueNumber":100}
		}}]}}`,
	)

	client := NewAzure(testConfig(fake.srv.URL))
	res, err := client.Analyze(context.Background(), []byte("%PDF-1.4"), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, "INV-001", res.Fields["InvoiceId"])
	assert.Equal(t, float64(100), res.Fields["TotalAmount"])
	assert.Contains(t, string(res.Raw), "Succeeded")
	assert.GreaterOrEqual(t, fake.polls.Load(), int32(2))
}

func TestAnalyze_AnalyzerFailure(t *testing.T) {
	fake := newFakeAzure(t,
		`{"status":"Failed","error":{"code":"InvalidDocument","message":"document is encrypted"}}`,
	)

	client := NewAzure(testConfig(fake.srv.URL))
	_, err := client.Analyze(context.Background(), []byte("%PDF-1.4"), "application/pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnalysis)
	assert.Contains(t, err.Error(), "document is encrypted")
}

func TestAnalyze_SubmitRejected(t *testing.T) {
	fake := newFakeAzure(t)
	fake.submitStatus = http.StatusTooManyRequests

	client := NewAzure(testConfig(fake.srv.URL))
	_, err := client.Analyze(context.Background(), []byte("%PDF-1.4"), "application/pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnalyze_BadCredentials(t *testing.T) {
	fake := newFakeAzure(t)

	cfg := testConfig(fake.srv.URL)
	cfg.Key = "wrong-key"
	client := NewAzure(cfg)

	_, err := client.Analyze(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnalyze_MissingOperationLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewAzure(testConfig(srv.URL))
	_, err := client.Analyze(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnalyze_Timeout(t *testing.T) {
	fake := newFakeAzure(t, `{"status":"Running"}`)

	cfg := testConfig(fake.srv.URL)
	cfg.Timeout = 100 * time.Millisecond
	client := NewAzure(cfg)

	_, err := client.Analyze(context.Background(), []byte("%PDF-1.4"), "application/pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAnalyze_CallerCancellation(t *testing.T) {
	fake := newFakeAzure(t, `{"status":"Running"}`)

	client := NewAzure(testConfig(fake.srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := client.Analyze(ctx, []byte("%PDF-1.4"), "application/pdf")

	require.Error(t, err)
	// A client disconnect is not a service timeout
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		fake := newFakeAzure(t)
		client := NewAzure(testConfig(fake.srv.URL))
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("bad credentials", func(t *testing.T) {
		fake := newFakeAzure(t)
		cfg := testConfig(fake.srv.URL)
		cfg.Key = "wrong-key"
		client := NewAzure(cfg)

		assert.ErrorIs(t, client.Ping(context.Background()), ErrUnavailable)
	})

	t.Run("unreachable", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1")
		client := NewAzure(cfg)

		assert.ErrorIs(t, client.Ping(context.Background()), ErrUnavailable)
	})
}
