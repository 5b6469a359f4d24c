package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"invoiceapi/internal/config"
)

var (
	// ErrUnavailable means the analysis service could not be reached or
	// rejected the request (network, auth, or server-side failure).
	ErrUnavailable = errors.New("extraction service unavailable")
	// ErrTimeout means the analysis job did not finish within the
	// configured deadline.
	ErrTimeout = errors.New("extraction timed out")
	// ErrAnalysis means the analyzer processed the document and reported
	// a failure. The wrapping error carries the service diagnostic.
	ErrAnalysis = errors.New("extraction failed")
)

// Result carries the normalized field set plus the raw, unmodified
// payload returned by the analysis service.
type Result struct {
	Fields map[string]any
	Raw    json.RawMessage
}

// Client submits documents to a content-understanding analyzer and waits
// for the asynchronous analysis to complete.
type Client interface {
	// Analyze uploads the document bytes and blocks until the analysis
	// job finishes, the configured timeout elapses, or ctx is done.
	Analyze(ctx context.Context, content []byte, contentType string) (*Result, error)

	// Ping verifies connectivity and credentials with a lightweight call.
	Ping(ctx context.Context) error
}

// azureClient implements Client against the Azure AI Content
// Understanding REST API. Analysis is a long-running operation: the
// submit call returns an Operation-Location URL which is polled until a
// terminal status. It is safe for concurrent use.
type azureClient struct {
	cfg  config.AzureConfig
	http *http.Client
}

// NewAzure constructs a Client for the configured Azure endpoint.
// Outbound requests are traced via the otelhttp transport.
func NewAzure(cfg config.AzureConfig) Client {
	return &azureClient{
		cfg: cfg,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}
}

func (c *azureClient) analyzeURL() string {
	return fmt.Sprintf("%s/contentunderstanding/analyzers/%s:analyze?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"),
		url.PathEscape(c.cfg.AnalyzerID),
		url.QueryEscape(c.cfg.APIVersion))
}

func (c *azureClient) listURL() string {
	return fmt.Sprintf("%s/contentunderstanding/analyzers?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"),
		url.QueryEscape(c.cfg.APIVersion))
}

func (c *azureClient) Analyze(ctx context.Context, content []byte, contentType string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	opLocation, err := c.submit(ctx, content, contentType)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, opLocation)
}

// submit starts the long-running analysis and returns the operation URL.
func (c *azureClient) submit(ctx context.Context, content []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL(), bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.mapTransportErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: analyze submit returned %d: %s",
			ErrUnavailable, resp.StatusCode, readDiagnostic(resp.Body))
	}

	loc := resp.Header.Get("Operation-Location")
	if loc == "" {
		return "", fmt.Errorf("%w: analyze submit returned no Operation-Location", ErrUnavailable)
	}
	return loc, nil
}

// operationStatus is the envelope of the long-running-operation resource.
type operationStatus struct {
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
}

// poll fetches the operation resource until it reaches a terminal status.
// A single failed poll sequence is surfaced to the caller, never retried
// from scratch.
func (c *azureClient) poll(ctx context.Context, opLocation string) (*Result, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		body, err := c.fetchOperation(ctx, opLocation)
		if err != nil {
			return nil, err
		}

		var op operationStatus
		if err := json.Unmarshal(body, &op); err != nil {
			return nil, fmt.Errorf("%w: decoding operation status: %v", ErrUnavailable, err)
		}

		switch strings.ToLower(op.Status) {
		case "succeeded":
			return &Result{Fields: normalizeResult(op.Result), Raw: body}, nil
		case "failed":
			msg := "analyzer reported failure"
			if op.Error != nil && op.Error.Message != "" {
				msg = op.Error.Message
			}
			return nil, fmt.Errorf("%w: %s", ErrAnalysis, msg)
		}

		select {
		case <-ctx.Done():
			return nil, c.mapTransportErr(ctx, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *azureClient) fetchOperation(ctx context.Context, opLocation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opLocation, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.mapTransportErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: operation poll returned %d: %s",
			ErrUnavailable, resp.StatusCode, readDiagnostic(resp.Body))
	}
	return io.ReadAll(resp.Body)
}

func (c *azureClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL(), nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: list analyzers returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// mapTransportErr folds context and transport failures into the package
// error taxonomy: deadline exceeded is a timeout, everything else means
// the service is unavailable. Caller cancellation passes through so the
// HTTP layer can tell an aborted request from a slow analyzer.
func (c *azureClient) mapTransportErr(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: no result within %s", ErrTimeout, c.cfg.Timeout)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// readDiagnostic extracts a short service diagnostic from an error body.
func readDiagnostic(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil || len(b) == 0 {
		return "no diagnostic"
	}
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(b, &apiErr) == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return strings.TrimSpace(string(b))
}
