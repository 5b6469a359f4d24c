package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
)

// apiClient is a thin wrapper around the invoice API used by the
// subcommands. It holds the base URL and the API key for the
// X-API-Key header.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type analyzeResponse struct {
	Status    string          `json:"status"`
	Data      map[string]any  `json:"data"`
	RawResult json.RawMessage `json:"raw_result"`
}

func newAPIClient(c *cli.Context) *apiClient {
	return &apiClient{
		baseURL: c.String("server"),
		apiKey:  c.String("api-key"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

func (a *apiClient) analyze(ctx context.Context, path string) (*analyzeResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze-invoice", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", a.apiKey)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding analyze response: %w", err)
	}
	return &out, nil
}

func (a *apiClient) generatePDF(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/generate-pdf", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", a.apiKey)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	return io.ReadAll(resp.Body)
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Message)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
}

// outputName derives the local PDF filename from the extracted invoice
// id, falling back to a generic name when the analyzer found none.
func outputName(data map[string]any, override string) string {
	if override != "" {
		return override
	}
	if id, ok := data["InvoiceId"].(string); ok && id != "" {
		return "invoice_" + id + ".pdf"
	}
	return "invoice.pdf"
}

func savePDF(path string, pdf []byte) error {
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Printf("PDF saved to %s\n", abs)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "invoicectl",
		Usage: "analyze invoice documents and render invoice PDFs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "base URL of the invoice API",
				Value:   "http://localhost:8000",
				EnvVars: []string{"INVOICE_API_URL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "value for the X-API-Key header",
				EnvVars: []string{"API_KEY"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "upload a document and print the extracted fields",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: invoicectl analyze <file>", 2)
					}
					api := newAPIClient(c)
					res, err := api.analyze(c.Context, c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Printf("Extracted %d fields.\n", len(res.Data))
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(res.Data)
				},
			},
			{
				Name:      "generate",
				Usage:     "render an invoice record (JSON file) to PDF",
				ArgsUsage: "<record.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output PDF path"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: invoicectl generate <record.json>", 2)
					}
					body, err := os.ReadFile(c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					api := newAPIClient(c)
					pdf, err := api.generatePDF(c.Context, body)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}

					var record map[string]any
					json.Unmarshal(body, &record)
					if data, ok := record["data"].(map[string]any); ok {
						record = data
					}
					id, _ := record["InvoiceId"].(string)
					name := outputName(map[string]any{"InvoiceId": id}, c.String("out"))
					if err := savePDF(name, pdf); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					return nil
				},
			},
			{
				Name:      "run",
				Usage:     "analyze a document, then render the result to PDF",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output PDF path"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: invoicectl run <file>", 2)
					}
					api := newAPIClient(c)

					fmt.Println("[1/2] Analyzing invoice...")
					res, err := api.analyze(c.Context, c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Printf("Extracted %d fields.\n", len(res.Data))

					fmt.Println("[2/2] Generating PDF...")
					body, err := json.Marshal(res)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					pdf, err := api.generatePDF(c.Context, body)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}

					name := outputName(res.Data, c.String("out"))
					if err := savePDF(name, pdf); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
