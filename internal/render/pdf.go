package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"

	"invoiceapi/internal/config"
)

// ErrConverterClosed is returned when converting after Close.
var ErrConverterClosed = errors.New("render: converter is closed")

// A4 paper dimensions and print margins in inches. Margins are zero so
// the template's own padding controls the printable area, matching the
// layout the invoice stylesheet was designed for.
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

// PDFConverter turns an HTML document into PDF bytes.
type PDFConverter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// chromeConverter prints HTML to PDF through a headless Chrome instance.
//
// One browser process is started eagerly and reused across conversions;
// each conversion runs in its own tab so concurrent requests cannot
// corrupt each other's page state. Call Close to release the browser.
type chromeConverter struct {
	cfg           config.RenderConfig
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewChromeConverter starts a headless browser per the render settings.
// Startup errors surface immediately rather than on first conversion.
func NewChromeConverter(cfg config.RenderConfig) (PDFConverter, error) {
	chromePath := cfg.ChromePath
	if chromePath == "" && cfg.AutoDownload {
		// Downloads a compatible Chromium into the user cache when no
		// local browser is installed.
		path, err := launcher.NewBrowser().Get()
		if err != nil {
			return nil, fmt.Errorf("render: downloading browser: %w", err)
		}
		chromePath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("headless", "new"),
	)
	if chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromePath))
	}
	if cfg.NoSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("render: starting browser: %w", err)
	}

	return &chromeConverter{
		cfg:           cfg,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close releases the browser process. Close is idempotent.
func (c *chromeConverter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.browserCancel()
	c.allocCancel()
	return nil
}

// Convert prints the HTML document to an A4 PDF with the background
// graphics included. The tab and its temp file are torn down on every
// exit path.
func (c *chromeConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConverterClosed
	}
	c.mu.Unlock()

	f, err := os.CreateTemp("", "invoice-*.html")
	if err != nil {
		return nil, fmt.Errorf("render: creating temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString(html); err != nil {
		f.Close()
		return nil, fmt.Errorf("render: writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("render: closing temp file: %w", err)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, fmt.Errorf("render: resolving path: %w", err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()

	// Tear the tab down when the caller's deadline or cancellation fires.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var buf []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithScale(1.0).
				WithPrintBackground(true).
				Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("render: conversion failed: %w", err)
	}

	return buf, nil
}
