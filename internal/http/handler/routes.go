package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"invoiceapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; business logic lives in the service layer.
func RegisterRoutes(app *fiber.App, svc service.InvoiceService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(svc))
	app.Get("/healthz", LivenessProbe())
	app.Post("/analyze-invoice", AnalyzeInvoice(svc))
	app.Post("/generate-pdf", GeneratePDF(svc))
}

// HealthCheck reports service health including analyzer reachability.
// The endpoint always answers 200; a failed analyzer check is reported
// as degraded so orchestrators do not restart a pod over an upstream
// outage.
func HealthCheck(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		status := "ok"
		connected := true
		if err := svc.CheckExtraction(ctx); err != nil {
			status = "degraded"
			connected = false
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":          status,
			"azure_connected": connected,
		})
	}
}

// LivenessProbe is a minimal probe that only confirms the process serves traffic.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// AnalyzeInvoice accepts a multipart upload (field name: file) and runs
// field extraction on it.
func AnalyzeInvoice(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := svc.Analyze(c.UserContext(), f, fh.Filename, ct)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(res)
	}
}

// GeneratePDF accepts an invoice record as JSON and responds with the
// rendered PDF as a download attachment.
func GeneratePDF(svc service.InvoiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pdf, filename, err := svc.GeneratePDF(c.UserContext(), c.Body())
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Status(fiber.StatusOK).Send(pdf)
	}
}
