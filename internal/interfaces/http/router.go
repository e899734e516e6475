package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/efi-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Fiscalize *billing.FiscalizeInvoiceUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Invoices (protegido: admin y cajero fiscalizan)
	invoices := protected.Group("/invoices", RequireRole("admin", "cajero"))
	fiscalizationHandler := NewFiscalizationHandler(deps.Fiscalize)
	invoices.Post("/", fiscalizationHandler.Create)
}
