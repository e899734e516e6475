package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/efi-api/internal/application/billing"
	"github.com/jhoicas/efi-api/internal/application/dto"
	"github.com/jhoicas/efi-api/internal/domain"
)

// FiscalizationHandler maneja las peticiones HTTP de fiscalización (protegido).
type FiscalizationHandler struct {
	uc *billing.FiscalizeInvoiceUseCase
}

// NewFiscalizationHandler construye el handler.
func NewFiscalizationHandler(uc *billing.FiscalizeInvoiceUseCase) *FiscalizationHandler {
	return &FiscalizationHandler{uc: uc}
}

// Create fiscaliza una factura contra el servicio eFi.
// POST /api/invoices
//
// El rechazo de la administración NO es un error HTTP: responde 200 con
// successful=false y el faultstring, porque la petición sí se procesó.
func (h *FiscalizationHandler) Create(c *fiber.Ctx) error {
	if GetUserID(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.FiscalizeInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	req, err := in.ToEntity()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	result, err := h.uc.Fiscalize(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		case errors.Is(err, domain.ErrConfiguration):
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "CONFIGURATION", Message: err.Error()})
		case errors.Is(err, domain.ErrCertificateUnavailable):
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "CERTIFICATE", Message: err.Error()})
		case errors.Is(err, domain.ErrSigning):
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "SIGNING", Message: err.Error()})
		case errors.Is(err, domain.ErrTransport):
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "TRANSPORT", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusOK).JSON(dto.FromResult(result))
}
