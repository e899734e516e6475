package efi

import (
	"encoding/xml"
	"fmt"

	"github.com/jhoicas/efi-api/internal/domain"
)

// XMLBuilderService serializa el documento RegisterInvoiceRequest al
// vocabulario exacto de atributos del esquema eFi (sin firma).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Render devuelve los bytes UTF-8 del documento, sin declaración XML y sin
// indentación: el texto va embebido en el Body SOAP y el layout de bytes
// importa para la auditoría.
func (s *XMLBuilderService) Render(req *RegisterInvoiceRequest) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("documento nil: %w", domain.ErrInvalidInput)
	}
	out, err := xml.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("serializar RegisterInvoiceRequest: %w", err)
	}
	return out, nil
}
