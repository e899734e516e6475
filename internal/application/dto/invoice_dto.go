package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/efi-api/internal/domain"
	"github.com/jhoicas/efi-api/internal/domain/entity"
)

// FiscalizeInvoiceRequest body para POST /api/invoices.
type FiscalizeInvoiceRequest struct {
	Type            string               `json:"type,omitempty"` // INVOICE (default) | CORRECTIVE
	OrderNumber     int                  `json:"order_number"`
	PaymentMethod   string               `json:"payment_method,omitempty"` // ACCOUNT (default) | BUSINESSCARD
	PaymentDeadline string               `json:"payment_deadline"`         // yyyy-MM-dd
	Buyer           BuyerRequest         `json:"buyer"`
	Items           []InvoiceItemRequest `json:"items"`
	Note            string               `json:"note,omitempty"`
	Original        *OriginalInvoiceRef  `json:"original,omitempty"` // obligatorio si type es CORRECTIVE
}

// BuyerRequest comprador declarado en la factura.
type BuyerRequest struct {
	IDType   string `json:"id_type"` // TIN | PASS | VAT
	IDNumber string `json:"id_number"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Address  string `json:"address"`
}

// InvoiceItemRequest línea de factura.
// vat_rate omitida aplica la tasa por defecto; con exemption_reason la línea
// computa exenta (0%).
type InvoiceItemRequest struct {
	Name            string           `json:"name"`
	Unit            string           `json:"unit,omitempty"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	Quantity        decimal.Decimal  `json:"quantity"`
	VatRate         *decimal.Decimal `json:"vat_rate,omitempty"`
	ExemptionReason string           `json:"exemption_reason,omitempty"`
}

// OriginalInvoiceRef referencia a la factura original en una corrección.
type OriginalInvoiceRef struct {
	IIC      string `json:"iic"`
	IssuedAt string `json:"issued_at"` // yyyy-MM-ddTHH:mm:ssZ
}

// FiscalizeInvoiceResponse resultado de la fiscalización. successful=false
// con error_message es el rechazo de la administración; los campos de
// auditoría van rellenos en ambos casos.
type FiscalizeInvoiceResponse struct {
	Successful      bool            `json:"successful"`
	InvoiceNumber   string          `json:"invoice_number"`
	IIC             string          `json:"iic"`
	FIC             string          `json:"fic,omitempty"`
	VerificationURL string          `json:"verification_url,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	CreatedAt       string          `json:"created_at"`
	RequestXML      string          `json:"request_xml,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToEntity convierte el body HTTP a la petición de dominio, validando enums
// y formatos de fecha.
func (r *FiscalizeInvoiceRequest) ToEntity() (*entity.CreateInvoiceRequest, error) {
	invType := entity.InvoiceTypeInvoice
	switch r.Type {
	case "", string(entity.InvoiceTypeInvoice):
	case string(entity.InvoiceTypeCorrective):
		invType = entity.InvoiceTypeCorrective
	default:
		return nil, fmt.Errorf("type %q inválido: %w", r.Type, domain.ErrInvalidInput)
	}

	payMethod := entity.PaymentMethodBankTransfer
	switch r.PaymentMethod {
	case "", string(entity.PaymentMethodBankTransfer):
	case string(entity.PaymentMethodBusinessCard):
		payMethod = entity.PaymentMethodBusinessCard
	default:
		return nil, fmt.Errorf("payment_method %q inválido: %w", r.PaymentMethod, domain.ErrInvalidInput)
	}

	deadline, err := time.Parse("2006-01-02", r.PaymentDeadline)
	if err != nil {
		return nil, fmt.Errorf("payment_deadline %q inválido (yyyy-MM-dd): %w", r.PaymentDeadline, domain.ErrInvalidInput)
	}

	buyerIDType, err := parseTaxIDType(r.Buyer.IDType)
	if err != nil {
		return nil, err
	}

	items := make([]entity.InvoiceItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, entity.InvoiceItem{
			Name:            it.Name,
			Unit:            it.Unit,
			UnitPrice:       it.UnitPrice,
			Quantity:        it.Quantity,
			VatRate:         it.VatRate,
			ExemptionReason: it.ExemptionReason,
		})
	}

	req := &entity.CreateInvoiceRequest{
		Type:            invType,
		OrderNumber:     r.OrderNumber,
		PaymentMethod:   payMethod,
		PaymentDeadline: deadline,
		Buyer: entity.Buyer{
			IDType:   buyerIDType,
			IDNumber: r.Buyer.IDNumber,
			Name:     r.Buyer.Name,
			Country:  r.Buyer.Country,
			City:     r.Buyer.City,
			Address:  r.Buyer.Address,
		},
		Items: items,
		Note:  r.Note,
	}

	if r.Original != nil {
		issuedAt, err := time.Parse("2006-01-02T15:04:05Z", r.Original.IssuedAt)
		if err != nil {
			return nil, fmt.Errorf("original.issued_at %q inválido: %w", r.Original.IssuedAt, domain.ErrInvalidInput)
		}
		req.Original = &entity.OriginalInvoice{IIC: r.Original.IIC, IssuedAt: issuedAt}
	}

	return req, nil
}

func parseTaxIDType(s string) (entity.TaxIDType, error) {
	switch entity.TaxIDType(s) {
	case entity.TaxIDTypeTIN, entity.TaxIDTypePassport, entity.TaxIDTypeVAT:
		return entity.TaxIDType(s), nil
	case "":
		return entity.TaxIDTypeTIN, nil
	default:
		return "", fmt.Errorf("id_type %q inválido (TIN|PASS|VAT): %w", s, domain.ErrInvalidInput)
	}
}

// FromResult mapea el resultado de dominio a la respuesta HTTP.
func FromResult(res *entity.CreateInvoiceResult) *FiscalizeInvoiceResponse {
	return &FiscalizeInvoiceResponse{
		Successful:      res.IsSuccessful,
		InvoiceNumber:   res.InvoiceNumber,
		IIC:             res.IIC,
		FIC:             res.FIC,
		VerificationURL: res.VerificationURL,
		ErrorMessage:    res.ErrorMessage,
		TotalPrice:      res.TotalPrice,
		CreatedAt:       res.CreatedAt.Format("2006-01-02T15:04:05Z"),
		RequestXML:      res.RequestXML,
	}
}
