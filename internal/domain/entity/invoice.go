package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Environment ambiente eFi contra el que se fiscaliza.
type Environment string

const (
	EnvironmentTest       Environment = "test"
	EnvironmentProduction Environment = "production"
)

// TaxIDType tipo de identificación fiscal (valores del esquema eFi).
type TaxIDType string

const (
	TaxIDTypeTIN      TaxIDType = "TIN"
	TaxIDTypePassport TaxIDType = "PASS"
	TaxIDTypeVAT      TaxIDType = "VAT"
)

// InvoiceType tipo de factura.
type InvoiceType string

const (
	InvoiceTypeInvoice    InvoiceType = "INVOICE"
	InvoiceTypeCorrective InvoiceType = "CORRECTIVE"
)

// TypeOfInvoice modalidad de cobro declarada en el atributo TypeOfInv.
type TypeOfInvoice string

const (
	TypeOfInvoiceCash    TypeOfInvoice = "CASH"
	TypeOfInvoiceNonCash TypeOfInvoice = "NONCASH"
)

// PaymentMethodType medio de pago (valores del esquema eFi).
type PaymentMethodType string

const (
	PaymentMethodBankTransfer PaymentMethodType = "ACCOUNT"
	PaymentMethodBusinessCard PaymentMethodType = "BUSINESSCARD"
)

// Buyer comprador declarado en la factura.
type Buyer struct {
	IDType   TaxIDType
	IDNumber string
	Name     string
	Country  string
	City     string
	Address  string
}

// InvoiceItem línea de factura tal como la envía el cliente del API.
// UnitPrice y VatRate se manejan con 4 decimales; Quantity con 2.
// VatRate nil sin razón de exención aplica la tasa por defecto (21%);
// con razón de exención la línea computa al 0%.
type InvoiceItem struct {
	Name            string
	Unit            string
	UnitPrice       decimal.Decimal
	Quantity        decimal.Decimal
	VatRate         *decimal.Decimal
	ExemptionReason string
}

// OriginalInvoice referencia a la factura original en una corrección.
type OriginalInvoice struct {
	IIC      string
	IssuedAt time.Time
}

// CreateInvoiceRequest petición de fiscalización de una factura.
type CreateInvoiceRequest struct {
	Type            InvoiceType
	OrderNumber     int
	PaymentMethod   PaymentMethodType
	PaymentDeadline time.Time
	Buyer           Buyer
	Items           []InvoiceItem
	Note            string
	Original        *OriginalInvoice // obligatorio si Type es CORRECTIVE
}

// CreateInvoiceResult resultado de la fiscalización.
//
// IsSuccessful=false con ErrorMessage es el rechazo de negocio de la
// administración (faultstring SOAP); los campos de auditoría (número,
// IIC, RequestXML) se rellenan en ambos casos.
type CreateInvoiceResult struct {
	IsSuccessful    bool
	InvoiceNumber   string
	IIC             string
	FIC             string
	VerificationURL string
	ErrorMessage    string
	TotalPrice      decimal.Decimal
	CreatedAt       time.Time
	RequestXML      string // texto exacto transmitido, para auditoría
}
