// Package efi implementa el formato de alambre del servicio de fiscalización
// eFi de Montenegro: documento RegisterInvoiceRequest, firma enveloped,
// sobre SOAP y cliente HTTP.
package efi

import (
	"encoding/xml"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/efi-api/internal/domain/entity"
)

// Constantes del contrato externo. El namespace, el Id y la versión del
// elemento raíz son fijos: la firma referencia URI="#Request".
const (
	SchemaNamespace = "https://efi.tax.gov.me/fs/schema"
	RequestID       = "Request"
	RequestVersion  = 1
)

// ── Tipos de atributo numérico ────────────────────────────────────────────────
//
// Cada campo numérico del esquema tiene precisión decimal fija (2 o 4) y
// formato invariante (punto decimal, sin notación científica). Los montos y
// la tasa por línea van a 4 decimales; cantidades, tasas agregadas y totales
// de factura a 2.

// Amount2 atributo monetario con 2 decimales fijos.
type Amount2 struct{ decimal.Decimal }

// MarshalXMLAttr implementa xml.MarshalerAttr.
func (a Amount2) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: a.StringFixed(2)}, nil
}

// Amount4 atributo monetario con 4 decimales fijos.
type Amount4 struct{ decimal.Decimal }

// MarshalXMLAttr implementa xml.MarshalerAttr.
func (a Amount4) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: a.StringFixed(4)}, nil
}

// OptionalRate4 tasa de IVA por línea, con 4 decimales fijos, que se OMITE
// del XML cuando la tasa efectiva es cero o exenta (regla del esquema: el
// atributo debe estar ausente, no en 0). Es política de serialización,
// independiente del cálculo.
type OptionalRate4 struct{ decimal.Decimal }

// MarshalXMLAttr implementa xml.MarshalerAttr; un xml.Attr vacío omite el atributo.
func (r OptionalRate4) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if !r.IsPositive() {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: r.StringFixed(4)}, nil
}

// OptionalRate2 tasa de IVA agregada por grupo, con 2 decimales fijos y la
// misma regla de omisión que OptionalRate4.
type OptionalRate2 struct{ decimal.Decimal }

// MarshalXMLAttr implementa xml.MarshalerAttr; un xml.Attr vacío omite el atributo.
func (r OptionalRate2) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if !r.IsPositive() {
		return xml.Attr{}, nil
	}
	return xml.Attr{Name: name, Value: r.StringFixed(2)}, nil
}

// ── Modelo del documento ──────────────────────────────────────────────────────
//
// Los nombres cortos de atributo (N, U, UPB, ...) y su orden son parte del
// contrato; el orden de los campos del struct determina el orden serializado.

// RegisterInvoiceRequest elemento raíz del documento a firmar y enviar.
type RegisterInvoiceRequest struct {
	XMLName xml.Name `xml:"RegisterInvoiceRequest"`
	ID      string   `xml:"Id,attr"`
	Version int      `xml:"Version,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Header  Header   `xml:"Header"`
	Invoice Invoice  `xml:"Invoice"`
}

// Header cabecera con UUID de envío y fecha-hora de emisión del mensaje.
type Header struct {
	UUID   string `xml:"UUID,attr"`
	SentAt string `xml:"SendDateTime,attr"`
}

// Invoice factura completa con totales, identidad del emisor e IIC.
type Invoice struct {
	Type                 entity.InvoiceType   `xml:"InvType,attr"`
	TypeOfInvoice        entity.TypeOfInvoice `xml:"TypeOfInv,attr"`
	IssuedAt             string               `xml:"IssueDateTime,attr"`
	Number               string               `xml:"InvNum,attr"`
	OrderNumber          int                  `xml:"InvOrdNum,attr"`
	EnuCode              string               `xml:"TCRCode,attr"`
	IsIssuerInVat        bool                 `xml:"IsIssuerInVAT,attr"`
	TotalPriceWithoutVat Amount2              `xml:"TotPriceWoVAT,attr"`
	TotalVatAmount       Amount2              `xml:"TotVATAmt,attr"`
	TotalPrice           Amount2              `xml:"TotPrice,attr"`
	TotalPriceToPay      Amount2              `xml:"TotPriceToPay,attr"`
	OperatorCode         string               `xml:"OperatorCode,attr"`
	BusinessUnitCode     string               `xml:"BusinUnitCode,attr"`
	SoftwareCode         string               `xml:"SoftCode,attr"`
	IICHash              string               `xml:"IIC,attr"`
	IICSignature         string               `xml:"IICSignature,attr"`
	TaxPeriod            string               `xml:"TaxPeriod,attr"`
	Note                 string               `xml:"Note,attr,omitempty"`
	BankAccountNumber    string               `xml:"BankAccNum,attr,omitempty"`
	PayDeadline          string               `xml:"PayDeadline,attr"`
	PaymentMethods       []PaymentMethod      `xml:"PayMethods>PayMethod"`
	Seller               Party                `xml:"Seller"`
	Buyer                Party                `xml:"Buyer"`
	Items                []Item               `xml:"Items>I"`
	SameTaxes            []SameTax            `xml:"SameTaxes>SameTax"`
	CorrectiveInvoice    *CorrectiveInvoice   `xml:"CorrectiveInv,omitempty"`
}

// PaymentMethod medio de pago con su importe.
type PaymentMethod struct {
	Type   entity.PaymentMethodType `xml:"Type,attr"`
	Amount Amount2                  `xml:"Amt,attr"`
}

// Party identidad de vendedor o comprador (mismos atributos en el esquema).
type Party struct {
	IDType   entity.TaxIDType `xml:"IDType,attr"`
	IDNumber string           `xml:"IDNum,attr"`
	Name     string           `xml:"Name,attr"`
	Country  string           `xml:"Country,attr"`
	City     string           `xml:"Town,attr"`
	Address  string           `xml:"Address,attr"`
}

// Item línea de factura con los importes derivados por el motor de impuestos.
type Item struct {
	Name               string        `xml:"N,attr"`
	Unit               string        `xml:"U,attr"`
	UnitPriceBeforeVat Amount4       `xml:"UPB,attr"`
	Quantity           Amount2       `xml:"Q,attr"`
	UnitPriceAfterVat  Amount4       `xml:"UPA,attr"`
	PriceBeforeVat     Amount4       `xml:"PB,attr"`
	PriceAfterVat      Amount4       `xml:"PA,attr"`
	VatRate            OptionalRate4 `xml:"VR,attr"`
	VatAmount          Amount4       `xml:"VA,attr"`
	ExemptionReason    string        `xml:"EX,attr,omitempty"`
}

// SameTax agregado por par (tasa, exención).
type SameTax struct {
	NumOfItems     int           `xml:"NumOfItems,attr"`
	PriceBeforeVat Amount2       `xml:"PriceBefVAT,attr"`
	VatRate        OptionalRate2 `xml:"VATRate,attr"`
	VatAmount      Amount2       `xml:"VATAmt,attr"`
}

// CorrectiveInvoice referencia a la factura corregida; solo presente cuando
// InvType es CORRECTIVE y hay referencia a la original.
type CorrectiveInvoice struct {
	Type          string `xml:"Type,attr"`
	IICRef        string `xml:"IICRef,attr"`
	IssueDateTime string `xml:"IssueDateTime,attr"`
}

// CorrectiveTypeCorrective único valor de CorrectiveInv.Type soportado.
const CorrectiveTypeCorrective = "CORRECTIVE"
