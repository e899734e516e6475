package efi

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/efi-api/internal/domain"
	domefi "github.com/jhoicas/efi-api/internal/domain/efi"
	"github.com/jhoicas/efi-api/internal/domain/entity"
)

// BuildContext datos ya calculados con los que se ensambla el documento:
// petición original, identidad del emisor, resultado del motor de impuestos,
// par IIC y el instante de emisión (UTC, precisión de segundo).
type BuildContext struct {
	Request      *entity.CreateInvoiceRequest
	Issuer       *entity.IssuerConfig
	Computation  *domefi.Computation
	IICHash      string
	IICSignature string
	Now          time.Time
}

// BuildRegisterInvoiceRequest ensambla el documento de alambre a partir del
// contexto. Es un mapeo puro: sin red y sin criptografía.
//
// El número de factura se sintetiza como {businUnit}/{ordNum}/{año}/{enu} y
// el período fiscal como MM/yyyy de la fecha de emisión.
func BuildRegisterInvoiceRequest(ctx *BuildContext) (*RegisterInvoiceRequest, error) {
	if ctx == nil || ctx.Request == nil || ctx.Issuer == nil || ctx.Computation == nil {
		return nil, fmt.Errorf("faltan petición, emisor o cómputo en el contexto: %w", domain.ErrInvalidInput)
	}
	if ctx.Request.OrderNumber <= 0 {
		return nil, fmt.Errorf("número de orden no positivo: %w", domain.ErrInvalidInput)
	}
	if ctx.IICHash == "" || ctx.IICSignature == "" {
		return nil, fmt.Errorf("el documento requiere el par IIC: %w", domain.ErrInvalidInput)
	}

	req := ctx.Request
	issuer := ctx.Issuer
	comp := ctx.Computation
	now := ctx.Now.UTC()

	invType := req.Type
	if invType == "" {
		invType = entity.InvoiceTypeInvoice
	}

	invoice := Invoice{
		Type:                 invType,
		TypeOfInvoice:        entity.TypeOfInvoiceNonCash,
		IssuedAt:             now.Format(domefi.DateTimeLayout),
		Number:               InvoiceNumber(issuer, req.OrderNumber, now.Year()),
		OrderNumber:          req.OrderNumber,
		EnuCode:              issuer.EnuCode,
		IsIssuerInVat:        true,
		TotalPriceWithoutVat: Amount2{comp.TotalPriceWithoutVat},
		TotalVatAmount:       Amount2{comp.TotalVatAmount},
		TotalPrice:           Amount2{comp.TotalPrice},
		TotalPriceToPay:      Amount2{clampNonNegative(comp.TotalPrice)},
		OperatorCode:         issuer.OperatorCode,
		BusinessUnitCode:     issuer.BusinessUnitCode,
		SoftwareCode:         issuer.SoftwareCode,
		IICHash:              ctx.IICHash,
		IICSignature:         ctx.IICSignature,
		TaxPeriod:            fmt.Sprintf("%02d/%d", now.Month(), now.Year()),
		Note:                 req.Note,
		BankAccountNumber:    issuer.BankNumber,
		PayDeadline:          req.PaymentDeadline.Format("2006-01-02"),
		PaymentMethods: []PaymentMethod{
			{Type: req.PaymentMethod, Amount: Amount2{comp.TotalPrice}},
		},
		Seller: Party{
			IDType:   issuer.IDType,
			IDNumber: issuer.IDNumber,
			Name:     issuer.Name,
			Country:  issuer.Country,
			City:     issuer.City,
			Address:  issuer.Address,
		},
		Buyer: Party{
			IDType:   req.Buyer.IDType,
			IDNumber: req.Buyer.IDNumber,
			Name:     req.Buyer.Name,
			Country:  req.Buyer.Country,
			City:     req.Buyer.City,
			Address:  req.Buyer.Address,
		},
		Items:     buildItems(comp.Lines),
		SameTaxes: buildSameTaxes(comp.Groups),
	}

	// El bloque correctivo solo existe para facturas CORRECTIVE con
	// referencia a la original; nunca se emite como elemento vacío.
	if invType == entity.InvoiceTypeCorrective && req.Original != nil {
		invoice.CorrectiveInvoice = &CorrectiveInvoice{
			Type:          CorrectiveTypeCorrective,
			IICRef:        req.Original.IIC,
			IssueDateTime: req.Original.IssuedAt.UTC().Format(domefi.DateTimeLayout),
		}
	}

	return &RegisterInvoiceRequest{
		ID:      RequestID,
		Version: RequestVersion,
		Xmlns:   SchemaNamespace,
		Header: Header{
			UUID:   uuid.NewString(),
			SentAt: now.Format(domefi.DateTimeLayout),
		},
		Invoice: invoice,
	}, nil
}

// InvoiceNumber sintetiza el número de factura {businUnit}/{ordNum}/{año}/{enu}.
func InvoiceNumber(issuer *entity.IssuerConfig, orderNumber, year int) string {
	return fmt.Sprintf("%s/%d/%d/%s", issuer.BusinessUnitCode, orderNumber, year, issuer.EnuCode)
}

func buildItems(lines []domefi.ComputedLine) []Item {
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, Item{
			Name:               line.Name,
			Unit:               line.Unit,
			UnitPriceBeforeVat: Amount4{line.UnitPrice},
			Quantity:           Amount2{line.Quantity},
			UnitPriceAfterVat:  Amount4{line.UnitPriceAfterVat},
			PriceBeforeVat:     Amount4{line.TotalBeforeVat},
			PriceAfterVat:      Amount4{line.TotalAfterVat},
			VatRate:            OptionalRate4{line.VatRate},
			VatAmount:          Amount4{line.TotalVat},
			ExemptionReason:    line.ExemptionReason,
		})
	}
	return items
}

func buildSameTaxes(groups []domefi.TaxGroup) []SameTax {
	taxes := make([]SameTax, 0, len(groups))
	for _, g := range groups {
		taxes = append(taxes, SameTax{
			NumOfItems:     g.NumOfItems,
			PriceBeforeVat: Amount2{g.PriceBeforeVat},
			VatRate:        OptionalRate2{g.VatRate},
			VatAmount:      Amount2{g.VatAmount},
		})
	}
	return taxes
}

func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
