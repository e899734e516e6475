// Package efi: reglas de cálculo de la fiscalización eFi de Montenegro
// (IVA por línea, grupos SameTax e IIC). Todo el cálculo es determinista,
// sobre decimales exactos y sin I/O.

package efi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/efi-api/internal/domain"
	"github.com/jhoicas/efi-api/internal/domain/entity"
)

// DefaultVatPercentage tasa de IVA aplicada cuando la línea no trae tasa
// ni razón de exención.
var DefaultVatPercentage = decimal.New(21, 0)

// ComputedLine línea con los importes derivados. El redondeo por línea es a
// 4 decimales, mitad lejos de cero (decimal.Round).
type ComputedLine struct {
	Name            string
	Unit            string
	Quantity        decimal.Decimal
	VatRate         decimal.Decimal
	ExemptionReason string

	UnitPrice         decimal.Decimal // redondeado a 4
	UnitPriceAfterVat decimal.Decimal
	TotalBeforeVat    decimal.Decimal
	TotalAfterVat     decimal.Decimal
	TotalVat          decimal.Decimal // siempre TotalAfterVat - TotalBeforeVat
}

// TaxGroup bucket SameTax: una entrada por cada par (tasa, exención).
// Los subtotales se redondean a 2 decimales al agrupar.
type TaxGroup struct {
	VatRate         decimal.Decimal
	ExemptionReason string
	NumOfItems      int
	PriceBeforeVat  decimal.Decimal
	VatAmount       decimal.Decimal
}

// Computation resultado completo del motor de impuestos. Los totales de
// factura se obtienen sumando las líneas ya redondeadas y re-redondeando la
// suma a 2 decimales (sumar y luego redondear, nunca al revés: es el orden
// que valida la administración).
type Computation struct {
	Lines                []ComputedLine
	Groups               []TaxGroup
	TotalPriceWithoutVat decimal.Decimal
	TotalVatAmount       decimal.Decimal
	TotalPrice           decimal.Decimal
}

// ComputeTaxes deriva importes por línea, grupos SameTax y totales de la
// factura a partir de las líneas crudas.
func ComputeTaxes(items []entity.InvoiceItem) (*Computation, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("la factura no tiene líneas: %w", domain.ErrInvalidInput)
	}

	comp := &Computation{Lines: make([]ComputedLine, 0, len(items))}
	for i, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("línea %d sin nombre: %w", i+1, domain.ErrInvalidInput)
		}
		if !item.Quantity.IsPositive() {
			return nil, fmt.Errorf("línea %d con cantidad no positiva: %w", i+1, domain.ErrInvalidInput)
		}
		comp.Lines = append(comp.Lines, computeLine(item))
	}

	comp.Groups = groupLines(comp.Lines)

	var sumBefore, sumAfter, sumVat decimal.Decimal
	for _, line := range comp.Lines {
		sumBefore = sumBefore.Add(line.TotalBeforeVat)
		sumAfter = sumAfter.Add(line.TotalAfterVat)
		sumVat = sumVat.Add(line.TotalVat)
	}
	comp.TotalPriceWithoutVat = sumBefore.Round(2)
	comp.TotalVatAmount = sumVat.Round(2)
	comp.TotalPrice = sumAfter.Round(2)

	return comp, nil
}

func computeLine(item entity.InvoiceItem) ComputedLine {
	line := ComputedLine{
		Name:            item.Name,
		Unit:            item.Unit,
		Quantity:        item.Quantity.Round(2),
		UnitPrice:       item.UnitPrice.Round(4),
		ExemptionReason: item.ExemptionReason,
		VatRate:         effectiveVatRate(item),
	}

	// unitPriceAfterVat = round4(unitPrice + unitPrice*rate/100)
	hundred := decimal.New(100, 0)
	line.UnitPriceAfterVat = line.UnitPrice.Add(line.UnitPrice.Mul(line.VatRate).Div(hundred)).Round(4)
	line.TotalBeforeVat = line.UnitPrice.Mul(line.Quantity).Round(4)
	line.TotalAfterVat = line.UnitPriceAfterVat.Mul(line.Quantity).Round(4)
	line.TotalVat = line.TotalAfterVat.Sub(line.TotalBeforeVat).Round(4)

	return line
}

// effectiveVatRate resuelve la tasa de una línea: la explícita gana; una
// exención sin tasa computa al 0%; sin tasa ni exención aplica el 21%.
func effectiveVatRate(item entity.InvoiceItem) decimal.Decimal {
	if item.VatRate != nil {
		return item.VatRate.Round(4)
	}
	if item.ExemptionReason != "" {
		return decimal.Zero
	}
	return DefaultVatPercentage.Round(4)
}

// groupLines particiona las líneas por (tasa, exención) preservando el orden
// de primera aparición, para que el XML resultante sea determinista.
func groupLines(lines []ComputedLine) []TaxGroup {
	type bucket struct {
		index int
		sumPB decimal.Decimal
		sumVA decimal.Decimal
		count int
	}
	byKey := make(map[string]*bucket)
	order := make([]string, 0, len(lines))
	rates := make(map[string]ComputedLine)

	for _, line := range lines {
		key := line.VatRate.StringFixed(4) + "|" + line.ExemptionReason
		b, ok := byKey[key]
		if !ok {
			b = &bucket{index: len(order)}
			byKey[key] = b
			order = append(order, key)
			rates[key] = line
		}
		b.count++
		b.sumPB = b.sumPB.Add(line.TotalBeforeVat)
		b.sumVA = b.sumVA.Add(line.TotalVat)
	}

	groups := make([]TaxGroup, 0, len(order))
	for _, key := range order {
		b := byKey[key]
		sample := rates[key]
		groups = append(groups, TaxGroup{
			VatRate:         sample.VatRate.Round(2),
			ExemptionReason: sample.ExemptionReason,
			NumOfItems:      b.count,
			PriceBeforeVat:  b.sumPB.Round(2),
			VatAmount:       b.sumVA.Round(2),
		})
	}
	return groups
}
