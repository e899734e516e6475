package efi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/efi-api/internal/domain"
	domefi "github.com/jhoicas/efi-api/internal/domain/efi"
	"github.com/jhoicas/efi-api/internal/domain/entity"
)

// URIs base del servicio eFi. Test y producción son pares independientes:
// ninguno se deriva del otro, y el portal de verificación de producción vive
// en un host distinto al de envío.
const (
	fiscalizationURITest = "https://efitest.tax.gov.me/"
	fiscalizationURIProd = "https://efi.tax.gov.me/"

	verificationURITest = "https://efitest.tax.gov.me/"
	verificationURIProd = "https://mapr.tax.gov.me/"

	// Ruta relativa de envío bajo la URI base.
	submitPath = "fs-v1"

	verificationPath = "ic/#/verify"
)

// FiscalizationBaseURI devuelve la URI base de envío para el ambiente.
func FiscalizationBaseURI(env entity.Environment) (string, error) {
	switch env {
	case entity.EnvironmentTest:
		return fiscalizationURITest, nil
	case entity.EnvironmentProduction:
		return fiscalizationURIProd, nil
	default:
		return "", fmt.Errorf("ambiente %q desconocido: %w", env, domain.ErrConfiguration)
	}
}

// VerificationBaseURI devuelve la URI base del portal público de verificación.
func VerificationBaseURI(env entity.Environment) (string, error) {
	switch env {
	case entity.EnvironmentTest:
		return verificationURITest, nil
	case entity.EnvironmentProduction:
		return verificationURIProd, nil
	default:
		return "", fmt.Errorf("ambiente %q desconocido: %w", env, domain.ErrConfiguration)
	}
}

// VerificationParams campos del query string de verificación. Las claves y
// su orden (tin, iic, crtd, ord, bu, cr, sw, prc) son parte del contrato.
type VerificationParams struct {
	TaxID            string
	IIC              string
	CreatedAt        time.Time
	OrderNumber      int
	BusinessUnitCode string
	EnuCode          string
	SoftwareCode     string
	TotalPrice       decimal.Decimal
}

// BuildVerificationURL construye la URL con la que el portal público de la
// administración verifica la factura. Los valores van tal cual (el portal
// espera el crtd con sus ':' literales, igual que lo emite el emisor).
func BuildVerificationURL(env entity.Environment, p VerificationParams) (string, error) {
	base, err := VerificationBaseURI(env)
	if err != nil {
		return "", err
	}
	pairs := []string{
		"tin=" + p.TaxID,
		"iic=" + p.IIC,
		"crtd=" + p.CreatedAt.UTC().Format(domefi.DateTimeLayout),
		"ord=" + strconv.Itoa(p.OrderNumber),
		"bu=" + p.BusinessUnitCode,
		"cr=" + p.EnuCode,
		"sw=" + p.SoftwareCode,
		"prc=" + p.TotalPrice.StringFixed(2),
	}
	return base + verificationPath + "?" + strings.Join(pairs, "&"), nil
}
