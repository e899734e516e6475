// Cálculo del IIC (Issuer Invoice Code) del esquema eFi.
// Firma RSA-SHA256 (PKCS#1 v1.5) sobre la concatenación de campos en orden
// estricto, y MD5 sobre los bytes de la firma (no sobre el texto plano).

package efi

import (
	"crypto"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/efi-api/internal/domain"
)

// DateTimeLayout formato de fecha-hora del protocolo eFi: UTC a precisión de
// segundo con 'Z' literal. Aparece en el texto plano del IIC, en los
// atributos del XML y en el parámetro crtd de la URL de verificación.
const DateTimeLayout = "2006-01-02T15:04:05Z"

// IICParams campos que componen el texto plano del IIC, en el orden exacto
// del contrato: tin|crtd|ord|bu|cr|sw|prc. Cambiar el orden o el formato de
// cualquier campo desincroniza la verificación de la administración.
type IICParams struct {
	IssuerTaxID      string
	CreatedAt        time.Time // UTC, sin fracción de segundo
	OrderNumber      int
	BusinessUnitCode string
	EnuCode          string
	SoftwareCode     string
	TotalPrice       decimal.Decimal // se formatea con 2 decimales fijos
}

// IICGeneratorService genera el par firma/hash del IIC.
type IICGeneratorService struct{}

// NewIICGeneratorService crea el servicio.
func NewIICGeneratorService() *IICGeneratorService {
	return &IICGeneratorService{}
}

// Generate devuelve la firma del IIC (hex mayúsculas) y el IIC propiamente
// dicho (MD5 de la firma, hex mayúsculas). Sin llave privada no hay IIC:
// el pipeline debe abortar con ErrCertificateUnavailable.
func (s *IICGeneratorService) Generate(p *IICParams, key *rsa.PrivateKey) (signatureText, hashText string, err error) {
	if p == nil {
		return "", "", fmt.Errorf("parámetros del IIC requeridos: %w", domain.ErrInvalidInput)
	}
	if key == nil {
		return "", "", fmt.Errorf("no hay llave privada para el IIC: %w", domain.ErrCertificateUnavailable)
	}
	if p.IssuerTaxID == "" || p.BusinessUnitCode == "" || p.EnuCode == "" || p.SoftwareCode == "" {
		return "", "", fmt.Errorf("identidad del emisor incompleta para el IIC: %w", domain.ErrInvalidInput)
	}

	plainText := strings.Join([]string{
		p.IssuerTaxID,
		p.CreatedAt.UTC().Format(DateTimeLayout),
		strconv.Itoa(p.OrderNumber),
		p.BusinessUnitCode,
		p.EnuCode,
		p.SoftwareCode,
		p.TotalPrice.StringFixed(2),
	}, "|")

	digest := sha256.Sum256([]byte(plainText))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", "", fmt.Errorf("firmar texto plano del IIC: %v: %w", err, domain.ErrSigning)
	}

	hash := md5.Sum(signature)
	return fmt.Sprintf("%X", signature), fmt.Sprintf("%X", hash[:]), nil
}
