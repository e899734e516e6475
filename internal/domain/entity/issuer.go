package entity

import (
	"fmt"

	"github.com/jhoicas/efi-api/internal/domain"
)

// IssuerConfig identidad fiscal del emisor, inmutable por despliegue.
// Los códigos (unidad de negocio, software, operador, ENU) los asigna la
// administración tributaria al registrar el punto de venta; todos forman
// parte del texto plano del IIC y de la URL de verificación.
type IssuerConfig struct {
	Environment      Environment
	IDType           TaxIDType
	IDNumber         string
	Name             string
	Address          string
	City             string
	Country          string
	BankNumber       string // opcional: atributo BankAccNum
	BusinessUnitCode string
	SoftwareCode     string
	OperatorCode     string
	EnuCode          string
}

// Validate verifica que los campos obligatorios estén presentes antes de
// iniciar el pipeline; falla con ErrConfiguration sin tocar la red.
func (c *IssuerConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("issuer nil: %w", domain.ErrConfiguration)
	}
	switch c.Environment {
	case EnvironmentTest, EnvironmentProduction:
	default:
		return fmt.Errorf("ambiente %q desconocido: %w", c.Environment, domain.ErrConfiguration)
	}
	required := []struct {
		name, value string
	}{
		{"IDNumber", c.IDNumber},
		{"Name", c.Name},
		{"Address", c.Address},
		{"City", c.City},
		{"Country", c.Country},
		{"BusinessUnitCode", c.BusinessUnitCode},
		{"SoftwareCode", c.SoftwareCode},
		{"OperatorCode", c.OperatorCode},
		{"EnuCode", c.EnuCode},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("falta %s del emisor: %w", f.name, domain.ErrConfiguration)
		}
	}
	return nil
}
