package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	JWT  JWTConfig
	EFI  EFIConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig configuración de JWT para proteger el endpoint de fiscalización.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// EFIConfig identidad fiscal del emisor y acceso al servicio eFi de Montenegro.
// Todos los códigos (unidad de negocio, software, operador, ENU) los asigna
// la administración tributaria al registrar el punto de venta.
type EFIConfig struct {
	Environment      string // "test" o "production"
	IssuerIDType     string // TIN, PASS o VAT
	IssuerIDNumber   string
	IssuerName       string
	IssuerAddress    string
	IssuerCity       string
	IssuerCountry    string
	IssuerBankNumber string // opcional: cuenta bancaria para BankAccNum
	BusinessUnitCode string
	SoftwareCode     string
	OperatorCode     string
	EnuCode          string
	CertPath         string // .p12/.pfx o .pem
	CertKeyPath      string // llave privada .pem (si CertPath es solo el certificado)
	CertPassword     string // contraseña del .p12
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, HTTP_PORT, EFI_ISSUER_ID_NUMBER, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "efi-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "efi-api"),
		},
		EFI: EFIConfig{
			Environment:      getString(v, "EFI_ENVIRONMENT", "test"),
			IssuerIDType:     getString(v, "EFI_ISSUER_ID_TYPE", "TIN"),
			IssuerIDNumber:   getString(v, "EFI_ISSUER_ID_NUMBER", ""),
			IssuerName:       getString(v, "EFI_ISSUER_NAME", ""),
			IssuerAddress:    getString(v, "EFI_ISSUER_ADDRESS", ""),
			IssuerCity:       getString(v, "EFI_ISSUER_CITY", ""),
			IssuerCountry:    getString(v, "EFI_ISSUER_COUNTRY", "MNE"),
			IssuerBankNumber: getString(v, "EFI_ISSUER_BANK_NUMBER", ""),
			BusinessUnitCode: getString(v, "EFI_BUSINESS_UNIT_CODE", ""),
			SoftwareCode:     getString(v, "EFI_SOFTWARE_CODE", ""),
			OperatorCode:     getString(v, "EFI_OPERATOR_CODE", ""),
			EnuCode:          getString(v, "EFI_ENU_CODE", ""),
			CertPath:         getString(v, "EFI_CERT_PATH", ""),
			CertKeyPath:      getString(v, "EFI_CERT_KEY_PATH", ""),
			CertPassword:     getString(v, "EFI_CERT_PASSWORD", ""),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
