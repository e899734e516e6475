// Carga del certificado del emisor desde .p12 (PKCS#12) o par PEM.

package signer

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/efi-api/internal/domain"
	pkgefi "github.com/jhoicas/efi-api/pkg/efi"
)

// LoadFromP12 carga certificado y llave privada RSA desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12(path, password string) (*pkgefi.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer p12: %v: %w", err, domain.ErrCertificateUnavailable)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("decodificar p12: %v: %w", err, domain.ErrCertificateUnavailable)
	}
	rsaKey, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("el p12 no trae llave privada RSA: %w", domain.ErrCertificateUnavailable)
	}
	return &pkgefi.Credential{PrivateKey: rsaKey, Leaf: cert}, nil
}

// LoadFromPEM carga certificado y llave desde archivos PEM (por separado, o
// combinados en el mismo archivo si keyPath viene vacío).
func LoadFromPEM(certPath, keyPath string) (*pkgefi.Credential, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("cargar PEM: %v: %w", err, domain.ErrCertificateUnavailable)
	}
	rsaKey, ok := pair.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("el PEM no trae llave privada RSA: %w", domain.ErrCertificateUnavailable)
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parsear certificado hoja: %v: %w", err, domain.ErrCertificateUnavailable)
	}
	return &pkgefi.Credential{PrivateKey: rsaKey, Leaf: leaf}, nil
}

// FileCertificateProvider implementa pkg/efi.CertificateProvider leyendo el
// certificado desde disco en cada Provide. Cargar por fiscalización permite
// rotar el certificado sin reiniciar el proceso y acota la vida de la llave
// en memoria al alcance de una sola firma.
type FileCertificateProvider struct {
	CertPath string
	KeyPath  string // solo PEM; ignorado para .p12/.pfx
	Password string // solo .p12/.pfx
}

// Provide carga una credencial nueva. El formato se decide por extensión:
// .p12/.pfx es PKCS#12, cualquier otra cosa se trata como PEM.
func (p *FileCertificateProvider) Provide() (*pkgefi.Credential, error) {
	if p.CertPath == "" {
		return nil, fmt.Errorf("ruta de certificado vacía: %w", domain.ErrCertificateUnavailable)
	}
	switch strings.ToLower(filepath.Ext(p.CertPath)) {
	case ".p12", ".pfx":
		return LoadFromP12(p.CertPath, p.Password)
	default:
		return LoadFromPEM(p.CertPath, p.KeyPath)
	}
}

var _ pkgefi.CertificateProvider = (*FileCertificateProvider)(nil)
