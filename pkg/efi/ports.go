// Package efi define los puertos de firma y certificado para la
// fiscalización electrónica de Montenegro (eFi, efi.tax.gov.me).

package efi

import (
	"crypto/rsa"
	"crypto/x509"
)

// Credential es el certificado del emisor junto con su llave privada RSA.
// Es un recurso de vida acotada: se obtiene del CertificateProvider una vez
// por fiscalización y debe cerrarse en cuanto termina la firma, en todo
// camino de salida (éxito o error).
type Credential struct {
	PrivateKey *rsa.PrivateKey
	Leaf       *x509.Certificate
}

// HasPrivateKey indica si la credencial trae una llave privada utilizable.
func (c *Credential) HasPrivateKey() bool {
	return c != nil && c.PrivateKey != nil
}

// Close libera el material de la llave privada: pone a cero el exponente
// privado y los primos antes de soltar la referencia. Es idempotente.
func (c *Credential) Close() {
	if c == nil || c.PrivateKey == nil {
		return
	}
	priv := c.PrivateKey
	c.PrivateKey = nil
	if priv.D != nil {
		priv.D.SetInt64(0)
	}
	for _, p := range priv.Primes {
		if p != nil {
			p.SetInt64(0)
		}
	}
	if priv.Precomputed.Dp != nil {
		priv.Precomputed.Dp.SetInt64(0)
	}
	if priv.Precomputed.Dq != nil {
		priv.Precomputed.Dq.SetInt64(0)
	}
	if priv.Precomputed.Qinv != nil {
		priv.Precomputed.Qinv.SetInt64(0)
	}
}

// CertificateProvider entrega la credencial de firma del emisor.
// Cada llamada devuelve una credencial nueva con alcance de una sola
// fiscalización; el caller es responsable de llamar Close().
type CertificateProvider interface {
	Provide() (*Credential, error)
}

// Signer firma un XML de factura y devuelve el XML con el nodo ds:Signature
// envuelto (enveloped) como último hijo del elemento raíz.
type Signer interface {
	Sign(xmlBytes []byte, cred *Credential) ([]byte, error)
}
