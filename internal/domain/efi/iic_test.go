package efi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/efi-api/internal/domain"
)

var hexMayusculas = regexp.MustCompile(`^[0-9A-F]+$`)

func testIICParams() *IICParams {
	return &IICParams{
		IssuerTaxID:      "12345678",
		CreatedAt:        time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
		OrderNumber:      9952,
		BusinessUnitCode: "bb123bb123",
		EnuCode:          "cc123cc123",
		SoftwareCode:     "ss123ss123",
		TotalPrice:       dec("99.01"),
	}
}

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Generate
// ──────────────────────────────────────────────────────────────────────────────

// La firma es determinista para la misma llave y los mismos parámetros
// (RSA PKCS#1 v1.5 no usa aleatoriedad efectiva), y el IIC es el MD5 de la
// firma en hex mayúsculas de 32 caracteres.
func TestGenerate_DeterministaYFormato(t *testing.T) {
	svc := NewIICGeneratorService()
	key := testKey(t)

	sig1, hash1, err := svc.Generate(testIICParams(), key)
	require.NoError(t, err)
	sig2, hash2, err := svc.Generate(testIICParams(), key)
	require.NoError(t, err)

	assert.Equal(t, sig1, sig2, "misma entrada y llave debe producir la misma firma")
	assert.Equal(t, hash1, hash2)

	assert.Len(t, hash1, 32, "el IIC es MD5 en hex: 32 caracteres")
	assert.Regexp(t, hexMayusculas, hash1)
	assert.Regexp(t, hexMayusculas, sig1)
	assert.Len(t, sig1, 2048/8*2, "firma RSA-2048 en hex: 512 caracteres")
}

// La firma debe verificar contra el texto plano tin|crtd|ord|bu|cr|sw|prc
// con la llave pública del emisor.
func TestGenerate_FirmaVerificaContraTextoPlano(t *testing.T) {
	svc := NewIICGeneratorService()
	key := testKey(t)
	p := testIICParams()

	sigHex, _, err := svc.Generate(p, key)
	require.NoError(t, err)

	plainText := strings.Join([]string{
		"12345678",
		"2026-08-15T10:30:00Z",
		"9952",
		"bb123bb123",
		"cc123cc123",
		"ss123ss123",
		"99.01",
	}, "|")
	digest := sha256.Sum256([]byte(plainText))

	sigBytes, err := hex.DecodeString(sigHex)
	require.NoError(t, err)
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sigBytes),
		"la firma debe verificar contra la concatenación exacta de los 7 campos")
}

// Cada campo del texto plano participa en la firma: cambiar cualquiera
// cambia el IIC.
func TestGenerate_SensibleACadaCampo(t *testing.T) {
	svc := NewIICGeneratorService()
	key := testKey(t)

	_, base, err := svc.Generate(testIICParams(), key)
	require.NoError(t, err)

	mutations := map[string]func(*IICParams){
		"tin":  func(p *IICParams) { p.IssuerTaxID = "87654321" },
		"crtd": func(p *IICParams) { p.CreatedAt = p.CreatedAt.Add(time.Second) },
		"ord":  func(p *IICParams) { p.OrderNumber++ },
		"bu":   func(p *IICParams) { p.BusinessUnitCode = "xx000xx000" },
		"cr":   func(p *IICParams) { p.EnuCode = "xx000xx000" },
		"sw":   func(p *IICParams) { p.SoftwareCode = "xx000xx000" },
		"prc":  func(p *IICParams) { p.TotalPrice = dec("99.02") },
	}
	for field, mutate := range mutations {
		p := testIICParams()
		mutate(p)
		_, mutated, err := svc.Generate(p, key)
		require.NoError(t, err)
		assert.NotEqual(t, base, mutated, "cambiar %s debe cambiar el IIC", field)
	}
}

func TestGenerate_SinLlave_RetornaErrCertificate(t *testing.T) {
	svc := NewIICGeneratorService()
	_, _, err := svc.Generate(testIICParams(), nil)
	assert.ErrorIs(t, err, domain.ErrCertificateUnavailable)
}

// Una llave inutilizable falla con ErrSigning sin perder la causa raíz en
// el mensaje.
func TestGenerate_FalloDeFirma_ConservaCausa(t *testing.T) {
	svc := NewIICGeneratorService()
	// Llave demasiado pequeña para un digest SHA-256: crypto/rsa la rechaza.
	smallKey := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: big.NewInt(3233), E: 17},
		D:         big.NewInt(413),
		Primes:    []*big.Int{big.NewInt(61), big.NewInt(53)},
	}

	_, _, err := svc.Generate(testIICParams(), smallKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSigning)
	assert.Contains(t, err.Error(), "crypto/rsa", "el error debe conservar la causa subyacente")
}

func TestGenerate_EmisorIncompleto_RetornaErrInvalidInput(t *testing.T) {
	svc := NewIICGeneratorService()
	p := testIICParams()
	p.SoftwareCode = ""
	_, _, err := svc.Generate(p, testKey(t))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
