package signer

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/xml"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/efi-api/internal/domain"
	pkgefi "github.com/jhoicas/efi-api/pkg/efi"
)

// testCredential genera una llave RSA con certificado self-signed para firmar.
func testCredential(t *testing.T) *pkgefi.Credential {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "Test d.o.o.", Country: []string{"ME"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &pkgefi.Credential{PrivateKey: key, Leaf: leaf}
}

const testDocument = `<RegisterInvoiceRequest Id="Request" Version="1" xmlns="https://efi.tax.gov.me/fs/schema"><Header UUID="a1b2" SendDateTime="2026-08-15T10:30:00Z"></Header><Invoice InvType="INVOICE"></Invoice></RegisterInvoiceRequest>`

// ──────────────────────────────────────────────────────────────────────────────
// Tests Sign
// ──────────────────────────────────────────────────────────────────────────────

// La firma se agrega como último hijo del elemento raíz, con la estructura
// SignedInfo/SignatureValue/KeyInfo y Reference URI="#Request".
func TestSign_EstructuraDeLaFirma(t *testing.T) {
	cred := testCredential(t)
	signed, err := NewEnvelopedSignatureService().Sign([]byte(testDocument), cred)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "RegisterInvoiceRequest", root.Tag)

	children := root.ChildElements()
	require.NotEmpty(t, children)
	sig := children[len(children)-1]
	assert.Equal(t, "Signature", sig.Tag, "ds:Signature debe ser el último hijo de la raíz")
	assert.Equal(t, NamespaceDS, sig.SelectAttrValue("xmlns:ds", ""))

	ref := sig.FindElement("./ds:SignedInfo/ds:Reference")
	require.NotNil(t, ref)
	assert.Equal(t, "#Request", ref.SelectAttrValue("URI", ""))

	transforms := sig.FindElements("./ds:SignedInfo/ds:Reference/ds:Transforms/ds:Transform")
	require.Len(t, transforms, 2)
	assert.Equal(t, TransformEnveloped, transforms[0].SelectAttrValue("Algorithm", ""))
	assert.Equal(t, AlgExcC14N, transforms[1].SelectAttrValue("Algorithm", ""))

	sigMethod := sig.FindElement("./ds:SignedInfo/ds:SignatureMethod")
	require.NotNil(t, sigMethod)
	assert.Equal(t, AlgRSASHA256, sigMethod.SelectAttrValue("Algorithm", ""))

	// El certificado hoja viaja en KeyInfo
	certNode := sig.FindElement("./ds:KeyInfo/ds:X509Data/ds:X509Certificate")
	require.NotNil(t, certNode)
	certDER, err := base64.StdEncoding.DecodeString(certNode.Text())
	require.NoError(t, err)
	assert.Equal(t, cred.Leaf.Raw, certDER)
}

// El DigestValue debe ser el SHA-256 del documento canonicalizado (antes de
// insertar la firma), y el SignatureValue debe verificar con la llave pública.
func TestSign_DigestYFirmaVerifican(t *testing.T) {
	cred := testCredential(t)
	pub := &cred.PrivateKey.PublicKey

	signed, err := NewEnvelopedSignatureService().Sign([]byte(testDocument), cred)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed))

	// Digest del documento original
	dec := xml.NewDecoder(bytes.NewReader([]byte(testDocument)))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	require.NoError(t, err)
	wantDigest := sha256.Sum256(canonical)

	digestNode := doc.FindElement("//ds:SignedInfo/ds:Reference/ds:DigestValue")
	require.NotNil(t, digestNode)
	assert.Equal(t, base64.StdEncoding.EncodeToString(wantDigest[:]), digestNode.Text())

	// SignatureValue verifica contra el SignedInfo canonicalizado. Se
	// reconstruye con la misma plantilla del servicio.
	signedInfoXML := NewEnvelopedSignatureService().buildSignedInfo(digestNode.Text())
	siDec := xml.NewDecoder(bytes.NewReader([]byte(signedInfoXML)))
	siDec.Entity = map[string]string{}
	canonicalSI, err := c14n.Canonicalize(siDec)
	require.NoError(t, err)
	siDigest := sha256.Sum256(canonicalSI)

	sigNode := doc.FindElement("//ds:SignatureValue")
	require.NotNil(t, sigNode)
	sigBytes, err := base64.StdEncoding.DecodeString(sigNode.Text())
	require.NoError(t, err)

	assert.NoError(t, rsa.VerifyPKCS1v15(pub, crypto.SHA256, siDigest[:], sigBytes),
		"la firma debe verificar contra el SignedInfo canonicalizado")
}

func TestSign_SinLlave_RetornaErrCertificate(t *testing.T) {
	cred := testCredential(t)
	cred.Close() // descarta la llave

	_, err := NewEnvelopedSignatureService().Sign([]byte(testDocument), cred)
	assert.ErrorIs(t, err, domain.ErrCertificateUnavailable)
}

func TestSign_XMLVacio_RetornaErrInvalidInput(t *testing.T) {
	_, err := NewEnvelopedSignatureService().Sign(nil, testCredential(t))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Credential
// ──────────────────────────────────────────────────────────────────────────────

// Close pone a cero el material de la llave y es idempotente.
func TestCredential_CloseLiberaLaLlave(t *testing.T) {
	cred := testCredential(t)
	priv := cred.PrivateKey
	require.True(t, cred.HasPrivateKey())

	cred.Close()
	assert.False(t, cred.HasPrivateKey())
	assert.Zero(t, priv.D.Sign(), "el exponente privado debe quedar en cero")
	for _, p := range priv.Primes {
		assert.Zero(t, p.Sign())
	}

	cred.Close() // idempotente
	assert.False(t, cred.HasPrivateKey())
}
