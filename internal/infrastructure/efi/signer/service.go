// Servicio de firma enveloped XMLDSig para el documento RegisterInvoiceRequest.
// Agrega <ds:Signature> como último hijo del elemento raíz.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/efi-api/internal/domain"
	pkgefi "github.com/jhoicas/efi-api/pkg/efi"
)

// EnvelopedSignatureService implementa la firma enveloped y la inserta en el XML.
type EnvelopedSignatureService struct{}

// NewEnvelopedSignatureService crea el servicio.
func NewEnvelopedSignatureService() *EnvelopedSignatureService {
	return &EnvelopedSignatureService{}
}

// Sign implementa pkg/efi.Signer. Firma el documento con RSA-SHA256 sobre el
// SignedInfo canonicalizado (Exc-C14N) y devuelve el XML con ds:Signature
// como último hijo de RegisterInvoiceRequest.
func (s *EnvelopedSignatureService) Sign(xmlBytes []byte, cred *pkgefi.Credential) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("XML vacío: %w", domain.ErrInvalidInput)
	}
	if !cred.HasPrivateKey() || cred.Leaf == nil {
		return nil, fmt.Errorf("credencial sin llave privada o sin certificado: %w", domain.ErrCertificateUnavailable)
	}

	// 1) Digest del documento (Exc-C14N). Reference URI="#Request"
	canonicalDoc, err := canonicalizeXML(xmlBytes)
	if err != nil {
		canonicalDoc = xmlBytes
	}
	docDigest := sha256.Sum256(canonicalDoc)
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedInfo canonicalizado y firmado con RSA-SHA256
	signedInfoXML := s.buildSignedInfo(docDigestB64)
	canonicalSignedInfo, err := canonicalizeXML([]byte(signedInfoXML))
	if err != nil {
		canonicalSignedInfo = []byte(signedInfoXML)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, cred.PrivateKey, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("firmar SignedInfo: %v: %w", err, domain.ErrSigning)
	}
	signatureValueB64 := base64.StdEncoding.EncodeToString(signatureValue)

	// 3) KeyInfo con el certificado hoja
	certB64 := base64.StdEncoding.EncodeToString(cred.Leaf.Raw)
	signatureXML := s.buildFullSignature(signedInfoXML, signatureValueB64, certB64)

	// 4) Insertar como último hijo del elemento raíz
	return s.appendSignature(xmlBytes, signatureXML)
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func (s *EnvelopedSignatureService) buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgExcC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="` + ReferenceURI + `">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgExcC14N + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func (s *EnvelopedSignatureService) buildFullSignature(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

func (s *EnvelopedSignatureService) appendSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("parsear XML a firmar: %v: %w", err, domain.ErrSigning)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("documento sin raíz: %w", domain.ErrSigning)
	}
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("parsear Signature: %v: %w", err, domain.ErrSigning)
	}
	if sigRoot := sigDoc.Root(); sigRoot != nil {
		root.AddChild(sigRoot)
	}
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("serializar XML firmado: %v: %w", err, domain.ErrSigning)
	}
	return out.Bytes(), nil
}

var _ pkgefi.Signer = (*EnvelopedSignatureService)(nil)
