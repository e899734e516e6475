// Constantes XMLDSig para la firma enveloped del documento eFi.

package signer

// Namespaces y algoritmos XMLDSig. El esquema eFi exige canonicalización
// exclusiva (Exc-C14N) tanto para el documento como para el SignedInfo.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	AlgExcC14N         = "http://www.w3.org/2001/10/xml-exc-c14n#"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// ReferenceURI apunta al Id fijo del elemento raíz RegisterInvoiceRequest.
const ReferenceURI = "#Request"
