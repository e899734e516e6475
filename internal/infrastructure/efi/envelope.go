package efi

import "strings"

// Namespace SOAP 1.1 del sobre de transporte.
const soapEnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

// WrapInEnvelope envuelve el XML firmado como único hijo del Body de un
// sobre SOAP 1.1 con Header vacío y prefijo soapenv. Salida literal, sin
// pretty-printing: el layout de bytes es el que se transmite y se audita.
func WrapInEnvelope(signedXML []byte) []byte {
	var sb strings.Builder
	sb.Grow(len(signedXML) + 256)
	sb.WriteString(`<soapenv:Envelope xmlns:soapenv="` + soapEnvelopeNamespace + `">`)
	sb.WriteString(`<soapenv:Header/>`)
	sb.WriteString(`<soapenv:Body>`)
	sb.Write(signedXML)
	sb.WriteString(`</soapenv:Body>`)
	sb.WriteString(`</soapenv:Envelope>`)
	return []byte(sb.String())
}
