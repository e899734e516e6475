package domain

import "errors"

// Errores de dominio (sin dependencias externas).
//
// Los fallos internos de cómputo, certificado, firma o transporte abortan el
// pipeline y llegan al caller como error. El rechazo de negocio de la
// administración tributaria NO es un error: se modela como resultado con
// IsSuccessful=false para que el caller pueda mostrar el faultstring.
var (
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrConfiguration          = errors.New("configuración del emisor incompleta o inválida")
	ErrCertificateUnavailable = errors.New("certificado sin llave privada utilizable")
	ErrSigning                = errors.New("fallo al firmar el documento")
	ErrTransport              = errors.New("fallo de transporte hacia la administración tributaria")
)
