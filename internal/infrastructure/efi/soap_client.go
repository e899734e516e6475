package efi

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jhoicas/efi-api/internal/domain"
	"github.com/jhoicas/efi-api/internal/domain/entity"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// SubmitOutcome resultado del envío a la administración tributaria.
// Accepted=false con FaultMessage es un rechazo de negocio (faultstring del
// SOAP Fault), no un error de transporte.
type SubmitOutcome struct {
	Accepted     bool
	FIC          string // código emitido por la administración al aceptar
	FaultMessage string
}

// Submitter define el puerto de salida hacia el servicio eFi.
// La implementación concreta usa HTTP+SOAP; para tests se inyecta un mock.
type Submitter interface {
	// Submit envía el sobre SOAP ya armado y devuelve el resultado parseado.
	// Errores de red, timeout o cancelación retornan error (ErrTransport);
	// el rechazo de la administración retorna Accepted=false sin error.
	Submit(ctx context.Context, envelope []byte) (*SubmitOutcome, error)
}

// ── Implementación SOAP ────────────────────────────────────────────────────────

// SOAPFiscalizationClient implementa Submitter contra el endpoint fs-v1 del
// ambiente configurado. No reintenta: los reintentos son del caller.
type SOAPFiscalizationClient struct {
	httpClient *http.Client
	baseURI    string
}

// NewSOAPFiscalizationClient construye el cliente para el ambiente dado.
// httpClient puede ser nil; en ese caso se usa uno con timeout de 60 s
// (el servicio eFi puede tardar varios segundos en responder).
func NewSOAPFiscalizationClient(env entity.Environment, httpClient *http.Client) (*SOAPFiscalizationClient, error) {
	base, err := FiscalizationBaseURI(env)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &SOAPFiscalizationClient{httpClient: httpClient, baseURI: base}, nil
}

// ── Estructuras de respuesta SOAP ─────────────────────────────────────────────

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	RegisterInvoiceResponse *registerInvoiceResponse `xml:"RegisterInvoiceResponse"`
	Fault                   *soapFault               `xml:"Fault"`
}

type registerInvoiceResponse struct {
	FIC string `xml:"FIC"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Submit ────────────────────────────────────────────────────────────────────

// Submit hace POST del sobre a {base}fs-v1 con content-type text/xml y parsea
// la respuesta. Respeta la cancelación del contexto: un ctx cancelado aborta
// la llamada en vuelo y propaga el error al caller.
func (c *SOAPFiscalizationClient) Submit(ctx context.Context, envelope []byte) (*SubmitOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURI+submitPath,
		bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("crear request de fiscalización: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("envío cancelado: %v: %w", ctx.Err(), domain.ErrTransport)
		}
		return nil, fmt.Errorf("llamada HTTP al servicio eFi: %v: %w", err, domain.ErrTransport)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("leer respuesta eFi: %v: %w", err, domain.ErrTransport)
	}

	return parseResponse(resp.StatusCode, rawBody)
}

// parseResponse desempaqueta el sobre de respuesta. Un estado HTTP no
// exitoso con Fault es un rechazo de negocio; cualquier respuesta que no se
// pueda interpretar se reporta como rechazo con el cuerpo crudo para no
// perder la evidencia.
func parseResponse(statusCode int, rawBody []byte) (*SubmitOutcome, error) {
	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(rawBody, &envResp); err != nil {
		return &SubmitOutcome{
			Accepted:     false,
			FaultMessage: "respuesta SOAP no parseable: " + string(rawBody),
		}, nil
	}

	if statusCode < 200 || statusCode >= 300 {
		msg := "la administración rechazó la factura sin faultstring"
		if envResp.Body.Fault != nil && envResp.Body.Fault.FaultString != "" {
			msg = envResp.Body.Fault.FaultString
		}
		return &SubmitOutcome{Accepted: false, FaultMessage: msg}, nil
	}

	if envResp.Body.RegisterInvoiceResponse == nil || envResp.Body.RegisterInvoiceResponse.FIC == "" {
		return &SubmitOutcome{
			Accepted:     false,
			FaultMessage: "respuesta eFi sin FIC: " + string(rawBody),
		}, nil
	}

	return &SubmitOutcome{
		Accepted: true,
		FIC:      envResp.Body.RegisterInvoiceResponse.FIC,
	}, nil
}
