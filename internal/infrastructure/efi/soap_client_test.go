package efi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/efi-api/internal/domain"
	"github.com/jhoicas/efi-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del sobre SOAP
// ──────────────────────────────────────────────────────────────────────────────

// El sobre es SOAP 1.1 literal: prefijo soapenv, Header vacío y el XML
// firmado como único hijo del Body, sin alteraciones.
func TestWrapInEnvelope_LayoutExacto(t *testing.T) {
	signed := []byte(`<RegisterInvoiceRequest Id="Request"></RegisterInvoiceRequest>`)
	envelope := string(WrapInEnvelope(signed))

	expected := `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">` +
		`<soapenv:Header/>` +
		`<soapenv:Body><RegisterInvoiceRequest Id="Request"></RegisterInvoiceRequest></soapenv:Body>` +
		`</soapenv:Envelope>`
	assert.Equal(t, expected, envelope)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests de URIs y URL de verificación
// ──────────────────────────────────────────────────────────────────────────────

func TestFiscalizationBaseURI_PorAmbiente(t *testing.T) {
	uri, err := FiscalizationBaseURI(entity.EnvironmentTest)
	require.NoError(t, err)
	assert.Equal(t, "https://efitest.tax.gov.me/", uri)

	uri, err = FiscalizationBaseURI(entity.EnvironmentProduction)
	require.NoError(t, err)
	assert.Equal(t, "https://efi.tax.gov.me/", uri)

	_, err = FiscalizationBaseURI("staging")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

// El portal de verificación de producción vive en un host distinto al de envío.
func TestVerificationBaseURI_ProduccionUsaOtroHost(t *testing.T) {
	uri, err := VerificationBaseURI(entity.EnvironmentProduction)
	require.NoError(t, err)
	assert.Equal(t, "https://mapr.tax.gov.me/", uri)
}

// La URL de verificación lleva los pares en orden fijo y los valores tal
// cual, sin URL-encoding (el crtd conserva sus ':').
func TestBuildVerificationURL_OrdenYValores(t *testing.T) {
	url, err := BuildVerificationURL(entity.EnvironmentTest, VerificationParams{
		TaxID:            "12345678",
		IIC:              "AABB1122",
		CreatedAt:        time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
		OrderNumber:      9952,
		BusinessUnitCode: "bb123bb123",
		EnuCode:          "cc123cc123",
		SoftwareCode:     "ss123ss123",
		TotalPrice:       dec("242"),
	})
	require.NoError(t, err)

	assert.Equal(t,
		"https://efitest.tax.gov.me/ic/#/verify"+
			"?tin=12345678&iic=AABB1122&crtd=2026-08-15T10:30:00Z"+
			"&ord=9952&bu=bb123bb123&cr=cc123cc123&sw=ss123ss123&prc=242.00",
		url)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests del cliente SOAP (httptest)
// ──────────────────────────────────────────────────────────────────────────────

// newTestClient apunta el cliente al servidor de prueba sin pasar por la
// resolución de ambiente.
func newTestClient(server *httptest.Server) *SOAPFiscalizationClient {
	return &SOAPFiscalizationClient{
		httpClient: server.Client(),
		baseURI:    server.URL + "/",
	}
}

const successResponse = `<?xml version="1.0" encoding="utf-8"?>
<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body>
    <RegisterInvoiceResponse xmlns="https://efi.tax.gov.me/fs/schema">
      <Header UUID="a1b2" SendDateTime="2026-08-15T10:30:01Z"/>
      <FIC>7ab42d78-e8a5-4a1a-9df4-94d1d9fa1234</FIC>
    </RegisterInvoiceResponse>
  </env:Body>
</env:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="utf-8"?>
<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body>
    <env:Fault>
      <faultcode>env:Client</faultcode>
      <faultstring>Invalid IIC</faultstring>
    </env:Fault>
  </env:Body>
</env:Envelope>`

// Respuesta 2xx con FIC → aceptada.
func TestSubmit_Aceptada(t *testing.T) {
	var gotContentType, gotPath string
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(successResponse))
	}))
	defer server.Close()

	outcome, err := newTestClient(server).Submit(context.Background(), []byte("<soapenv:Envelope/>"))
	require.NoError(t, err)

	assert.True(t, outcome.Accepted)
	assert.Equal(t, "7ab42d78-e8a5-4a1a-9df4-94d1d9fa1234", outcome.FIC)
	assert.Empty(t, outcome.FaultMessage)

	assert.Equal(t, "/fs-v1", gotPath)
	assert.Equal(t, "text/xml; charset=utf-8", gotContentType)
	assert.Equal(t, "<soapenv:Envelope/>", gotBody, "el sobre se transmite tal cual")
}

// Fault SOAP con HTTP 500 → rechazo de negocio: sin error, con el faultstring.
func TestSubmit_RechazoConFaultstring(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(faultResponse))
	}))
	defer server.Close()

	outcome, err := newTestClient(server).Submit(context.Background(), []byte("<x/>"))
	require.NoError(t, err, "el rechazo de la administración no es un error de transporte")

	assert.False(t, outcome.Accepted)
	assert.Equal(t, "Invalid IIC", outcome.FaultMessage)
	assert.Empty(t, outcome.FIC)
}

// Respuesta 2xx sin FIC se trata como rechazo con evidencia del cuerpo.
func TestSubmit_SinFIC_EsRechazo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/"><env:Body/></env:Envelope>`))
	}))
	defer server.Close()

	outcome, err := newTestClient(server).Submit(context.Background(), []byte("<x/>"))
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.Contains(t, outcome.FaultMessage, "sin FIC")
}

// Contexto cancelado antes de la respuesta → ErrTransport.
func TestSubmit_ContextoCancelado(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := newTestClient(server).Submit(ctx, []byte("<x/>"))
	assert.ErrorIs(t, err, domain.ErrTransport)
}

// Servidor caído → ErrTransport.
func TestSubmit_ServidorInalcanzable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // cerrado a propósito

	_, err := newTestClient(server).Submit(context.Background(), []byte("<x/>"))
	assert.ErrorIs(t, err, domain.ErrTransport)
}
