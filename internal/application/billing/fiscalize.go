// Caso de uso de fiscalización eFi: orquesta el ciclo completo
//
//	Impuestos → IIC → XML → Firma enveloped → Sobre SOAP → Envío → Resultado
//
// El pipeline es síncrono: el caller recibe el resultado (o el error fatal)
// en la misma llamada, y decide él si reintenta.

package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/efi-api/internal/domain"
	domefi "github.com/jhoicas/efi-api/internal/domain/efi"
	"github.com/jhoicas/efi-api/internal/domain/entity"
	infraefi "github.com/jhoicas/efi-api/internal/infrastructure/efi"
	"github.com/jhoicas/efi-api/pkg/logger"

	pkgefi "github.com/jhoicas/efi-api/pkg/efi"
)

// FiscalizeInvoiceUseCase ejecuta la fiscalización de una factura contra el
// servicio eFi del ambiente configurado.
type FiscalizeInvoiceUseCase struct {
	issuer       *entity.IssuerConfig
	certProvider pkgefi.CertificateProvider
	iicGenerator *domefi.IICGeneratorService
	xmlBuilder   *infraefi.XMLBuilderService
	signer       pkgefi.Signer
	submitter    infraefi.Submitter
	log          *logger.Logger
}

// NewFiscalizeInvoiceUseCase construye el caso de uso con todas sus dependencias.
func NewFiscalizeInvoiceUseCase(
	issuer *entity.IssuerConfig,
	certProvider pkgefi.CertificateProvider,
	iicGenerator *domefi.IICGeneratorService,
	xmlBuilder *infraefi.XMLBuilderService,
	signer pkgefi.Signer,
	submitter infraefi.Submitter,
	log *logger.Logger,
) *FiscalizeInvoiceUseCase {
	return &FiscalizeInvoiceUseCase{
		issuer:       issuer,
		certProvider: certProvider,
		iicGenerator: iicGenerator,
		xmlBuilder:   xmlBuilder,
		signer:       signer,
		submitter:    submitter,
		log:          log,
	}
}

// Fiscalize ejecuta el pipeline completo. Errores de configuración,
// certificado, firma o transporte retornan error; el rechazo de la
// administración retorna resultado con IsSuccessful=false y err nil, con los
// campos de auditoría (número, IIC, XML transmitido) rellenos en ambos casos.
func (uc *FiscalizeInvoiceUseCase) Fiscalize(ctx context.Context, req *entity.CreateInvoiceRequest) (*entity.CreateInvoiceResult, error) {
	if req == nil {
		return nil, fmt.Errorf("petición nil: %w", domain.ErrInvalidInput)
	}
	if err := uc.issuer.Validate(); err != nil {
		return nil, err
	}
	if req.Type == entity.InvoiceTypeCorrective && req.Original == nil {
		return nil, fmt.Errorf("factura CORRECTIVE sin referencia a la original: %w", domain.ErrInvalidInput)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Motor de impuestos (determinista, sin I/O)
	// ═══════════════════════════════════════════════════════════════════════════
	comp, err := domefi.ComputeTaxes(req.Items)
	if err != nil {
		return nil, err
	}

	// Instante de emisión: UTC a precisión de segundo. El mismo valor entra
	// al texto plano del IIC, al XML y a la URL de verificación.
	now := time.Now().UTC().Truncate(time.Second)

	uc.log.Debug().
		Int("ord", req.OrderNumber).
		Str("total", comp.TotalPrice.StringFixed(2)).
		Msg("impuestos calculados")

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Credencial de firma (alcance: esta fiscalización)
	// ═══════════════════════════════════════════════════════════════════════════
	cred, err := uc.certProvider.Provide()
	if err != nil {
		return nil, err
	}
	defer cred.Close()

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. IIC: firma RSA del texto plano + MD5 de la firma
	// ═══════════════════════════════════════════════════════════════════════════
	iicSignature, iicHash, err := uc.iicGenerator.Generate(&domefi.IICParams{
		IssuerTaxID:      uc.issuer.IDNumber,
		CreatedAt:        now,
		OrderNumber:      req.OrderNumber,
		BusinessUnitCode: uc.issuer.BusinessUnitCode,
		EnuCode:          uc.issuer.EnuCode,
		SoftwareCode:     uc.issuer.SoftwareCode,
		TotalPrice:       comp.TotalPrice,
	}, cred.PrivateKey)
	if err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Documento RegisterInvoiceRequest + serialización
	// ═══════════════════════════════════════════════════════════════════════════
	doc, err := infraefi.BuildRegisterInvoiceRequest(&infraefi.BuildContext{
		Request:      req,
		Issuer:       uc.issuer,
		Computation:  comp,
		IICHash:      iicHash,
		IICSignature: iicSignature,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}
	xmlBytes, err := uc.xmlBuilder.Render(doc)
	if err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 5. Firma enveloped. La llave se libera en cuanto termina: el envío no
	//    necesita material criptográfico.
	// ═══════════════════════════════════════════════════════════════════════════
	signedXML, err := uc.signer.Sign(xmlBytes, cred)
	if err != nil {
		return nil, err
	}
	cred.Close()

	// ═══════════════════════════════════════════════════════════════════════════
	// 6. Sobre SOAP y envío
	// ═══════════════════════════════════════════════════════════════════════════
	envelope := infraefi.WrapInEnvelope(signedXML)

	outcome, err := uc.submitter.Submit(ctx, envelope)
	if err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 7. Resultado
	// ═══════════════════════════════════════════════════════════════════════════
	result := &entity.CreateInvoiceResult{
		IsSuccessful:  outcome.Accepted,
		InvoiceNumber: infraefi.InvoiceNumber(uc.issuer, req.OrderNumber, now.Year()),
		IIC:           iicHash,
		TotalPrice:    comp.TotalPrice,
		CreatedAt:     now,
		RequestXML:    string(envelope),
	}

	if !outcome.Accepted {
		result.ErrorMessage = outcome.FaultMessage
		uc.log.Warn().
			Int("ord", req.OrderNumber).
			Str("iic", iicHash).
			Str("fault", outcome.FaultMessage).
			Msg("factura rechazada por la administración")
		return result, nil
	}

	result.FIC = outcome.FIC
	verificationURL, err := infraefi.BuildVerificationURL(uc.issuer.Environment, infraefi.VerificationParams{
		TaxID:            uc.issuer.IDNumber,
		IIC:              iicHash,
		CreatedAt:        now,
		OrderNumber:      req.OrderNumber,
		BusinessUnitCode: uc.issuer.BusinessUnitCode,
		EnuCode:          uc.issuer.EnuCode,
		SoftwareCode:     uc.issuer.SoftwareCode,
		TotalPrice:       comp.TotalPrice,
	})
	if err != nil {
		return nil, err
	}
	result.VerificationURL = verificationURL

	uc.log.Info().
		Int("ord", req.OrderNumber).
		Str("iic", iicHash).
		Str("fic", outcome.FIC).
		Msg("factura fiscalizada")

	return result, nil
}
