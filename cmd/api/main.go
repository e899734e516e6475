package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/efi-api/internal/application/billing"
	domefi "github.com/jhoicas/efi-api/internal/domain/efi"
	"github.com/jhoicas/efi-api/internal/domain/entity"
	infraefi "github.com/jhoicas/efi-api/internal/infrastructure/efi"
	"github.com/jhoicas/efi-api/internal/infrastructure/efi/signer"
	httpRouter "github.com/jhoicas/efi-api/internal/interfaces/http"
	"github.com/jhoicas/efi-api/pkg/config"
	"github.com/jhoicas/efi-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("efi_env", cfg.EFI.Environment).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	issuer := &entity.IssuerConfig{
		Environment:      entity.Environment(cfg.EFI.Environment),
		IDType:           entity.TaxIDType(cfg.EFI.IssuerIDType),
		IDNumber:         cfg.EFI.IssuerIDNumber,
		Name:             cfg.EFI.IssuerName,
		Address:          cfg.EFI.IssuerAddress,
		City:             cfg.EFI.IssuerCity,
		Country:          cfg.EFI.IssuerCountry,
		BankNumber:       cfg.EFI.IssuerBankNumber,
		BusinessUnitCode: cfg.EFI.BusinessUnitCode,
		SoftwareCode:     cfg.EFI.SoftwareCode,
		OperatorCode:     cfg.EFI.OperatorCode,
		EnuCode:          cfg.EFI.EnuCode,
	}
	if err := issuer.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración del emisor incompleta")
	}

	certProvider := &signer.FileCertificateProvider{
		CertPath: cfg.EFI.CertPath,
		KeyPath:  cfg.EFI.CertKeyPath,
		Password: cfg.EFI.CertPassword,
	}

	submitter, err := infraefi.NewSOAPFiscalizationClient(issuer.Environment, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente de fiscalización")
	}

	fiscalizeUC := billing.NewFiscalizeInvoiceUseCase(
		issuer,
		certProvider,
		domefi.NewIICGeneratorService(),
		infraefi.NewXMLBuilderService(),
		signer.NewEnvelopedSignatureService(),
		submitter,
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 70, // la fiscalización espera al servicio eFi
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "eFi API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Fiscalize: fiscalizeUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
