package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/swaggo/swag"

	_ "github.com/scripttb/720CRM-sub000/docs"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/agt/signer"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/cache"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/metrics"
	infrapdf "github.com/scripttb/720CRM-sub000/internal/infrastructure/pdf"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/postgres"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/saft"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/storage"
	httpRouter "github.com/scripttb/720CRM-sub000/internal/interfaces/http"
	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
	"github.com/scripttb/720CRM-sub000/pkg/config"
	"github.com/scripttb/720CRM-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	docSigner, err := newSigner(cfg.AGT, log)
	if err != nil {
		log.Fatal().Err(err).Msg("certificado AGT")
	}

	// Redis si está configurado; si no, memoria (válido sólo con una instancia).
	var guard billing.IdempotencyStore = cache.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		redisStore, err := cache.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisStore.Close()
		guard = redisStore
	}

	var archive billing.ArchiveStore
	if cfg.SAFT.ArchiveEnabled {
		s3Archive, err := storage.NewS3Archive(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("almacén de SAF-T")
		}
		archive = s3Archive
	}

	registry := metrics.NewRegistry()
	txRunner := postgres.NewTxRunner(pool)

	certifier := billing.NewCertifier(docSigner, guard, billing.AGTConfig{
		CertificateNumber:    cfg.AGT.CertificateNumber,
		SeriesValidationCode: cfg.AGT.SeriesValidationCode,
		DefaultSeries:        cfg.AGT.DefaultSeries,
	}, log.WithComponent("certifier"))
	documentUC := billing.NewDocumentUseCase(txRunner, certifier, registry, cfg.AGT.DefaultSeries, log.WithComponent("billing"))
	masterDataUC := billing.NewMasterDataUseCase(txRunner)
	pdfUC := billing.NewPDFUseCase(txRunner, infrapdf.NewMarotoPDFGenerator())
	saftUC := billing.NewSAFTUseCase(txRunner, saft.Software{
		ProductCompanyTaxID:      cfg.AGT.ProductCompanyTaxID,
		SoftwareValidationNumber: cfg.AGT.SoftwareValidationNumber,
		ProductID:                cfg.AGT.ProductID,
		ProductVersion:           cfg.AGT.ProductVersion,
	}, archive, registry, log.WithComponent("saft"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.WithComponent("http")))
	app.Use(httpRouter.Metrics(registry))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturação AGT API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(registry.Handler()))
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents:   documentUC,
		PDFs:        pdfUC,
		MasterData:  masterDataUC,
		SAFT:        saftUC,
		SAFTLimiter: httpRouter.NewTenantLimiter(cfg.SAFT.ExportRatePerMinute),
		Idempotency: guard,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
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

// newSigner firma RSA con el certificado configurado; sin certificado sólo se admite fuera de producción.
func newSigner(cfg config.AGTConfig, log *logger.Logger) (pkgagt.Signer, error) {
	if cfg.CertPath == "" {
		log.Warn().Msg("AGT_CERT_PATH vacío: se usa la firma de desarrollo (no válida ante la AGT)")
		return signer.DigestSigner{}, nil
	}
	cert, err := signer.Load(cfg.CertPath, cfg.CertKeyPath, cfg.CertPassword)
	if err != nil {
		return nil, err
	}
	s, err := signer.NewRSASigner(cert)
	if err != nil {
		return nil, err
	}
	log.Info().Str("key_version", s.KeyVersion()).Msg("certificado AGT cargado")
	return s, nil
}
