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

	"github.com/jhoicas/Lotes-api/internal/application/auth"
	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/application/usecase"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/blob"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/memory"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Lotes-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/sqlite"
	httpRouter "github.com/jhoicas/Lotes-api/internal/interfaces/http"
	"github.com/jhoicas/Lotes-api/pkg/config"
	"github.com/jhoicas/Lotes-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria del libro")
	}

	ctx := context.Background()
	txRunner, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	ledgerMetrics := metrics.NewLedgerMetrics()
	lotSvc := lot.NewService(txRunner, lot.SystemClock{Location: loc}, log).WithObserver(ledgerMetrics)
	sheetUC := lot.NewSheetUseCase(lotSvc, infrapdf.NewMarotoPDFGenerator(), cfg.Report.CompanyName)
	if cfg.Archive.Enabled() {
		archive, err := blob.NewS3Archive(ctx, cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("archivo de fichas S3")
		}
		sheetUC.WithArchive(archive)
		log.Info().Str("bucket", cfg.Archive.S3Bucket).Msg("fichas archivadas en S3")
	}
	authUC := auth.NewAuthUseCase(txRunner, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		created, err := authUC.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("alta del operador ADMIN")
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("operador ADMIN creado")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Lotes API",
		}))
	} else {
		log.Warn().Str("archivo", swaggerFile).Msg("swagger deshabilitado: no se encontró el archivo")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})
	app.Get("/metrics", adaptor.HTTPHandler(ledgerMetrics.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		LotService: lotSvc,
		LotSheet:   sheetUC,
		AuthUC:     authUC,
		ProductUC:  usecase.NewProductUseCase(txRunner),
		JWTSecret:  cfg.JWT.Secret,
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

// openStore abre el almacenamiento configurado y devuelve su TxRunner y la función de cierre.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (lot.TxRunner, func()) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn().Msg("almacenamiento en memoria: el libro se pierde al detener el proceso")
		return memory.New(), func() {}
	case config.DriverSQLite:
		store, err := sqlite.NewStore(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Storage.SQLitePath).Msg("apertura de SQLite")
		}
		log.Info().Str("path", store.Path()).Msg("libro en SQLite")
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("cierre de SQLite")
			}
		}
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		return postgres.NewTxRunner(pool), pool.Close
	}
}
