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

	"github.com/jhoicas/sage-sync-api/internal/application/auth"
	"github.com/jhoicas/sage-sync-api/internal/application/statements"
	appsync "github.com/jhoicas/sage-sync-api/internal/application/sync"
	"github.com/jhoicas/sage-sync-api/internal/infrastructure/pdf"
	"github.com/jhoicas/sage-sync-api/internal/infrastructure/postgres"
	infrasage "github.com/jhoicas/sage-sync-api/internal/infrastructure/sage"
	"github.com/jhoicas/sage-sync-api/internal/jobs"
	httpRouter "github.com/jhoicas/sage-sync-api/internal/interfaces/http"
	"github.com/jhoicas/sage-sync-api/pkg/config"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
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
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	lmsRepo := postgres.NewLmsRepository(pool)
	statementRepo := postgres.NewStatementRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	sageClient, err := infrasage.NewClient(cfg.Sage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente de Sage")
	}

	// Motor de sincronización: resolución → workflow → driver → reconciler.
	resolver := appsync.NewResolver(sageClient, lmsRepo, log)
	workflow := appsync.NewInvoiceWorkflow(resolver, sageClient, log)
	driver := appsync.NewBatchDriver(lmsRepo, resolver, workflow, cfg.Sync.MaxConcurrency, log)
	reconciler := appsync.NewStatementReconciler(
		sageClient, lmsRepo, statementRepo, resolver, cfg.Sync.StatementPageSize, log,
	)

	// Dos colas: facturación con N workers, reconciliación con UNO para que
	// dos pasadas nunca se solapen.
	invoiceQueue := jobs.New("invoices", cfg.Sync.QueueWorkers, cfg.Sync.QueueBuffer, log)
	reconQueue := jobs.New("reconciliation", 1, cfg.Sync.QueueBuffer, log)
	syncService := appsync.NewService(driver, reconciler, invoiceQueue, reconQueue, log)
	documentLookup := appsync.NewDocumentLookup(lmsRepo, log)

	statementsUC := statements.NewUseCase(
		statementRepo, pdf.NewMarotoStatementRenderer(), cfg.Sync.PDFDir, log,
	)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Sage Sync API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		SyncService:    syncService,
		DocumentLookup: documentLookup,
		StatementsUC:   statementsUC,
		JWTSecret:      cfg.JWT.Secret,
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
		log.Error().Err(err).Msg("apagado del servidor HTTP")
	}

	// Las colas se apagan después del servidor: no entran jobs nuevos y se da
	// tiempo a terminar los que estén corriendo.
	invoiceQueue.Shutdown(shutdownCtx)
	reconQueue.Shutdown(shutdownCtx)

	log.Info().Msg("aplicación detenida")
}
