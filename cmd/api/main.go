package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	fb "firebase.google.com/go/v4"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/despensa-api/internal/application/alerting"
	"github.com/jhoicas/despensa-api/internal/application/lists"
	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/application/reminder"
	"github.com/jhoicas/despensa-api/internal/application/session"
	"github.com/jhoicas/despensa-api/internal/application/stock"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	infraalerts "github.com/jhoicas/despensa-api/internal/infrastructure/alerts"
	"github.com/jhoicas/despensa-api/internal/infrastructure/docrepo"
	infrafirebase "github.com/jhoicas/despensa-api/internal/infrastructure/firebase"
	infrafirestore "github.com/jhoicas/despensa-api/internal/infrastructure/firestore"
	"github.com/jhoicas/despensa-api/internal/infrastructure/gcs"
	"github.com/jhoicas/despensa-api/internal/infrastructure/memstore"
	"github.com/jhoicas/despensa-api/internal/infrastructure/metrics"
	"github.com/jhoicas/despensa-api/internal/infrastructure/notice"
	infrapdf "github.com/jhoicas/despensa-api/internal/infrastructure/pdf"
	"github.com/jhoicas/despensa-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/despensa-api/internal/interfaces/http"
	"github.com/jhoicas/despensa-api/pkg/config"
	"github.com/jhoicas/despensa-api/pkg/jwt"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

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
		Str("store", cfg.Store.Driver).
		Str("auth", cfg.Auth.Provider).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, pool := openStore(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	// Firebase solo se inicializa si algún componente lo necesita.
	var fbApp *fb.App
	if cfg.Auth.Provider == config.AuthProviderFirebase || cfg.Alerts.Delivery == config.AlertDeliveryFCM {
		fbApp, err = infrafirebase.NewApp(ctx, cfg.Firebase)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar Firebase")
		}
	}

	prom := metrics.New()
	var m ports.Metrics = prom

	deliverer := alertDeliverer(ctx, cfg, fbApp, log)
	timers := infraalerts.NewTimerService(deliverer, log, cfg.Alerts.Enabled)
	feed := notice.NewFeed(log, notice.DefaultCapacity)

	stockRepo := docrepo.NewStockRepository(store)
	listRepo := docrepo.NewListRepository(store)
	notifRepo := docrepo.NewNotificationRepository(store)

	scheduler := reminder.NewScheduler(timers, log, m, cfg.Reminders.MinLead())
	engine := alerting.NewEngine(notifRepo, stockRepo, scheduler, log, m)
	inbox := alerting.NewInbox(notifRepo, engine, feed)
	listsUC := lists.NewUseCase(listRepo, feed, log)

	var images ports.ImageStore
	if cfg.Storage.Bucket != "" {
		gcsClient, err := gcs.NewClient(ctx, cfg.Firebase)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente de Cloud Storage")
		}
		defer gcsClient.Close()
		images = gcs.NewImageStore(gcsClient, cfg.Storage.Bucket)
	}
	stockUC := stock.NewUseCase(stock.Deps{
		Stock:         stockRepo,
		Lists:         listRepo,
		Engine:        engine,
		Scheduler:     scheduler,
		Notifier:      feed,
		Images:        images,
		Reports:       infrapdf.NewStockReportGenerator(),
		MaxImageBytes: cfg.Storage.MaxImageBytes,
		Log:           log,
	})

	sessions := session.NewManager(ctx, session.Deps{
		Stock:         stockRepo,
		Lists:         listRepo,
		Notifications: notifRepo,
		Engine:        engine,
		Notifier:      feed,
		Metrics:       m,
		Log:           log,
	}, session.ManagerConfig{
		Refresh: cfg.Session.RefreshInterval(),
		Idle:    cfg.Session.IdleTimeout(),
	})
	go sessions.RunReaper(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.Storage.MaxImageBytes + 1<<20,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Despensa API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "sessions": sessions.Active()})
	})

	deps := httpRouter.RouterDeps{
		StockUC:  stockUC,
		ListsUC:  listsUC,
		Inbox:    inbox,
		Sessions: sessions,
		Notices:  feed,
		Verifier: tokenVerifier(ctx, cfg, fbApp, log),
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = prom.Handler()
	}
	httpRouter.Router(app, deps)

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

	// Orden: primero las sesiones (sueltan sus suscripciones), luego alertas y almacén.
	sessions.CloseAll()
	stop()
	timers.Close()
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("cerrar almacén")
	}

	log.Info().Msg("aplicación detenida")
}

// openStore abre el almacén de documentos según STORE_DRIVER. Devuelve el pool de Postgres
// (si aplica) para que main lo cierre después del almacén.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.DocumentStore, *pgxpool.Pool) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrar esquema de documentos")
		}
		return postgres.NewDocumentStore(pool, log), pool
	case config.StoreDriverFirestore:
		client, err := infrafirestore.NewClient(ctx, cfg.Firebase)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Firestore")
		}
		return infrafirestore.NewStore(client, log), nil
	default:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return memstore.New(), nil
	}
}

func alertDeliverer(ctx context.Context, cfg *config.Config, app *fb.App, log *logger.Logger) ports.AlertDeliverer {
	if cfg.Alerts.Delivery != config.AlertDeliveryFCM {
		return infraalerts.NewLogDeliverer(log)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente de Firebase Cloud Messaging")
	}
	return infrafirebase.NewMessagingDeliverer(client, cfg.Alerts.TopicPrefix)
}

func tokenVerifier(ctx context.Context, cfg *config.Config, app *fb.App, log *logger.Logger) httpRouter.TokenVerifier {
	if cfg.Auth.Provider != config.AuthProviderFirebase {
		if cfg.JWT.Secret == "" {
			log.Warn().Msg("JWT_SECRET vacío: todas las peticiones protegidas serán rechazadas")
		}
		return jwt.NewVerifier(cfg.JWT.Secret)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente de Firebase Auth")
	}
	return infrafirebase.NewAuthVerifier(client)
}
