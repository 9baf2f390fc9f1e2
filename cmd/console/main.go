package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/api/dto"
	httptransport "github.com/spec-kit/library-console/internal/api/http"
	"github.com/spec-kit/library-console/internal/api/http/handlers"
	"github.com/spec-kit/library-console/internal/auth"
	"github.com/spec-kit/library-console/internal/client"
	"github.com/spec-kit/library-console/internal/config"
	"github.com/spec-kit/library-console/internal/events"
	"github.com/spec-kit/library-console/internal/nav"
	"github.com/spec-kit/library-console/internal/notify"
	"github.com/spec-kit/library-console/internal/observability"
	"github.com/spec-kit/library-console/internal/persistence"
	"github.com/spec-kit/library-console/internal/preferences"
	"github.com/spec-kit/library-console/internal/service"
	"github.com/spec-kit/library-console/internal/views"
	"github.com/spec-kit/library-console/internal/worker"
)

// gatewayRef lets the session be built before the API client that serves
// its gateway calls, since the client in turn reads the session credential.
type gatewayRef struct {
	auth.Gateway
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := persistence.Open(*cfg, logger)
	if err != nil {
		logger.Fatal("failed to open state store", zap.Error(err))
	}
	defer closeStore()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	flash := notify.NewFlash(0)
	busy := client.NewBusyTracker()

	gateway := &gatewayRef{}
	session := auth.NewSession(auth.NewTokenStore(store, logger), gateway, logger,
		auth.WithEnrichTimeout(cfg.Session.EnrichTimeout()),
		auth.WithEvents(dispatcher),
	)
	defer session.WaitEnrichment()

	api, err := client.New(client.Options{
		BaseURL:      cfg.API.BaseURL,
		HTTPClient:   &http.Client{Timeout: cfg.API.Timeout()},
		MaxBodyBytes: cfg.API.MaxBodyBytes,
		Credentials:  session,
		Busy:         busy,
		Classifier:   client.NewClassifier(flash, nav.Router{}, session, logger.Named("client")),
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		logger.Fatal("failed to build api client", zap.Error(err))
	}

	deps := service.Dependencies{API: api, Mapper: dto.NewMapper(cfg.API.BaseURL)}
	authService := service.NewAuthService(deps)
	gateway.Gateway = authService
	bookService := service.NewBookService(deps)
	loanService := service.NewLoanService(deps)
	reservationService := service.NewReservationService(deps)
	userService := service.NewUserService(deps)

	stopWorker := worker.Start(worker.Config{
		Notifications: service.NewNotificationService(dispatcher, flash, logger),
		Session:       session,
		Busy:          busy,
		Logger:        logger,
	})
	defer stopWorker()

	theme := preferences.NewThemeStore(ctx, store, logger)
	policy := auth.NewPolicy(session)
	base := handlers.NewBase(session, theme, flash, busy, logger.Named("http"))

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		Views:   views.New(policy),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger.Named("http"),
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		RenderError: base.RenderError,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Guard:        auth.NewGuard(policy, logger.Named("guard")),
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, busy, session, metrics),
		Auth:         handlers.NewAuthHandler(base, session, userService),
		Books:        handlers.NewBooksHandler(base, bookService, reservationService),
		Users:        handlers.NewUsersHandler(base, userService, authService),
		Loans:        handlers.NewLoansHandler(base, loanService, reservationService, userService, bookService),
		Reservations: handlers.NewReservationsHandler(base, reservationService),
		Theme:        handlers.NewThemeHandler(base),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("console started",
		zap.String("addr", cfg.App.Addr()),
		zap.String("api", cfg.API.BaseURL),
		zap.String("store", cfg.Store.Backend))

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
