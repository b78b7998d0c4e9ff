package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/utidosgames/storefront/internal/config"
	"github.com/utidosgames/storefront/internal/httpserver"
	"github.com/utidosgames/storefront/internal/repo"
	"github.com/utidosgames/storefront/internal/scheduler"
	"github.com/utidosgames/storefront/internal/service"
	pkgconfig "github.com/utidosgames/storefront/pkg/config"
	pkgdb "github.com/utidosgames/storefront/pkg/db"
	"github.com/utidosgames/storefront/pkg/es"
	"github.com/utidosgames/storefront/pkg/events"
	"github.com/utidosgames/storefront/pkg/logging"
	"github.com/utidosgames/storefront/pkg/middleware/csrf"
	loggingmw "github.com/utidosgames/storefront/pkg/middleware/logging"
)

func main() {
	pkgconfig.LoadDotEnv(".env")
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatalf("storefront: %v", err)
	}
	logger.Info("storefront_stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx = logging.IntoContext(ctx, logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if err := pkgdb.Close(db); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}()

	r := &repo.GormRepo{DB: db}
	if err := r.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka_close_error", "error", err)
			}
		}()
		pub = prod
	}

	catalogSvc := &service.CatalogService{Repo: r, Events: pub}
	if cfg.ESURL != "" {
		idx, err := es.NewProductIndex(ctx, es.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			logger.Warn("es_unavailable", "reason", "search falls back to database", "error", err)
		} else {
			catalogSvc.Index = idx
		}
	}

	authSvc := service.NewAuthService(r, pub, service.AuthConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		LinkTTL:       cfg.AdminLinkTTL,
		LinkBaseURL:   cfg.AdminLinkBaseURL,
	})
	if cfg.AdminUsername != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	}

	coinSvc := service.NewCoinService(r, pub, cfg.CashbackPercent, cfg.DailyBonusCoins)
	proSvc := service.NewProService(r, pub)
	cartSvc := &service.CartService{
		Repo:          r,
		Coins:         coinSvc,
		Pro:           proSvc,
		Events:        pub,
		WhatsAppPhone: cfg.WhatsAppPhone,
		StoreName:     cfg.StoreName,
	}

	e := newEcho(cfg, logger)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		CartHandler:    &httpserver.CartHTTP{Svc: cartSvc},
		LoyaltyHandler: &httpserver.LoyaltyHTTP{Coins: coinSvc, Pro: proSvc},
		JWTSecret:      cfg.JWTAccessSecret,
		Ready:          func(ctx context.Context) error { return ping(ctx, db) },
	})

	timers := scheduler.New(cfg.SchedulerTick, logger)
	if err := registerTasks(timers, cfg, authSvc, proSvc, catalogSvc); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("storefront_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return timers.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newEcho(cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	csrfCfg := csrf.DefaultConfig()
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType, csrfCfg.HeaderName},
		ExposeHeaders:    []string{csrfCfg.HeaderName, echo.HeaderXRequestID},
	}))
	if cfg.CSRFEnabled {
		csrfCfg.SkipPrefixes = []string{"/api/v1/auth/", "/health/"}
		e.Use(csrf.Middleware(csrfCfg))
	}
	return e
}

func registerTasks(m *scheduler.Manager, cfg *config.Config, auth *service.AuthService, pro *service.ProService, catalog *service.CatalogService) error {
	if err := m.Register("pro_expiry_sweep", cfg.ProSweepEvery, 20, pro.ExpireDue); err != nil {
		return err
	}
	if err := m.Register("purge_expired_tokens", cfg.PurgeEvery, 10, auth.PurgeExpired); err != nil {
		return err
	}
	if catalog.Index != nil {
		if err := m.Register("search_reindex", cfg.ReindexEvery, 0, catalog.Reindex); err != nil {
			return err
		}
	}
	return nil
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
