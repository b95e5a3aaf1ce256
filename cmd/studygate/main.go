package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/insa-apps/studygate/internal/config"
	"github.com/insa-apps/studygate/internal/infra/cache"
	"github.com/insa-apps/studygate/internal/infra/database"
	"github.com/insa-apps/studygate/internal/infra/repository"
	"github.com/insa-apps/studygate/internal/present/rest"
	"github.com/insa-apps/studygate/internal/present/rest/middleware"
	"github.com/insa-apps/studygate/internal/service"
	"github.com/insa-apps/studygate/internal/token"
	"github.com/insa-apps/studygate/internal/usecase"
)

// version is stamped into issued sessions; tokens minted by an older build
// stay valid but are revalidated against the store on first use.
var version = "dev"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.EnableTrace {
		shutdown, err := setupTracing(ctx, cfg.Server.TraceEndpoint)
		if err != nil {
			logger.Fatal("failed to set up tracing", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	db, err := database.NewPostgres(cfg.Server.PostgresDsn)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	if err := database.MigratePostgres(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	users := repository.NewUserRepository(db)

	var snapshots usecase.SnapshotCache
	var signals *service.SignalService
	switch {
	case cfg.Server.RedisAddr != "":
		rdb := database.NewRedis(cfg.Server.RedisAddr, cfg.Server.RedisPassword, cfg.Server.RedisDB)
		snapshots = cache.NewRedisCache(rdb)
		signals = service.NewSignalService(rdb)
	case cfg.Server.MemcachedAddr != "":
		snapshots = cache.NewMemcachedCache(database.NewMemcached(cfg.Server.MemcachedAddr))
	default:
		logger.Warn("no shared cache configured, falling back to in-process cache")
		snapshots = cache.NewLocalCache()
	}

	codec := token.NewCodec(cfg.Auth.Secret)
	identity := usecase.NewIdentityUsecase(users)
	sessions := usecase.NewSessionUsecase(codec, version, cfg.Auth.SessionTTL.Std(), cfg.Auth.SecureCookies, cfg.Auth.EnableEmailHint)
	profile := usecase.NewProfileUsecase(users, snapshots)
	auth := service.NewAuthService(codec, users, snapshots, cfg.Auth.FreshnessWindow.Std(), logger)

	trust, err := middleware.NewTrustBoundary(cfg.Auth.TrustedProxies, logger)
	if err != nil {
		logger.Fatal("failed to parse trusted proxies", zap.Error(err))
	}
	authMiddleware := middleware.NewAuthMiddleware(auth)
	handler := rest.NewHandler(identity, profile, sessions, signals, cfg.Auth.EnableEmailHint)

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	if cfg.Server.EnableTrace {
		e.Use(otelecho.Middleware("studygate"))
	}
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(trust.FilterHeaders)
	e.Use(authMiddleware.IdentifySession)
	handler.RegisterRoutes(e)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Listen))
		if err := e.Start(cfg.Server.Listen); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("studygate"),
			semconv.ServiceVersion(version),
		)),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
