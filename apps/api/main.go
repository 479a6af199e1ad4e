package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	customfieldshandler "github.com/troveworks/trove-crm/domains/customfields/be/handler"
	customfieldsrepo "github.com/troveworks/trove-crm/domains/customfields/be/repo"
	customfieldsservice "github.com/troveworks/trove-crm/domains/customfields/be/service"
	entitieshandler "github.com/troveworks/trove-crm/domains/entities/be/handler"
	entitiesrepo "github.com/troveworks/trove-crm/domains/entities/be/repo"
	entitiesservice "github.com/troveworks/trove-crm/domains/entities/be/service"
	platformlogging "github.com/troveworks/trove-crm/platform/go/logging"
	platformmiddleware "github.com/troveworks/trove-crm/platform/go/middleware"
	"github.com/troveworks/trove-crm/platform/go/persistence"
	"github.com/troveworks/trove-crm/platform/go/tenant"
	"github.com/troveworks/trove-crm/platform/go/validation"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	TenantCacheTTL  time.Duration `env:"TENANT_CACHE_TTL" envDefault:"1m"`
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	tenantStore, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		logger.Fatal("init tenant store", zap.Error(err))
	}

	optionSetStore, err := persistence.NewOptionSetStore(ctx, pool)
	if err != nil {
		logger.Fatal("init option set store", zap.Error(err))
	}

	fieldDefinitionStore, err := persistence.NewFieldDefinitionStore(ctx, pool, optionSetStore)
	if err != nil {
		logger.Fatal("init field definition store", zap.Error(err))
	}

	recordStore, err := persistence.NewRecordStore(ctx, pool)
	if err != nil {
		logger.Fatal("init record store", zap.Error(err))
	}

	customFieldsRepo := customfieldsrepo.NewPostgresRepository(fieldDefinitionStore, optionSetStore)
	customFieldsService := customfieldsservice.New(customFieldsRepo)
	customFieldsHTTPHandler := customfieldshandler.New(customFieldsService, logger)

	entityValidator := validation.NewEntityValidator(fieldDefinitionStore, optionSetStore)

	entitiesRepo := entitiesrepo.NewPostgresRepository(recordStore)
	entitiesService := entitiesservice.New(entitiesRepo, entityValidator)
	entitiesHTTPHandler := entitieshandler.New(entitiesService, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))
	rootRouter.Use(platformmiddleware.HTTPMetrics("trove-crm-api"))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Handle("/metrics", promhttp.Handler())

	apiRouter := chi.NewRouter()
	apiRouter.Use(tenant.WithIdentityMiddleware(tenantStore, tenant.Config{
		CacheTTL: cfg.TenantCacheTTL,
	}))
	apiRouter.Mount("/settings", customFieldsHTTPHandler.Routes())
	apiRouter.Mount("/records", entitiesHTTPHandler.Routes())

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
