// Package app wires the distribution engine together and manages its
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/blogforge/distributor/internal/api"
	"github.com/blogforge/distributor/internal/assets"
	"github.com/blogforge/distributor/internal/campaign"
	"github.com/blogforge/distributor/internal/config"
	"github.com/blogforge/distributor/internal/database"
	"github.com/blogforge/distributor/internal/destination"
	"github.com/blogforge/distributor/internal/discovery"
	"github.com/blogforge/distributor/internal/generator"
	"github.com/blogforge/distributor/internal/injection"
	"github.com/blogforge/distributor/internal/lifecycle"
	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/metrics"
	"github.com/blogforge/distributor/internal/models"
	"github.com/blogforge/distributor/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

// Options select which parts of the engine to run.
type Options struct {
	Server    bool
	Scheduler bool
}

// App is the assembled distribution engine.
type App struct {
	cfg       *config.Config
	logger    logger.Logger
	opts      Options
	pool      *destination.Pool
	cache     *redis.Client
	server    *http.Server
	scheduler *scheduler.Scheduler
	closeDB   func() error
}

// New builds the engine from configuration.
func New(cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	adminDB, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect registry database: %w", err)
	}

	cache := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx).Err(); err != nil {
		adminDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	sites := database.NewSiteRepository(adminDB)
	categories := database.NewCategoryRepository(adminDB)

	pool := destination.NewPool(sites, log)
	writer := destination.NewWriter(log)
	disc := discovery.NewService(pool, writer, cache, log)

	replicator := assets.NewReplicator(models.StorageCredentials{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		PublicURL: cfg.Storage.PublicURL,
		UseSSL:    cfg.Storage.UseSSL,
	}, log)

	gen := generator.NewClient(cfg.Generator.URL, cfg.Generator.Token, cfg.Generator.Timeout, log)
	limiter := rate.NewLimiter(rate.Limit(cfg.Injection.WriteRateRPS), cfg.Injection.WriteRateRPS)
	injector := injection.NewOrchestrator(sites, pool, writer, disc, limiter, m, log)
	campaigns := campaign.NewManager(campaign.NewStore(), gen, injector, log)
	lc := lifecycle.NewManager(sites, pool, writer, m, log)

	app := &App{
		cfg:     cfg,
		logger:  log,
		opts:    opts,
		pool:    pool,
		cache:   cache,
		closeDB: adminDB.Close,
	}

	if opts.Server {
		handlers := api.NewHandlers(api.Deps{
			Sites:      sites,
			Categories: categories,
			Discovery:  disc,
			Campaigns:  campaigns,
			Lifecycle:  lc,
			Replicator: replicator,
			Pool:       pool,
			Cache:      cache,
			Metrics:    m,
			Logger:     log,
		})
		router := api.NewRouter(handlers, registry, cfg.Server.CORSOrigins, cfg.Debug, log)
		app.server = &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}
	if opts.Scheduler && !cfg.Scheduler.Disabled {
		app.scheduler = scheduler.New(cfg.Scheduler.CronSpec, sites, lc, log)
	}

	return app, nil
}

// Run starts the selected components and blocks until a signal or a fatal
// server error.
func (a *App) Run() error {
	errCh := make(chan error, 1)

	if a.server != nil {
		go func() {
			a.logger.Info("HTTP server listening", logger.String("address", a.server.Addr))
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}
	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}
	if a.server == nil && a.scheduler == nil {
		return errors.New("nothing to run: both server and scheduler disabled")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-quit:
		a.logger.Info("Shutting down", logger.String("signal", sig.String()))
		a.shutdown()
		return nil
	}
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("HTTP server shutdown failed", logger.Error(err))
		}
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.pool.Close()
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("Redis close failed", logger.Error(err))
	}
	if err := a.closeDB(); err != nil {
		a.logger.Warn("Registry database close failed", logger.Error(err))
	}
	a.logger.Info("Shutdown complete")
}
