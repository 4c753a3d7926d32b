package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/orderdesk-backend/api/controllers"
	"github.com/angelmondragon/orderdesk-backend/api/routes"
	"github.com/angelmondragon/orderdesk-backend/internal/address"
	"github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/internal/products"
	"github.com/angelmondragon/orderdesk-backend/internal/users"
	"github.com/angelmondragon/orderdesk-backend/pkg/cache"
	"github.com/angelmondragon/orderdesk-backend/pkg/config"
	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/events"
	"github.com/angelmondragon/orderdesk-backend/pkg/instance"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	"github.com/angelmondragon/orderdesk-backend/pkg/metrics"
	"github.com/angelmondragon/orderdesk-backend/pkg/migrate"
	"github.com/angelmondragon/orderdesk-backend/pkg/outbox"
	"github.com/angelmondragon/orderdesk-backend/pkg/pubsub"
	"github.com/angelmondragon/orderdesk-backend/pkg/redis"
	"github.com/angelmondragon/orderdesk-backend/pkg/tracing"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	health := map[string]controllers.Pinger{"database": dbClient}

	var (
		redisClient *redis.Client
		entityCache *cache.Cache
	)
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		health["redis"] = redisClient

		if cfg.Cache.Enabled {
			entityCache = cache.New(redisClient, map[cache.Kind]time.Duration{
				cache.KindUser:    cfg.Cache.UserTTL,
				cache.KindAddress: cfg.Cache.AddressTTL,
				cache.KindProduct: cfg.Cache.ProductTTL,
			}, logg)
		}
	} else {
		logg.Warn(ctx, "redis not configured; cache, idempotency and rate limiting disabled")
	}

	var emitter *events.Emitter
	if cfg.PubSub.Enabled {
		psClient, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		closers = append(closers, psClient.Close)
		health["pubsub"] = psClient
		emitter = events.NewEmitter(psClient, cfg.PubSub, logg)
		if cfg.Outbox.Enabled {
			emitter = emitter.WithSpool(outbox.NewRepository(dbClient.DB()))
		}
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.App.Env, logg)
	if err != nil {
		return err
	}
	closers = append(closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return shutdownTracing(shutdownCtx)
	})

	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	addressRepo := address.NewRepository(conn)
	productRepo := products.NewRepository(conn)

	userService, err := users.NewService(dbClient, userRepo, entityCache)
	if err != nil {
		return err
	}
	addressService, err := address.NewService(dbClient, addressRepo, entityCache)
	if err != nil {
		return err
	}
	productService, err := products.NewService(dbClient, productRepo, entityCache, emitter)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Tx:       dbClient,
		Repo:     orders.NewRepository(conn),
		Reserver: orders.LedgerReserver{Ledger: products.NewStockLedger(productRepo)},
		Cache:    entityCache,
		Events:   emitter,
		Metrics:  orderMetrics,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:    cfg,
			Logger:    logg,
			Health:    health,
			Redis:     redisClient,
			Metrics:   promhttp.Handler(),
			Users:     userService,
			Addresses: addressService,
			Products:  productService,
			Orders:    orderService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
