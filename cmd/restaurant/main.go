// Package main запускает HTTP-сервер доставки и кухни ресторана.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/restaurant-delivery/internal/config"
	"github.com/mmeshcher/restaurant-delivery/internal/delivery"
	"github.com/mmeshcher/restaurant-delivery/internal/geo"
	"github.com/mmeshcher/restaurant-delivery/internal/handler"
	"github.com/mmeshcher/restaurant-delivery/internal/hub"
	"github.com/mmeshcher/restaurant-delivery/internal/metrics"
	"github.com/mmeshcher/restaurant-delivery/internal/middleware"
	"github.com/mmeshcher/restaurant-delivery/internal/ordersapi"
	"github.com/mmeshcher/restaurant-delivery/internal/repository"
	"github.com/mmeshcher/restaurant-delivery/internal/service"
	"github.com/mmeshcher/restaurant-delivery/internal/storage"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	if cfg.DatabaseURI == "" || cfg.OrdersAPIAddress == "" {
		sugar.Fatalw("configuration error", "error", "DATABASE_URI and ORDERS_API_ADDRESS are required")
	}

	location, err := cfg.Location()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	zones := delivery.DefaultZones()
	if cfg.DeliveryZonesFile != "" {
		zones, err = delivery.LoadZonesFile(cfg.DeliveryZonesFile)
		if err != nil {
			sugar.Fatalw("delivery zones error", "file", cfg.DeliveryZonesFile, "error", err.Error())
		}
	}
	engine, err := delivery.NewEngine(zones, delivery.DefaultRules())
	if err != nil {
		sugar.Fatalw("delivery zones error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	health := map[string]handler.Pinger{"postgres": repo}

	var store storage.Store = storage.NewMemory()
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer rdb.Close()

		redisStore := storage.NewRedis(rdb)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisStore.Ping(pingCtx)
		cancel()
		if err != nil {
			sugar.Fatalw("redis initialization error", "addr", cfg.RedisAddress, "error", err.Error())
		}
		store = redisStore
		health["redis"] = redisStore
	} else {
		sugar.Warn("REDIS_ADDRESS is empty, delivery sessions are kept in memory")
	}

	m := metrics.New()

	kitchen := hub.New(logger, m.KitchenClients)
	defer kitchen.Close()

	orders := ordersapi.NewClient(cfg.OrdersAPIAddress, cfg.OrdersAPIToken, logger)
	defer orders.Close()

	resolver := geo.NewResolver(geo.NewNominatim(cfg.GeocoderAddress, cfg.GeocoderUserAgent), geo.DefaultPositionTimeout)

	svc := service.NewService(service.Deps{
		Repo:     repo,
		Orders:   orders,
		Engine:   engine,
		Resolver: resolver,
		Store:    store,
		Notifier: kitchen,
		Metrics:  m,
		Logger:   logger,
		Location: location,
	})

	orderSync, err := service.NewOrderSync(svc, cfg.OrderSyncInterval, logger)
	if err != nil {
		sugar.Fatalw("order sync initialization error", "error", err.Error())
	}

	sessions := middleware.NewSessionMiddleware(cfg.SessionSecret)
	if cfg.SessionSecret == "" {
		sugar.Warn("SESSION_SECRET is empty, delivery sessions do not survive restarts")
	}

	h := handler.NewHandler(svc, logger, sessions, handler.Options{
		Kitchen:  kitchen,
		Metrics:  m.Handler(),
		Observer: m,
		Health:   health,
	})

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Периодическая синхронизация заказов с API
	g.Go(func() error {
		if err := orderSync.Start(); err != nil {
			return fmt.Errorf("order sync start: %w", err)
		}
		<-ctx.Done()
		return orderSync.Stop()
	})

	// Поток событий API заказов
	g.Go(func() error {
		err := orders.Subscribe(ctx, func(ev ordersapi.Event) {
			svc.HandleOrderEvent(ctx, ev)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("orders events: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting restaurant delivery server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		kitchen.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
