package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/rl1809/bookstore/internal/adapter/handler"
	"github.com/rl1809/bookstore/internal/adapter/storage"
	"github.com/rl1809/bookstore/internal/config"
	"github.com/rl1809/bookstore/internal/core/service"
)

const healthRefreshInterval = 10 * time.Second

func runServe(configPath string, migrate bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		repo      store
		closeRepo = func() error { return nil }
	)
	switch cfg.Storage.Driver {
	case config.DriverMySQL:
		db, err := openMySQL(ctx, cfg.MySQL)
		if err != nil {
			return err
		}
		logger.Info("connected to mysql")

		mysqlAdapter := storage.NewMySQLAdapter(db)
		if migrate {
			applied, err := mysqlAdapter.Migrate(ctx)
			if err != nil {
				db.Close()
				return err
			}
			logger.Info("schema applied", "statements", applied)
		}
		repo, closeRepo = mysqlAdapter, db.Close
	case config.DriverMemory:
		memory := storage.NewMemoryAdapter()
		seedDemoCatalog(memory)
		logger.Warn("using in-memory storage, data is lost on exit")
		repo = memory
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	defer closeRepo()

	rdb, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	logger.Info("connected to redis")

	sessions := storage.NewRedisAdapter(rdb, cfg.Session.TTL)

	activities := service.NewActivityService(repo, cfg.Activity.BulkLimit, cfg.Activity.QueueSize)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Activity.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			activities.Work(id)
		}(i)
	}
	logger.Info("started activity workers", "count", cfg.Activity.Workers)

	gateway := service.NewMockGateway(service.GatewayConfig{
		SuccessRates: cfg.Payment.SuccessRates,
		DefaultRate:  cfg.Payment.DefaultRate,
	})

	svc := handler.Services{
		Auth:       service.NewAuthService(repo, sessions, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		Catalog:    service.NewCatalogService(repo, activities),
		Cart:       service.NewCartService(sessions, repo, activities),
		Orders:     service.NewOrderService(repo, repo, sessions, activities),
		Payments:   service.NewPaymentService(repo, repo, sessions, gateway),
		Activities: activities,
	}

	health := handler.NewHealthChecker(map[string]handler.Pinger{
		cfg.Storage.Driver: repo,
		"redis":            sessions,
	})

	// gRPC health
	grpcServer := grpc.NewServer()
	grpcHandler := handler.NewGRPCHandler(health, logger)
	grpcHandler.Register(grpcServer)

	healthCtx, cancelHealth := context.WithCancel(context.Background())
	defer cancelHealth()
	go grpcHandler.Run(healthCtx, healthRefreshInterval)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
	}

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	// HTTP API
	httpHandler := handler.NewHTTPHandler(svc, sessions, health, handler.Options{
		CookieName:       cfg.Session.CookieName,
		CookieSecure:     cfg.Session.Secure,
		SessionTTL:       cfg.Session.TTL,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimitRPS:     cfg.RateLimit.RPS,
		RateLimitBurst:   cfg.RateLimit.Burst,
		Logger:           logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpHandler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	cancelHealth()
	grpcHandler.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Drain queued activities before the repositories close.
	activities.Close()
	wg.Wait()
	logger.Info("activity workers stopped", "dropped", activities.Dropped())

	return nil
}
