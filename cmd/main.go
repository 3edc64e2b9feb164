package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/printshop/internal/auth"
	"github.com/fjod/printshop/internal/cache"
	"github.com/fjod/printshop/internal/catalog"
	"github.com/fjod/printshop/internal/checkout"
	"github.com/fjod/printshop/internal/config"
	"github.com/fjod/printshop/internal/contact"
	"github.com/fjod/printshop/internal/customize"
	grpcserver "github.com/fjod/printshop/internal/grpc"
	h "github.com/fjod/printshop/internal/http"
	"github.com/fjod/printshop/internal/logger"
	"github.com/fjod/printshop/internal/publisher"
	"github.com/fjod/printshop/internal/repository"
	"github.com/fjod/printshop/internal/service"
	"github.com/fjod/printshop/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	zap.ReplaceGlobals(l)

	os.Exit(finish(l, run(cfg, l)))
}

// finish logs how run ended and flushes the logger. It returns the process exit code.
func finish(l *zap.Logger, err error) int {
	code := 0
	if err != nil {
		l.Error("printshop stopped with error", zap.Error(err))
		code = 1
	}
	_ = l.Sync()
	return code
}

func run(cfg *config.Config, l *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog and order log
	db, err := repository.OpenDatabase(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.RunMigrations(db, cfg.DBDriver); err != nil {
		return err
	}
	l.Info("database ready", zap.String("driver", cfg.DBDriver))

	index, err := catalog.Load(ctx, repository.NewProductRepository(db))
	if err != nil {
		return err
	}
	orders := repository.NewOrderRepository(db)
	l.Info("catalog loaded", zap.Int("products", index.Len()))

	// Sessions
	sessionRepo, closeRepo, err := openSessionRepository(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeRepo()

	sessionCache, closeCache, err := openSessionCache(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeCache()

	sessions := service.NewSessionService(sessionRepo, sessionCache, l)
	manager := session.NewManager(sessions, cfg.SessionIdleTTL, l)
	defer manager.Close()

	wizard := customize.NewWizard(index)
	identity := auth.NewProvider(sessions, cfg.LoginDelay, l)
	checkoutSvc := checkout.NewService(manager, orders, cfg.CheckoutDelay, l)
	defer checkoutSvc.Close()
	contactSvc := contact.NewService(cfg.ContactDelay, l)

	// Order events
	if cfg.KafkaEnabled() {
		poller := publisher.NewOutboxPoller(orders, publisher.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.OutboxTick, l)
		pollerCtx, cancelPoller := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			poller.Run(pollerCtx)
		}()
		defer func() {
			cancelPoller()
			<-done
			if err := poller.Close(); err != nil {
				l.Warn("failed to close kafka writer", zap.Error(err))
			}
		}()
		l.Info("outbox publisher started", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		l.Info("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, h.Handlers{
		Products: h.NewProductHandler(index, wizard),
		Cart:     h.NewCartHandler(manager, index, wizard),
		Checkout: h.NewCheckoutHandler(checkoutSvc, l),
		Auth:     h.NewAuthHandler(identity, checkoutSvc),
		Contact:  h.NewContactHandler(contactSvc),
	}, l)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	grpcServer := grpcserver.NewServer(l)

	errCh := make(chan error, 2)
	go func() {
		l.Info("http server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		l.Info("shutting down")
	case serveErr = <-errCh:
		l.Error("server failed, shutting down", zap.Error(serveErr))
	}

	grpcServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("http server forced to shutdown", zap.Error(err))
	}

	l.Info("printshop stopped")
	return serveErr
}

func openSessionRepository(ctx context.Context, cfg *config.Config, l *zap.Logger) (repository.SessionRepository, func(), error) {
	if cfg.SessionRepository == config.SessionRepositoryMemory {
		l.Info("using in-memory session repository")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	repo, err := repository.OpenMongoRepository(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}
	l.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))

	return repo, func() {
		if err := repo.Close(context.Background()); err != nil {
			l.Warn("failed to disconnect from MongoDB", zap.Error(err))
		}
	}, nil
}

func openSessionCache(ctx context.Context, cfg *config.Config, l *zap.Logger) (cache.SessionCache, func(), error) {
	if cfg.RedisAddr == "" {
		l.Info("REDIS_ADDR not set, session cache disabled")
		return cache.NopCache{}, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	l.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	return cache.NewRedisCache(redisClient, cfg.CacheTTL), func() {
		if err := redisClient.Close(); err != nil {
			l.Warn("failed to close redis client", zap.Error(err))
		}
	}, nil
}
