package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/topup-store/internal/api"
	"github.com/akylbek/payment-system/topup-store/internal/cache"
	"github.com/akylbek/payment-system/topup-store/internal/config"
	"github.com/akylbek/payment-system/topup-store/internal/events"
	"github.com/akylbek/payment-system/topup-store/internal/grpcserver"
	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/repository"
	"github.com/akylbek/payment-system/topup-store/internal/service"
	"github.com/akylbek/payment-system/topup-store/internal/telemetry"
)

const serviceName = "topup-store"

type stores struct {
	games        interfaces.GameRepository
	vouchers     interfaces.VoucherRepository
	transactions interfaces.TransactionRepository
	close        func() error
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry(serviceName, cfg.JaegerEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Top-up Store")
	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		telemetry.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer st.close()

	if cfg.SeedCatalog {
		if err := repository.SeedCatalog(ctx, st.games, st.vouchers); err != nil {
			telemetry.Logger.Fatal("Failed to seed catalog", zap.Error(err))
		}
	}

	catalogCache, closeCache := openCatalogCache(ctx, cfg)
	defer closeCache()

	publisher, err := openPublisher(cfg)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to event bus", zap.String("bus", cfg.EventBus), zap.Error(err))
	}
	defer publisher.Close()

	if cfg.JWTSecret == "" {
		telemetry.Logger.Warn("JWT_SECRET is empty; authenticated routes will reject every request")
	}

	// Services
	catalog := service.NewCatalog(st.games, st.vouchers, catalogCache, publisher, cfg.PageSize)
	ledger := service.NewLedger(st.transactions, service.NewOrderIDGenerator(cfg.OrderIDPrefix, nil, nil), publisher, cfg.PageSize)
	payments := service.NewPaymentSimulator(st.transactions, service.NewRandomOutcome(cfg.PaymentSuccessRate, nil), publisher, cfg.PaymentAllowRetryFailed)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := api.NewRouter(api.Services{
		Catalog:   catalog,
		Ledger:    ledger,
		Payments:  payments,
		JWTSecret: cfg.JWTSecret,
	})

	// Setup HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Top-up Store starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	var health *grpcserver.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			telemetry.Logger.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GRPCPort), zap.Error(err))
		}
		health = grpcserver.New(serviceName)
		go func() {
			if err := health.Serve(lis); err != nil {
				telemetry.Logger.Error("gRPC server stopped", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if health != nil {
		health.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}

// openStores connects to PostgreSQL when DATABASE_URL is set and falls back
// to the in-memory store otherwise.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.DatabaseURL == "" {
		telemetry.Logger.Warn("DATABASE_URL is empty; using in-memory store")
		mem := repository.NewMemoryStore()
		return &stores{
			games:        mem.Games(),
			vouchers:     mem.Vouchers(),
			transactions: mem.Transactions(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := repository.InitDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &stores{
		games:        repository.NewGameRepository(db),
		vouchers:     repository.NewVoucherRepository(db),
		transactions: repository.NewTransactionRepository(db),
		close:        db.Close,
	}, nil
}

// openCatalogCache returns a Redis-backed cache, or a no-op cache when Redis
// is not configured or not reachable at startup.
func openCatalogCache(ctx context.Context, cfg *config.Config) (interfaces.CatalogCache, func()) {
	if cfg.RedisURL == "" {
		return cache.NopCatalogCache{}, func() {}
	}

	opts := &redis.Options{Addr: cfg.RedisURL}
	if strings.Contains(cfg.RedisURL, "://") {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			telemetry.Logger.Warn("Invalid REDIS_URL; catalog cache disabled", zap.Error(err))
			return cache.NopCatalogCache{}, func() {}
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		telemetry.Logger.Warn("Redis unavailable; catalog cache disabled", zap.Error(err))
		client.Close()
		return cache.NopCatalogCache{}, func() {}
	}
	return cache.NewRedisCatalogCache(client, cfg.CatalogCacheTTL), func() { client.Close() }
}

func openPublisher(cfg *config.Config) (interfaces.EventPublisher, error) {
	switch cfg.EventBus {
	case config.EventBusKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers), nil
	case config.EventBusNATS:
		return events.NewNATSPublisher(cfg.NatsURL)
	}
	return events.NopPublisher{}, nil
}
