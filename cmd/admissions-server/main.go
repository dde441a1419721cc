// cmd/admissions-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"daystar-admissions/internal/applicants"
	"daystar-admissions/internal/common/aws"
	"daystar-admissions/internal/common/config"
	"daystar-admissions/internal/common/database"
	"daystar-admissions/internal/common/logger"
	"daystar-admissions/internal/common/observability"
	"daystar-admissions/internal/gateway"
	"daystar-admissions/internal/notify"
	"daystar-admissions/internal/server"
	"daystar-admissions/internal/wizard"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting admissions server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("paymentStrategy", cfg.Payment.Strategy),
	)

	obs := observability.New("admissions-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry (optional) ---
	var indexer applicants.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer = applicants.NewESIndexer(esClient.Client, cfg.Database.Elasticsearch.Index)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init session store ---
	var store server.SessionStore
	if cfg.Sessions.Backend == "redis" {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()

		store = server.NewRedisStore(redisClient.Client, time.Duration(cfg.Sessions.TTLMinutes)*time.Minute)
		zapLog.Info("Redis session store ready", zap.Int("ttlMinutes", cfg.Sessions.TTLMinutes))
	} else {
		store = server.NewMemoryStore()
		zapLog.Info("In-memory session store ready")
	}

	// --- Init confirmation sender ---
	var sender notify.Sender
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		sender = notify.NewService(cfg.Notifications, sesClient, snsClient, log)
		zapLog.Info("Notification channels initialized")
	}

	// --- Wire the wizard ---
	submitter := applicants.NewService(pg.DB, indexer, sender, log)
	payments := gateway.NewClient(
		cfg.Payment.GatewayBaseURL,
		cfg.Payment.IframeBaseURL,
		time.Duration(cfg.Payment.RequestTimeout)*time.Millisecond,
		log,
	)
	navigator := wizard.NewNavigator(
		cfg.Payment.Strategy,
		cfg.Payment.ExternalRedirectURL,
		submitter,
		payments,
		log,
	)

	api := server.New(store, navigator, obs, log)

	mux := api.Routes()
	if cfg.Server.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown error", zap.Error(err))
	}

	zapLog.Info("Admissions server stopped gracefully")
}
