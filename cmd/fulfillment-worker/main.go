// cmd/fulfillment-worker/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	commonaws "dining-concierge/internal/common/aws"
	"dining-concierge/internal/catalog"
	"dining-concierge/internal/common/config"
	"dining-concierge/internal/common/database"
	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/common/observability"
	"dining-concierge/internal/fulfillment"
	"dining-concierge/internal/notify"
	"dining-concierge/internal/queue"
	"dining-concierge/internal/search"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting fulfillment worker...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("fulfillment-worker")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init AWS clients with retry ---
	var awsClients *commonaws.Clients
	err = retryWithBackoff(func() error {
		var err error
		awsClients, err = commonaws.NewClients(ctx, cfg.AWS.Region)
		return err
	}, 5, 2*time.Second, zapLog, "AWS client initialization")
	if err != nil {
		zapLog.Fatal("aws clients failed after retries", zap.Error(err))
	}
	zapLog.Info("AWS clients initialized")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	requestQueue := queue.NewClient(awsClients.SQS, cfg.AWS.SQS.QueueURL, log)
	searchIndex := search.NewIndex(esClient.Client, cfg.Database.Elasticsearch.Index, log)
	catalogStore := catalog.NewStore(awsClients.DynamoDB, cfg.AWS.DynamoDB.RestaurantsTable, log)
	mailer := notify.NewMailer(awsClients.SES, cfg.AWS.SES.Sender, cfg.AWS.SES.TestRecipient, log)

	workerConfig := &fulfillment.Config{
		Timeout:        config.GetDuration(cfg.Fulfillment.Timeout),
		CandidateLimit: cfg.Fulfillment.CandidateLimit,
		MinCandidates:  cfg.Fulfillment.MinCandidates,
		SampleSize:     cfg.Fulfillment.SampleSize,
		EmailSubject:   cfg.Fulfillment.EmailSubject,
	}

	handler, err := fulfillment.NewHandler(workerConfig, requestQueue, searchIndex, catalogStore, mailer, log)
	if err != nil {
		zapLog.Fatal("fulfillment handler init failed", zap.Error(err))
	}

	// --- Metrics endpoint ---
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddress, Handler: mux}
	go func() {
		zapLog.Info("Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Poll loop: at most one execution per tick ---
	pollInterval := config.GetDuration(cfg.Fulfillment.PollInterval)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	zapLog.Info("Polling for dining requests", zap.Duration("interval", pollInterval))

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			processed, err := handler.RunOnce(ctx)
			if err != nil {
				// No internal retry: the message stays queued and comes
				// back via redelivery.
				obs.RecordRequestProcessed(ctx, "error")
				obs.RecordRequestDuration(ctx, time.Since(start), "error")
				zapLog.Error("fulfillment execution failed", zap.Error(err))
				continue
			}
			if processed {
				obs.RecordRequestProcessed(ctx, "success")
				obs.RecordRequestDuration(ctx, time.Since(start), "success")
				zapLog.Debug("fulfillment execution complete")
			}

		case <-stop:
			zapLog.Info("Shutting down fulfillment worker...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				zapLog.Error("metrics server shutdown failed", zap.Error(err))
			}
			zapLog.Info("Fulfillment worker stopped")
			return
		}
	}
}
