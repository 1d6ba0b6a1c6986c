// cmd/dialog-server/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	commonaws "dining-concierge/internal/common/aws"
	"dining-concierge/internal/common/config"
	"dining-concierge/internal/common/database"
	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/common/observability"
	"dining-concierge/internal/dialog"
	"dining-concierge/internal/models"
	"dining-concierge/internal/preferences"
	"dining-concierge/internal/queue"
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

type server struct {
	handler *dialog.Handler
	logger  logger.Logger
	obs     *observability.Observability
	timeout time.Duration
}

func (s *server) handleDialog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event models.DialogEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid dialog event", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.handler.HandleTurn(ctx, &event)
	if err != nil {
		s.obs.RecordRequestProcessed(ctx, "error")
		s.obs.RecordRequestDuration(ctx, time.Since(start), "error")
		s.logger.WithError(err).Error("Dialog turn failed")
		http.Error(w, "dialog turn failed", http.StatusBadGateway)
		return
	}
	s.obs.RecordRequestProcessed(ctx, "success")
	s.obs.RecordRequestDuration(ctx, time.Since(start), "success")

	// Surface the stored preference-reuse notice at most once per session:
	// on any turn where the notice is not itself the outgoing message,
	// drop it from the attributes.
	if notice := resp.SessionAttributes[models.AttrReusedNotice]; notice != "" && notice != resp.Message {
		delete(resp.SessionAttributes, models.AttrReusedNotice)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleChat normalizes the inbound chat payload union before it is handed
// to the conversational engine. Unrecognized shapes are rejected, never
// probed.
func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	msg, err := models.ParseChatMessage(body)
	if err != nil {
		if errors.Is(err, models.ErrUnrecognizedChatPayload) {
			http.Error(w, "unrecognized chat payload shape", http.StatusBadRequest)
			return
		}
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"kind":      string(msg.Kind),
		"text":      msg.Text,
		"sessionId": msg.SessionID,
	})
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting dialog server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("dialog-server")
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

	// --- Init Redis preference cache (optional) ---
	var cache *redis.Client
	if cfg.Database.Redis.Address != "" {
		redisClient, _ := database.NewRedis(cfg.Database.Redis)
		if err := redisClient.Ping(ctx); err != nil {
			zapLog.Warn("redis unavailable, preference cache disabled", zap.Error(err))
		} else {
			cache = redisClient.Client
			defer redisClient.Close()
			zapLog.Info("Redis preference cache connected")
		}
	}

	prefStore := preferences.NewStore(
		awsClients.DynamoDB,
		cache,
		cfg.AWS.DynamoDB.PreferencesTable,
		time.Duration(cfg.Dialog.PreferenceCacheTTL)*time.Second,
		log,
	)
	requestQueue := queue.NewClient(awsClients.SQS, cfg.AWS.SQS.QueueURL, log)
	dialogHandler := dialog.NewHandler(prefStore, requestQueue, log)

	srv := &server{
		handler: dialogHandler,
		logger:  log,
		obs:     obs,
		timeout: config.GetDuration(cfg.Dialog.Timeout),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/dialog", srv.handleDialog)
	mux.HandleFunc("/v1/chat", srv.handleChat)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.DialogAddress,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.DialogAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down dialog server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Dialog server stopped")
}
