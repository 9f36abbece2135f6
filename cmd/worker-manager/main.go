// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"procurement-workers/internal/common/aws"
	"procurement-workers/internal/common/camunda"
	"procurement-workers/internal/common/config"
	"procurement-workers/internal/common/database"
	apperrors "procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/observability"
	"procurement-workers/internal/drafts"
	"procurement-workers/internal/evaluations"
	"procurement-workers/internal/search"
	"procurement-workers/pkg/registry"

	cde "procurement-workers/internal/workers/qualification/check-document-expiry"
	cvq "procurement-workers/internal/workers/qualification/compute-vendor-qualification"
	mvd "procurement-workers/internal/workers/qualification/manage-vendor-draft"
	rqe "procurement-workers/internal/workers/qualification/record-qualification-evaluation"
	rmd "procurement-workers/internal/workers/qualification/resolve-mandatory-documents"
	vvs "procurement-workers/internal/workers/qualification/validate-vendor-submission"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	loc, err := cfg.App.Location()
	if err != nil {
		zapLog.Fatal("invalid timezone", zap.Error(err))
	}

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()
	health := database.NewHealth(3 * time.Second)

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	health.Register("zeebe", zeebe)
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- PostgreSQL ---
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
	health.Register("postgres", pg)

	repo := evaluations.NewRepository(pg.DB)
	if err := repo.Migrate(ctx); err != nil {
		zapLog.Fatal("evaluation schema migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	health.Register("elasticsearch", esClient)

	indexer := search.NewIndexer(esClient.Client, cfg.Qualification.SearchIndex)
	if err := indexer.EnsureIndex(ctx); err != nil {
		zapLog.Fatal("search index setup failed", zap.String("index", indexer.Index()), zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully", zap.String("index", indexer.Index()))

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	health.Register("redis", rdb)
	zapLog.Info("Redis connected successfully")

	draftStore := drafts.NewRedisStore(rdb.Client, cfg.Qualification.DraftKeyPrefix, cfg.Qualification.DraftTTLDuration())

	// --- Notification clients ---
	notify := config.IsWorkerEnabled(cfg, cde.TaskType)
	var email cde.EmailSender
	if notify && cfg.Notifications.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		email = ses
	}
	var sms cde.SMSSender
	if notify && cfg.Notifications.SMS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SMS.SenderID)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		sms = sns
	}

	// --- Workers ---
	workers := camunda.NewRegistry(zeebe.GetClient(), obs, zapLog)
	timeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	{
		c := vvs.LoadConfig()
		c.Timeout = timeout(vvs.TaskType)
		c.Location = loc
		workers.Open(vvs.TaskType, config.GetWorkerConfig(cfg, vvs.TaskType), vvs.NewHandler(c, log))
	}
	{
		c := rmd.LoadConfig()
		c.Timeout = timeout(rmd.TaskType)
		workers.Open(rmd.TaskType, config.GetWorkerConfig(cfg, rmd.TaskType), rmd.NewHandler(c, log))
	}
	{
		c := cvq.LoadConfig()
		c.Timeout = timeout(cvq.TaskType)
		workers.Open(cvq.TaskType, config.GetWorkerConfig(cfg, cvq.TaskType), cvq.NewHandler(c, log))
	}
	{
		c := rqe.LoadConfig()
		c.Timeout = timeout(rqe.TaskType)
		workers.Open(rqe.TaskType, config.GetWorkerConfig(cfg, rqe.TaskType), rqe.NewHandler(c, repo, indexer, log))
	}
	{
		c := mvd.LoadConfig()
		c.Timeout = timeout(mvd.TaskType)
		workers.Open(mvd.TaskType, config.GetWorkerConfig(cfg, mvd.TaskType), mvd.NewHandler(c, draftStore, log))
	}
	{
		c := cde.LoadConfig()
		c.Timeout = timeout(cde.TaskType)
		c.Location = loc
		c.WarningDays = cfg.Qualification.ExpiryWarningDays
		c.EmailEnabled = cfg.Notifications.Email.Enabled
		c.SMSEnabled = cfg.Notifications.SMS.Enabled
		workers.Open(cde.TaskType, config.GetWorkerConfig(cfg, cde.TaskType), cde.NewHandler(c, email, sms, log))
	}
	zapLog.Info("workers registered", zap.Strings("taskTypes", workers.TaskTypes()))
	checkActivityRegistry(cfg.App.RegistryPath, workers.TaskTypes(), zapLog)

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              cfg.Observability.MetricsAddr,
		Handler:           newMux(health),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// checkActivityRegistry warns when the registry handed to process designers
// disagrees with the workers actually opened.
func checkActivityRegistry(path string, opened []string, log *zap.Logger) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", path), zap.Error(err))
		return
	}
	if err := reg.Validate(apperrors.IsKnownBPMNCode); err != nil {
		log.Warn("activity registry is invalid", zap.String("path", path), zap.Error(err))
	}
	if missing := reg.Missing(opened); len(missing) > 0 {
		log.Warn("workers missing from activity registry", zap.Strings("taskTypes", missing))
	}
}

func newMux(health *database.Health) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks, err := health.Check(r.Context())
		status, code := "ready", http.StatusOK
		if err != nil {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
