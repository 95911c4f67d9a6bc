// identity-worker — консьюмер очередей событий: поднимает сконфигурированные
// реплики по каждому виду задач и обрабатывает события до сигнала остановки.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-identity-service/internal/config"
	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"
	"github.com/pribylovaa/go-identity-service/internal/processor"
	"github.com/pribylovaa/go-identity-service/internal/queue"
	"github.com/pribylovaa/go-identity-service/internal/storage/postgres"
	"github.com/pribylovaa/go-identity-service/migrations"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting identity-worker", "env", cfg.Env)

	if len(cfg.AWS.Jobs) == 0 {
		log.Error("no_jobs_configured")
		os.Exit(1)
	}

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	if err := migrations.Up(dbCtx, cfg.DB.DatabaseURL); err != nil {
		dbCancel()
		log.Error("migrations_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	str, err := postgres.New(dbCtx, cfg.DB)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()
	log.Info("postgres_connected")

	sqsClient, err := queue.NewSQSClient(rootCtx, cfg.AWS)
	if err != nil {
		log.Error("sqs_client_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	consumer := queue.NewConsumer(sqsClient, cfg.AWS.Jobs, processor.NewUserEventProcessor(str))

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics_listen_start", slog.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}()

	// По консьюмеру на каждый сконфигурированный вид задач.
	workerCtx := logctx.Into(rootCtx, log)

	var wg sync.WaitGroup
	for kind := range cfg.AWS.Jobs {
		wg.Add(1)

		go func(kind string) {
			defer wg.Done()

			if err := consumer.RunReplicas(workerCtx, kind); err != nil {
				log.Error("consumer_failed",
					slog.String("kind", kind),
					slog.String("err", err.Error()),
				)
			}
		}(kind)
	}

	atomic.StoreInt32(&ready, 1)
	log.Info("identity_worker_ready")

	<-rootCtx.Done()
	log.Info("shutdown_requested")

	atomic.StoreInt32(&ready, 0)

	wg.Wait()
	log.Info("consumers_stopped")

	_ = metricsSrv.Shutdown(context.Background())

	log.Info("service_stopped")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
