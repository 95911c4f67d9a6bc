package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-identity-service/internal/config"
	"github.com/pribylovaa/go-identity-service/internal/oauth2"
	"github.com/pribylovaa/go-identity-service/internal/queue"
	"github.com/pribylovaa/go-identity-service/internal/service"
	"github.com/pribylovaa/go-identity-service/internal/storage"
	"github.com/pribylovaa/go-identity-service/internal/storage/minio"
	"github.com/pribylovaa/go-identity-service/internal/storage/postgres"
	"github.com/pribylovaa/go-identity-service/internal/token"
	identityhttp "github.com/pribylovaa/go-identity-service/internal/transport/http"
	"github.com/pribylovaa/go-identity-service/migrations"
)

// Константы для определения окружения.
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
	log.Info("starting identity-service", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Миграции и подключение к БД с таймаутом.
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

	tokens, err := token.New(cfg.JWT)
	if err != nil {
		log.Error("token_manager_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// Продюсер событий. Очередь может быть не сконфигурирована в local —
	// сервис тогда стартует без отправки событий.
	var producer queue.Producer
	if len(cfg.AWS.Jobs) > 0 {
		sqsClient, err := queue.NewSQSClient(rootCtx, cfg.AWS)
		if err != nil {
			log.Error("sqs_client_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		producer = queue.NewSQSProducer(sqsClient, cfg.AWS.Jobs)
		log.Info("sqs_producer_initialized")
	} else {
		log.Warn("sqs_jobs_not_configured")
	}

	// Хранилище аватаров. Отсутствие endpoint — сервис без аватаров.
	var avatars storage.AvatarsStorage
	if cfg.S3.Endpoint != "" {
		s3Ctx, s3Cancel := context.WithTimeout(rootCtx, 10*time.Second)
		av, err := minio.New(s3Ctx, cfg.S3)
		s3Cancel()
		if err != nil {
			log.Error("avatars_storage_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		avatars = av
		log.Info("avatars_storage_initialized")
	} else {
		log.Warn("avatars_storage_not_configured")
	}

	oauthClient := oauth2.New(cfg.OAuth2)

	srvc := service.New(cfg, str, tokens, producer, oauthClient, avatars)
	log.Info("service_initialized")

	apiHandler := identityhttp.NewRouter(srvc, tokens, identityhttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
	})

	var ready int32 // 0 — not ready; 1 — ready

	// Служебный HTTP: liveness/readiness/метрики.
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Addr(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics_listen_start", slog.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}()

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           apiHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("identity_service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	_ = metricsSrv.Shutdown(context.Background())

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
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
