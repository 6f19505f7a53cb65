package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conambiente/conambiente-backend/internal/api"
	"github.com/conambiente/conambiente-backend/internal/auth"
	"github.com/conambiente/conambiente-backend/internal/config"
	"github.com/conambiente/conambiente-backend/internal/engine"
	"github.com/conambiente/conambiente-backend/internal/mail"
	"github.com/conambiente/conambiente-backend/internal/store"
	"github.com/conambiente/conambiente-backend/internal/upload"
	"github.com/conambiente/conambiente-backend/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize PostgreSQL
	pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()
	logger.Info("connected to PostgreSQL")

	if err := pgStore.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Initialize Redis
	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()
	logger.Info("connected to Redis")

	sender := newSender(ctx, cfg.Mail, logger)
	composer := mail.NewComposer(cfg.Mail.FromName)

	uploadStore, err := newUploadStore(ctx, cfg.Uploads)
	if err != nil {
		logger.Error("failed to initialize upload store", "error", err, "backend", cfg.Uploads.Backend)
		os.Exit(1)
	}
	uploader := upload.NewUploader(uploadStore)

	// Newsletter pipeline: fan-out -> redis queue -> dispatcher -> pool
	broadcaster := engine.NewBroadcaster(pgStore, redisStore.Client(), logger)
	deliverer := worker.NewDeliverer(sender, composer, redisStore.Client(), worker.DelivererConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		RatePerSecond: cfg.MailRatePerSecond,
		SendTimeout:   cfg.Mail.Timeout,
	}, logger)
	pool := worker.NewPool(cfg.NewsletterWorkers, deliverer, logger)
	pool.Start(context.Background())

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	dispatcher := worker.NewDispatcher(redisStore.Client(), pool, logger)
	go func() {
		defer close(dispatchDone)
		dispatcher.Start(dispatchCtx)
	}()

	router := api.NewRouter(api.Deps{
		News:        pgStore,
		Projects:    pgStore,
		Subscribers: pgStore,
		Announcer:   broadcaster,
		Auth:        auth.NewAuthenticator(cfg.AdminEmail, cfg.AdminPassword, cfg.JWTSecret),
		AdminEmail:  cfg.AdminEmail,
		Uploader:    uploader,
		Mail:        sender,
		Composer:    composer,
		Recipients: api.Recipients{
			Contact: cfg.Mail.ContactTo,
			PQR:     cfg.Mail.PQRTo,
			Work:    cfg.Mail.WorkTo,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		DBTimeout:      cfg.DBTimeout,
		Health: map[string]api.Pinger{
			"postgres": pgStore,
			"redis":    redisStore,
		},
		QueueDepth: func(ctx context.Context) (int64, error) {
			return engine.QueueDepth(ctx, redisStore.Client())
		},
		Logger: logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	broadcaster.Wait()
	stopDispatch()
	<-dispatchDone
	pool.Stop()

	logger.Info("server stopped")
}

// newSender builds the process-wide mail transport. A failed verify is
// logged only; the SMTP server may come up later.
func newSender(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) mail.Sender {
	if !cfg.Enabled {
		logger.Warn("MAIL_ENABLED=false, outbound mail is only logged")
		return mail.NewLogSender(logger)
	}
	if cfg.User == "" || cfg.Password == "" {
		logger.Warn("MAIL_USER or MAIL_PASS not set, outbound mail will likely fail")
	}

	sender := mail.NewSMTPSender(cfg, logger)

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := sender.Verify(verifyCtx); err != nil {
		logger.Error("mail server verification failed", "error", err, "host", cfg.Host, "port", cfg.Port)
	} else {
		logger.Info("mail server ready", "host", cfg.Host, "port", cfg.Port)
	}
	return sender
}

func newUploadStore(ctx context.Context, cfg config.UploadConfig) (upload.Store, error) {
	if cfg.Backend == "s3" {
		client, err := upload.NewMinioClient(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
		if err != nil {
			return nil, err
		}
		return upload.NewMinioStore(client, cfg.S3Bucket), nil
	}
	return upload.NewDiskStore(cfg.Dir)
}
