package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/labelly/labelly-server/internal/application"
	appalternatives "github.com/labelly/labelly-server/internal/application/alternatives"
	appscans "github.com/labelly/labelly-server/internal/application/scans"
	"github.com/labelly/labelly-server/internal/config"
	domai "github.com/labelly/labelly-server/internal/domain/ai"
	domalts "github.com/labelly/labelly-server/internal/domain/alternatives"
	domauth "github.com/labelly/labelly-server/internal/domain/auth"
	domscans "github.com/labelly/labelly-server/internal/domain/scans"
	aiopenai "github.com/labelly/labelly-server/internal/infra/ai/openai"
	"github.com/labelly/labelly-server/internal/infra/ai/perplexity"
	"github.com/labelly/labelly-server/internal/infra/auth/localjwt"
	"github.com/labelly/labelly-server/internal/infra/auth/supabase"
	mysqlp "github.com/labelly/labelly-server/internal/infra/db/mysql"
	postgresp "github.com/labelly/labelly-server/internal/infra/db/postgres"
	"github.com/labelly/labelly-server/internal/infra/httpserver"
	minioStore "github.com/labelly/labelly-server/internal/infra/storage"
	"github.com/labelly/labelly-server/internal/logging"
	"github.com/labelly/labelly-server/internal/middleware"
)

func main() {
	// local development convenience, absent in production
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// connect document store
	var db *sql.DB
	var scanRepo domscans.Repository
	var altRepo domalts.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatal("mysql connect error", zap.Error(err))
		}
		scanRepo = mysqlp.NewScanRepository(db)
		altRepo = mysqlp.NewAlternativesRepository(db)
	default:
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal("postgres connect error", zap.Error(err))
		}
		scanRepo = postgresp.NewScanRepository(db)
		altRepo = postgresp.NewAlternativesRepository(db)
	}
	defer db.Close()

	// identity verification: local HS256 when the secret is configured,
	// otherwise a per-request call to the provider
	var verifier domauth.Verifier
	if cfg.Supabase.JWTSecret != "" {
		verifier = localjwt.NewVerifier(cfg.Supabase.JWTSecret)
	} else {
		verifier = supabase.NewVerifier(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	}

	// model provider
	var aiClient domai.Client
	switch cfg.AI.Provider {
	case "openai":
		c := aiopenai.NewClient(cfg.AI.OpenAIKey, cfg.AI.OpenAIModel)
		c.Timeout = time.Duration(cfg.AI.TimeoutSeconds) * time.Second
		aiClient = c
	default:
		c := perplexity.NewClient(cfg.AI.APIKey, cfg.AI.Model)
		c.Timeout = time.Duration(cfg.AI.TimeoutSeconds) * time.Second
		c.SearchContextSize = cfg.AI.SearchContextSize
		aiClient = c
	}

	// optional label-image archive
	var images domscans.ImageStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		images = store
	}

	scansSvc := &appscans.Service{
		Repo:   scanRepo,
		AI:     aiClient,
		Images: images,
		Clock:  application.SystemClock{},
		Log:    logger,
	}
	altSvc := &appalternatives.Service{
		Repo:  altRepo,
		AI:    aiClient,
		Clock: application.SystemClock{},
		Log:   logger,
	}

	readiness := middleware.ReadinessHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	})

	handler := httpserver.NewRouter(scansSvc, altSvc, verifier, readiness, logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		// write timeout stays above the model-call timeout so slow analyses
		// are not cut off mid-response
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.AI.TimeoutSeconds+15) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
