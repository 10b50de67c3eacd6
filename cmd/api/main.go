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

	"github.com/go-chi/chi/v5"

	"github.com/microloan-ai/risk-api/internal/application"
	appanalysis "github.com/microloan-ai/risk-api/internal/application/analysis"
	appdecision "github.com/microloan-ai/risk-api/internal/application/decision"
	appfeedback "github.com/microloan-ai/risk-api/internal/application/feedback"
	appreasoning "github.com/microloan-ai/risk-api/internal/application/reasoning"
	apprules "github.com/microloan-ai/risk-api/internal/application/rules"
	appscoring "github.com/microloan-ai/risk-api/internal/application/scoring"
	"github.com/microloan-ai/risk-api/internal/config"
	domanalysis "github.com/microloan-ai/risk-api/internal/domain/analysis"
	domfeedback "github.com/microloan-ai/risk-api/internal/domain/feedback"
	domrules "github.com/microloan-ai/risk-api/internal/domain/rules"
	aiclient "github.com/microloan-ai/risk-api/internal/infra/ai/openai"
	mysqlp "github.com/microloan-ai/risk-api/internal/infra/db/mysql"
	postgresp "github.com/microloan-ai/risk-api/internal/infra/db/postgres"
	"github.com/microloan-ai/risk-api/internal/infra/facts"
	"github.com/microloan-ai/risk-api/internal/infra/httpserver"
	reportrender "github.com/microloan-ai/risk-api/internal/infra/report"
	minioStore "github.com/microloan-ai/risk-api/internal/infra/storage"
	"github.com/microloan-ai/risk-api/internal/middleware"
)

type repositories struct {
	runs     domanalysis.Repository
	reports  domanalysis.ReportRepository
	rules    domrules.Repository
	feedback domfeedback.Repository
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	db, repos, err := connectDB(ctx, cfg)
	if err != nil {
		log.Fatalf("database connect error: %v", err)
	}
	defer db.Close()

	// object storage for rendered reports
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	rulesSvc := apprules.NewService(repos.rules)
	if err := rulesSvc.Load(ctx); err != nil {
		log.Fatalf("rules load error: %v", err)
	}

	analysisSvc := appanalysis.NewService(appanalysis.Service{
		Repo:    repos.runs,
		Reports: repos.reports,
		Facts:   facts.NewClient(cfg.Facts.SearchURL, cfg.Facts.UDFURL, cfg.Facts.Token),
		Rules:   rulesSvc,
		Scoring: &appscoring.Engine{
			RawMin: cfg.Scoring.RawMin,
			RawMax: cfg.Scoring.RawMax,
		},
		Reasoner: &appreasoning.Service{
			Client:  aiclient.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model),
			Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
			Retries: cfg.LLM.MaxRetries,
			Backoff: time.Duration(cfg.LLM.BackoffSeconds) * time.Second,
		},
		Synth: &appdecision.Synthesizer{
			ApproveBelow: cfg.Scoring.ApproveBelow,
			DenyAt:       cfg.Scoring.DenyAt,
		},
		Renderer:       reportrender.NewRenderer(store),
		Clock:          application.SystemClock{},
		Metrics:        middleware.PipelineMetrics{},
		Feedback:       repos.feedback,
		ReportAttempts: cfg.Reporting.MaxAttempts,
	})

	feedbackSvc := &appfeedback.Service{
		Repo:    repos.feedback,
		Runs:    repos.runs,
		Reports: repos.reports,
		Clock:   application.SystemClock{},
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage":  middleware.CheckFunc(store.Ping),
	}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Mount("/", httpserver.NewRouter(analysisSvc, rulesSvc, feedbackSvc, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// Write timeout stays generous so event streams can outlive slow
		// pipelines.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, repositories, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, repositories{}, err
		}
		return db, repositories{
			runs:     postgresp.NewAnalysisRepository(db),
			reports:  postgresp.NewReportRepository(db),
			rules:    postgresp.NewRuleRepository(db),
			feedback: postgresp.NewFeedbackRepository(db),
		}, nil
	case "mysql", "":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, repositories{}, err
		}
		return db, repositories{
			runs:     mysqlp.NewAnalysisRepository(db),
			reports:  mysqlp.NewReportRepository(db),
			rules:    mysqlp.NewRuleRepository(db),
			feedback: mysqlp.NewFeedbackRepository(db),
		}, nil
	default:
		return nil, repositories{}, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
