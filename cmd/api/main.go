package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/mediscan-ai/internal/application"
	appanalyze "github.com/bryanwahyu/mediscan-ai/internal/application/analyze"
	appenhance "github.com/bryanwahyu/mediscan-ai/internal/application/enhance"
	"github.com/bryanwahyu/mediscan-ai/internal/config"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/diagnosis"
	domain "github.com/bryanwahyu/mediscan-ai/internal/domain/enhance"
	"github.com/bryanwahyu/mediscan-ai/internal/domain/lesion"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/ai/groq"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/classifier"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/fallback"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/httpserver"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/keywords/keywordai"
	"github.com/bryanwahyu/mediscan-ai/internal/infra/search/tavily"
	minioStore "github.com/bryanwahyu/mediscan-ai/internal/infra/storage"
	"github.com/bryanwahyu/mediscan-ai/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// adapters jadi nil kalau API key kosong, orchestrator otomatis pakai fallback
	var narrative domain.NarrativeGenerator
	if cfg.Narrative.APIKey != "" {
		narrative = groq.NewClient(cfg.Narrative.APIKey, cfg.Narrative.BaseURL, cfg.Narrative.Model)
	} else {
		log.Println("GROQ_API_KEY not set, narrative generation uses the fallback library")
	}

	var resources domain.ResourceSearcher
	if cfg.Resources.APIKey != "" {
		resources = tavily.NewClient(cfg.Resources.APIKey, cfg.Resources.BaseURL,
			cfg.Resources.MaxResults, cfg.Resources.TrustedDomains)
	} else {
		log.Println("TAVILY_API_KEY not set, resource search uses the fallback library")
	}

	var keywords domain.KeywordExtractor
	if cfg.Keywords.APIKey != "" {
		keywords = keywordai.NewClient(cfg.Keywords.APIKey, cfg.Keywords.BaseURL)
	} else {
		log.Println("KEYWORD_AI_KEY not set, keyword extraction uses the fallback library")
	}

	// init model
	model := &classifier.Mock{}
	checkers := map[string]middleware.HealthChecker{
		"classifier": middleware.CheckerFunc(func(context.Context) error {
			if model.Info().Classes == 0 {
				return fmt.Errorf("classifier reports no classes")
			}
			return nil
		}),
	}

	// init minio (optional archive)
	var archive diagnosis.ImageArchive
	if cfg.Minio.Enabled {
		store, serr := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if serr != nil {
			log.Fatalf("minio init error: %v", serr)
		}
		archive = store
		checkers["archive"] = middleware.CheckerFunc(store.Ping)
	}

	library := fallback.NewLibrary()

	// init services
	analyzeSvc := &appanalyze.Service{
		Classifier: model,
		Archive:    archive,
		Library:    library,
		Clock:      application.SystemClock{},
	}
	enhanceSvc := &appenhance.Service{
		Narrative: narrative,
		Resources: resources,
		Keywords:  keywords,
		Library:   library,
		Scorer:    lesion.NewScorer(cfg.Scorer.ConfidenceThreshold),
		Clock:     application.SystemClock{},
	}

	// init router
	handler := httpserver.NewRouter(analyzeSvc, enhanceSvc, httpserver.Options{
		APIKeys:      cfg.Auth.APIKeys,
		RateCapacity: cfg.Limits.RateCapacity,
		RateRefill:   cfg.Limits.RateRefillPerSec,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Timeouts:     cfg.Timeouts(),
		Checkers:     checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
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
