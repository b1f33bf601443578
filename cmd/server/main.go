package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ecothreads/threadscore/internal/adapters"
	"github.com/ecothreads/threadscore/internal/assess"
	"github.com/ecothreads/threadscore/internal/cache"
	"github.com/ecothreads/threadscore/internal/config"
	"github.com/ecothreads/threadscore/internal/errors"
	"github.com/ecothreads/threadscore/internal/monitoring"
	"github.com/ecothreads/threadscore/internal/pipeline"
	"github.com/ecothreads/threadscore/internal/ratelimit"
	"github.com/ecothreads/threadscore/internal/textile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(cfg.SlogLevel())
	metrics := monitoring.NewMetrics()

	if err := assess.ValidateWeights(); err != nil {
		logger.Error("scoring weights are inconsistent", "error", err)
		os.Exit(1)
	}

	table, err := textile.Load(cfg.ScorecardPath)
	if err != nil {
		logger.Error("failed to load material scorecard", "path", cfg.ScorecardPath, "error", err)
		os.Exit(1)
	}
	logger.Info("material scorecard loaded", "path", cfg.ScorecardPath, "materials", table.Len())

	scraper, directory, sentiment := buildCollaborators(cfg, logger)

	timeouts := pipeline.Timeouts{Scrape: cfg.Timeouts.Scrape, Source: cfg.Timeouts.Source}
	runner := pipeline.NewRunner(scraper, directory, sentiment, table, timeouts, logger, metrics)

	respCache := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	defer respCache.Close()

	redisClient, err := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		// Degraded but functional: the limiter falls back to in-memory.
		logger.Warn("redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	defer errors.SafeClose(redisClient, "redis client")

	limiter := ratelimit.NewLimiter(redisClient, ratelimit.Config{
		PerMinute: cfg.RateLimit.PerMinute,
		Burst:     cfg.RateLimit.Burst,
	}, metrics)

	if cfg.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &server{
		runner:    runner,
		table:     table,
		respCache: respCache,
		limiter:   limiter,
		metrics:   metrics,
		logger:    logger,
	}
	router := newRouter(s, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.SystemLogger("startup", "listening on port "+cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.SystemLogger("shutdown", "draining in-flight requests")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.SystemLogger("shutdown", "complete")
}

// buildCollaborators picks each collaborator implementation once at assembly:
// configured endpoints get HTTP clients, anything unconfigured gets the
// built-in offline implementation.
func buildCollaborators(cfg config.Config, logger *monitoring.Logger) (adapters.ProductScraper, adapters.ESGDirectory, adapters.SentimentScorer) {
	var scraper adapters.ProductScraper
	if cfg.UseFixtureScraper() {
		logger.Warn("no scraper endpoint configured, using fixture catalog")
		scraper = adapters.NewFixtureScraper()
	} else {
		scraper = adapters.NewAPIScraper(cfg.Scraper.Endpoint, cfg.Scraper.APIKey)
	}

	var directory adapters.ESGDirectory
	if cfg.UseFixtureDirectory() {
		logger.Warn("no ESG directory endpoint configured, using fixture directory")
		directory = adapters.NewFixtureESGDirectory()
	} else {
		directory = adapters.NewHTTPESGDirectory(cfg.Directory.Endpoint, cfg.Directory.APIKey)
	}

	var sentiment adapters.SentimentScorer
	if cfg.UseLexiconScorer() {
		logger.Warn("no sentiment endpoint configured, using lexicon scorer")
		sentiment = adapters.NewLexiconScorer()
	} else {
		sentiment = adapters.NewLLMClient(cfg.Sentiment.Endpoint, cfg.Sentiment.APIKey, cfg.Sentiment.Model)
	}

	return scraper, directory, sentiment
}
