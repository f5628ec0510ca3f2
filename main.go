package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contentpulse/backend/analyzer"
	"github.com/contentpulse/backend/corpus"
	"github.com/contentpulse/backend/logging"
	"github.com/contentpulse/backend/middleware"
	"github.com/contentpulse/backend/stats"
)

func loadEnv(logger zerolog.Logger) {
	// Try .env.development first (local development), then the regular .env.
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			logger.Debug().Msg("no .env file found, using environment variables")
		}
	}
}

func setupGinMode() {
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// buildCorpus wires the corpus repository: postgres when DATABASE_URL is
// set, otherwise an empty in-memory store, with an optional redis
// read-through cache in front when REDIS_ADDR is set.
func buildCorpus(logger zerolog.Logger, statsStorage *stats.Storage) (corpus.Repository, func()) {
	var repo corpus.Repository
	cleanup := func() {}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open database")
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		repo = corpus.NewPostgres(db)
		cleanup = func() { db.Close() }
		logger.Info().Msg("corpus backed by postgres")
	} else {
		logger.Warn().Msg("DATABASE_URL not set; link suggestions will use an empty in-memory corpus")
		repo = corpus.NewMemory()
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		repo = corpus.NewCached(repo, client, 5*time.Minute, statsStorage)
		inner := cleanup
		cleanup = func() {
			client.Close()
			inner()
		}
		logger.Info().Str("addr", addr).Msg("corpus cache backed by redis")
	}

	return repo, cleanup
}

func main() {
	logger := logging.Setup()
	loadEnv(logger)
	setupGinMode()

	statsStorage, err := stats.NewStorage(getenvDefault("DATA_DIR", "./data"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize stats storage")
	}

	repo, closeCorpus := buildCorpus(logger, statsStorage)
	defer closeCorpus()

	engine := analyzer.New(repo, analyzer.DefaultConfig(), statsStorage, logger)
	rateLimiter := middleware.NewRateLimiter(2, 5) // 2 requests per second, bursts of 5

	r := gin.New()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(rateLimiter.RateLimit())
	r.Use(corsMiddleware())
	r.Use(middleware.Stats(statsStorage))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/analyze", analyzeHandler(engine))

		api.GET("/statistics", func(c *gin.Context) {
			c.JSON(http.StatusOK, statsStorage.Snapshot(os.Getenv("DEV_MODE") == "true"))
		})

		api.GET("/cache", func(c *gin.Context) {
			c.JSON(http.StatusOK, engine.GetCacheStats())
		})
	}

	srv := &http.Server{
		Addr:    ":" + getenvDefault("PORT", "8082"),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := engine.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("analyzer shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

type analyzeRequest struct {
	Content           *string  `json:"content" binding:"required"`
	Title             string   `json:"title"`
	ContentType       string   `json:"contentType"`
	TargetKeywords    []string `json:"targetKeywords"`
	ExcludeDocumentID string   `json:"excludeDocumentId"`
}

func analyzeHandler(engine *analyzer.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "request body must include a content field",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		result, err := engine.Analyze(ctx, *req.Content, analyzer.Options{
			Title:             req.Title,
			ContentType:       req.ContentType,
			TargetKeywords:    req.TargetKeywords,
			ExcludeDocumentID: req.ExcludeDocumentID,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "failed to analyze content: " + err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
