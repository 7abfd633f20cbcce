package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/prepview/prepview/config"
	"github.com/prepview/prepview/internal/api/handlers"
	"github.com/prepview/prepview/internal/api/routes"
	"github.com/prepview/prepview/internal/auth"
	"github.com/prepview/prepview/internal/cache"
	"github.com/prepview/prepview/internal/events"
	"github.com/prepview/prepview/internal/logger"
	"github.com/prepview/prepview/internal/providers/llm"
	"github.com/prepview/prepview/internal/providers/stt"
	"github.com/prepview/prepview/internal/providers/tts"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
	"github.com/prepview/prepview/internal/services"
	"github.com/prepview/prepview/internal/session"
	"github.com/prepview/prepview/internal/storage"
	"github.com/prepview/prepview/internal/workers"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB is the durable store and is required
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init failed")
	}
	defer func() { _ = config.MongoClient.Disconnect(context.Background()) }()
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("Mongo index setup failed")
	}
	log.Info("MongoDB connected")

	// Redis backs the rate limiter, stats cache and event stream; all
	// three degrade gracefully without it
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache/limits/events")
		config.RedisClient = nil
	} else {
		log.Info("Redis connected")
	}

	tokens, err := auth.NewManagerFromEnv()
	if err != nil {
		log.WithError(err).Fatal("JWT setup failed")
	}

	// The interviewer model is the core of the product; no fallback
	project := os.Getenv("GCP_PROJECT_ID")
	location := os.Getenv("GCP_LOCATION")
	if location == "" {
		location = "us-central1"
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
	}
	llmProvider, err := llm.NewVertexGemini(ctx, project, location, model)
	if err != nil {
		log.WithError(err).Fatal("Vertex AI init failed")
	}
	defer llmProvider.Close()

	// Speech providers and resume archival are optional features
	var sttProvider stt.Provider
	if p, err := stt.NewGoogleSpeech(ctx); err != nil {
		log.WithError(err).Warn("speech-to-text unavailable")
	} else {
		sttProvider = p
		defer p.Close()
	}
	var ttsProvider tts.Provider
	if p, err := tts.NewGoogleTTS(ctx); err != nil {
		log.WithError(err).Warn("text-to-speech unavailable")
	} else {
		ttsProvider = p
		defer p.Close()
	}
	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		if u, err := storage.NewGCSUploader(ctx, bucket); err != nil {
			log.WithError(err).Warn("resume archive storage unavailable")
		} else {
			uploader = u
			defer u.Close()
		}
	}

	db := config.MongoDatabase()
	interviewRepo := mongorepo.NewInterviewRepo(db)
	userRepo := mongorepo.NewUserRepo(db)

	store := session.NewStore(sessionTTL(), log)

	persist := &workers.PersistWorker{Interviews: interviewRepo, Logger: log}
	if err := persist.Start(ctx); err != nil {
		log.WithError(err).Fatal("persist worker init failed")
	}

	var pub events.Publisher = events.NopPublisher{}
	var statsCache cache.Cache
	if config.RedisClient != nil {
		pub = events.NewRedisPublisher(config.RedisClient, log)
		statsCache = cache.NewRedisCache(config.RedisClient)
	}

	interviewSvc := services.NewInterviewService(store, interviewRepo, llmProvider, persist, pub, log, 0)
	store.StartReaper(ctx, 5*time.Minute)

	authSvc := services.NewAuthService(userRepo, tokens)
	userSvc := services.NewUserService(userRepo, interviewRepo)
	statsSvc := services.NewStatsService(userRepo, interviewRepo, store, statsCache, log)
	speechSvc := services.NewSpeechService(sttProvider, ttsProvider)
	analysisSvc := services.NewAnalysisService(llmProvider, uploader, log)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      handlers.NewAuthHandler(authSvc, userSvc),
		Interview: handlers.NewInterviewHandler(interviewSvc, userSvc, speechSvc, log),
		User:      handlers.NewUserHandler(userSvc),
		Catalog:   handlers.NewCatalogHandler(),
		Speech:    handlers.NewSpeechHandler(speechSvc, analysisSvc),
		Stats:     handlers.NewStatsHandler(statsSvc),
		WS:        handlers.NewWSHandler(interviewSvc, config.RedisClient, log),
		Tokens:    tokens,
		Redis:     config.RedisClient,
		Logger:    log,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown incomplete")
	}
}

func sessionTTL() time.Duration {
	if v := os.Getenv("SESSION_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return session.DefaultTTL
}
