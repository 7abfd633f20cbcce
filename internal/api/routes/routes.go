package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/api/handlers"
	"github.com/prepview/prepview/internal/api/middleware"
	"github.com/prepview/prepview/internal/auth"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	User      *handlers.UserHandler
	Catalog   *handlers.CatalogHandler
	Speech    *handlers.SpeechHandler
	Stats     *handlers.StatsHandler
	WS        *handlers.WSHandler

	Tokens *auth.Manager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(d.Logger))

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	limit := func(name string, n int, window time.Duration) gin.HandlerFunc {
		return middleware.RateLimit(d.Redis, d.Logger, name, n, window)
	}

	api := r.Group("/api")

	// Public catalog and stats
	api.GET("/topics", d.Catalog.Topics)
	api.GET("/companies", d.Catalog.Companies)
	api.GET("/difficulties", d.Catalog.Difficulties)
	api.GET("/achievements", d.Catalog.Achievements)
	api.GET("/stats", d.Stats.Global)

	// Auth
	api.POST("/auth/register", limit("register", 5, time.Minute), d.Auth.Register)
	api.POST("/auth/login", limit("login", 10, time.Minute), d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)

	// Interview flow works for guests; a valid token attributes the
	// session to its user
	opt := api.Group("/")
	opt.Use(middleware.OptionalJWTAuth(d.Tokens))

	opt.POST("/interview/start", limit("start", 20, time.Minute), d.Interview.Start)
	opt.POST("/interview/:session_id/respond", limit("respond", 30, time.Minute), d.Interview.Turn)
	opt.POST("/interview/:session_id/end", d.Interview.End)
	opt.GET("/interview/:session_id/status", d.Interview.Status)
	opt.GET("/interview/:session_id/time", d.Interview.Time)
	opt.GET("/interview/:session_id/export", d.Interview.Export)
	opt.GET("/interview/:session_id/feedback", d.Interview.Feedback)
	opt.GET("/interview/:session_id/coaching", d.Interview.Coaching)

	opt.POST("/speech/tts", d.Speech.Synthesize)
	opt.POST("/speech/transcribe", d.Speech.Transcribe)
	opt.POST("/speech/resume", d.Speech.ParseResume)
	opt.POST("/speech/job", d.Speech.AnalyzeJob)

	// Protected routes (JWT)
	authed := api.Group("/")
	authed.Use(middleware.JWTAuth(d.Tokens))

	authed.POST("/interview/:session_id/claim", d.Interview.Claim)

	authed.GET("/auth/me", d.Auth.Me)
	authed.PUT("/auth/profile", d.Auth.UpdateProfile)
	authed.POST("/auth/change-password", d.Auth.ChangePassword)

	authed.GET("/user/settings", d.User.Settings)
	authed.PUT("/user/settings", d.User.UpdateSettings)
	authed.GET("/user/progress", d.User.Progress)
	authed.POST("/user/sync-xp", d.User.SyncXP)
	authed.GET("/user/history", d.User.History)
	authed.GET("/user/history/:interview_id", d.User.HistoryDetail)
	authed.DELETE("/user/history/:interview_id", d.User.DeleteInterview)
	authed.GET("/user/dashboard", d.User.Dashboard)

	// WebSocket event stream
	r.GET("/ws/interview/:session_id/events", d.WS.SessionEvents)
}
