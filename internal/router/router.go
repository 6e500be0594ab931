package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studybuddy/internal/config"
	"studybuddy/internal/handler"
	"studybuddy/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	log zerolog.Logger,
	studyH *handler.StudyHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(handler.MethodNotAllowed)

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyMB << 20))
	r.Use(middleware.Subject())

	api := r.Group("/api")

	// Health checks
	api.GET("/health", healthH.Liveness)
	api.GET("/ready", healthH.Readiness)

	api.POST("/chat", studyH.Chat)
	api.POST("/quiz", studyH.Quiz)
	api.POST("/schedule", studyH.Schedule)

	return r
}
