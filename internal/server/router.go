package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Rudranshhhhh/Cybercoach/internal/config"
)

// NewRouter configures the Gin engine for the scoring service.
func NewRouter(h *Handler, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// If AllowedOrigins is set, restrict to that list; otherwise allow
	// all so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Session-ID", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(RequestIDMiddleware())

	router.GET("/", h.Health)

	quiz := router.Group("/api/quiz")
	{
		quiz.POST("/start", h.StartQuiz)
		quiz.GET("/question", h.GetQuestion)
		quiz.POST("/answer", h.SubmitAnswer)
		quiz.GET("/report", h.GetReport)
		quiz.GET("/progress", h.GetProgress)
	}

	return router
}
