package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tazhibayda/chat-service/internal/repo"
)

func NewRouter(h *Handler, jwtSecret string, rds *repo.Redis, rlPerMin int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Metrics())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// signature-verified, no user session
	r.POST("/api/clerk/webhook", h.ClerkWebhook)

	api := r.Group("/api/chat", Identity(jwtSecret), RateLimit(rds, rlPerMin))
	{
		api.POST("/create", h.CreateChat)
		api.GET("/get", h.GetChats)
		api.POST("/rename", h.RenameChat)
		// POST with a body; the original used GET here, which not every
		// client or proxy forwards intact
		api.POST("/delete", h.DeleteChat)
		api.POST("/message", h.AppendMessage)
	}
	return r
}
