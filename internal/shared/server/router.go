package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venturesight-backend/internal/assistant"
	"venturesight-backend/internal/council"
	"venturesight-backend/internal/decks"
	"venturesight-backend/internal/rag"
	"venturesight-backend/internal/shared/config"
	"venturesight-backend/internal/shared/metrics"
	"venturesight-backend/internal/shared/server/middleware"
	"venturesight-backend/internal/shared/server/respond"
	"venturesight-backend/internal/thesis"
)

// RouterDeps carries the handlers the router registers.
type RouterDeps struct {
	Config           config.Config
	DeckHandler      *decks.Handler
	CouncilHandler   *council.Handler
	RagHandler       *rag.Handler
	ThesisHandler    *thesis.Handler
	AssistantHandler *assistant.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.Use(middleware.Auth(deps.Config.Env))

	if deps.DeckHandler != nil {
		deps.DeckHandler.RegisterRoutes(api)
	}
	if deps.CouncilHandler != nil {
		deps.CouncilHandler.RegisterRoutes(api)
	}
	if deps.RagHandler != nil {
		deps.RagHandler.RegisterRoutes(api)
	}
	if deps.ThesisHandler != nil {
		deps.ThesisHandler.RegisterRoutes(api)
	}
	if deps.AssistantHandler != nil {
		deps.AssistantHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
