package api

import (
	"net/http"

	agentDelivery "office-agent/internal/agent/delivery"
	authDelivery "office-agent/internal/auth/delivery"
	authUsecase "office-agent/internal/auth/usecase"
	"office-agent/pkg/config"
	"office-agent/pkg/logger"
	"office-agent/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by every delivery handler
type RouteRegistrar interface {
	RegisterRoutes(api *gin.RouterGroup)
}

// Routes are the feature handlers mounted under /api. Nil entries are skipped.
type Routes struct {
	Agent    *agentDelivery.AgentHandler
	FCM      *authDelivery.FCMHandler
	Mail     RouteRegistrar
	PDF      RouteRegistrar
	Scraper  RouteRegistrar
	Cron     RouteRegistrar
	Inbox    RouteRegistrar
	AI       RouteRegistrar
	Template RouteRegistrar
}

func (r Routes) protected() []RouteRegistrar {
	var out []RouteRegistrar
	if r.FCM != nil {
		out = append(out, r.FCM)
	}
	for _, h := range []RouteRegistrar{r.Mail, r.PDF, r.Scraper, r.Cron, r.Inbox, r.AI, r.Template} {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// corsMiddleware allows one configured origin with credentials. A wildcard
// setting answers with a literal "*" and never allows credentials.
func corsMiddleware(allowed string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowed == "" || allowed == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowed)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRoutes builds the gin engine
func SetupRoutes(cfg *config.Config, authUc authUsecase.AuthUsecase, routes Routes) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(), corsMiddleware(cfg.CORSOrigin))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Chat answers anonymous callers too, so they can be told to log in
		if routes.Agent != nil {
			chat := api.Group("")
			chat.Use(authDelivery.OptionalAuthMiddleware(authUc))
			routes.Agent.RegisterRoutes(chat)
		}

		protected := api.Group("")
		protected.Use(authDelivery.AuthMiddleware(authUc))
		for _, h := range routes.protected() {
			h.RegisterRoutes(protected)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("/ai", GetAISettings)
			settings.PUT("/ai", UpdateAISettings)
			settings.POST("/ai/test", CheckAIConnection)
		}
	}
	return r
}
