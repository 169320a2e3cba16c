package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	if len(h.cfg.APIKeys) > 0 {
		api.Use(APIKeyAuthMiddleware(h.cfg, h.logger))
	}

	// Открытые маршруты
	api.POST("/session", h.createSession)
	api.POST("/profiles", h.registerProfile)
	api.GET("/resources", h.listResources)
	api.GET("/system/health", h.healthCheck)

	// Маршруты, требующие сессии
	authed := api.Group("", h.SessionMiddleware())
	{
		authed.GET("/session", h.getSession)
		authed.GET("/profiles/:id", h.getProfile)

		authed.GET("/responders", h.listResponders)
		authed.PUT("/responders/me/availability", h.setAvailability)

		incidents := authed.Group("/incidents")
		{
			incidents.POST("", h.createIncident)
			incidents.GET("", h.listIncidents)
			incidents.GET("/:id", h.getIncident)
			incidents.POST("/:id/accept", h.acceptIncident)
			incidents.POST("/:id/updates", h.submitUpdate)
			incidents.PUT("/:id/status", h.setStatus)
			incidents.POST("/:id/reopen", h.reopenIncident)
			incidents.POST("/:id/assign", h.assignResponder)
		}

		authed.GET("/dashboard/stats", h.getStats)
		authed.GET("/feeds/:name", h.streamFeed)
	}
}
