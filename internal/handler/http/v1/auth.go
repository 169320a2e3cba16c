package v1

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// SessionHeader - заголовок с токеном сессии. Authorization занят API-ключом.
	SessionHeader = "X-Session-Token"

	profileKey = "session_profile"
)

// APIKeyAuthMiddleware - middleware для аутентификации по API-ключу
func APIKeyAuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			// Проверяем также заголовок Authorization: Bearer
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				apiKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if apiKey == "" {
			log.Warn("API key missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}

		if !slices.Contains(cfg.APIKeys, apiKey) {
			log.Warn("Invalid API key provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Next()
	}
}

// SessionMiddleware проверяет токен сессии и кладет актуальный профиль в контекст запроса.
// Для SSE токен можно передать параметром token, так как EventSource не задает заголовки.
func (h *Handler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := h.logger.WithField("middleware", "session")

		token := c.GetHeader(SessionHeader)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session token required"})
			return
		}

		claims, err := h.sessions.Parse(token)
		if err != nil {
			log.WithError(err).Warn("Invalid session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		// Профиль перечитывается, чтобы доступность и город были актуальны
		profile, err := h.profileService.GetProfile(c.Request.Context(), claims.ProfileID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session profile no longer exists"})
				return
			}
			log.WithError(err).Error("Failed to load session profile")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if profile.Role != claims.Role {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session role changed, sign in again"})
			return
		}

		c.Set(profileKey, *profile)
		c.Next()
	}
}

// sessionProfile возвращает профиль, сохраненный SessionMiddleware
func sessionProfile(c *gin.Context) models.Profile {
	profile, _ := c.MustGet(profileKey).(models.Profile)
	return profile
}
