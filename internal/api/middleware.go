package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/guestbook-api/internal/auth"
	"github.com/guestbook-api/internal/config"
	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/pkg/apperrors"
	"github.com/rs/zerolog"
)

const userContextKey = "guestbook_user"

// authMiddleware resolves the caller from a Bearer token or the session cookie
func authMiddleware(cfg config.AuthConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(cfg.CookieName); err == nil {
				token = cookie
			}
		}

		user, err := auth.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Rejected unauthenticated request")
			respondError(c, log, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// adminMiddleware allows only users listed in ADMIN_USER_IDS
func adminMiddleware(cfg config.AuthConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			respondError(c, log, apperrors.Unauthenticated("authentication required"))
			return
		}
		if !cfg.IsAdmin(user.ID) {
			log.Warn().Str("user_id", user.ID).Msg("Non-admin access to admin route")
			respondError(c, log, apperrors.Forbidden("admin access required"))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func currentUser(c *gin.Context) (models.UserRef, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return models.UserRef{}, false
	}
	user, ok := v.(models.UserRef)
	return user, ok
}
