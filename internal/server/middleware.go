package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const ownerKey = "waypoint.owner"

// CORS allows the configured browser origins to call the API.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", OwnerHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestLogger logs one line per request at a level chosen by status.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if owner := c.GetString(ownerKey); owner != "" {
			attrs = append(attrs, "owner_id", owner)
		}
		switch {
		case status >= 500:
			log.Error("http request", attrs...)
		case status >= 400:
			log.Warn("http request", attrs...)
		default:
			log.Info("http request", attrs...)
		}
	}
}

// RequireOwner resolves the request owner. With auth configured a valid
// bearer token is mandatory; otherwise the owner header is trusted and
// defaultOwner fills in when it is absent.
func RequireOwner(auth *TokenAuth, defaultOwner string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
			if owner == "" {
				owner = defaultOwner
			}
			if owner == "" {
				respondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
				return
			}
			c.Set(ownerKey, owner)
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
			return
		}
		owner, err := auth.ParseOwner(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "unauthorized", err)
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}
