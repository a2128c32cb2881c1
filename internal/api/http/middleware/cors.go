package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"withdrawal-service/internal/config"
)

// CORS builds the cross-origin policy of the withdrawal API. Unset lists fall back to
// the methods and headers the API actually serves.
func CORS(cfg config.CORS) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.MaxAge = cfg.MaxAge

	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}

	if len(cfg.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowHeaders
	}

	corsConfig.ExposeHeaders = cfg.ExposeHeaders

	// a wildcard origin cannot be combined with credentials
	if cfg.AllowAllOrigins || len(cfg.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowOrigins
		corsConfig.AllowCredentials = cfg.AllowCredentials
	}

	return cors.New(corsConfig)
}
