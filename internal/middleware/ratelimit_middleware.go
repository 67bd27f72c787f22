// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"fmt"
	"net/http"

	xerrors "fanbase-service/internal/pkg/errors"
	"fanbase-service/internal/pkg/ratelimit"
	"fanbase-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit throttles a route per caller. The caller is the authenticated
// identity, or the client IP before authentication. Limiter errors let the
// request through.
func RateLimit(limiter ratelimit.Limiter, scope string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := GetIdentityID(c)
		if !ok {
			subject = "ip:" + c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), fmt.Sprintf("%s:%s", scope, subject))
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request",
				zap.String("scope", scope),
				zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			response.Error(c, http.StatusTooManyRequests, "too many requests, try again later", xerrors.ErrRateLimited)
			return
		}

		c.Next()
	}
}
