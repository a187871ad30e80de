package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaevor/go-nanoid"
	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/logging"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
)

const (
	requestIDKey = "request_id"
	adminKey     = "admin"

	requestIDLength = 21
)

// corsMiddleware lets browser clients on any origin call the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, X-Client-Info, apikey")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware keeps a caller-supplied X-Request-ID or assigns one.
func requestIDMiddleware() (gin.HandlerFunc, error) {
	generate, err := nanoid.Standard(requestIDLength)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = generate()
		}
		c.Set(requestIDKey, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}, nil
}

// accessLogMiddleware logs every request and records its latency.
func (s *Server) accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		s.metrics.ObserveHTTP(c.Request.Method, route, status, elapsed)
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
		)
	}
}

// adminMiddleware rejects requests without a valid platform admin bearer
// token and stores the admin identity in the context.
func (s *Server) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := s.admins.VerifyAdmin(c.Request.Context(), c.GetHeader(common.AuthorizationHeaderName))
		if err != nil {
			s.fail(c, common.ErrorUnauthorized)
			return
		}
		c.Set(adminKey, admin)
		c.Next()
	}
}

func adminFrom(c *gin.Context) *auth.Admin {
	return c.MustGet(adminKey).(*auth.Admin)
}
