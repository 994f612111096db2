package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skeebs10/settlr/internal/auth"
	"github.com/skeebs10/settlr/internal/models"
)

const contextClaimsKey = "session_claims"

// RequestLogger logs one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// AuthRequired validates the bearer token and stores its claims on the
// context. The token may also arrive as a query parameter for websocket
// clients, which cannot set headers.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, auth.ErrMissingToken)
			return
		}

		claims, err := s.jwt.Validate(token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextClaimsKey, claims)
		c.Next()
	}
}

// RequireStaff rejects non-staff sessions.
func (s *Server) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionClaims(c).Role != models.RoleStaff {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireCheckAccess binds guest sessions to the check they joined. Staff
// sessions can reach any check.
func (s *Server) RequireCheckAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := sessionClaims(c)
		if claims.Role != models.RoleStaff && claims.TabID != c.Param("id") {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return c.Query("token")
}

func sessionClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(contextClaimsKey)
	if !ok {
		return &auth.Claims{}
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return &auth.Claims{}
	}
	return claims
}
