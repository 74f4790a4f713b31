package auth

import (
	"net/http"
	"strings"

	"house-hunter/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"

// RequireAccessToken verifies a bearer token and binds its claims into the request context.
// It never looks at what the caller asks for; ownership checks belong to internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(authorizationHeader)
		if raw == "" {
			Abort(c, http.StatusUnauthorized, MsgUnauthorizedAccess)
			return
		}

		// "Bearer <token>"; anything without a second field verifies as an empty token.
		var tok string
		if fields := strings.Fields(raw); len(fields) > 1 {
			tok = fields[1]
		}

		claims, err := m.Verify(tok, m.Now())
		if err != nil {
			logger.FromGin(c).Debug("token rejected", "err", err)
			Abort(c, http.StatusForbidden, MsgForbiddenToken)
			return
		}

		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}
