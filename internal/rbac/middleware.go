package rbac

import (
	"errors"
	"net/http"

	"house-hunter/internal/auth"
	"house-hunter/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	MsgForbiddenAccess   = "forbidden access"
	MsgLookupUnavailable = "role lookup unavailable"
)

// RequireCapability resolves the caller's role fresh and requires cap.
// Chain it after auth.RequireAccessToken.
func (g Guards) RequireCapability(cap Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := auth.Email(c.Request.Context())
		if err != nil {
			auth.Abort(c, http.StatusUnauthorized, auth.MsgUnauthorizedAccess)
			return
		}

		caps, err := g.Resolver.Capabilities(c.Request.Context(), email)
		if err != nil {
			logger.FromGin(c).Error("role lookup failed", "err", err)
			status := http.StatusInternalServerError
			if errors.Is(err, ErrLookupUnavailable) {
				status = http.StatusServiceUnavailable
			}
			auth.Abort(c, status, MsgLookupUnavailable)
			return
		}

		if !caps.Has(cap) {
			auth.Abort(c, http.StatusForbidden, MsgForbiddenAccess)
			return
		}
		c.Next()
	}
}
