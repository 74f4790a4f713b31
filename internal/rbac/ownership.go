package rbac

import (
	"context"
	"net/http"

	"house-hunter/internal/auth"
	"house-hunter/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// EmailSource extracts the email a request targets. An empty result never matches.
type EmailSource func(c *gin.Context) string

func FromParam(name string) EmailSource {
	return func(c *gin.Context) string { return c.Param(name) }
}

func FromQuery(name string) EmailSource {
	return func(c *gin.Context) string { return c.Query(name) }
}

// FromJSONField reads a top-level string field of a JSON body.
// The body is cached on the gin context; handlers must read it with ShouldBindBodyWith.
func FromJSONField(field string) EmailSource {
	return func(c *gin.Context) string {
		var body map[string]any
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			return ""
		}
		s, _ := body[field].(string)
		return s
	}
}

// DenyPolicy decides how an ownership mismatch is answered.
type DenyPolicy interface {
	deny(c *gin.Context)
}

// DenyWithError is the hard deny: 401 and no business payload.
type DenyWithError struct{}

func (DenyWithError) deny(c *gin.Context) {
	auth.Abort(c, http.StatusUnauthorized, auth.MsgUnauthorizedUser)
}

// DenyWithDefaultBody is the soft deny: 200 carrying Body.
type DenyWithDefaultBody struct {
	Body any
}

func (d DenyWithDefaultBody) deny(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusOK, d.Body)
}

// DenialLogger receives ownership denials. Failures are logged and ignored.
type DenialLogger interface {
	LogOwnershipDenial(ctx context.Context, actorEmail, targetEmail, method, route, ip string) error
}

// Guards bundles the authorization middlewares that need shared collaborators.
// Both fields are optional; RequireCapability needs a Resolver.
type Guards struct {
	Resolver *Resolver
	Audit    DenialLogger
}

// RequireOwner must run after auth.RequireAccessToken. It lets the request through
// only when the verified email equals the email the request targets.
func (g Guards) RequireOwner(src EmailSource, policy DenyPolicy) gin.HandlerFunc {
	if policy == nil {
		policy = DenyWithError{}
	}
	return func(c *gin.Context) {
		actor, err := auth.Email(c.Request.Context())
		if err != nil {
			auth.Abort(c, http.StatusUnauthorized, auth.MsgUnauthorizedAccess)
			return
		}

		target := src(c)
		if target == "" || target != actor {
			g.recordDenial(c, actor, target)
			policy.deny(c)
			return
		}
		c.Next()
	}
}

// RequireOwner is Guards{}.RequireOwner without auditing.
func RequireOwner(src EmailSource, policy DenyPolicy) gin.HandlerFunc {
	return Guards{}.RequireOwner(src, policy)
}

func (g Guards) recordDenial(c *gin.Context, actor, target string) {
	log := logger.FromGin(c)
	route := c.FullPath()
	log.Warn("ownership denied", "actor", actor, "target", target, "route", route)

	if g.Audit == nil {
		return
	}
	if err := g.Audit.LogOwnershipDenial(c.Request.Context(), actor, target, c.Request.Method, route, c.ClientIP()); err != nil {
		log.Error("audit ownership denial failed", "err", err)
	}
}
