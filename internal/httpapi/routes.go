package httpapi

import (
	"house-hunter/internal/auth"
	"house-hunter/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Register wires the route table. issueLimiter may be nil.
//
// Guard chains:
//   - dashboard reads: token, then ownership (hard deny)
//   - dashboard writes: token, ownership (hard deny), then role capability
//   - role check: token, then ownership (soft deny with all-false capabilities)
func (h Handlers) Register(r gin.IRouter, issueLimiter gin.HandlerFunc) {
	guards := rbac.Guards{Resolver: h.Roles}
	if h.Audit != nil {
		guards.Audit = h.Audit
	}
	authMW := auth.RequireAccessToken(h.Auth)
	hardDeny := rbac.DenyWithError{}

	// public
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/houses", h.ListHouses)
	r.GET("/houses/:id", h.GetHouse)

	jwtChain := []gin.HandlerFunc{}
	if issueLimiter != nil {
		jwtChain = append(jwtChain, issueLimiter)
	}
	r.POST("/jwt", append(jwtChain, h.IssueToken)...)

	// users
	r.PUT("/users", authMW, guards.RequireOwner(rbac.FromJSONField("email"), hardDeny), h.UpsertUser)
	r.GET("/users/role/:email", authMW,
		guards.RequireOwner(rbac.FromParam("email"), rbac.DenyWithDefaultBody{Body: rbac.Capabilities{}}),
		h.UserRole)

	// dashboard
	dash := r.Group("/dashboard")
	dash.Use(authMW)
	{
		ownerQuery := guards.RequireOwner(rbac.FromQuery("email"), hardDeny)
		isOwner := guards.RequireCapability(rbac.CapabilityOwner)
		isRenter := guards.RequireCapability(rbac.CapabilityRenter)

		dash.GET("/myhouses", ownerQuery, h.MyHouses)
		dash.POST("/houses", guards.RequireOwner(rbac.FromJSONField("ownerEmail"), hardDeny), isOwner, h.CreateHouse)
		dash.PATCH("/houses/:id", ownerQuery, isOwner, h.UpdateHouse)
		dash.DELETE("/houses/:id", ownerQuery, isOwner, h.DeleteHouse)

		dash.GET("/mybookings", ownerQuery, h.MyBookings)
		dash.POST("/bookings", guards.RequireOwner(rbac.FromJSONField("renterEmail"), hardDeny), isRenter, h.CreateBooking)
		dash.DELETE("/bookings/:id", ownerQuery, isRenter, h.CancelBooking)
	}
}
