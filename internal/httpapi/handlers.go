package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"house-hunter/internal/audit"
	"house-hunter/internal/auth"
	"house-hunter/internal/houses"
	"house-hunter/internal/rbac"
	"house-hunter/internal/store"
	"house-hunter/internal/users"
	"house-hunter/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
// Authorization has already happened in the route's guard chain.
type Handlers struct {
	Auth   *auth.Manager
	Roles  *rbac.Resolver
	Users  store.Collection[users.User]
	Houses *houses.Service

	// Audit and Health are optional.
	Audit  *audit.Service
	Health func(context.Context) error
}

func (h Handlers) Root(c *gin.Context) {
	c.String(http.StatusOK, "House Hunter server is running")
}

func (h Handlers) Healthz(c *gin.Context) {
	if h.Health != nil {
		if err := h.Health(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Token issuance ---

// issueRequest is the closed set of fields a token may carry.
type issueRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"max=128"`
	Photo string `json:"photo" binding:"omitempty,url"`
}

// IssueToken signs the submitted identity. Unknown fields are rejected so
// clients cannot smuggle extra claims into the token.
func (h Handlers) IssueToken(c *gin.Context) {
	var req issueRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		badRequest(c, "invalid identity")
		return
	}

	tok, err := h.Auth.Issue(h.Auth.Now(), auth.Identity{
		Email: strings.TrimSpace(req.Email),
		Name:  req.Name,
		Photo: req.Photo,
	})
	if err != nil {
		internalError(c, err, "token issuance failed")
		return
	}

	if h.Audit != nil {
		if err := h.Audit.LogTokenIssued(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
			logger.FromGin(c).Error("audit token issuance failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

// --- Users ---

type userRequest struct {
	Name  string `json:"name" binding:"required,max=128"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"omitempty,max=32"`
	Role  string `json:"role" binding:"required"`
}

// UpsertUser creates or replaces the caller's own role record.
func (h Handlers) UpsertUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		badRequest(c, "invalid user")
		return
	}
	if !rbac.IsValidRole(req.Role) {
		badRequest(c, "role must be one of House Owner, House Renter")
		return
	}

	ctx := c.Request.Context()
	f := store.Filter{"email": req.Email}
	now := h.Auth.Now().UTC()

	u, err := h.Users.FindOne(ctx, f)
	switch {
	case errors.Is(err, store.ErrNotFound):
		u = users.User{CreatedAt: now}
	case err != nil:
		internalError(c, err, "user lookup failed")
		return
	}
	u.Name = req.Name
	u.Email = req.Email
	u.Phone = req.Phone
	u.Role = req.Role
	u.UpdatedAt = now

	if err := h.Users.Upsert(ctx, f, u); err != nil {
		internalError(c, err, "user save failed")
		return
	}
	c.JSON(http.StatusOK, u)
}

// UserRole answers which capabilities the caller's role grants.
func (h Handlers) UserRole(c *gin.Context) {
	caps, err := h.Roles.Capabilities(c.Request.Context(), c.Param("email"))
	if err != nil {
		_ = c.Error(err)
		auth.Abort(c, http.StatusServiceUnavailable, rbac.MsgLookupUnavailable)
		return
	}
	c.JSON(http.StatusOK, caps)
}

// --- Houses ---

type houseRequest struct {
	Name             string `json:"name" binding:"required,max=200"`
	Address          string `json:"address" binding:"required"`
	City             string `json:"city" binding:"required"`
	Bedrooms         int    `json:"bedrooms" binding:"min=0"`
	Bathrooms        int    `json:"bathrooms" binding:"min=0"`
	RoomSize         string `json:"roomSize"`
	Picture          string `json:"picture" binding:"omitempty,url"`
	AvailabilityDate string `json:"availabilityDate"`
	RentPerMonth     int64  `json:"rentPerMonth" binding:"min=0"`
	Phone            string `json:"phone" binding:"required"`
	Description      string `json:"description" binding:"max=2000"`
	OwnerEmail       string `json:"ownerEmail" binding:"required,email"`
}

func (h Handlers) ListHouses(c *gin.Context) {
	page := queryInt(c, "page", 1)
	size := queryInt(c, "size", houses.DefaultPageSize)

	listing, err := h.Houses.List(c.Request.Context(), page, size)
	if err != nil {
		internalError(c, err, "house listing failed")
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h Handlers) GetHouse(c *gin.Context) {
	house, err := h.Houses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.houseError(c, err)
		return
	}
	c.JSON(http.StatusOK, house)
}

func (h Handlers) MyHouses(c *gin.Context) {
	list, err := h.Houses.ListByOwner(c.Request.Context(), c.Query("email"))
	if err != nil {
		internalError(c, err, "house lookup failed")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) CreateHouse(c *gin.Context) {
	var req houseRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		badRequest(c, "invalid house")
		return
	}

	house, err := h.Houses.Create(c.Request.Context(), houses.House{
		Name:             req.Name,
		Address:          req.Address,
		City:             req.City,
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		RoomSize:         req.RoomSize,
		Picture:          req.Picture,
		AvailabilityDate: req.AvailabilityDate,
		RentPerMonth:     req.RentPerMonth,
		Phone:            req.Phone,
		Description:      req.Description,
		OwnerEmail:       req.OwnerEmail,
	})
	if err != nil {
		internalError(c, err, "house save failed")
		return
	}
	c.JSON(http.StatusCreated, house)
}

func (h Handlers) UpdateHouse(c *gin.Context) {
	var req houses.HouseUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid house update")
		return
	}
	if err := h.Houses.UpdateOwned(c.Request.Context(), c.Param("id"), c.Query("email"), req); err != nil {
		h.houseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h Handlers) DeleteHouse(c *gin.Context) {
	if err := h.Houses.DeleteOwned(c.Request.Context(), c.Param("id"), c.Query("email")); err != nil {
		h.houseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// --- Bookings ---

type bookingRequest struct {
	HouseID     string `json:"houseId" binding:"required"`
	RenterName  string `json:"renterName" binding:"required,max=128"`
	RenterEmail string `json:"renterEmail" binding:"required,email"`
	RenterPhone string `json:"renterPhone" binding:"required,max=32"`
}

func (h Handlers) MyBookings(c *gin.Context) {
	list, err := h.Houses.ListBookings(c.Request.Context(), c.Query("email"))
	if err != nil {
		internalError(c, err, "booking lookup failed")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		badRequest(c, "invalid booking")
		return
	}

	b, err := h.Houses.Book(c.Request.Context(), req.HouseID, houses.Booking{
		RenterName:  req.RenterName,
		RenterEmail: req.RenterEmail,
		RenterPhone: req.RenterPhone,
	})
	if err != nil {
		h.houseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h Handlers) CancelBooking(c *gin.Context) {
	if err := h.Houses.CancelBooking(c.Request.Context(), c.Param("id"), c.Query("email")); err != nil {
		h.houseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h Handlers) houseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, houses.ErrHouseNotFound), errors.Is(err, houses.ErrBookingNotFound):
		auth.Abort(c, http.StatusNotFound, err.Error())
	case errors.Is(err, houses.ErrBookingLimit), errors.Is(err, houses.ErrAlreadyBooked):
		auth.Abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, houses.ErrEmptyUpdate):
		badRequest(c, err.Error())
	default:
		internalError(c, err, "request failed")
	}
}

func badRequest(c *gin.Context, message string) {
	auth.Abort(c, http.StatusBadRequest, message)
}

// internalError hides store details from the client; the request logger records err.
func internalError(c *gin.Context, err error, message string) {
	_ = c.Error(err)
	auth.Abort(c, http.StatusInternalServerError, message)
}

func queryInt(c *gin.Context, key string, def int64) int64 {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
