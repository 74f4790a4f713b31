package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"house-hunter/internal/audit"
	"house-hunter/internal/auth"
	"house-hunter/internal/config"
	"house-hunter/internal/houses"
	"house-hunter/internal/rbac"
	"house-hunter/internal/store"
	"house-hunter/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router   *gin.Engine
	auth     *auth.Manager
	users    *store.Memory[users.User]
	houses   *store.Memory[houses.House]
	bookings *store.Memory[houses.Booking]
	audit    *audit.MemoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "test-secret"})
	require.NoError(t, err)

	f := &fixture{
		auth:     m,
		users:    store.NewMemory[users.User](),
		houses:   store.NewMemory[houses.House](),
		bookings: store.NewMemory[houses.Booking]().WithUnique("renterEmail", "houseId"),
		audit:    audit.NewMemoryRepo(),
	}
	h := Handlers{
		Auth:   m,
		Roles:  rbac.NewResolver(f.users),
		Users:  f.users,
		Houses: houses.NewService(f.houses, f.bookings, store.NewMemoryQuota()),
		Audit:  audit.NewService(f.audit),
	}
	f.router = gin.New()
	h.Register(f.router, nil)
	return f
}

func (f *fixture) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := f.auth.Issue(f.auth.Now(), auth.Identity{Email: email})
	require.NoError(t, err)
	return tok
}

func (f *fixture) seedUser(t *testing.T, email, role string) {
	t.Helper()
	_, err := f.users.Insert(context.Background(), users.User{Name: "Test", Email: email, Role: role})
	require.NoError(t, err)
}

func (f *fixture) seedHouse(t *testing.T, owner string) string {
	t.Helper()
	id, err := f.houses.Insert(context.Background(), houses.House{Name: "Lake View", City: "Dhaka", OwnerEmail: owner})
	require.NoError(t, err)
	return id
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "House Hunter server is running", w.Body.String())
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIssueToken_ReturnsVerifiableToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/jwt", "", map[string]string{"email": "x@test.com", "name": "X"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	claims, err := f.auth.Verify(resp.Token, f.auth.Now())
	require.NoError(t, err)
	assert.Equal(t, "x@test.com", claims.Email)
	assert.Equal(t, "X", claims.Name)

	events := f.audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTypeTokenIssued, events[0].Type)
}

func TestIssueToken_RejectsBadInput(t *testing.T) {
	f := newFixture(t)

	cases := map[string]any{
		"missing email": map[string]string{"name": "X"},
		"invalid email": map[string]string{"email": "not-an-email"},
		"unknown field": map[string]any{"email": "x@test.com", "role": "House Owner"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/jwt", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, f.audit.Events())
}

func TestAccessGuard(t *testing.T) {
	f := newFixture(t)
	expired, err := f.auth.Issue(f.auth.Now().Add(-5*time.Hour), auth.Identity{Email: "x@test.com"})
	require.NoError(t, err)

	t.Run("no header", func(t *testing.T) {
		w := f.do(http.MethodGet, "/dashboard/myhouses?email=x@test.com", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":true,"message":"unauthorize access"}`, w.Body.String())
	})
	t.Run("garbage token", func(t *testing.T) {
		w := f.do(http.MethodGet, "/dashboard/myhouses?email=x@test.com", "garbage", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":true,"message":"forbidden token"}`, w.Body.String())
	})
	t.Run("expired token", func(t *testing.T) {
		w := f.do(http.MethodGet, "/dashboard/myhouses?email=x@test.com", expired, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":true,"message":"forbidden token"}`, w.Body.String())
	})
	t.Run("scheme without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/myhouses?email=x@test.com", nil)
		req.Header.Set("Authorization", "Bearer")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	assert.Zero(t, f.houses.Calls())
}

func TestMyHouses_FiltersByOwnerEmail(t *testing.T) {
	f := newFixture(t)
	f.seedHouse(t, "x@test.com")
	f.seedHouse(t, "y@test.com")

	w := f.do(http.MethodGet, "/dashboard/myhouses?email=x@test.com", f.token(t, "x@test.com"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []houses.House
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "x@test.com", list[0].OwnerEmail)

	filters := f.houses.Filters()
	require.NotEmpty(t, filters)
	assert.Equal(t, store.Filter{"ownerEmail": "x@test.com"}, filters[len(filters)-1])
}

func TestDashboard_OwnershipMismatchIsHardDenied(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "x@test.com")

	w := f.do(http.MethodGet, "/dashboard/myhouses?email=y@test.com", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":true,"message":"unauthorize user"}`, w.Body.String())

	w = f.do(http.MethodGet, "/dashboard/myhouses", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Zero(t, f.houses.Calls())
	assert.Zero(t, f.users.Calls())

	events := f.audit.Events()
	require.Len(t, events, 2)
	assert.Equal(t, audit.EventTypeOwnershipDenied, events[0].Type)
	assert.Equal(t, "x@test.com", events[0].ActorEmail)
	assert.Equal(t, "y@test.com", events[0].TargetEmail)
	assert.Equal(t, "/dashboard/myhouses", events[0].Route)
}

func TestUserRole(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "x@test.com", rbac.RoleHouseOwner)
	tok := f.token(t, "x@test.com")

	t.Run("own role", func(t *testing.T) {
		w := f.do(http.MethodGet, "/users/role/x@test.com", tok, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"renter":false,"owner":true}`, w.Body.String())
	})

	t.Run("unknown user has no capabilities", func(t *testing.T) {
		w := f.do(http.MethodGet, "/users/role/z@test.com", f.token(t, "z@test.com"), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"renter":false,"owner":false}`, w.Body.String())
	})

	t.Run("someone else's role is soft denied", func(t *testing.T) {
		before := f.users.Calls()
		w := f.do(http.MethodGet, "/users/role/y@test.com", tok, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"renter":false,"owner":false}`, w.Body.String())
		assert.Equal(t, before, f.users.Calls())
	})

	t.Run("store unavailable", func(t *testing.T) {
		f.users.Err = errors.New("connection refused")
		defer func() { f.users.Err = nil }()

		w := f.do(http.MethodGet, "/users/role/x@test.com", tok, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":true,"message":"role lookup unavailable"}`, w.Body.String())
	})
}

func TestUpsertUser(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "x@test.com")

	w := f.do(http.MethodPut, "/users", tok, map[string]string{
		"name": "X", "email": "x@test.com", "role": rbac.RoleHouseRenter,
	})
	require.Equal(t, http.StatusOK, w.Code)

	u, err := f.users.FindOne(context.Background(), store.Filter{"email": "x@test.com"})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleHouseRenter, u.Role)

	// changing role keeps a single record
	w = f.do(http.MethodPut, "/users", tok, map[string]string{
		"name": "X", "email": "x@test.com", "role": rbac.RoleHouseOwner,
	})
	require.Equal(t, http.StatusOK, w.Code)
	n, err := f.users.Count(context.Background(), store.Filter{"email": "x@test.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	t.Run("invalid role", func(t *testing.T) {
		w := f.do(http.MethodPut, "/users", tok, map[string]string{
			"name": "X", "email": "x@test.com", "role": "Admin",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("other identity", func(t *testing.T) {
		w := f.do(http.MethodPut, "/users", tok, map[string]string{
			"name": "Y", "email": "y@test.com", "role": rbac.RoleHouseOwner,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":true,"message":"unauthorize user"}`, w.Body.String())
	})
}

func TestCreateHouse_RequiresOwnerRole(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{
		"name": "Lake View", "address": "12 Road", "city": "Dhaka",
		"bedrooms": 2, "bathrooms": 1, "rentPerMonth": 15000,
		"phone": "+8801700000000", "ownerEmail": "x@test.com",
	}

	f.seedUser(t, "x@test.com", rbac.RoleHouseRenter)
	w := f.do(http.MethodPost, "/dashboard/houses", f.token(t, "x@test.com"), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":true,"message":"forbidden access"}`, w.Body.String())

	f.seedUser(t, "o@test.com", rbac.RoleHouseOwner)
	body["ownerEmail"] = "o@test.com"
	w = f.do(http.MethodPost, "/dashboard/houses", f.token(t, "o@test.com"), body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created houses.House
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, "o@test.com", created.OwnerEmail)
}

func TestUpdateAndDeleteHouse(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "o@test.com", rbac.RoleHouseOwner)
	tok := f.token(t, "o@test.com")
	id := f.seedHouse(t, "o@test.com")
	other := f.seedHouse(t, "p@test.com")

	w := f.do(http.MethodPatch, "/dashboard/houses/"+id+"?email=o@test.com", tok, map[string]any{"rentPerMonth": 20000})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPatch, "/dashboard/houses/"+id+"?email=o@test.com", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodDelete, "/dashboard/houses/"+other+"?email=o@test.com", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodDelete, "/dashboard/houses/"+id+"?email=o@test.com", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/houses/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookings(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "r@test.com", rbac.RoleHouseRenter)
	tok := f.token(t, "r@test.com")

	book := func(houseID string) *httptest.ResponseRecorder {
		return f.do(http.MethodPost, "/dashboard/bookings", tok, map[string]string{
			"houseId": houseID, "renterName": "R", "renterEmail": "r@test.com", "renterPhone": "+8801800000000",
		})
	}

	h1, h2, h3 := f.seedHouse(t, "o@test.com"), f.seedHouse(t, "o@test.com"), f.seedHouse(t, "o@test.com")

	w := book(h1)
	require.Equal(t, http.StatusCreated, w.Code)
	var first houses.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	assert.Equal(t, http.StatusConflict, book(h1).Code)
	assert.Equal(t, http.StatusCreated, book(h2).Code)
	assert.Equal(t, http.StatusConflict, book(h3).Code)
	assert.Equal(t, http.StatusNotFound, book("66f000000000000000000000").Code)

	w = f.do(http.MethodGet, "/dashboard/mybookings?email=r@test.com", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []houses.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = f.do(http.MethodDelete, "/dashboard/bookings/"+first.ID.Hex()+"?email=r@test.com", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusCreated, book(h3).Code)
}

func TestListHouses_Paginates(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		f.seedHouse(t, "o@test.com")
	}

	w := f.do(http.MethodGet, "/houses?page=2&size=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing houses.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.EqualValues(t, 3, listing.Total)
	assert.EqualValues(t, 2, listing.Page)
	assert.Len(t, listing.Houses, 1)
}

func TestListHouses_HugePageDoesNotOverflow(t *testing.T) {
	f := newFixture(t)
	f.seedHouse(t, "o@test.com")

	w := f.do(http.MethodGet, "/houses?page=9223372036854775807&size=50", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing houses.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.EqualValues(t, houses.MaxPage, listing.Page)
	assert.Empty(t, listing.Houses)
	assert.EqualValues(t, 1, listing.Total)
}
