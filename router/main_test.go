package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/testutil"
	"github.com/sahilchouksey/college-admin-api/utils"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	Data       json.RawMessage          `json:"data"`
	Error      *response.ErrorDetail    `json:"error"`
	Pagination *response.PaginationMeta `json:"pagination"`
}

type testServer struct {
	app     *fiber.App
	db      *gorm.DB
	primary *database.PostgreSQLStore
	jwt     *auth.JWTManager
	root    string
	viewer  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.SuperadminDB(t)
	primary := testutil.PrimaryStore(t)

	assignments := services.NewAssignmentService(db, primary, services.AssignmentOptions{RetryBackoff: time.Millisecond})
	heads := services.NewHeadService(db, primary)
	universities := services.NewUniversityService(db, heads, assignments)

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        "router-test-secret",
		Issuer:        "college-admin-api",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})

	app := fiber.New()
	SetupRoutes(app, Dependencies{
		DB:           db,
		JWTManager:   jwtManager,
		Heads:        heads,
		Universities: universities,
		Assignments:  assignments,
		Stores: map[string]utils.HealthChecker{
			"superadmin": database.NewGORMStore(db),
			"primary":    primary,
		},
		Security: middleware.SecurityConfig{AllowedOrigins: "http://localhost:3000"},
	})

	s := &testServer{app: app, db: db, primary: primary, jwt: jwtManager}
	s.root = s.token(t, testutil.CreateSuperAdmin(t, db, "root@college.edu", "Sup3rSecret!", model.SuperAdminRole))
	s.viewer = s.token(t, testutil.CreateSuperAdmin(t, db, "viewer@college.edu", "Sup3rSecret!", "viewer"))
	return s
}

func (s *testServer) token(t *testing.T, admin *model.SuperAdmin) string {
	t.Helper()
	token, _, err := s.jwt.Sign(auth.PrincipalOf(admin), auth.TokenTypeAccess)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (s *testServer) createHead(t *testing.T, name, email string) model.InstitutionalHead {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/institutional-heads", s.root, fiber.Map{"name": name, "email": email, "phone": "011-1234"})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decode[model.InstitutionalHead](t, env)
}

func (s *testServer) createUniversity(t *testing.T, name, code string) model.University {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/universities", s.root, fiber.Map{"name": name, "code": code, "institutionType": "UNIVERSITY"})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decode[model.University](t, env)
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/universities", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = s.do(t, http.MethodGet, "/api/institutional-heads", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/institutional-heads", s.viewer, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodPost, "/api/institutional-heads", s.viewer, fiber.Map{"name": "Asha Rao", "email": "asha@x.com"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = s.do(t, http.MethodGet, "/api/audit-logs", s.viewer, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestHeadEndpoints(t *testing.T) {
	s := newTestServer(t)

	head := s.createHead(t, "Asha Rao", "asha@x.com")
	assert.True(t, head.IsActive)
	assert.Nil(t, head.AdminUserID)

	t.Run("duplicate email", func(t *testing.T) {
		status, env := s.do(t, http.MethodPost, "/api/institutional-heads", s.root, fiber.Map{"name": "Other", "email": "ASHA@x.com"})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "CONFLICT", env.Error.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		status, env := s.do(t, http.MethodPost, "/api/institutional-heads", s.root, fiber.Map{"name": "Ravi", "email": "ravi@x.com", "role": "root"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, env.Error.Fields, "body")
	})

	t.Run("invalid email", func(t *testing.T) {
		status, env := s.do(t, http.MethodPost, "/api/institutional-heads", s.root, fiber.Map{"name": "Ravi", "email": "nope"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid email format", env.Error.Fields["email"])
	})

	t.Run("get and update", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/api/institutional-heads/999", s.root, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = s.do(t, http.MethodGet, "/api/institutional-heads/abc", s.root, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, env := s.do(t, http.MethodPut, fmt.Sprintf("/api/institutional-heads/%d", head.ID), s.root, fiber.Map{"name": "    "})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, env.Error.Fields, "name")

		status, env = s.do(t, http.MethodPut, fmt.Sprintf("/api/institutional-heads/%d", head.ID), s.root, fiber.Map{"phone": "011-9999"})
		require.Equal(t, http.StatusOK, status)
		updated := decode[model.InstitutionalHead](t, env)
		assert.Equal(t, "011-9999", updated.Phone)
		assert.Equal(t, "Asha Rao", updated.Name)
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := s.do(t, http.MethodDelete, fmt.Sprintf("/api/institutional-heads/%d", head.ID), s.root, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/institutional-heads/%d", head.ID), s.root, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestCollegeWithoutCollegeTypeIsRejected(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/universities", s.root, fiber.Map{
		"name":            "Institute of Engineering",
		"code":            "IET",
		"institutionType": "COLLEGE",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error.Fields, "collegeType")

	status, env = s.do(t, http.MethodGet, "/api/universities", s.root, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]model.University](t, env))
	assert.Zero(t, env.Pagination.Total)
}

func TestUniversityEndpoints(t *testing.T) {
	s := newTestServer(t)

	du := s.createUniversity(t, "Delhi University", "du")
	assert.Equal(t, "DU", du.Code)
	assert.Nil(t, du.CollegeType)

	status, _ := s.do(t, http.MethodPost, "/api/universities", s.root, fiber.Map{"name": "Again", "code": "DU"})
	assert.Equal(t, http.StatusConflict, status)

	status, env := s.do(t, http.MethodPost, "/api/universities", s.root, fiber.Map{
		"name":            "Institute of Engineering",
		"code":            "IET",
		"institutionType": "COLLEGE",
		"collegeType":     "ENGINEERING",
		"institutionalHead": fiber.Map{
			"name":  "Ravi Kumar",
			"email": "ravi@iet.ac.in",
		},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	iet := decode[model.University](t, env)
	require.NotNil(t, iet.InstitutionalHead)
	assert.NotNil(t, iet.InstitutionalHead.AdminUserID)

	status, env = s.do(t, http.MethodGet, "/api/universities?institutionType=COLLEGE", s.root, nil)
	require.Equal(t, http.StatusOK, status)
	colleges := decode[[]model.University](t, env)
	require.Len(t, colleges, 1)
	assert.Equal(t, "IET", colleges[0].Code)
	require.NotNil(t, colleges[0].InstitutionalHead)

	status, env = s.do(t, http.MethodGet, "/api/universities?page=1&limit=1", s.root, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.TotalPages)

	status, _ = s.do(t, http.MethodGet, "/api/universities?isActive=maybe", s.root, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPatch, fmt.Sprintf("/api/universities/%d", du.ID), s.root, fiber.Map{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name must not be blank", env.Error.Fields["name"])

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/universities/%d", du.ID), s.root, fiber.Map{"code": "IET"})
	assert.Equal(t, http.StatusConflict, status)

	status, env = s.do(t, http.MethodPatch, fmt.Sprintf("/api/universities/%d", du.ID), s.root, fiber.Map{"location": "North Campus"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "North Campus", decode[model.University](t, env).Location)

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/universities/%d", du.ID), s.root, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/universities/%d", du.ID), s.root, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAssignmentEndpoints(t *testing.T) {
	s := newTestServer(t)

	h1 := s.createHead(t, "Asha Rao", "asha@x.com")
	h2 := s.createHead(t, "Ravi Kumar", "ravi@x.com")
	du := s.createUniversity(t, "Delhi University", "DU")

	assignPath := func(universityID, headID uint) string {
		return fmt.Sprintf("/api/universities/%d/assign-head/%d", universityID, headID)
	}

	status, env := s.do(t, http.MethodPost, assignPath(du.ID, h1.ID), s.root, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assigned := decode[model.University](t, env)
	require.NotNil(t, assigned.InstitutionalHeadID)
	assert.Equal(t, h1.ID, *assigned.InstitutionalHeadID)

	status, _ = s.do(t, http.MethodPost, assignPath(du.ID, h2.ID), s.root, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPost, assignPath(du.ID, 999), s.root, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(t, http.MethodDelete, fmt.Sprintf("/api/institutional-heads/%d", h1.ID), s.root, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	for i := 0; i < 2; i++ {
		status, env = s.do(t, http.MethodDelete, assignPath(du.ID, h1.ID), s.root, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Nil(t, decode[model.University](t, env).InstitutionalHeadID)
	}

	status, _ = s.do(t, http.MethodDelete, assignPath(999, h1.ID), s.root, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/institutional-heads/%d", h1.ID), s.root, nil)
	assert.Equal(t, http.StatusNoContent, status)

	var users int
	require.NoError(t, s.primary.DB().Get(&users, "SELECT COUNT(*) FROM admin_users"))
	assert.Zero(t, users)

	assert.Eventually(t, func() bool {
		var count int64
		s.db.Model(&model.AdminAuditLog{}).Where("action = ?", "head_assign").Count(&count)
		return count == 3
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "root@college.edu", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ROOT@college.edu", "password": "Sup3rSecret!"})
	require.Equal(t, http.StatusOK, status, env.Error)

	var login struct {
		User struct {
			Email       string     `json:"email"`
			LastLoginAt *time.Time `json:"lastLoginAt"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, "root@college.edu", login.User.Email)
	assert.NotNil(t, login.User.LastLoginAt)
	assert.Equal(t, 3600, login.ExpiresIn)

	status, env = s.do(t, http.MethodGet, "/api/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "root@college.edu", decode[model.SuperAdmin](t, env).Email)

	// a refresh token is not accepted as an access token
	status, _ = s.do(t, http.MethodGet, "/api/auth/me", login.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = s.do(t, http.MethodPost, "/api/auth/refresh", "", fiber.Map{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, status, env.Error)

	// refresh tokens are single use
	status, _ = s.do(t, http.MethodPost, "/api/auth/refresh", "", fiber.Map{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/auth/logout", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/auth/me", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", env.Error.Message)
}

func TestChangePasswordInvalidatesTokens(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/auth/change-password", s.root, fiber.Map{"oldPassword": "wrong", "newPassword": "N3wSecret!"})
	assert.Equal(t, http.StatusBadRequest, status, env.Error)

	status, env = s.do(t, http.MethodPost, "/api/auth/change-password", s.root, fiber.Map{"oldPassword": "Sup3rSecret!", "newPassword": "N3wSecret!"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.do(t, http.MethodGet, "/api/auth/me", s.root, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been invalidated", env.Error.Message)

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "root@college.edu", "password": "N3wSecret!"})
	assert.Equal(t, http.StatusOK, status)
}
