package handler

//go:generate mockgen -source=handler.go -destination=mocks/identity-mocks.go -package=mocks Service,SessionManager

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"authgate/internal/identity/handler/mocks"
	"authgate/internal/identity/models"
	"authgate/internal/platform/middleware"
	dErrors "authgate/pkg/domain-errors"
)

type IdentityHandlerSuite struct {
	suite.Suite
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func newTestHandler(t *testing.T) (*mocks.MockService, *mocks.MockSessionManager, chi.Router) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	mockSessions := mocks.NewMockSessionManager(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, mockSessions, logger)
	r := chi.NewRouter()
	h.Register(r)
	return mockService, mockSessions, r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var envelope map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func (s *IdentityHandlerSuite) TestHandleRegister() {
	validBody := models.RegisterRequest{Name: "alice", Email: "a@x.com", Password: "pw1-long-enough"}

	s.T().Run("created identity - 200, no credential material in payload", func(t *testing.T) {
		mockService, _, router := newTestHandler(t)
		mockService.EXPECT().
			Register(gomock.Any(), "alice", "a@x.com", "pw1-long-enough").
			Return(&models.User{ID: "id-1", Name: "alice", Email: "a@x.com", CredentialHash: "$argon2id$..."}, nil)

		rec := doJSON(t, router, http.MethodPost, "/register", validBody)

		assert.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "id-1", got["id"])
		assert.Equal(t, "alice", got["name"])
		assert.Equal(t, "a@x.com", got["email"])
		assert.NotContains(t, rec.Body.String(), "pw1-long-enough")
		assert.NotContains(t, rec.Body.String(), "argon2id")
	})

	s.T().Run("email taken - 400 conflict", func(t *testing.T) {
		mockService, _, router := newTestHandler(t)
		mockService.EXPECT().
			Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "email already registered"))

		rec := doJSON(t, router, http.MethodPost, "/register", validBody)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeError(t, rec)
		assert.Equal(t, "conflict", envelope["error"])
		assert.Equal(t, "email already registered", envelope["message"])
	})

	s.T().Run("invalid json - 400", func(t *testing.T) {
		mockService, _, router := newTestHandler(t)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{bad-json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeError(t, rec)["error"])
	})

	s.T().Run("invalid email - 400 before service is called", func(t *testing.T) {
		mockService, _, router := newTestHandler(t)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		body := validBody
		body.Email = "not-an-email"
		rec := doJSON(t, router, http.MethodPost, "/register", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation", decodeError(t, rec)["error"])
	})

	s.T().Run("short password - 400 before service is called", func(t *testing.T) {
		mockService, _, router := newTestHandler(t)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		body := validBody
		body.Password = "short"
		rec := doJSON(t, router, http.MethodPost, "/register", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	s.T().Run("store failure - 500 with opaque message", func(t *testing.T) {
		mockService, _, router := newTestHandler(t)
		mockService.EXPECT().
			Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to create identity"))

		rec := doJSON(t, router, http.MethodPost, "/register", validBody)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal", decodeError(t, rec)["error"])
	})
}

func (s *IdentityHandlerSuite) TestHandleLogin() {
	validBody := models.LoginRequest{Email: "a@x.com", Password: "pw1-long-enough"}
	user := &models.User{ID: "id-1", Name: "alice", Email: "a@x.com"}

	s.T().Run("success - 200 with session cookie", func(t *testing.T) {
		mockService, mockSessions, router := newTestHandler(t)
		mockService.EXPECT().
			Authenticate(gomock.Any(), "a@x.com", "pw1-long-enough").
			Return(user, nil)
		mockSessions.EXPECT().Establish(gomock.Any(), "id-1").Return("capsule-token", nil)

		rec := doJSON(t, router, http.MethodPost, "/login", validBody)

		assert.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
		assert.Equal(t, "capsule-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "id-1", got["id"])
	})

	s.T().Run("invalid credentials - 401, no cookie", func(t *testing.T) {
		mockService, mockSessions, router := newTestHandler(t)
		mockService.EXPECT().
			Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"))
		mockSessions.EXPECT().Establish(gomock.Any(), gomock.Any()).Times(0)

		rec := doJSON(t, router, http.MethodPost, "/login", validBody)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope := decodeError(t, rec)
		assert.Equal(t, "unauthorized", envelope["error"])
		assert.Equal(t, "Invalid credentials", envelope["message"])
		assert.Empty(t, rec.Result().Cookies())
	})

	s.T().Run("missing fields - 400", func(t *testing.T) {
		mockService, _, router := newTestHandler(t)
		mockService.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rec := doJSON(t, router, http.MethodPost, "/login", models.LoginRequest{Email: "a@x.com"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func (s *IdentityHandlerSuite) TestHandleLogout() {
	s.T().Run("revokes presented session and clears cookie", func(t *testing.T) {
		_, mockSessions, router := newTestHandler(t)
		mockSessions.EXPECT().Revoke(gomock.Any(), "capsule-token").Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "capsule-token"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Logout successful", decodeError(t, rec)["message"])

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})

	s.T().Run("no session - still 200", func(t *testing.T) {
		_, mockSessions, router := newTestHandler(t)
		mockSessions.EXPECT().Revoke(gomock.Any(), gomock.Any()).Times(0)

		rec := doJSON(t, router, http.MethodPost, "/logout", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Logout successful", decodeError(t, rec)["message"])
	})

	s.T().Run("revocation failure still returns 200", func(t *testing.T) {
		_, mockSessions, router := newTestHandler(t)
		mockSessions.EXPECT().
			Revoke(gomock.Any(), "capsule-token").
			Return(dErrors.New(dErrors.CodeInternal, "failed to revoke session"))

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "capsule-token"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
