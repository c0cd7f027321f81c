// Package handler exposes registration, login, and logout over HTTP and owns
// the session cookie lifecycle.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"authgate/internal/identity/models"
	"authgate/internal/platform/middleware"
	"authgate/internal/transport/http/shared"
	dErrors "authgate/pkg/domain-errors"
)

// Service is the identity operations surface consumed by this handler.
type Service interface {
	Register(ctx context.Context, name, email, secret string) (*models.User, error)
	Authenticate(ctx context.Context, email, secret string) (*models.User, error)
}

// SessionManager establishes and revokes session capsules.
type SessionManager interface {
	Establish(ctx context.Context, identityID string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// Handler handles identity endpoints.
type Handler struct {
	identity Service
	sessions SessionManager
	logger   *slog.Logger
}

// New creates a new identity Handler.
func New(identity Service, sessions SessionManager, logger *slog.Logger) *Handler {
	return &Handler{
		identity: identity,
		sessions: sessions,
		logger:   logger,
	}
}

// Register mounts the identity routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validateRegisterRequest(req); err != nil {
		shared.WriteError(w, err)
		return
	}

	user, err := h.identity.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConflict) || dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "registration rejected",
				"request_id", requestID,
				"reason", dErrors.MessageOf(err),
			)
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "registration failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register identity"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, models.PublicIdentity(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email and password are required"))
		return
	}

	user, err := h.identity.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "login failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to authenticate"))
		return
	}

	// A fresh capsule on every login prevents session fixation: nothing issued
	// before authentication is ever trusted afterwards.
	token, err := h.sessions.Establish(ctx, user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to establish session",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to establish session"))
		return
	}

	writeSessionCookie(w, token)
	shared.WriteJSON(w, http.StatusOK, models.PublicIdentity(user))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token, ok := middleware.SessionFromRequest(r); ok {
		if err := h.sessions.Revoke(ctx, token); err != nil {
			// Logout stays idempotent and unconditional; a revocation-list
			// outage is logged but never blocks the client from leaving.
			h.logger.ErrorContext(ctx, "failed to revoke session",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
	}

	clearSessionCookie(w)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func validateRegisterRequest(req models.RegisterRequest) error {
	if !govalidator.StringLength(req.Name, "1", "128") {
		return dErrors.New(dErrors.CodeValidation, "name must be 1-128 characters")
	}
	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if !govalidator.StringLength(req.Password, "8", "256") {
		return dErrors.New(dErrors.CodeValidation, "password must be 8-256 characters")
	}
	return nil
}

func writeSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
