package handlers

import (
	"net/http"
	"strings"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/service"
	"github.com/sirupsen/logrus"
)

type AuthHandlers struct {
	otpService *service.OTPService
	sessions   *service.SessionService
	revoker    service.Revoker
	validator  *Validator
	logger     *logrus.Logger
}

// NewAuthHandlers wires the login flow. revoker may be nil.
func NewAuthHandlers(
	otpService *service.OTPService,
	sessions *service.SessionService,
	revoker service.Revoker,
	validator *Validator,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		otpService: otpService,
		sessions:   sessions,
		revoker:    revoker,
		validator:  validator,
		logger:     logger,
	}
}

type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type StatusResponse struct {
	IsAdmin bool    `json:"isAdmin"`
	Email   *string `json:"email"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *RequestCodeRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
}

func (r *VerifyCodeRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

func (h *AuthHandlers) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	if err := h.otpService.Issue(r.Context(), req.Email); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *AuthHandlers) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	email := req.Email
	if err := h.otpService.Verify(r.Context(), email, req.Code); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	token, session, err := h.sessions.Issue(email)
	if err != nil {
		respondWithError(w, h.logger, apperror.Internal("Failed to start session", err))
		return
	}

	h.sessions.SetCookies(w, token, email)
	h.logger.WithFields(logrus.Fields{
		"email":      email,
		"session_id": session.ID,
	}).Info("Admin logged in")

	respondWithJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Logout always succeeds. With a revoker the current session is also
// blacklisted until it would have expired.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessions.FromRequest(r); err == nil && h.revoker != nil {
		if err := h.revoker.Revoke(r.Context(), session.ID, session.ExpiresAt); err != nil {
			h.logger.WithError(err).Warn("Failed to revoke session on logout")
		}
	}

	h.sessions.ClearCookies(w)
	respondWithJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Status reports whether the caller holds a live admin session. It never
// fails.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.FromRequest(r)
	if err != nil {
		respondWithJSON(w, http.StatusOK, StatusResponse{})
		return
	}

	if h.revoker != nil {
		revoked, err := h.revoker.IsRevoked(r.Context(), session.ID)
		if err != nil || revoked {
			respondWithJSON(w, http.StatusOK, StatusResponse{})
			return
		}
	}

	email := session.Email
	respondWithJSON(w, http.StatusOK, StatusResponse{IsAdmin: true, Email: &email})
}
