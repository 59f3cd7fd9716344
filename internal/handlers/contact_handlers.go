package handlers

import (
	"net/http"
	"strings"

	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/service"
	"github.com/sirupsen/logrus"
)

type ContactHandlers struct {
	contact   *service.ContactService
	validator *Validator
	logger    *logrus.Logger
}

func NewContactHandlers(contact *service.ContactService, validator *Validator, logger *logrus.Logger) *ContactHandlers {
	return &ContactHandlers{
		contact:   contact,
		validator: validator,
		logger:    logger,
	}
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

func (r *ContactRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
}

func (h *ContactHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	err := h.contact.Submit(r.Context(), &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, OKResponse{OK: true})
}
