package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type CoverLetterHandlers struct {
	letters      *service.CoverLetterService
	applications *service.ApplicationService
	validator    *Validator
	logger       *logrus.Logger
}

func NewCoverLetterHandlers(
	letters *service.CoverLetterService,
	applications *service.ApplicationService,
	validator *Validator,
	logger *logrus.Logger,
) *CoverLetterHandlers {
	return &CoverLetterHandlers{
		letters:      letters,
		applications: applications,
		validator:    validator,
		logger:       logger,
	}
}

type CoverTokenRequest struct {
	CompanyName string `json:"companyName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
}

type CoverTokenResponse struct {
	Link string `json:"link"`
}

type SendApplicationsRequest struct {
	Companies       []models.ApplicationTarget `json:"companies" validate:"required,min=1"`
	TemplateType    models.TemplateType        `json:"templateType" validate:"omitempty,oneof=global india"`
	YearsExperience string                     `json:"yearsExperience"`
}

type SendApplicationsResponse struct {
	OK      bool                       `json:"ok"`
	Results []models.ApplicationResult `json:"results"`
}

func (h *CoverLetterHandlers) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req CoverTokenRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	link, _, err := h.letters.CreateToken(r.Context(), req.CompanyName, req.Email)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CoverTokenResponse{Link: link})
}

// Download serves the PDF behind a cover token.
func (h *CoverLetterHandlers) Download(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	pdf, err := h.letters.Render(r.Context(), token)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cover-letter-%s.pdf"`, token))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *CoverLetterHandlers) SendApplications(w http.ResponseWriter, r *http.Request) {
	var req SendApplicationsRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	results, err := h.applications.Send(r.Context(), service.ApplicationRequest{
		Companies:       req.Companies,
		Template:        req.TemplateType,
		YearsExperience: req.YearsExperience,
	})
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SendApplicationsResponse{OK: true, Results: results})
}
