package handlers

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/service"
	"github.com/folio/folio/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxImageBytes = 10 << 20

var whitespace = regexp.MustCompile(`\s+`)

type ProjectHandlers struct {
	projects  *service.ProjectService
	storage   storage.Storage
	clock     clock.Clock
	validator *Validator
	logger    *logrus.Logger
}

func NewProjectHandlers(
	projects *service.ProjectService,
	store storage.Storage,
	clk clock.Clock,
	validator *Validator,
	logger *logrus.Logger,
) *ProjectHandlers {
	return &ProjectHandlers{
		projects:  projects,
		storage:   store,
		clock:     clk,
		validator: validator,
		logger:    logger,
	}
}

type ProjectRequest struct {
	Slug        string   `json:"slug" validate:"max=200"`
	Title       string   `json:"title" validate:"max=200"`
	Client      string   `json:"client"`
	Type        string   `json:"type"`
	Technology  string   `json:"technology"`
	Role        string   `json:"role"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
	Links       []string `json:"links"`
	Published   *bool    `json:"published"`
}

func (req ProjectRequest) input() service.ProjectInput {
	return service.ProjectInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Client:      req.Client,
		Type:        req.Type,
		Technology:  req.Technology,
		Role:        req.Role,
		Image:       req.Image,
		Description: req.Description,
		Highlights:  req.Highlights,
		Links:       req.Links,
		Published:   req.Published,
	}
}

type UploadResponse struct {
	URL string `json:"url"`
}

func (h *ProjectHandlers) PublicList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *ProjectHandlers) AdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *ProjectHandlers) list(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	projects, err := h.projects.List(r.Context(), publishedOnly)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandlers) PublicGet(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, true)
}

func (h *ProjectHandlers) AdminGet(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, false)
}

func (h *ProjectHandlers) get(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	project, err := h.projects.Get(r.Context(), mux.Vars(r)["slug"], publishedOnly)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), req.input())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	project, err := h.projects.Update(r.Context(), mux.Vars(r)["slug"], req.input())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), mux.Vars(r)["slug"]); err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, OKResponse{OK: true})
}

// UploadImage stores the multipart "file" field and returns its public URL.
func (h *ProjectHandlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		respondWithError(w, h.logger, apperror.Validation("File too large or malformed upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, h.logger, apperror.Validation("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		respondWithError(w, h.logger, apperror.Validation("File too large"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		contentType = http.DetectContentType(head[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			respondWithError(w, h.logger, apperror.Internal("Upload failed", err))
			return
		}
	}
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, h.logger, apperror.Validation("Only image uploads are allowed"))
		return
	}

	name := fmt.Sprintf("%d-%s", h.clock.Now().UnixMilli(), whitespace.ReplaceAllString(header.Filename, "-"))
	url, err := h.storage.Save(r.Context(), name, contentType, file)
	if err != nil {
		respondWithError(w, h.logger, apperror.Internal("Upload failed", err))
		return
	}

	h.logger.WithField("url", url).Info("Project image uploaded")
	respondWithJSON(w, http.StatusOK, UploadResponse{URL: url})
}
