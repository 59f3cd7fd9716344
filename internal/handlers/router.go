package handlers

import (
	"net/http"

	"github.com/folio/folio/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Routes collects everything the router serves.
type Routes struct {
	Auth         *AuthHandlers
	Projects     *ProjectHandlers
	CoverLetters *CoverLetterHandlers
	Contact      *ContactHandlers
	Guard        *middleware.AuthMiddleware

	// UploadDir is served under UploadPrefix when images are stored locally.
	UploadDir    string
	UploadPrefix string

	Production  bool
	CORSOrigins []string
	Logger      *logrus.Logger
}

func NewRouter(rt Routes) http.Handler {
	router := mux.NewRouter()

	router.Use(middleware.RecoveryMiddleware(rt.Logger))
	router.Use(middleware.LoggingMiddleware(rt.Logger))
	router.Use(middleware.SecurityHeaders(rt.Production))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if rt.UploadDir != "" && rt.UploadPrefix != "" {
		router.PathPrefix(rt.UploadPrefix + "/").Handler(
			http.StripPrefix(rt.UploadPrefix+"/", http.FileServer(http.Dir(rt.UploadDir))),
		).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/admin-otp/request", rt.Auth.RequestCode).Methods(http.MethodPost)
	api.HandleFunc("/admin-otp/verify", rt.Auth.VerifyCode).Methods(http.MethodPost)
	api.HandleFunc("/admin-logout", rt.Auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/admin-status", rt.Auth.Status).Methods(http.MethodGet)
	api.HandleFunc("/admin-profile", rt.Auth.Status).Methods(http.MethodGet)

	api.HandleFunc("/projects", rt.Projects.PublicList).Methods(http.MethodGet)
	api.HandleFunc("/projects/{slug}", rt.Projects.PublicGet).Methods(http.MethodGet)
	api.HandleFunc("/cover-letter/{token}", rt.CoverLetters.Download).Methods(http.MethodGet)
	api.HandleFunc("/contact", rt.Contact.Submit).Methods(http.MethodPost)

	guard := rt.Guard.RequireAdmin
	api.Handle("/cover-token", guard(http.HandlerFunc(rt.CoverLetters.CreateToken))).Methods(http.MethodPost)
	api.Handle("/send-applications", guard(http.HandlerFunc(rt.CoverLetters.SendApplications))).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(guard)
	admin.HandleFunc("/projects", rt.Projects.AdminList).Methods(http.MethodGet)
	admin.HandleFunc("/projects", rt.Projects.Create).Methods(http.MethodPost)
	admin.HandleFunc("/projects/image-upload", rt.Projects.UploadImage).Methods(http.MethodPost)
	admin.HandleFunc("/projects/{slug}", rt.Projects.AdminGet).Methods(http.MethodGet)
	admin.HandleFunc("/projects/{slug}", rt.Projects.Update).Methods(http.MethodPut)
	admin.HandleFunc("/projects/{slug}", rt.Projects.Delete).Methods(http.MethodDelete)

	return middleware.CORS(rt.CORSOrigins, router)
}
