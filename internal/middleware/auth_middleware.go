package middleware

import (
	"context"
	"net/http"

	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/service"
	"github.com/sirupsen/logrus"
)

type contextKey string

const sessionKey contextKey = "session"

type AuthMiddleware struct {
	sessions *service.SessionService
	revoker  service.Revoker
	logger   *logrus.Logger
}

// NewAuthMiddleware builds the admin route guard. revoker may be nil, in
// which case logout only clears cookies.
func NewAuthMiddleware(sessions *service.SessionService, revoker service.Revoker, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		revoker:  revoker,
		logger:   logger,
	}
}

// RequireAdmin redirects to the login page unless the request carries a valid,
// unrevoked admin session.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.sessions.FromRequest(r)
		if err != nil {
			m.logger.WithError(err).WithField("path", r.URL.Path).Debug("Session rejected")
			m.redirectToLogin(w, r)
			return
		}

		if m.revoker != nil {
			revoked, err := m.revoker.IsRevoked(r.Context(), session.ID)
			if err != nil {
				// fail closed
				m.logger.WithError(err).Error("Failed to check session revocation")
				m.redirectToLogin(w, r)
				return
			}
			if revoked {
				m.logger.WithField("email", session.Email).Debug("Revoked session used")
				m.redirectToLogin(w, r)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func (m *AuthMiddleware) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, m.sessions.LoginPath(), http.StatusFound)
}

func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the session stored by RequireAdmin, if any.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*models.Session)
	return session, ok
}
