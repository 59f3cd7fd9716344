package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionService signs the admin session token carried in the flag cookie
// and owns the attributes of both session cookies.
type SessionService struct {
	secretKey []byte
	cfg       *config.SessionConfig
	clock     clock.Clock
	logger    *logrus.Logger
}

func NewSessionService(cfg *config.SessionConfig, clk clock.Clock, logger *logrus.Logger) (*SessionService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &SessionService{
		secretKey: secretKey,
		cfg:       cfg,
		clock:     clk,
		logger:    logger,
	}, nil
}

type SessionClaims struct {
	Email string `json:"email"`
	Admin bool   `json:"adm"`
	jwt.RegisteredClaims
}

// Issue signs a new admin session for email.
func (s *SessionService) Issue(email string) (string, *models.Session, error) {
	now := s.clock.Now()
	jti := uuid.New().String()
	expiresAt := now.Add(s.cfg.TTL)

	claims := &SessionClaims{
		Email: email,
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign session token")
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, &models.Session{
		ID:        jti,
		Email:     email,
		Admin:     true,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse verifies tokenString and returns the session it carries. Anything
// that is not a signed, unexpired admin token is an error.
func (s *SessionService) Parse(tokenString string) (*models.Session, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("empty session token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if !claims.Admin || claims.Subject == "" {
		return nil, fmt.Errorf("token does not grant admin access")
	}

	return &models.Session{
		ID:        claims.ID,
		Email:     claims.Subject,
		Admin:     claims.Admin,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// FromRequest parses the flag cookie of r.
func (s *SessionService) FromRequest(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(s.cfg.FlagCookie)
	if err != nil {
		return nil, err
	}
	return s.Parse(cookie.Value)
}

// SetCookies writes the flag and identity cookies for a new session.
func (s *SessionService) SetCookies(w http.ResponseWriter, token, email string) {
	maxAge := int(s.cfg.TTL / time.Second)
	http.SetCookie(w, s.cookie(s.cfg.FlagCookie, token, maxAge))
	http.SetCookie(w, s.cookie(s.cfg.EmailCookie, email, maxAge))
}

// ClearCookies overwrites both cookies with identical attributes so the
// browser drops them.
func (s *SessionService) ClearCookies(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(s.cfg.FlagCookie, "", -1))
	http.SetCookie(w, s.cookie(s.cfg.EmailCookie, "", -1))
}

func (s *SessionService) LoginPath() string {
	return s.cfg.LoginPath
}

// cookie applies the shared attributes. maxAge < 0 emits Max-Age=0.
func (s *SessionService) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
