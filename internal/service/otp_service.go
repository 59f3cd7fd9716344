package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/folio/folio/internal/apperror"
	"github.com/folio/folio/internal/clock"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/mail"
	"github.com/folio/folio/internal/models"
	"github.com/folio/folio/internal/repository"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeMin  = 100000
	codeSpan = 900000
)

type OTPService struct {
	access   *AccessService
	store    OTPStore
	mailer   mail.Mailer
	throttle Throttle
	clock    clock.Clock
	cfg      *config.OTPConfig
	logCodes bool
	hashCost int
	logger   *logrus.Logger
}

// NewOTPService wires the issuer and verifier. throttle may be nil, which
// disables the resend cooldown. logCodes writes issued codes to the debug
// log and must only be set outside production.
func NewOTPService(
	access *AccessService,
	store OTPStore,
	mailer mail.Mailer,
	throttle Throttle,
	clk clock.Clock,
	cfg *config.OTPConfig,
	logCodes bool,
	logger *logrus.Logger,
) *OTPService {
	return &OTPService{
		access:   access,
		store:    store,
		mailer:   mailer,
		throttle: throttle,
		clock:    clk,
		cfg:      cfg,
		logCodes: logCodes,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

// Issue replaces any outstanding code for email with a fresh one and mails
// it. If delivery fails the new record stays in place.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	ok, err := s.access.IsAuthorized(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotAuthorized("You are not allowed to request an admin code.")
	}

	if err := s.checkCooldown(ctx, email); err != nil {
		return err
	}

	code, err := GenerateCode()
	if err != nil {
		return apperror.Internal("Failed to generate OTP", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return apperror.Internal("Failed to generate OTP", fmt.Errorf("failed to hash OTP: %w", err))
	}

	rec := &models.OTPRecord{
		ID:       uuid.New().String(),
		Email:    email,
		CodeHash: string(hash),
	}

	invalidated, err := s.rotate(ctx, rec)
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Error("Failed to store OTP")
		s.releaseCooldown(ctx, email)
		return apperror.Store(err)
	}

	otpIssuedTotal.Inc()

	if s.logCodes {
		s.logger.WithFields(logrus.Fields{
			"email": email,
			"otp":   code,
		}).Debug("OTP generated (logged for development)")
	}

	err = s.mailer.Send(ctx, mail.Message{
		From:     s.cfg.From,
		To:       []string{email},
		Subject:  "Your admin login code",
		TextBody: fmt.Sprintf("Your login code is %s. It will expire in %s.", code, humanDuration(s.cfg.Expiry)),
	})
	mailSentTotal.WithLabelValues("otp", mailResult(err)).Inc()
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Error("Failed to send OTP email")
		s.releaseCooldown(ctx, email)
		return apperror.DeliveryFailed(err)
	}

	s.logger.WithFields(logrus.Fields{
		"email":       email,
		"invalidated": invalidated,
	}).Info("OTP issued")

	return nil
}

// Verify redeems code for email. Wrong, used and expired codes are all
// reported as InvalidOrExpired.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	ok, err := s.access.IsAuthorized(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		otpVerifyTotal.WithLabelValues("not_authorized").Inc()
		return apperror.NotAuthorized("You no longer have admin access.")
	}

	rec, err := s.store.FindActive(ctx, email, s.clock.Now())
	if errors.Is(err, repository.ErrNotFound) {
		otpVerifyTotal.WithLabelValues("invalid").Inc()
		return apperror.InvalidOrExpired()
	}
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Error("Failed to look up OTP")
		return apperror.Store(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)); err != nil {
		otpVerifyTotal.WithLabelValues("invalid").Inc()
		return apperror.InvalidOrExpired()
	}

	if err := s.store.MarkUsed(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrAlreadyUsed) {
			otpVerifyTotal.WithLabelValues("invalid").Inc()
			return apperror.InvalidOrExpired()
		}
		s.logger.WithError(err).WithField("email", email).Error("Failed to mark OTP used")
		return apperror.Store(err)
	}

	otpVerifyTotal.WithLabelValues("success").Inc()
	return nil
}

// rotate retries lost rotation races. Timestamps are refreshed on every
// attempt so the stored record is always the newest.
func (s *OTPService) rotate(ctx context.Context, rec *models.OTPRecord) (int, error) {
	b := retry.WithMaxRetries(s.cfg.RotateAttempts, retry.NewExponential(20*time.Millisecond))

	var invalidated int
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		now := s.clock.Now()
		rec.CreatedAt = now
		rec.ExpiresAt = now.Add(s.cfg.Expiry)

		n, err := s.store.Rotate(ctx, rec)
		if errors.Is(err, repository.ErrConflict) {
			s.logger.WithField("email", rec.Email).Warn("Concurrent OTP rotation, retrying")
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}

		invalidated = n
		return nil
	})

	return invalidated, err
}

func (s *OTPService) checkCooldown(ctx context.Context, email string) error {
	if s.throttle == nil || s.cfg.ResendCooldown <= 0 {
		return nil
	}

	allowed, err := s.throttle.Allow(ctx, cooldownKey(email), s.cfg.ResendCooldown)
	if err != nil {
		// cooldown is best effort
		s.logger.WithError(err).Warn("Failed to check OTP cooldown")
		return nil
	}
	if !allowed {
		return apperror.TooManyRequests("Please wait before requesting another code.")
	}

	return nil
}

// releaseCooldown lets the client retry straight away after a failed issue.
func (s *OTPService) releaseCooldown(ctx context.Context, email string) {
	if s.throttle == nil || s.cfg.ResendCooldown <= 0 {
		return
	}
	if err := s.throttle.Release(ctx, cooldownKey(email)); err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("Failed to release OTP cooldown")
	}
}

func cooldownKey(email string) string {
	return "otp_cooldown:" + email
}

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	case d >= time.Second:
		return plural(int(d/time.Second), "second")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
