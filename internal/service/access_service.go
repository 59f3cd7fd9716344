package service

import (
	"context"

	"github.com/folio/folio/internal/apperror"
	"github.com/sirupsen/logrus"
)

// AccessService is the admin allow-list gate.
type AccessService struct {
	store  AccessStore
	logger *logrus.Logger
}

func NewAccessService(store AccessStore, logger *logrus.Logger) *AccessService {
	return &AccessService{
		store:  store,
		logger: logger,
	}
}

// IsAuthorized reports whether email has an active allow-list entry. A store
// failure is returned as an error and never reads as "not authorized".
func (s *AccessService) IsAuthorized(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}

	active, err := s.store.IsActive(ctx, email)
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Error("Failed to check admin access")
		return false, apperror.Store(err)
	}

	return active, nil
}
