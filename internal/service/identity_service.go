package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

type studentRepository interface {
	FindByTZ(ctx context.Context, userID, tz string, year int) (*models.StudentDetail, error)
	FindClassmateByTZ(ctx context.Context, userID, tz, classID string, year int) (*models.StudentDetail, error)
}

var tzPattern = regexp.MustCompile(`^\d{9}$`)

// IdentityService maps keyed-in national IDs to caller records.
type IdentityService struct {
	repo   studentRepository
	logger *zap.Logger
}

// NewIdentityService constructs the identity service.
func NewIdentityService(repo studentRepository, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{repo: repo, logger: logger}
}

// Resolve looks up a caller by 9-digit national ID. Not finding one is a
// terminal outcome, not a retryable error: a fabricated ID is
// indistinguishable from a typo.
func (s *IdentityService) Resolve(ctx context.Context, userID, tz string, year int) (*models.StudentDetail, error) {
	if !tzPattern.MatchString(tz) {
		return nil, appErrors.ErrCallerNotFound
	}
	detail, err := s.repo.FindByTZ(ctx, userID, tz, year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("caller not found", zap.String("tz", tz))
			return nil, appErrors.ErrCallerNotFound
		}
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to resolve caller")
	}
	return detail, nil
}

// ResolveRepresentative resolves a class representative: same lookup, plus a
// check that she currently belongs to an active class for the year.
func (s *IdentityService) ResolveRepresentative(ctx context.Context, userID, tz string, year int) (*models.StudentDetail, error) {
	detail, err := s.Resolve(ctx, userID, tz, year)
	if err != nil {
		return nil, err
	}
	if !detail.HasActiveClass(year) {
		return nil, appErrors.ErrNoActiveClass
	}
	if detail.IsRepresentative == nil || !*detail.IsRepresentative {
		return nil, appErrors.ErrNoActiveClass
	}
	return detail, nil
}

// ResolveClassmate resolves a proxy-report target within the representative's
// own class. A miss is not terminal; the representative may retype.
func (s *IdentityService) ResolveClassmate(ctx context.Context, userID, tz, classID string, year int) (*models.StudentDetail, error) {
	if !tzPattern.MatchString(tz) {
		return nil, appErrors.ErrInvalidInput
	}
	detail, err := s.repo.FindClassmateByTZ(ctx, userID, tz, classID, year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidInput
		}
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to resolve classmate")
	}
	return detail, nil
}
