package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

type surveyRepository interface {
	UpsertEnrollment(ctx context.Context, enrollment *models.TrackEnrollment) error
	ReplaceAnswers(ctx context.Context, userID, eventID string, answers []models.FulfillmentAnswer) error
}

// EnrollRequest records a lottery entry or voucher choice.
type EnrollRequest struct {
	UserID    string `validate:"required"`
	StudentID string `validate:"required"`
	TrackID   string `validate:"required"`
	Kind      string `validate:"required,oneof=lottery voucher"`
	Year      int    `validate:"required"`
}

// FulfillmentRequest stores the survey answers for one event.
type FulfillmentRequest struct {
	UserID  string                     `validate:"required"`
	EventID string                     `validate:"required"`
	Answers []models.FulfillmentAnswer `validate:"required,min=1,dive"`
}

// SurveyService persists post-event enrollments and survey answers.
type SurveyService struct {
	repo      surveyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSurveyService constructs the survey service.
func NewSurveyService(repo surveyRepository, validate *validator.Validate, logger *zap.Logger) *SurveyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyService{repo: repo, validator: validate, logger: logger}
}

// Enroll records the caller's track choice, replacing an earlier choice of
// the same kind for the year.
func (s *SurveyService) Enroll(ctx context.Context, req EnrollRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.WrapAs(appErrors.ErrInternal, err, "invalid enrollment")
	}
	enrollment := &models.TrackEnrollment{
		UserID:    req.UserID,
		StudentID: req.StudentID,
		TrackID:   req.TrackID,
		Kind:      req.Kind,
		Year:      req.Year,
	}
	if err := s.repo.UpsertEnrollment(ctx, enrollment); err != nil {
		s.logger.Error("enrollment save failed", zap.String("student_id", req.StudentID), zap.Error(err))
		return appErrors.WrapAs(appErrors.ErrPersistence, err, "")
	}
	return nil
}

// SubmitFulfillment replaces the answer set for the surveyed event.
func (s *SurveyService) SubmitFulfillment(ctx context.Context, req FulfillmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.WrapAs(appErrors.ErrInternal, err, "invalid fulfillment submission")
	}
	if err := s.repo.ReplaceAnswers(ctx, req.UserID, req.EventID, req.Answers); err != nil {
		s.logger.Error("fulfillment save failed", zap.String("event_id", req.EventID), zap.Error(err))
		return appErrors.WrapAs(appErrors.ErrPersistence, err, "")
	}
	return nil
}
