package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/repository"
	"github.com/buzz-code/event-management-nra-sub001/pkg/database"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
	"github.com/buzz-code/event-management-nra-sub001/pkg/lock"
)

// SaveEventRequest carries everything collected during a report flow.
type SaveEventRequest struct {
	UserID            string                `validate:"required"`
	Student           *models.StudentDetail `validate:"required"`
	EventTypeID       string                `validate:"required"`
	EventDate         time.Time             `validate:"required"`
	LevelTypeID       *string
	GiftIDs           []string
	ReporterStudentID *string
	ReporterKind      string `validate:"required,oneof=student proxy"`
	// Existing is the event resolved before data collection; the save
	// re-validates the triple inside the transaction, so a concurrent
	// create cannot slip through.
	Existing *models.Event
}

// EventService resolves event existence and persists reports atomically:
// event upsert, gift-set replacement and the family-teacher assignment
// append commit or roll back as one unit.
type EventService struct {
	db          *sqlx.DB
	events      *repository.EventRepository
	assignments *repository.AssignmentRepository
	locker      lock.Locker
	lockTTL     time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEventService constructs the event service.
func NewEventService(db *sqlx.DB, events *repository.EventRepository, assignments *repository.AssignmentRepository, locker lock.Locker, lockTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if lockTTL <= 0 {
		lockTTL = 15 * time.Second
	}
	return &EventService{
		db:          db,
		events:      events,
		assignments: assignments,
		locker:      locker,
		lockTTL:     lockTTL,
		validator:   validate,
		logger:      logger,
	}
}

// FindExisting resolves the authoritative event for (student, type, date).
// Returns nil when no event exists; presence flips the flow to edit mode.
func (s *EventService) FindExisting(ctx context.Context, userID, studentID, eventTypeID string, date time.Time) (*models.Event, error) {
	event, err := s.events.FindByTriple(ctx, s.events.DB(), userID, studentID, eventTypeID, normalizeDate(date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to check event existence")
	}
	return event, nil
}

// Save persists the report in one transaction. The advisory lock keyed by
// the triple serializes concurrent calls racing on the same event, and the
// in-transaction re-check turns a lost create race into an edit.
func (s *EventService) Save(ctx context.Context, req SaveEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "invalid save request")
	}
	date := normalizeDate(req.EventDate)

	lockKey := fmt.Sprintf("event:%s:%s:%s:%s", req.UserID, req.Student.ID, req.EventTypeID, date.Format("20060102"))
	release, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrPersistence, "could not serialize event save")
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			s.logger.Warn("event lock release failed", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	var saved *models.Event
	txErr := database.Transact(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := s.events.FindByTriple(ctx, tx, req.UserID, req.Student.ID, req.EventTypeID, date)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		source := models.AssignmentSourceReport
		if current == nil {
			saved = &models.Event{
				UserID:            req.UserID,
				StudentID:         req.Student.ID,
				EventTypeID:       req.EventTypeID,
				EventDate:         date,
				LevelTypeID:       req.LevelTypeID,
				ReporterStudentID: req.ReporterStudentID,
				ReportOrigin:      req.ReporterKind,
			}
			if err := s.events.Insert(ctx, tx, saved); err != nil {
				return err
			}
		} else {
			source = models.AssignmentSourceEdit
			current.LevelTypeID = req.LevelTypeID
			current.ReporterStudentID = req.ReporterStudentID
			current.ReportOrigin = models.MergeOrigin(current.ReportOrigin, req.ReporterKind)
			if err := s.events.Update(ctx, tx, current); err != nil {
				return err
			}
			saved = current
		}

		if err := s.events.ReplaceGifts(ctx, tx, saved.ID, req.GiftIDs); err != nil {
			return err
		}

		return s.recordAssignment(ctx, tx, req, saved, source)
	})
	if txErr != nil {
		s.logger.Error("event save failed", zap.String("student_id", req.Student.ID), zap.Error(txErr))
		return nil, appErrors.WrapAs(appErrors.ErrPersistence, txErr, "")
	}
	return saved, nil
}

// recordAssignment maintains the rolling family-teacher history. Skipped
// when no teacher or family can be resolved for the caller.
func (s *EventService) recordAssignment(ctx context.Context, tx *sqlx.Tx, req SaveEventRequest, event *models.Event, source string) error {
	if req.Student.ClassTeacherID == nil || *req.Student.ClassTeacherID == "" || req.Student.FamilyKey == "" {
		return nil
	}
	teacherID := *req.Student.ClassTeacherID
	year := event.EventDate.Year()

	assignment, err := s.assignments.FindForUpdate(ctx, tx, req.UserID, year, req.Student.FamilyKey)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		assignment = &models.FamilyTeacherAssignment{
			UserID:           req.UserID,
			Year:             year,
			FamilyKey:        req.Student.FamilyKey,
			CurrentTeacherID: teacherID,
		}
		if err := s.assignments.Insert(ctx, tx, assignment); err != nil {
			return err
		}
	} else if err := s.assignments.SetCurrentTeacher(ctx, tx, assignment.ID, teacherID); err != nil {
		return err
	}

	return s.assignments.AppendHistory(ctx, tx, &models.AssignmentHistoryEntry{
		AssignmentID: assignment.ID,
		EventID:      event.ID,
		TeacherID:    teacherID,
		Source:       source,
	})
}

// HasPriorEvents reports whether the caller ever reported an event.
func (s *EventService) HasPriorEvents(ctx context.Context, userID, studentID string) (bool, error) {
	count, err := s.events.CountByStudent(ctx, userID, studentID)
	if err != nil {
		return false, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to count events")
	}
	return count > 0, nil
}

// HasPastEvents reports whether the caller has an event dated strictly
// before now.
func (s *EventService) HasPastEvents(ctx context.Context, userID, studentID string, now time.Time) (bool, error) {
	count, err := s.events.CountPastByStudent(ctx, userID, studentID, now)
	if err != nil {
		return false, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to count past events")
	}
	return count > 0, nil
}

// LatestPastEvent returns the caller's most recent past event, or nil.
func (s *EventService) LatestPastEvent(ctx context.Context, userID, studentID string, now time.Time) (*models.EventDetail, error) {
	detail, err := s.events.FindLatestPast(ctx, userID, studentID, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load past event")
	}
	return detail, nil
}

// GiftIDs returns the gift set currently linked to an event.
func (s *EventService) GiftIDs(ctx context.Context, eventID string) ([]string, error) {
	ids, err := s.events.GiftIDs(ctx, eventID)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load event gifts")
	}
	return ids, nil
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
