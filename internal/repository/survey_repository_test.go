package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
)

func TestSurveyRepositoryUpsertEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyRepository(db)

	mock.ExpectExec("INSERT INTO track_enrollments").
		WithArgs(sqlmock.AnyArg(), "user-1", "student-1", "track-1",
			models.TrackKindLottery, 2026, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.TrackEnrollment{
		UserID:    "user-1",
		StudentID: "student-1",
		TrackID:   "track-1",
		Kind:      models.TrackKindLottery,
		Year:      2026,
	}
	require.NoError(t, repo.UpsertEnrollment(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyRepositoryReplaceAnswersIsTransactional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM fulfillment_answers").
		WithArgs("user-1", "event-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO fulfillment_answers").
		WithArgs(sqlmock.AnyArg(), "user-1", "event-1", "FULFILL.Q_RECEIVED", 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO fulfillment_answers").
		WithArgs(sqlmock.AnyArg(), "user-1", "event-1", "FULFILL.Q_SATISFACTION", 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	answers := []models.FulfillmentAnswer{
		{QuestionKey: "FULFILL.Q_RECEIVED", Rating: 5},
		{QuestionKey: "FULFILL.Q_SATISFACTION", Rating: 4},
	}
	require.NoError(t, repo.ReplaceAnswers(context.Background(), "user-1", "event-1", answers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyRepositoryReplaceAnswersRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM fulfillment_answers").
		WithArgs("user-1", "event-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO fulfillment_answers").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	answers := []models.FulfillmentAnswer{{QuestionKey: "FULFILL.Q_RECEIVED", Rating: 5}}
	err := repo.ReplaceAnswers(context.Background(), "user-1", "event-1", answers)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
