package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
)

// TextRepository reads operator-editable caller-facing strings.
type TextRepository struct {
	db *sqlx.DB
}

// NewTextRepository constructs a TextRepository.
func NewTextRepository(db *sqlx.DB) *TextRepository {
	return &TextRepository{db: db}
}

// ListByUser returns all texts for a user scope.
func (r *TextRepository) ListByUser(ctx context.Context, userID string) ([]models.Text, error) {
	const query = `SELECT id, user_id, name, value FROM texts WHERE user_id = $1`
	var texts []models.Text
	if err := r.db.SelectContext(ctx, &texts, query, userID); err != nil {
		return nil, fmt.Errorf("list texts: %w", err)
	}
	return texts, nil
}
