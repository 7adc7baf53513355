package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
)

// CatalogRepository reads the keypad-selectable catalogs: event types, gifts,
// level types and lottery/voucher tracks.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListEventTypes returns the event-type catalog ordered by keypad key.
func (r *CatalogRepository) ListEventTypes(ctx context.Context, userID string) ([]models.EventType, error) {
	const query = `SELECT id, user_id, key, name, description FROM event_types WHERE user_id = $1 ORDER BY key ASC`
	var types []models.EventType
	if err := r.db.SelectContext(ctx, &types, query, userID); err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	return types, nil
}

// ListGifts returns the gift catalog ordered by keypad key.
func (r *CatalogRepository) ListGifts(ctx context.Context, userID string) ([]models.Gift, error) {
	const query = `SELECT id, user_id, key, name FROM gifts WHERE user_id = $1 ORDER BY key ASC`
	var gifts []models.Gift
	if err := r.db.SelectContext(ctx, &gifts, query, userID); err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}
	return gifts, nil
}

// ListLevelTypes returns the optional level-type catalog ordered by key.
func (r *CatalogRepository) ListLevelTypes(ctx context.Context, userID string) ([]models.LevelType, error) {
	const query = `SELECT id, user_id, key, name FROM level_types WHERE user_id = $1 ORDER BY key ASC`
	var levels []models.LevelType
	if err := r.db.SelectContext(ctx, &levels, query, userID); err != nil {
		return nil, fmt.Errorf("list level types: %w", err)
	}
	return levels, nil
}

// ListTracks returns lottery or voucher tracks ordered by key.
func (r *CatalogRepository) ListTracks(ctx context.Context, userID, kind string) ([]models.Track, error) {
	const query = `SELECT id, user_id, kind, key, name FROM tracks WHERE user_id = $1 AND kind = $2 ORDER BY key ASC`
	var tracks []models.Track
	if err := r.db.SelectContext(ctx, &tracks, query, userID, kind); err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}
