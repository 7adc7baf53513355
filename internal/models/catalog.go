package models

// EventType is a catalog entry selected by its numeric keypad key.
type EventType struct {
	ID          string `db:"id" json:"id"`
	UserID      string `db:"user_id" json:"user_id"`
	Key         int    `db:"key" json:"key"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// Gift is a selectable gift catalog entry.
type Gift struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Key    int    `db:"key" json:"key"`
	Name   string `db:"name" json:"name"`
}

// LevelType classifies an event (seniority/level tier). Optional catalog.
type LevelType struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Key    int    `db:"key" json:"key"`
	Name   string `db:"name" json:"name"`
}

// Track kinds distinguish lottery tracks from voucher tracks.
const (
	TrackKindLottery = "lottery"
	TrackKindVoucher = "voucher"
)

// Track is a lottery or voucher category a caller can enroll into.
type Track struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Kind   string `db:"kind" json:"kind"`
	Key    int    `db:"key" json:"key"`
	Name   string `db:"name" json:"name"`
}
