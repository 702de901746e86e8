package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationState is the lifecycle stage of a flagged item. Only the
// UNFLAGGED<->FLAGGED edge moves automatically with the report count;
// the remaining states are written by moderators.
type ModerationState int16

const (
	StateUnflagged ModerationState = iota + 1
	StateFlagged
	StateRejected // flag rejected by a moderator
	StateNotified // content creator notified
	StateResolved // content modified or deleted
)

func (s ModerationState) Valid() bool {
	return s >= StateUnflagged && s <= StateResolved
}

func (s ModerationState) String() string {
	switch s {
	case StateUnflagged:
		return "unflagged"
	case StateFlagged:
		return "flagged"
	case StateRejected:
		return "rejected"
	case StateNotified:
		return "notified"
	case StateResolved:
		return "resolved"
	}
	return "unknown"
}

// Flag is the per-content aggregate: one row per item that has ever been
// reported. ReportCount always equals the number of live FlagReport rows
// pointing at it; the composite unique index makes the row the single
// aggregate for its content reference.
type Flag struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ContentKind string          `gorm:"size:50;not null;uniqueIndex:idx_flags_content" json:"content_kind"`
	ContentID   int64           `gorm:"not null;uniqueIndex:idx_flags_content" json:"content_id"`
	CreatorID   *uuid.UUID      `gorm:"type:uuid;index" json:"creator_id,omitempty"`
	ModeratorID *uuid.UUID      `gorm:"type:uuid" json:"moderator_id,omitempty"`
	State       ModerationState `gorm:"not null;default:1" json:"state"`
	ReportCount int64           `gorm:"not null;default:0" json:"report_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Flag) TableName() string {
	return "flags"
}
