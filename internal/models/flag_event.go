package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FlagEvent is an outbox row written after a flag/unflag commits, for an
// external notifier to drain. Delivery is not this service's concern.
type FlagEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type      string         `gorm:"size:50;not null;index" json:"type"`
	FlagID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"flag_id"`
	Payload   datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (FlagEvent) TableName() string {
	return "flag_events"
}
