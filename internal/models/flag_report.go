package models

import (
	"time"

	"github.com/google/uuid"
)

// FlagReport is one user's report against one flagged item. The composite
// unique index on (flag_id, reporter_id) is what enforces one report per
// user per item; duplicate submissions surface as a constraint violation,
// never as an application-level pre-check.
type FlagReport struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FlagID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_flag_reports_reporter" json:"flag_id"`
	ReporterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_flag_reports_reporter;index" json:"reporter_id"`
	Reason     int       `gorm:"not null" json:"reason"`
	Info       *string   `gorm:"type:text" json:"info,omitempty"`
	ReportedAt time.Time `gorm:"not null;index" json:"reported_at"`
	Flag       Flag      `gorm:"foreignKey:FlagID;constraint:OnDelete:CASCADE" json:"-"`
}

func (FlagReport) TableName() string {
	return "flag_reports"
}
