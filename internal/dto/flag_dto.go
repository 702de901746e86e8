package dto

import (
	"time"

	"github.com/google/uuid"
)

// SetFlagRequest is the toggle body: a non-empty reason means "report this
// content", an empty/absent reason means "withdraw my report".
type SetFlagRequest struct {
	ContentKind string     `json:"content_kind"`
	ContentID   int64      `json:"content_id"`
	CreatorID   *uuid.UUID `json:"creator_id,omitempty"`
	Reason      string     `json:"reason"`
	Info        string     `json:"info"`
}

type FlagReportResponse struct {
	ID         uuid.UUID `json:"id"`
	Reason     int       `json:"reason"`
	Info       *string   `json:"info,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
	Message    string    `json:"message"`
}

type FlagSummaryResponse struct {
	ContentKind string `json:"content_kind"`
	ContentID   int64  `json:"content_id"`
	ReportCount int64  `json:"report_count"`
	State       string `json:"state"`
}

type ReasonResponse struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

type SetStateRequest struct {
	State int16 `json:"state"`
}
