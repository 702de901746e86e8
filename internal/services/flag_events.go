package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ideafare/moderation-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

const (
	EventContentFlagged   EventType = "content_flagged"
	EventContentUnflagged EventType = "content_unflagged"
)

// Event describes one flag lifecycle change. The ledger publishes it only
// after the owning transaction commits, so a sink never observes state that
// later rolled back.
type Event struct {
	Type   EventType
	Flag   models.Flag
	Report *models.FlagReport // set for content_flagged
}

// EventSink receives flag lifecycle events. Delivery and ordering beyond
// the publish call are the sink's concern.
type EventSink interface {
	Publish(Event)
}

// ChannelSink forwards events to a buffered channel and drops when the
// consumer falls behind. Intended for in-process notifiers and tests.
type ChannelSink struct {
	C chan Event
}

func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, size)}
}

func (s *ChannelSink) Publish(e Event) {
	select {
	case s.C <- e:
	default:
		slog.Warn("event channel full, dropping event", "type", string(e.Type), "flag_id", e.Flag.ID)
	}
}

// OutboxSink persists events to the flag_events table for an external
// notifier to drain. Persistence is best effort: the flag state is already
// committed, so a failed outbox write is logged, not bubbled up.
type OutboxSink struct {
	db *gorm.DB
}

func NewOutboxSink(db *gorm.DB) *OutboxSink {
	return &OutboxSink{db: db}
}

type eventPayload struct {
	ContentKind string     `json:"content_kind"`
	ContentID   int64      `json:"content_id"`
	ReportCount int64      `json:"report_count"`
	State       string     `json:"state"`
	ReporterID  *uuid.UUID `json:"reporter_id,omitempty"`
	Reason      *int       `json:"reason,omitempty"`
	Info        *string    `json:"info,omitempty"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
}

func (s *OutboxSink) Publish(e Event) {
	payload := eventPayload{
		ContentKind: e.Flag.ContentKind,
		ContentID:   e.Flag.ContentID,
		ReportCount: e.Flag.ReportCount,
		State:       e.Flag.State.String(),
	}
	if e.Report != nil {
		payload.ReporterID = &e.Report.ReporterID
		payload.Reason = &e.Report.Reason
		payload.Info = e.Report.Info
		payload.ReportedAt = &e.Report.ReportedAt
	}

	b, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal flag event payload", "error", err, "flag_id", e.Flag.ID)
		return
	}

	row := models.FlagEvent{
		ID:      uuid.New(),
		Type:    string(e.Type),
		FlagID:  e.Flag.ID,
		Payload: datatypes.JSON(b),
	}
	if err := s.db.Create(&row).Error; err != nil {
		slog.Error("failed to store flag event", "error", err, "flag_id", e.Flag.ID, "type", string(e.Type))
	}
}

// MultiSink fans an event out to several sinks in order.
type MultiSink struct {
	sinks []EventSink
}

func NewMultiSink(sinks ...EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Publish(e Event) {
	for _, sink := range s.sinks {
		sink.Publish(e)
	}
}
