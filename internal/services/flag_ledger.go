package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ideafare/moderation-backend/internal/config"
	"github.com/ideafare/moderation-backend/internal/content"
	"github.com/ideafare/moderation-backend/internal/identity"
	"github.com/ideafare/moderation-backend/internal/models"
	"gorm.io/gorm"
)

// FlagLedger validates and stores individual reports, enforces one report
// per user per item, and drives the registry's counter and state inside the
// same transaction as each report write. Events go to the sink only after
// that transaction commits.
type FlagLedger struct {
	db       *gorm.DB
	registry *FlagRegistry
	reasons  []config.Reason
	sink     EventSink
}

// NewFlagLedger wires the ledger. A nil sink disables event emission.
func NewFlagLedger(db *gorm.DB, registry *FlagRegistry, cfg *config.Config, sink EventSink) *FlagLedger {
	reasons := make([]config.Reason, len(cfg.FlagReasons))
	copy(reasons, cfg.FlagReasons)
	return &FlagLedger{
		db:       db,
		registry: registry,
		reasons:  reasons,
		sink:     sink,
	}
}

// Reasons returns the ordered reason set for rendering a report form. The
// "something else" reason is always last.
func (l *FlagLedger) Reasons() []config.Reason {
	out := make([]config.Reason, len(l.reasons))
	copy(out, l.reasons)
	return out
}

func (l *FlagLedger) lastReasonCode() int {
	return l.reasons[len(l.reasons)-1].Code
}

// cleanReason parses the raw form value and checks membership in the
// configured set.
func (l *FlagLedger) cleanReason(raw string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &InvalidReasonError{Reason: raw}
	}
	for _, r := range l.reasons {
		if r.Code == code {
			return code, nil
		}
	}
	return 0, &InvalidReasonError{Reason: raw}
}

// HasReported reports whether user has an active report against ref.
// Anonymous callers have never reported anything. No side effects: the
// aggregate is not created here.
func (l *FlagLedger) HasReported(user identity.UserID, ref content.Reference) (bool, error) {
	uid, ok := user.UUID()
	if !ok {
		return false, nil
	}
	var n int64
	err := l.db.Model(&models.FlagReport{}).
		Joins("JOIN flags ON flags.id = flag_reports.flag_id").
		Where("flags.content_kind = ? AND flags.content_id = ? AND flag_reports.reporter_id = ?",
			ref.Kind, ref.ID, uid).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing report: %w", err)
	}
	return n > 0, nil
}

// SubmitReport records one user's report against ref. The report insert,
// the counter increment and the state reevaluation share one transaction;
// a failure in any of them rolls back all three. The unique constraint on
// (flag_id, reporter_id) is the source of truth for duplicates — there is
// deliberately no pre-check, which would race.
func (l *FlagLedger) SubmitReport(user identity.UserID, ref content.Reference, creator *uuid.UUID, reason, info string) (*models.FlagReport, error) {
	uid, ok := user.UUID()
	if !ok {
		return nil, ErrAnonymousReporter
	}

	code, err := l.cleanReason(reason)
	if err != nil {
		return nil, err
	}

	var cleanInfo *string
	if code == l.lastReasonCode() {
		trimmed := strings.TrimSpace(info)
		if trimmed == "" {
			return nil, ErrMissingInfo
		}
		cleanInfo = &trimmed
	} else if info != "" {
		cleanInfo = &info
	}

	var (
		flag   *models.Flag
		report models.FlagReport
	)
	err = l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		flag, err = l.registry.GetOrCreate(tx, ref, creator)
		if err != nil {
			return err
		}

		report = models.FlagReport{
			ID:         uuid.New(),
			FlagID:     flag.ID,
			ReporterID: uid,
			Reason:     code,
			Info:       cleanInfo,
			ReportedAt: time.Now().UTC(),
		}
		if err := tx.Create(&report).Error; err != nil {
			if isUniqueViolation(err) {
				return &DuplicateReportError{Reporter: uid}
			}
			return fmt.Errorf("failed to store report: %w", err)
		}

		if err := l.registry.AdjustCount(tx, flag, +1); err != nil {
			return err
		}
		return l.registry.ReevaluateState(tx, flag)
	})
	if err != nil {
		return nil, err
	}

	l.emit(Event{Type: EventContentFlagged, Flag: *flag, Report: &report})
	return &report, nil
}

// WithdrawReport removes the caller's report against ref. Missing aggregate
// and missing report collapse into the same NoSuchReportError: either way
// there is nothing to withdraw.
func (l *FlagLedger) WithdrawReport(user identity.UserID, ref content.Reference) error {
	uid, ok := user.UUID()
	if !ok {
		return ErrAnonymousReporter
	}

	var flag models.Flag
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(content.ForContent(ref)).First(&flag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NoSuchReportError{Reporter: uid}
			}
			return fmt.Errorf("failed to load flag aggregate: %w", err)
		}

		res := tx.Where("flag_id = ? AND reporter_id = ?", flag.ID, uid).
			Delete(&models.FlagReport{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete report: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NoSuchReportError{Reporter: uid}
		}

		if err := l.registry.AdjustCount(tx, &flag, -1); err != nil {
			return err
		}
		return l.registry.ReevaluateState(tx, &flag)
	})
	if err != nil {
		return err
	}

	l.emit(Event{Type: EventContentUnflagged, Flag: flag})
	return nil
}

func (l *FlagLedger) emit(e Event) {
	if l.sink == nil {
		return
	}
	l.sink.Publish(e)
}
