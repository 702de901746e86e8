package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ideafare/moderation-backend/internal/config"
	"github.com/ideafare/moderation-backend/internal/content"
	"github.com/ideafare/moderation-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrFlagNotFound means the aggregate row vanished under an operation
	// that assumed it exists. With cascade ordering intact this cannot
	// happen, so callers treat it as an integrity bug, not user input.
	ErrFlagNotFound = errors.New("flag aggregate not found")

	// ErrCountDesync means a decrement would have taken report_count below
	// zero: the counter disagrees with the report rows. Surfaced instead of
	// clamping so bookkeeping bugs fail loudly.
	ErrCountDesync = errors.New("flag report count out of sync with report rows")

	ErrInvalidState = errors.New("invalid moderation state")
)

// FlagRegistry owns the per-content aggregate: its report counter and the
// automatic UNFLAGGED<->FLAGGED transition. It holds no state of its own
// beyond the configured threshold; every method runs against the *gorm.DB
// it is handed, so the ledger can keep counter and report writes in one
// transaction.
type FlagRegistry struct {
	threshold int64
}

func NewFlagRegistry(cfg *config.Config) *FlagRegistry {
	threshold := cfg.FlagThreshold
	if threshold < 0 {
		threshold = 0
	}
	return &FlagRegistry{threshold: int64(threshold)}
}

// GetOrCreate returns the aggregate for ref, creating it on first use.
// The insert uses ON CONFLICT DO NOTHING against the unique content index,
// so a concurrent first-reporter losing the race does not error and, on
// Postgres, does not abort the enclosing transaction. The row is re-read
// afterwards either way.
func (r *FlagRegistry) GetOrCreate(db *gorm.DB, ref content.Reference, creator *uuid.UUID) (*models.Flag, error) {
	flag := models.Flag{
		ID:          uuid.New(),
		ContentKind: ref.Kind,
		ContentID:   ref.ID,
		CreatorID:   creator,
		State:       models.StateUnflagged,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_kind"}, {Name: "content_id"}},
		DoNothing: true,
	}).Create(&flag).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create flag aggregate: %w", err)
	}

	var out models.Flag
	if err := db.Scopes(content.ForContent(ref)).First(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load flag aggregate: %w", err)
	}
	return &out, nil
}

// Get looks up the aggregate for ref. Returns ErrFlagNotFound when the
// content has never been reported.
func (r *FlagRegistry) Get(db *gorm.DB, ref content.Reference) (*models.Flag, error) {
	var flag models.Flag
	if err := db.Scopes(content.ForContent(ref)).First(&flag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlagNotFound
		}
		return nil, fmt.Errorf("failed to load flag aggregate: %w", err)
	}
	return &flag, nil
}

// AdjustCount moves report_count by delta (+1 or -1) with a storage-side
// expression, never a read-modify-write in application memory. Decrements
// are guarded so the counter cannot go negative; a guarded decrement that
// matches no row while the aggregate still exists is ErrCountDesync.
func (r *FlagRegistry) AdjustCount(db *gorm.DB, flag *models.Flag, delta int) error {
	q := db.Model(&models.Flag{}).Where("id = ?", flag.ID)
	if delta < 0 {
		q = q.Where("report_count > 0")
	}
	res := q.UpdateColumn("report_count", gorm.Expr("report_count + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to adjust report count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&models.Flag{}).Where("id = ?", flag.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to verify flag aggregate: %w", err)
		}
		if n == 0 {
			return ErrFlagNotFound
		}
		return ErrCountDesync
	}
	return nil
}

// ReevaluateState applies the threshold rule and persists the state if it
// changed. Must run after every AdjustCount, on the same transaction, so
// it reads the post-adjust count rather than a stale row. On return, flag
// reflects the committed count and state.
//
// Rule: above the threshold an UNFLAGGED item becomes FLAGGED; at or below
// it any state resets to UNFLAGGED. Moderator-set states above the
// threshold are left alone.
func (r *FlagRegistry) ReevaluateState(db *gorm.DB, flag *models.Flag) error {
	var fresh models.Flag
	if err := db.First(&fresh, "id = ?", flag.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFlagNotFound
		}
		return fmt.Errorf("failed to reload flag aggregate: %w", err)
	}

	next := fresh.State
	switch {
	case fresh.ReportCount > r.threshold && fresh.State == models.StateUnflagged:
		next = models.StateFlagged
	case fresh.ReportCount <= r.threshold:
		next = models.StateUnflagged
	}

	if next != fresh.State {
		if err := db.Model(&models.Flag{}).Where("id = ?", fresh.ID).
			UpdateColumn("state", next).Error; err != nil {
			return fmt.Errorf("failed to persist flag state: %w", err)
		}
		fresh.State = next
	}

	*flag = fresh
	return nil
}

// SetState is the external moderation write: it accepts any valid state and
// records which moderator made the call. The registry itself never drives
// transitions beyond UNFLAGGED<->FLAGGED.
func (r *FlagRegistry) SetState(db *gorm.DB, flagID uuid.UUID, state models.ModerationState, moderator uuid.UUID) error {
	if !state.Valid() {
		return ErrInvalidState
	}
	res := db.Model(&models.Flag{}).Where("id = ?", flagID).Updates(map[string]interface{}{
		"state":        state,
		"moderator_id": moderator,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to set flag state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrFlagNotFound
	}
	return nil
}
