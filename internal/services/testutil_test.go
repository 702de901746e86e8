package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/ideafare/moderation-backend/internal/config"
	"github.com/ideafare/moderation-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory SQLite database. A single connection
// keeps SQLite serialized, so the concurrency tests exercise the store's
// constraint behavior rather than SQLITE_BUSY errors.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Flag{},
		&models.FlagReport{},
		&models.FlagEvent{},
	))
	return db
}

func testConfig(threshold int) *config.Config {
	return &config.Config{
		FlagThreshold: threshold,
		FlagReasons: []config.Reason{
			{Code: 1, Label: "Spam | Exists only to promote a service"},
			{Code: 2, Label: "Abusive | Intended at promoting hatred"},
			{Code: config.ReasonSomethingElse, Label: "Something else"},
		},
	}
}

func newTestLedger(t *testing.T, threshold int) (*FlagLedger, *FlagRegistry, *gorm.DB, *ChannelSink) {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig(threshold)
	registry := NewFlagRegistry(cfg)
	sink := NewChannelSink(32)
	ledger := NewFlagLedger(db, registry, cfg, sink)
	return ledger, registry, db, sink
}

func countReports(t *testing.T, db *gorm.DB, flagID interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.FlagReport{}).Where("flag_id = ?", flagID).Count(&n).Error)
	return n
}
