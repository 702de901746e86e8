package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 0, cfg.FlagThreshold)
	require.Len(t, cfg.FlagReasons, 3)
	assert.Equal(t, ReasonSomethingElse, cfg.FlagReasons[len(cfg.FlagReasons)-1].Code)
}

func TestFlagThresholdFromEnv(t *testing.T) {
	t.Setenv("FLAG_THRESHOLD", "3")
	assert.Equal(t, 3, Load().FlagThreshold)

	t.Setenv("FLAG_THRESHOLD", "-2")
	assert.Equal(t, 0, Load().FlagThreshold)

	t.Setenv("FLAG_THRESHOLD", "many")
	assert.Equal(t, 0, Load().FlagThreshold)
}

func TestFlagReasonsFromEnv(t *testing.T) {
	t.Setenv("FLAG_REASONS", `[{"code":1,"label":"Off topic"},{"code":5,"label":"Duplicate"}]`)
	cfg := Load()

	require.Len(t, cfg.FlagReasons, 3)
	assert.Equal(t, "Off topic", cfg.FlagReasons[0].Label)
	assert.Equal(t, 5, cfg.FlagReasons[1].Code)
	// "something else" is always appended last
	assert.Equal(t, ReasonSomethingElse, cfg.FlagReasons[2].Code)
}

func TestFlagReasonsMalformedFallsBack(t *testing.T) {
	t.Setenv("FLAG_REASONS", "{not json")
	cfg := Load()

	require.Len(t, cfg.FlagReasons, 3)
	assert.Equal(t, 1, cfg.FlagReasons[0].Code)
	assert.Equal(t, ReasonSomethingElse, cfg.FlagReasons[2].Code)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5433", DBUser: "app",
		DBPassword: "secret", DBName: "flags", DBSSLMode: "require",
	}
	assert.Equal(t,
		"host=db user=app password=secret dbname=flags port=5433 sslmode=require TimeZone=UTC",
		cfg.DSN())
}
