package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Reason is one selectable report reason. The configured set is ordered and
// always ends with the "something else" reason, which requires free text.
type Reason struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// ReasonSomethingElse is always appended as the last reason code.
const ReasonSomethingElse = 100

func defaultReasons() []Reason {
	return []Reason{
		{Code: 1, Label: "Spam | Exists only to promote a service"},
		{Code: 2, Label: "Abusive | Intended at promoting hatred"},
	}
}

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Flagging
	FlagThreshold int      // reports beyond this auto-flag the content
	FlagReasons   []Reason // ordered, "something else" last

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "moderation_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		FlagThreshold: parseNonNegativeInt(getEnv("FLAG_THRESHOLD", "0")),
		FlagReasons:   parseReasons(getEnv("FLAG_REASONS", "")),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseNonNegativeInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseReasons reads a JSON array of {code,label} pairs and appends the
// mandatory trailing "something else" reason. Malformed input falls back to
// the built-in set.
func parseReasons(raw string) []Reason {
	reasons := defaultReasons()
	if raw != "" {
		var parsed []Reason
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil && len(parsed) > 0 {
			reasons = parsed
		}
	}
	return append(reasons, Reason{Code: ReasonSomethingElse, Label: "Something else"})
}
