package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ideafare/moderation-backend/internal/config"
	"github.com/ideafare/moderation-backend/internal/middleware"
	"github.com/ideafare/moderation-backend/internal/models"
	"github.com/ideafare/moderation-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func newTestApp(t *testing.T, threshold int) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Flag{}, &models.FlagReport{}, &models.FlagEvent{},
	))

	cfg := &config.Config{
		JWTSecret:     testSecret,
		FlagThreshold: threshold,
		FlagReasons: []config.Reason{
			{Code: 1, Label: "Spam"},
			{Code: 2, Label: "Abusive"},
			{Code: config.ReasonSomethingElse, Label: "Something else"},
		},
	}

	registry := services.NewFlagRegistry(cfg)
	ledger := services.NewFlagLedger(db, registry, cfg, nil)
	h := NewFlagHandler(ledger, registry, db)

	app := fiber.New()
	api := app.Group("/api")
	api.Get("/flags/summary", h.Summary)
	api.Get("/flags/reasons", h.Reasons)
	api.Get("/flags/reported", middleware.JWTProtected(cfg), h.HasReported)
	api.Post("/flags", middleware.JWTProtected(cfg), h.SetFlag)
	api.Patch("/moderation/flags/:id/state", middleware.JWTProtected(cfg), h.SetState)

	return app, db
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestSetFlagToggle(t *testing.T) {
	app, _ := newTestApp(t, 0)
	token := tokenFor(t, uuid.New())

	// reason present: submit
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/flags", token, fiber.Map{
		"content_kind": "idea", "content_id": 1, "reason": "1",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 1, body["reason"])

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/flags/summary?content_kind=idea&content_id=1", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["report_count"])
	assert.Equal(t, "flagged", body["state"])

	// reason absent: withdraw
	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/flags", token, fiber.Map{
		"content_kind": "idea", "content_id": 1,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/flags/summary?content_kind=idea&content_id=1", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["report_count"])
	assert.Equal(t, "unflagged", body["state"])
}

func TestSetFlagValidation(t *testing.T) {
	app, _ := newTestApp(t, 0)
	token := tokenFor(t, uuid.New())

	tests := []struct {
		name string
		body fiber.Map
		want int
	}{
		{"missing content ref", fiber.Map{"reason": "1"}, fiber.StatusBadRequest},
		{"invalid reason", fiber.Map{"content_kind": "idea", "content_id": 1, "reason": "nope"}, fiber.StatusBadRequest},
		{"something else without info", fiber.Map{"content_kind": "idea", "content_id": 1, "reason": "100"}, fiber.StatusBadRequest},
		{"withdraw without report", fiber.Map{"content_kind": "idea", "content_id": 1}, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, app, fiber.MethodPost, "/api/flags", token, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSetFlagDuplicate(t *testing.T) {
	app, _ := newTestApp(t, 0)
	token := tokenFor(t, uuid.New())
	body := fiber.Map{"content_kind": "idea", "content_id": 2, "reason": "1"}

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/flags", token, body)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, out := doJSON(t, app, fiber.MethodPost, "/api/flags", token, body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Contains(t, out["message"], "already reported")
}

func TestSetFlagRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t, 0)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/flags", "", fiber.Map{
		"content_kind": "idea", "content_id": 1, "reason": "1",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHasReportedEndpoint(t *testing.T) {
	app, _ := newTestApp(t, 0)
	token := tokenFor(t, uuid.New())

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/flags/reported?content_kind=idea&content_id=3", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["reported"])

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/flags", token, fiber.Map{
		"content_kind": "idea", "content_id": 3, "reason": "2",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/flags/reported?content_kind=idea&content_id=3", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["reported"])
}

func TestReasonsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, 0)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/flags/reasons", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	reasons, ok := body["reasons"].([]any)
	require.True(t, ok)
	require.Len(t, reasons, 3)
	last := reasons[len(reasons)-1].(map[string]any)
	assert.EqualValues(t, config.ReasonSomethingElse, last["code"])
}

func TestSetStateEndpoint(t *testing.T) {
	app, db := newTestApp(t, 0)
	moderator := uuid.New()
	token := tokenFor(t, moderator)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/flags", token, fiber.Map{
		"content_kind": "idea", "content_id": 4, "reason": "1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var flag models.Flag
	require.NoError(t, db.First(&flag, "content_kind = ? AND content_id = ?", "idea", 4).Error)

	resp, _ = doJSON(t, app, fiber.MethodPatch, "/api/moderation/flags/"+flag.ID.String()+"/state", token, fiber.Map{
		"state": int16(models.StateRejected),
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&flag, "id = ?", flag.ID).Error)
	assert.Equal(t, models.StateRejected, flag.State)
	require.NotNil(t, flag.ModeratorID)
	assert.Equal(t, moderator, *flag.ModeratorID)

	// unknown aggregate
	resp, _ = doJSON(t, app, fiber.MethodPatch, "/api/moderation/flags/"+uuid.NewString()+"/state", token, fiber.Map{
		"state": int16(models.StateResolved),
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// invalid state value
	resp, _ = doJSON(t, app, fiber.MethodPatch, "/api/moderation/flags/"+flag.ID.String()+"/state", token, fiber.Map{
		"state": 42,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
