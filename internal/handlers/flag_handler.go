package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ideafare/moderation-backend/internal/content"
	"github.com/ideafare/moderation-backend/internal/dto"
	"github.com/ideafare/moderation-backend/internal/identity"
	"github.com/ideafare/moderation-backend/internal/models"
	"github.com/ideafare/moderation-backend/internal/services"
	"gorm.io/gorm"
)

type FlagHandler struct {
	ledger   *services.FlagLedger
	registry *services.FlagRegistry
	db       *gorm.DB
}

func NewFlagHandler(ledger *services.FlagLedger, registry *services.FlagRegistry, db *gorm.DB) *FlagHandler {
	return &FlagHandler{ledger: ledger, registry: registry, db: db}
}

// SetFlag is the toggle endpoint: a request with a reason submits a report,
// a request without one withdraws the caller's report. The dispatch lives
// here; the ledger only knows the two primitives.
func (h *FlagHandler) SetFlag(c *fiber.Ctx) error {
	user := identity.FromContext(c)
	if user.IsAnonymous() {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SetFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if req.ContentKind == "" || req.ContentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing content_kind or content_id field",
		})
	}
	ref := content.Reference{Kind: req.ContentKind, ID: req.ContentID}

	if strings.TrimSpace(req.Reason) != "" {
		report, err := h.ledger.SubmitReport(user, ref, req.CreatorID, req.Reason, req.Info)
		if err != nil {
			return h.flagError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(dto.FlagReportResponse{
			ID:         report.ID,
			Reason:     report.Reason,
			Info:       report.Info,
			ReportedAt: report.ReportedAt,
			Message:    "The content has been reported successfully. A moderator will review your submission shortly",
		})
	}

	if err := h.ledger.WithdrawReport(user, ref); err != nil {
		return h.flagError(c, err)
	}
	return c.JSON(fiber.Map{"message": "The report has been withdrawn successfully"})
}

// HasReported tells the UI whether to render "report" or "withdraw".
func (h *FlagHandler) HasReported(c *fiber.Ctx) error {
	user := identity.FromContext(c)

	ref, err := refFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	reported, err := h.ledger.HasReported(user, ref)
	if err != nil {
		slog.Error("failed to check report existence", "error", err, "content", ref.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"reported": reported})
}

// Summary exposes report_count and state for display. Content that was
// never reported answers with zero count and the unflagged state.
func (h *FlagHandler) Summary(c *fiber.Ctx) error {
	ref, err := refFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	resp := dto.FlagSummaryResponse{
		ContentKind: ref.Kind,
		ContentID:   ref.ID,
		State:       models.StateUnflagged.String(),
	}
	flag, err := h.registry.Get(h.db, ref)
	if err != nil && !errors.Is(err, services.ErrFlagNotFound) {
		slog.Error("failed to load flag summary", "error", err, "content", ref.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	if flag != nil {
		resp.ReportCount = flag.ReportCount
		resp.State = flag.State.String()
	}
	return c.JSON(resp)
}

// Reasons returns the ordered reason list for the report form.
func (h *FlagHandler) Reasons(c *fiber.Ctx) error {
	reasons := h.ledger.Reasons()
	out := make([]dto.ReasonResponse, len(reasons))
	for i, r := range reasons {
		out[i] = dto.ReasonResponse{Code: r.Code, Label: r.Label}
	}
	return c.JSON(fiber.Map{"reasons": out})
}

// SetState is the moderator write to an aggregate's state. Routed behind
// the admin middleware; records the acting moderator.
func (h *FlagHandler) SetState(c *fiber.Ctx) error {
	user := identity.FromContext(c)
	moderator, ok := user.UUID()
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	flagID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid flag ID",
		})
	}

	var req dto.SetStateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.registry.SetState(h.db, flagID, models.ModerationState(req.State), moderator); err != nil {
		if errors.Is(err, services.ErrInvalidState) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrFlagNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		slog.Error("failed to set flag state", "error", err, "flag_id", flagID)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"message": "Flag state updated successfully"})
}

func (h *FlagHandler) flagError(c *fiber.Ctx, err error) error {
	var (
		invalidReason *services.InvalidReasonError
		duplicate     *services.DuplicateReportError
		noSuchReport  *services.NoSuchReportError
	)
	switch {
	case errors.As(err, &invalidReason), errors.Is(err, services.ErrMissingInfo):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.As(err, &duplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: "You have already reported this content. Please wait while a moderator reviews your request",
		})
	case errors.As(err, &noSuchReport):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "You have not reported this content",
		})
	case errors.Is(err, services.ErrAnonymousReporter):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	// Integrity violations (count desync, vanished aggregate) and storage
	// failures end up here. They indicate a bug, not bad input.
	slog.Error("flag operation failed", "error", err, "action", "set_flag")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func refFromQuery(c *fiber.Ctx) (content.Reference, error) {
	kind := c.Query("content_kind")
	rawID := c.Query("content_id")
	if kind == "" || rawID == "" {
		return content.Reference{}, errors.New("missing content_kind or content_id query parameter")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return content.Reference{}, errors.New("invalid content_id value: " + rawID)
	}
	return content.Reference{Kind: kind, ID: id}, nil
}
