package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/internal/export"
	"github.com/legal-assistant/docclient/internal/result"
	"github.com/legal-assistant/docclient/internal/session"
	"github.com/legal-assistant/docclient/internal/storage/models"
	"github.com/legal-assistant/docclient/internal/view"
	"github.com/legal-assistant/docclient/pkg/logger"
)

// HistoryStore lists completed submissions. *sqlite.Client implements it.
type HistoryStore interface {
	ListRecords(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error)
}

type SessionHandler struct {
	registry *Registry
	history  HistoryStore
	validate *validator.Validate
}

func NewSessionHandler(registry *Registry, history HistoryStore) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		history:  history,
		validate: validator.New(),
	}
}

type textRequest struct {
	Text *string `json:"text" validate:"required"`
}

type questionRequest struct {
	Question *string `json:"question" validate:"required"`
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=summary entities qa combined"`
}

type qaModeRequest struct {
	QAMode string `json:"qaMode" validate:"required,oneof=extractive generative rag"`
}

type historyEntry struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	QAMode     string `json:"qaMode"`
	Capability string `json:"capability"`
	Preview    string `json:"preview"`
	Question   string `json:"question,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	LatencyMS  int64  `json:"latencyMs"`
	CreatedAt  int64  `json:"createdAt"`
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	s := h.registry.Create()
	return c.Status(fiber.StatusCreated).JSON(view.Build(s.Snapshot()))
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}
	return c.JSON(view.Build(s.Snapshot()))
}

func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	h.registry.Delete(c.UserContext(), c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) SetText(c *fiber.Ctx) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}

	var req textRequest
	if msg := h.parse(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	s.SetText(*req.Text)
	return c.JSON(view.Build(s.Snapshot()))
}

func (h *SessionHandler) SetQuestion(c *fiber.Ctx) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}

	var req questionRequest
	if msg := h.parse(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	s.SetQuestion(*req.Question)
	return c.JSON(view.Build(s.Snapshot()))
}

func (h *SessionHandler) SetMode(c *fiber.Ctx) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}

	var req modeRequest
	if msg := h.parse(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		return badRequest(c, err.Error())
	}

	s.SetMode(mode)
	return c.JSON(view.Build(s.Snapshot()))
}

func (h *SessionHandler) SetQAMode(c *fiber.Ctx) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}

	var req qaModeRequest
	if msg := h.parse(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	qaMode, err := session.ParseQAMode(req.QAMode)
	if err != nil {
		return badRequest(c, err.Error())
	}

	s.SetQAMode(qaMode)
	return c.JSON(view.Build(s.Snapshot()))
}

// Submit blocks until the capability call finishes. Validation and
// transport failures come back as 200 with the error in the view.
func (h *SessionHandler) Submit(c *fiber.Ctx) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}

	if _, err := s.Submit(c.UserContext()); err != nil {
		return busy(c, err)
	}
	return c.JSON(view.Build(s.Snapshot()))
}

func (h *SessionHandler) Upload(c *fiber.Ctx) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "File is required")
	}

	file, err := header.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	if _, err := s.Upload(c.UserContext(), header.Filename, data); err != nil {
		if errors.Is(err, session.ErrNoFile) {
			return badRequest(c, "Uploaded file is empty")
		}
		return busy(c, err)
	}
	return c.JSON(view.Build(s.Snapshot()))
}

func (h *SessionHandler) ExportSummary(c *fiber.Ctx) error {
	return h.export(c, export.Summary, "Summary not available")
}

func (h *SessionHandler) ExportEntities(c *fiber.Ctx) error {
	return h.export(c, export.Entities, "Entities not available")
}

func (h *SessionHandler) History(c *fiber.Ctx) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}

	entries := []historyEntry{}
	if h.history == nil {
		return c.JSON(fiber.Map{"history": entries})
	}

	records, err := h.history.ListRecords(c.UserContext(), s.ID(), c.QueryInt("limit", 20))
	if err != nil {
		logger.Error("Failed to list history", zap.String("session_id", s.ID()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	for _, r := range records {
		entries = append(entries, historyEntry{
			ID:         r.ID,
			Mode:       r.Mode,
			QAMode:     r.QAMode,
			Capability: r.Capability,
			Preview:    r.TextPreview,
			Question:   r.Question,
			Status:     r.Status,
			Error:      r.ErrorMessage,
			LatencyMS:  r.LatencyMS,
			CreatedAt:  r.CreatedAt.UnixMilli(),
		})
	}

	return c.JSON(fiber.Map{"history": entries})
}

func (h *SessionHandler) export(c *fiber.Ctx, build func(result.Result) (export.Artifact, error), unavailable string) error {
	s, ok := h.lookup(c)
	if !ok {
		return notFound(c)
	}

	artifact, err := build(s.Snapshot().Result())
	if errors.Is(err, export.ErrNotAvailable) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": unavailable})
	}
	if err != nil {
		logger.Error("Failed to export artifact", zap.String("session_id", s.ID()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export",
		})
	}

	c.Attachment(artifact.Name)
	c.Set(fiber.HeaderContentType, artifact.ContentType)
	return c.Send(artifact.Data)
}

func (h *SessionHandler) lookup(c *fiber.Ctx) (*session.Session, bool) {
	return h.registry.Get(c.UserContext(), c.Params("id"))
}

// parse decodes and validates the body, returning the client-facing
// message on failure.
func (h *SessionHandler) parse(c *fiber.Ctx, out interface{}) string {
	if err := c.BodyParser(out); err != nil {
		logger.Debug("Failed to parse request body", zap.Error(err))
		return "Invalid request body"
	}
	if err := h.validate.Struct(out); err != nil {
		return validationMessage(err)
	}
	return ""
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		fe := errs[0]
		if fe.Tag() == "oneof" {
			return "Invalid value for " + fe.Field() + ": must be one of " + fe.Param()
		}
		return fe.Field() + " is required"
	}
	return "Invalid request body"
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func busy(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
}
