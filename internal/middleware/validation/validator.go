package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxTextLength       int
	MaxQuestionLength   int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

type inputBody struct {
	Text     *string `json:"text"`
	Question *string `json:"question"`
}

// Middleware rejects bodies with an unexpected content type and text or
// question fields that are too long or contain NUL bytes.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = 2_000_000
	}
	if cfg.MaxQuestionLength == 0 {
		cfg.MaxQuestionLength = 2000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json", "multipart/form-data"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType != "" && !allowed(contentType, cfg.AllowedContentTypes) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		path := c.Path()
		if !strings.HasSuffix(path, "/text") && !strings.HasSuffix(path, "/question") {
			return c.Next()
		}

		var body inputBody
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if body.Text != nil {
			if msg := check(*body.Text, cfg.MaxTextLength, "Text"); msg != "" {
				cfg.Logger.Warn("Rejected text input", zap.String("ip", c.IP()), zap.String("reason", msg))
				return reject(c, msg)
			}
		}
		if body.Question != nil {
			if msg := check(*body.Question, cfg.MaxQuestionLength, "Question"); msg != "" {
				cfg.Logger.Warn("Rejected question input", zap.String("ip", c.IP()), zap.String("reason", msg))
				return reject(c, msg)
			}
		}

		return c.Next()
	}
}

func allowed(contentType string, types []string) bool {
	for _, t := range types {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

func check(value string, max int, field string) string {
	if strings.ContainsRune(value, 0) {
		return field + " contains invalid characters"
	}
	if utf8.RuneCountInString(value) > max {
		return field + " exceeds maximum length"
	}
	return ""
}

func reject(c *fiber.Ctx, msg string) error {
	status := fiber.StatusBadRequest
	if strings.HasSuffix(msg, "maximum length") {
		status = fiber.StatusRequestEntityTooLarge
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
