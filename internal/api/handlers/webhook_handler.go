package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/frederico-apolonia/switch-downloader/internal/service"
)

type WebhookHandler struct {
	s service.ArchiveService
}

func NewWebhookHandler(s service.ArchiveService) *WebhookHandler {
	return &WebhookHandler{s: s}
}

// Trigger runs one archive cycle. Any non-empty :delete path segment means
// the source tweets are destroyed after their media is extracted.
func (h *WebhookHandler) Trigger(c *fiber.Ctx) error {
	deleteAfter := c.Params("delete") != ""

	report, err := h.s.Run(c.Context(), deleteAfter)
	if err != nil {
		slog.Info(err.Error())
		return c.SendString("archive run failed: " + err.Error())
	}

	return c.SendString(strings.Join(report.Lines, "\n"))
}
