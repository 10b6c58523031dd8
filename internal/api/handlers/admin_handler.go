package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/retrieval"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/pkg/logger"
)

type AdminHandler struct {
	reindexer *retrieval.Reindexer
}

func NewAdminHandler(reindexer *retrieval.Reindexer) *AdminHandler {
	return &AdminHandler{reindexer: reindexer}
}

// ReplaceMappings installs an uploaded statute mapping set, replacing the
// current one wholesale.
func (h *AdminHandler) ReplaceMappings(c *fiber.Ctx) error {
	var req struct {
		Mappings []models.StatuteMapping `json:"mappings"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Mappings) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "mappings must not be empty",
		})
	}

	for _, m := range req.Mappings {
		if m.OldCode == "" || m.OldSection == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "every mapping needs old_code and old_section",
			})
		}
	}

	if err := h.reindexer.ReplaceMappings(c.Context(), req.Mappings); err != nil {
		logger.Error("Failed to replace mappings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to replace mappings",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "replaced",
		"mappings": len(req.Mappings),
	})
}

// Reindex reloads the corpus from disk and rebuilds the graph and vector
// index.
func (h *AdminHandler) Reindex(c *fiber.Ctx) error {
	result, err := h.reindexer.Reindex(c.Context())
	if err != nil {
		logger.Error("Reindex failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Reindex failed",
		})
	}

	return c.JSON(result)
}
