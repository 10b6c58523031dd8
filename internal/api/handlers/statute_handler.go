package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/retrieval"
	"github.com/legal-lens/backend/pkg/logger"
)

type StatuteHandler struct {
	engine *retrieval.Engine
}

func NewStatuteHandler(engine *retrieval.Engine) *StatuteHandler {
	return &StatuteHandler{engine: engine}
}

// GetMapping resolves one statute section to its successor, for example
// GET /api/v1/statutes/IPC/304A.
func (h *StatuteHandler) GetMapping(c *fiber.Ctx) error {
	code := strings.ToUpper(c.Params("code"))
	section := strings.ToUpper(c.Params("section"))

	if code == "" || section == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code and section are required",
		})
	}

	mapping, found, err := h.engine.ResolveStatute(c.Context(), code, section)
	if err != nil {
		logger.Error("Failed to resolve statute",
			zap.String("code", code),
			zap.String("section", section),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve statute",
		})
	}

	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No mapping found for " + code + " " + section,
		})
	}

	return c.JSON(mapping)
}

// ListMappings returns every known statute mapping.
func (h *StatuteHandler) ListMappings(c *fiber.Ctx) error {
	mappings := h.engine.Registry().All()
	return c.JSON(fiber.Map{
		"total":    len(mappings),
		"mappings": mappings,
	})
}
