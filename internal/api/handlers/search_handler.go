package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/metrics"
	"github.com/legal-lens/backend/internal/retrieval"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/internal/storage/sqlite"
	"github.com/legal-lens/backend/pkg/logger"
)

type SearchHandler struct {
	engine *retrieval.Engine
	db     *sqlite.Client
}

func NewSearchHandler(engine *retrieval.Engine, db *sqlite.Client) *SearchHandler {
	return &SearchHandler{
		engine: engine,
		db:     db,
	}
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req retrieval.SearchRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	response, err := h.engine.Search(c.Context(), req)
	if err != nil {
		if errors.Is(err, retrieval.ErrInvalidQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Query is required",
			})
		}
		logger.Error("Failed to process search", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process search",
		})
	}

	return c.JSON(response)
}

func (h *SearchHandler) GetHistory(c *fiber.Ctx) error {
	if h.db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "History is not enabled",
		})
	}

	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := h.db.GetHistory(userID, limit)
	if err != nil {
		logger.Error("Failed to load search history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		sources, err := h.db.GetSearchSources(r.ID)
		if err != nil {
			logger.Warn("Failed to load search sources", zap.String("search_id", r.ID), zap.Error(err))
		}
		history = append(history, fiber.Map{
			"search_id":     r.ID,
			"query":         r.QueryText,
			"answer":        r.Answer,
			"result_count":  r.ResultCount,
			"semantic_used": r.SemanticUsed,
			"latency_ms":    r.LatencyMS,
			"created_at":    r.CreatedAt,
			"sources":       sources,
		})
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"history": history,
	})
}

func (h *SearchHandler) HandleFeedback(c *fiber.Ctx) error {
	if h.db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Feedback is not enabled",
		})
	}

	var req struct {
		SearchID string `json:"search_id"`
		Helpful  *bool  `json:"helpful"`
		Comment  string `json:"comment"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.SearchID == "" || req.Helpful == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "search_id and helpful are required",
		})
	}

	feedback := &models.Feedback{
		SearchID: req.SearchID,
		Helpful:  *req.Helpful,
		Comment:  req.Comment,
	}

	if err := h.db.StoreFeedback(feedback); err != nil {
		logger.Error("Failed to store feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store feedback",
		})
	}

	helpfulLabel := "false"
	if *req.Helpful {
		helpfulLabel = "true"
	}
	metrics.UserSatisfaction.WithLabelValues(helpfulLabel).Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "recorded",
	})
}
