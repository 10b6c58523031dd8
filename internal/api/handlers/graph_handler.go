package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/retrieval"
	"github.com/legal-lens/backend/pkg/logger"
)

type GraphHandler struct {
	engine *retrieval.Engine
}

func NewGraphHandler(engine *retrieval.Engine) *GraphHandler {
	return &GraphHandler{engine: engine}
}

// GetNeighborhood walks the graph outward from a node and returns the
// reachable nodes grouped by minimum hop distance, for example
// GET /api/v1/graph/IPC_302?hops=2.
func (h *GraphHandler) GetNeighborhood(c *fiber.Ctx) error {
	nodeID := c.Params("id")
	if nodeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "node id is required",
		})
	}

	hops := c.QueryInt("hops", 0)

	neighborhood, err := h.engine.GraphNeighborhood(c.Context(), nodeID, hops)
	if err != nil {
		logger.Error("Graph traversal failed", zap.String("node_id", nodeID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Graph traversal failed",
		})
	}

	// An empty neighborhood is valid for an isolated node; only an unknown
	// id is a 404.
	if len(neighborhood) == 0 {
		_, found, err := h.engine.GraphNode(c.Context(), nodeID)
		if err != nil {
			logger.Error("Graph node lookup failed", zap.String("node_id", nodeID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Graph traversal failed",
			})
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Node not found: " + nodeID,
			})
		}
	}

	return c.JSON(fiber.Map{
		"node_id":      nodeID,
		"neighborhood": neighborhood,
	})
}

// GetStats reports graph size for the operational surface.
func (h *GraphHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.engine.GraphStats(c.Context())
	if err != nil {
		logger.Error("Failed to collect graph stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect graph stats",
		})
	}

	return c.JSON(stats)
}
