package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/retrieval"
	"github.com/legal-lens/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine *retrieval.Engine
}

func NewWebSocketHandler(engine *retrieval.Engine) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

// HandleConnection serves one websocket session. Each "search" message
// runs the full pipeline; the synthesized answer is streamed word by word
// followed by a completion frame carrying the ranked results.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type   string `json:"type"`
			Query  string `json:"query"`
			TopK   int    `json:"top_k"`
			UserID string `json:"user_id"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "search" {
			continue
		}

		logger.Info("Processing WebSocket search", zap.String("query", msg.Query))

		req := retrieval.SearchRequest{
			Query:         msg.Query,
			TopK:          msg.TopK,
			UserID:        msg.UserID,
			IncludeAnswer: true,
		}

		if err := h.streamSearch(c, req); err != nil {
			logger.Error("Failed to stream search", zap.Error(err))
			h.sendError(c, "Failed to process search")
		}
	}
}

func (h *WebSocketHandler) streamSearch(c *websocket.Conn, req retrieval.SearchRequest) error {
	if err := h.send(c, "status", "Searching..."); err != nil {
		return err
	}

	response, err := h.engine.Search(context.Background(), req)
	if err != nil {
		return err
	}

	for _, word := range strings.Fields(response.Answer) {
		if err := h.send(c, "chunk", word+" "); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type":             "complete",
		"search_id":        response.SearchID,
		"statute_mapping":  response.StatuteMapping,
		"related_statutes": response.RelatedStatutes,
		"kg_concepts":      response.KGConcepts,
		"results":          response.Results,
		"retrieval_source": response.RetrievalSource,
		"latency_ms":       response.LatencyMS,
	})
}

func (h *WebSocketHandler) send(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	if err := c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}); err != nil {
		logger.Debug("Failed to send error frame", zap.Error(err))
	}
}
