package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/services"
)

type ChatHandler struct {
	agent  services.ChatAgent
	logger *zap.Logger
}

func NewChatHandler(agent services.ChatAgent, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		agent:  agent,
		logger: logger.OrNop(log),
	}
}

// HandleChat handles POST /api/chat
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req models.ChatRequest

	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "message is required")
	}

	resp, err := h.agent.Chat(c.UserContext(), req)
	if err != nil {
		h.logger.Error("❌ Chat turn failed", zap.String(logger.FieldSession, req.SessionID), zap.Error(err))
		return errorJSON(c, errorStatus(err), err.Error())
	}

	return c.JSON(resp)
}
