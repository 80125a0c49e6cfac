package http

import (
	"strings"

	in "chatbot_server/core/port/in"
	"chatbot_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler handles customer chat requests.
type ChatHandler struct {
	service in.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service in.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Register registers chat routes
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Chat)
	router.Post("/predict", h.Predict)
}

type messageRequest struct {
	Message string `json:"message"`
}

func parseMessage(c *fiber.Ctx) (string, error) {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return "", apperr.BadRequest("invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return "", apperr.MissingField("message")
	}
	return req.Message, nil
}

// Chat answers a customer message.
// @Summary Chat
// @Tags Chat
// @Accept json
// @Produce json
// @Success 200 {object} in.ChatReply
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	message, err := parseMessage(c)
	if err != nil {
		return err
	}
	reply, err := h.service.Reply(c.UserContext(), message)
	if err != nil {
		return err
	}
	return c.JSON(reply)
}

// Predict classifies a message without answering or logging it.
// @Summary Predict
// @Tags Chat
// @Accept json
// @Produce json
// @Success 200 {object} in.Prediction
func (h *ChatHandler) Predict(c *fiber.Ctx) error {
	message, err := parseMessage(c)
	if err != nil {
		return err
	}
	p, err := h.service.Predict(c.UserContext(), message)
	if err != nil {
		return err
	}
	return c.JSON(p)
}
