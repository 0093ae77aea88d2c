package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/chatbot"
	"github.com/iliyamo/car-rental-marketplace/internal/logger"
	"github.com/iliyamo/car-rental-marketplace/internal/model"
)

// chatTimeout covers the model round trip plus the follow-up search.
const chatTimeout = 30 * time.Second

// Assistant is implemented by chatbot.Service.
type Assistant interface {
	Respond(ctx context.Context, message string, history []chatbot.Message) (chatbot.Reply, error)
	Suggestions(ctx context.Context) ([]string, error)
}

type ChatbotHandler struct {
	Bot Assistant
}

func NewChatbotHandler(bot Assistant) *ChatbotHandler { return &ChatbotHandler{Bot: bot} }

type chatReq struct {
	Message             string            `json:"message"`
	ConversationHistory []chatbot.Message `json:"conversationHistory"`
}

func (h *ChatbotHandler) Message(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return fail(c, http.StatusBadRequest, "Please provide a message")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), chatTimeout)
	defer cancel()

	reply, err := h.Bot.Respond(ctx, req.Message, req.ConversationHistory)
	if err != nil {
		if chatbot.IsUnauthorized(err) {
			logger.Error("chat completion rejected the api key", "error", err)
			return fail(c, http.StatusInternalServerError, "AI service configuration error. Please contact support.")
		}
		return err
	}

	body := echo.Map{"type": reply.Type, "message": reply.Message}
	if reply.Type == chatbot.ReplyCars {
		cars := reply.Cars
		if cars == nil {
			cars = []model.Car{}
		}
		body["filters"] = reply.Filters
		body["cars"] = cars
	}
	return respond(c, http.StatusOK, body)
}

// Suggestions is public and seeded from the live catalogue.
func (h *ChatbotHandler) Suggestions(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Bot.Suggestions(ctx)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"suggestions": list})
}
