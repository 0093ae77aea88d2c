package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-rental-marketplace/internal/chatbot"
	"github.com/iliyamo/car-rental-marketplace/internal/model"
)

type MockAssistant struct{ mock.Mock }

func (m *MockAssistant) Respond(ctx context.Context, message string, history []chatbot.Message) (chatbot.Reply, error) {
	args := m.Called(ctx, message, history)
	return args.Get(0).(chatbot.Reply), args.Error(1)
}

func (m *MockAssistant) Suggestions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]string)
	return list, args.Error(1)
}

func chatRoutes(bot *MockAssistant) *echo.Echo {
	h := NewChatbotHandler(bot)
	e := newServer(1, model.RoleUser)
	e.POST("/chatbot/message", h.Message)
	e.GET("/chatbot/suggestions", h.Suggestions)
	return e
}

func TestChatbot_Message(t *testing.T) {
	t.Run("Missing message", func(t *testing.T) {
		bot := new(MockAssistant)
		rec := do(chatRoutes(bot), http.MethodPost, "/chatbot/message", `{"message":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please provide a message", decode(t, rec)["message"])
		bot.AssertNotCalled(t, "Respond", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Text reply", func(t *testing.T) {
		bot := new(MockAssistant)
		history := []chatbot.Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "Hello!"}}
		bot.On("Respond", mock.Anything, "what can you do?", history).
			Return(chatbot.Reply{Type: chatbot.ReplyText, Message: "I can help you find cars."}, nil)

		rec := do(chatRoutes(bot), http.MethodPost, "/chatbot/message",
			`{"message":"what can you do?","conversationHistory":[{"role":"user","content":"hi"},{"role":"assistant","content":"Hello!"}]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, map[string]any{"success": true, "type": "text", "message": "I can help you find cars."}, decode(t, rec))
	})

	t.Run("Car reply", func(t *testing.T) {
		bot := new(MockAssistant)
		bot.On("Respond", mock.Anything, "SUVs in Pune", []chatbot.Message(nil)).Return(chatbot.Reply{
			Type: chatbot.ReplyCars, Message: "I found 1 car in Pune!",
			Filters: &chatbot.Filters{City: "Pune", Category: "SUV"},
			Cars:    []model.Car{{ID: 4, Brand: "Mahindra"}},
		}, nil)

		rec := do(chatRoutes(bot), http.MethodPost, "/chatbot/message", `{"message":"SUVs in Pune"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "cars", body["type"])
		assert.Len(t, body["cars"], 1)
		assert.Equal(t, "Pune", body["filters"].(map[string]any)["city"])
	})

	t.Run("Bad api key", func(t *testing.T) {
		bot := new(MockAssistant)
		bot.On("Respond", mock.Anything, "hi", mock.Anything).
			Return(chatbot.Reply{}, fmt.Errorf("complete: %w", chatbot.ErrUnauthorized))
		rec := do(chatRoutes(bot), http.MethodPost, "/chatbot/message", `{"message":"hi"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "AI service configuration error. Please contact support.", decode(t, rec)["message"])
	})
}

func TestChatbot_Suggestions(t *testing.T) {
	bot := new(MockAssistant)
	bot.On("Suggestions", mock.Anything).Return([]string{"Show me available cars", "Cars in Mumbai"}, nil)
	rec := do(chatRoutes(bot), http.MethodGet, "/chatbot/suggestions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Show me available cars", "Cars in Mumbai"}, decode(t, rec)["suggestions"])
}
