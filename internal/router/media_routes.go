package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/handler"
)

// RegisterMedia registers image uploads and the chat assistant. Only the
// suggestion list is public.
func RegisterMedia(api *echo.Group, up *handler.UploadHandler, bot *handler.ChatbotHandler, protected []echo.MiddlewareFunc) {
	u := api.Group("/upload", protected...)
	u.POST("/single", up.Single)
	u.POST("/multiple", up.Multiple)
	u.DELETE("/:publicId", up.Delete)

	c := api.Group("/chatbot")
	c.POST("/message", bot.Message, protected...)
	c.GET("/suggestions", bot.Suggestions)
}
