package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/handler"
)

// RegisterBookings registers /api/bookings. Every route requires a valid
// JWT; ownership is checked per booking by the booking service.
func RegisterBookings(api *echo.Group, h *handler.BookingHandler, protected []echo.MiddlewareFunc) {
	g := api.Group("/bookings", protected...)
	g.POST("", h.CreateBooking)
	g.GET("/my-bookings", h.MyBookings)
	g.GET("/stats", h.Stats)
	g.GET("/host/bookings", h.HostBookings)

	g.GET("/:id", h.GetBooking)
	g.PUT("/:id/status", h.UpdateStatus)
	g.PUT("/:id/cancel", h.CancelBooking)
	g.POST("/:id/review", h.AddReview)
}
