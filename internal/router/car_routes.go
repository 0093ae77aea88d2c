package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/handler"
)

// RegisterCars registers /api/cars. The listing is public and served
// through the response cache; writes and the host dashboard need a JWT.
func RegisterCars(api *echo.Group, h *handler.CarHandler, cache echo.MiddlewareFunc, protected []echo.MiddlewareFunc) {
	g := api.Group("/cars")
	g.GET("", h.ListCars, cache)

	g.GET("/host/my-cars", h.MyCars, protected...)
	g.GET("/host/stats", h.HostStats, protected...)

	g.GET("/:id", h.GetCar)
	g.POST("", h.CreateCar, protected...)
	g.PUT("/:id", h.UpdateCar, protected...)
	g.DELETE("/:id", h.DeleteCar, protected...)
	g.PATCH("/:id/toggle-status", h.ToggleStatus, protected...)
}
