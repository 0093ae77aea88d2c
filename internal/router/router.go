// Package router builds the echo instance and registers every route of
// the API.
package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/car-rental-marketplace/internal/config"
	"github.com/iliyamo/car-rental-marketplace/internal/handler"
	"github.com/iliyamo/car-rental-marketplace/internal/logger"
	"github.com/iliyamo/car-rental-marketplace/internal/middleware"
	"github.com/iliyamo/car-rental-marketplace/internal/model"
)

// Deps is everything the route tables need.
type Deps struct {
	App       config.AppConfig
	JWTSecret string
	Users     middleware.UserLoader

	Redis     *redis.Client  // nil disables rate limiting and caching
	RateStore redis.Scripter // runs the limiter script; defaults to Redis
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig

	UploadDir string // served under /uploads when not empty

	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Car     *handler.CarHandler
	Booking *handler.BookingHandler
	Upload  *handler.UploadHandler
	Chatbot *handler.ChatbotHandler
}

// New returns a fully routed echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     allowedOrigins(d.App.FrontendURL),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("10M"))

	RegisterRoutes(e, d.UploadDir)

	api := e.Group("/api", middleware.NewTokenBucket(d.RateLimit, d.rateStore(), d.JWTSecret))
	protected := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret, d.Users),
		middleware.RequireRole(model.RoleUser, model.RoleHost, model.RoleAdmin),
	}
	RegisterAuth(api, d.Auth, d.User, protected)
	RegisterCars(api, d.Car, middleware.NewRedisCache(d.Cache, d.Redis), protected)
	RegisterBookings(api, d.Booking, protected)
	RegisterMedia(api, d.Upload, d.Chatbot, protected)
	return e
}

// RegisterRoutes registers the unauthenticated non-API routes: the health
// check and, for local storage, the uploaded images.
func RegisterRoutes(e *echo.Echo, uploadDir string) {
	e.GET("/health", handler.Health)
	if uploadDir != "" {
		e.Static("/uploads", uploadDir)
	}
}

// RegisterAuth registers /api/auth and /api/users.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, u *handler.UserHandler, protected []echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, protected...)
	g.GET("/me", a.Me, protected...)

	api.PUT("/users/profile", u.UpdateProfile, protected...)
}

func (d Deps) rateStore() redis.Scripter {
	if d.RateStore != nil {
		return d.RateStore
	}
	if d.Redis != nil {
		return d.Redis
	}
	return nil
}

func allowedOrigins(frontend string) []string {
	var out []string
	for _, o := range strings.Split(frontend, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			switch {
			case v.Status >= 500:
				level = slog.LevelError
			case v.Status >= 400:
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.Get().LogAttrs(c.Request().Context(), level, "http request", attrs...)
			return nil
		},
	})
}
