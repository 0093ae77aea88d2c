package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/logger"
	"github.com/iliyamo/car-rental-marketplace/internal/middleware"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
	"github.com/iliyamo/car-rental-marketplace/internal/service"
)

// dbTimeout bounds every handler's calls into the store.
const dbTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// respond writes {success:true, ...payload}.
func respond(c echo.Context, status int, payload echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// identity reads the caller set by middleware.JWTAuth.
func identity(c echo.Context) service.Identity {
	id, _ := middleware.UserID(c)
	return service.Identity{ID: id, Role: middleware.Role(c)}
}

// errBadID is what a malformed path id maps to; the API answers it like a
// missing resource.
var errBadID = errors.New("malformed id")

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return id, nil
}

// bindValid binds the request body into dst and runs the struct validator.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(dst)
}

// ----- validation -----

// Validator adapts go-playground/validator to echo. Field errors are
// turned into the message found in the field's `msg` tag, or a generic
// one naming the JSON field.
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("caryear", func(fl validator.FieldLevel) bool {
		y := fl.Field().Int()
		return y >= 1990 && y <= int64(time.Now().Year()+1)
	})
	return &Validator{v: v}
}

// ValidationError is a rejected request body.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return err
	}
	return &ValidationError{Message: fieldMessage(reflect.TypeOf(i), fes[0])}
}

func fieldMessage(root reflect.Type, fe validator.FieldError) string {
	if f, ok := lookupField(root, fe.StructNamespace()); ok {
		if m := f.Tag.Get("msg"); m != "" {
			return m
		}
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "gte", "gt":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte", "lt":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("Invalid value for %s", fe.Field())
}

// lookupField resolves "Type.Field.Sub" against t.
func lookupField(t reflect.Type, ns string) (reflect.StructField, bool) {
	parts := strings.Split(ns, ".")
	var f reflect.StructField
	for _, p := range parts[1:] {
		for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return f, false
		}
		if i := strings.IndexByte(p, '['); i >= 0 {
			p = p[:i]
		}
		var ok bool
		if f, ok = t.FieldByName(p); !ok {
			return f, false
		}
		t = f.Type
	}
	return f, len(parts) > 1
}

// ----- errors -----

// statusFor maps business and repository errors to a status and message.
// ok is false for unexpected errors.
func statusFor(err error) (int, string, bool) {
	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.KindNotFound:
			return http.StatusNotFound, se.Message, true
		case service.KindForbidden:
			return http.StatusForbidden, se.Message, true
		default:
			return http.StatusBadRequest, se.Message, true
		}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message, true
	}
	switch {
	case errors.Is(err, errBadID), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Resource not found", true
	case errors.Is(err, repository.ErrEmailExists):
		return http.StatusBadRequest, "User already exists with this email", true
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusBadRequest, "Duplicate field value entered", true
	}
	return 0, "", false
}

// HTTPErrorHandler renders every error returned by a handler or by echo
// itself as {success:false, message}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg, known := statusFor(err)
	if !known {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status, msg, known = he.Code, httpErrorMessage(he), true
		}
	}
	if !known {
		logger.Error("unhandled error",
			"error", err,
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		status, msg = http.StatusInternalServerError, "Server Error"
	}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = fail(c, status, msg)
	}
	if werr != nil {
		logger.Warn("write error response failed", "error", werr)
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	if he.Code == http.StatusNotFound && he.Message == http.StatusText(http.StatusNotFound) {
		return "Route not found"
	}
	if s, ok := he.Message.(string); ok {
		return s
	}
	return http.StatusText(he.Code)
}
