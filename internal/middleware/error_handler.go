package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"clubsphere/internal/errorz"
	"clubsphere/internal/logger"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusCode maps a service error kind to its HTTP status
func StatusCode(err error) int {
	switch {
	case errors.Is(err, errorz.Validation),
		errors.Is(err, errorz.Conflict),
		errors.Is(err, errorz.CapacityExceeded),
		errors.Is(err, errorz.PaymentNotSucceeded):
		return http.StatusBadRequest
	case errors.Is(err, errorz.Unauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errorz.Forbidden):
		return http.StatusForbidden
	case errors.Is(err, errorz.NotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler writes errors as {success:false, message}.
// Errors without a kind are logged and reported as "Internal server error".
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusCode(err)
	message := errorz.Message(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = http.StatusText(code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		if code == http.StatusNotFound && errors.Is(err, echo.ErrNotFound) {
			message = "Route not found"
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Named("http").Errorw("request failed",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"error", err,
		)
		message = "Internal server error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, ErrorResponse{Success: false, Message: message})
}

// RequestLogger logs one line per request through zap
func RequestLogger() echo.MiddlewareFunc {
	log := logger.Named("http")

	return echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remoteIP", v.RemoteIP,
			}
			if email := UserEmail(c); email != "" {
				fields = append(fields, "user", email)
			}
			if v.Status >= http.StatusInternalServerError {
				log.Warnw("request", fields...)
				return nil
			}
			log.Infow("request", fields...)
			return nil
		},
	})
}
