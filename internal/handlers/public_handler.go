package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health answers the root liveness probe
func Health(c echo.Context) error {
	return respond(c, http.StatusOK, echo.Map{
		"message":   "ClubSphere API is running!",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
