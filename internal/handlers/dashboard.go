package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"clubsphere/internal/errorz"
	"clubsphere/internal/middleware"
	"clubsphere/internal/policy"
	"clubsphere/internal/services"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// DashboardHandler serves the admin dashboard figures and audit trail
type DashboardHandler struct {
	stats *services.StatsService
	audit *services.AuditLogger
	users *services.UserService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(stats *services.StatsService, audit *services.AuditLogger, users *services.UserService) *DashboardHandler {
	return &DashboardHandler{stats: stats, audit: audit, users: users}
}

// Overview returns platform-wide counters
func (h *DashboardHandler) Overview(c echo.Context) error {
	if err := h.authorize(c, policy.StatsView); err != nil {
		return err
	}
	stats, err := h.stats.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"stats": stats})
}

// MembershipsPerClub returns the ten clubs with the most members
func (h *DashboardHandler) MembershipsPerClub(c echo.Context) error {
	if err := h.authorize(c, policy.StatsView); err != nil {
		return err
	}
	data, err := h.stats.MembershipsPerClub(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"data": data})
}

// AuditLogs returns the latest audit entries of ?entity and ?entityId
func (h *DashboardHandler) AuditLogs(c echo.Context) error {
	if err := h.authorize(c, policy.AuditView); err != nil {
		return err
	}

	entity, entityID := c.QueryParam("entity"), c.QueryParam("entityId")
	if entity == "" || entityID == "" {
		return errorz.New(errorz.Validation, "Entity and entity ID are required")
	}

	limit := int64(defaultAuditLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	logs, err := h.audit.Recent(c.Request().Context(), entity, entityID, limit)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []services.AuditLog{}
	}
	return respond(c, http.StatusOK, echo.Map{"logs": logs})
}

func (h *DashboardHandler) authorize(c echo.Context, action policy.Action) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	return policy.Evaluate(actor, action, policy.Resource{})
}
