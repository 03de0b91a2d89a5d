package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/service"
	apperrors "github.com/spec-kit/transfer-service/pkg/util"
)

// StatsHandler serves KPI, statistics and alert endpoints.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

// Overview GET /stats/overview.
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.service.Overview(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}

// Branches GET /stats/branches.
func (h *StatsHandler) Branches(c *fiber.Ctx) error {
	counts, err := h.service.BranchCounts(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// Alerts GET /alerts.
func (h *StatsHandler) Alerts(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	alerts, err := h.service.Alerts(c.Context(), principal.Account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"alerts": alerts}})
}
