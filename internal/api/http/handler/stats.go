package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinic_ledger/internal/service/stats"
)

type StatsHandler struct {
	svc stats.Service
}

func NewStatsHandler(svc stats.Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GET /stats/home
func (h *StatsHandler) Home(c fiber.Ctx) error {
	out, err := h.svc.Home(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}
