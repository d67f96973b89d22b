package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinic_ledger/internal/api/http/handler"
)

func (r *Router) registerStatsRoutes(api fiber.Router, sh *handler.StatsHandler) {
	api.Get("/stats/home", sh.Home)
}
