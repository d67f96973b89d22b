package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinic_ledger/internal/api/http/handler"
)

func (r *Router) registerAttendanceRoutes(api fiber.Router, ah *handler.AttendanceHandler) {
	att := api.Group("/attendance")

	att.Get("/", ah.List)
	att.Post("/mark", ah.Mark)
	att.Post("/bulk", ah.Bulk)
	att.Get("/:patientId", ah.History)
}
