package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinic_ledger/internal/api/http/handler"
)

func (r *Router) registerNotificationRoutes(api fiber.Router, nh *handler.NotificationHandler) {
	notifs := api.Group("/notifications")

	notifs.Get("/", nh.List)
	notifs.Patch("/read-all", nh.MarkAllRead)
	notifs.Patch("/:id/read", nh.MarkRead)
}
