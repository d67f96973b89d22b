package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinic_ledger/internal/service/notification"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GET /notifications
func (h *NotificationHandler) List(c fiber.Ctx) error {
	var q struct {
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
		Search  string `query:"search"`
		Read    string `query:"read"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	read, err := optionalBool(q.Read)
	if err != nil {
		return badRequest(c, "read must be true or false")
	}

	res, err := h.svc.List(c.Context(), notification.ListRequest{
		Page:    q.Page,
		PerPage: q.PerPage,
		Search:  q.Search,
		Read:    read,
	})
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, res)
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid notification id")
	}
	if err := h.svc.MarkRead(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return noContent(c)
}

// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	n, err := h.svc.MarkAllRead(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.Map{"updated": n})
}
