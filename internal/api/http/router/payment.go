package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/clinic_ledger/internal/api/http/handler"
)

func (r *Router) registerPaymentRoutes(api fiber.Router, ph *handler.PaymentHandler) {
	payments := api.Group("/payments")

	payments.Get("/", ph.List)
	payments.Get("/:id", ph.Get)
	payments.Post("/:patientId", ph.Add)
	payments.Delete("/:id", ph.Delete)
}
