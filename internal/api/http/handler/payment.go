package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/service/payment"
	"github.com/Alijeyrad/clinic_ledger/pkg/reqctx"
)

type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// POST /payments/:patientId
func (h *PaymentHandler) Add(c fiber.Ctx) error {
	pid, valid := uuidParam(c, "patientId")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	var body struct {
		Amount decimal.Decimal `json:"amount"`
		Note   string          `json:"note"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tr, err := h.svc.AddPayment(c.Context(), payment.AddPaymentRequest{
		PatientID: pid,
		Amount:    body.Amount,
		Note:      body.Note,
		CreatedBy: reqctx.ActorFromContext(c.Context()),
	})
	if err != nil {
		return respondError(c, err)
	}
	return created(c, tr)
}

// GET /payments
func (h *PaymentHandler) List(c fiber.Ctx) error {
	var q struct {
		Page      int    `query:"page"`
		PerPage   int    `query:"per_page"`
		PatientID string `query:"patient_id"`
		Date      string `query:"date"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	req := payment.ListRequest{Page: q.Page, PerPage: q.PerPage}
	if q.PatientID != "" {
		id, err := uuid.Parse(q.PatientID)
		if err != nil {
			return badRequest(c, "invalid patient_id")
		}
		req.PatientID = &id
	}
	day, err := optionalDay(q.Date)
	if err != nil {
		return respondError(c, err)
	}
	req.Day = day

	page, err := h.svc.List(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, page)
}

// GET /payments/:id
func (h *PaymentHandler) Get(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid payment id")
	}
	tr, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, tr)
}

// DELETE /payments/:id
func (h *PaymentHandler) Delete(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid payment id")
	}
	res, err := h.svc.DeletePaymentByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, res)
}
