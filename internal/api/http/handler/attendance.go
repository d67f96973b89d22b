package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/service/attendance"
	"github.com/Alijeyrad/clinic_ledger/internal/service/patient"
	"github.com/Alijeyrad/clinic_ledger/pkg/reqctx"
)

type AttendanceHandler struct {
	svc      attendance.Service
	patients patient.Service
	loc      *time.Location
	now      func() time.Time
}

func NewAttendanceHandler(svc attendance.Service, patients patient.Service, loc *time.Location) *AttendanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceHandler{svc: svc, patients: patients, loc: loc, now: time.Now}
}

type markBody struct {
	PatientID     string           `json:"patient_id"`
	DiseaseName   string           `json:"disease_name"`
	DiseaseAmount *decimal.Decimal `json:"disease_amount"`
	Date          string           `json:"date"`
	IsPresent     bool             `json:"is_present"`
}

// POST /attendance/mark
func (h *AttendanceHandler) Mark(c fiber.Ctx) error {
	var body markBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	pid, err := uuid.Parse(body.PatientID)
	if err != nil {
		return badRequest(c, "invalid patient_id")
	}

	res, err := h.svc.Toggle(c.Context(), attendance.ToggleRequest{
		PatientID:     pid,
		DiseaseName:   body.DiseaseName,
		DiseaseAmount: body.DiseaseAmount,
		AddedBy:       reqctx.ActorFromContext(c.Context()),
		Date:          body.Date,
		IsPresent:     body.IsPresent,
	})
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, res)
}

// POST /attendance/bulk
func (h *AttendanceHandler) Bulk(c fiber.Ctx) error {
	var body struct {
		Date    string     `json:"date"`
		Records []markBody `json:"records"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	records := make([]attendance.BulkRecord, 0, len(body.Records))
	for _, r := range body.Records {
		pid, err := uuid.Parse(r.PatientID)
		if err != nil {
			return badRequest(c, "invalid patient_id "+r.PatientID)
		}
		records = append(records, attendance.BulkRecord{
			PatientID:     pid,
			DiseaseName:   r.DiseaseName,
			DiseaseAmount: r.DiseaseAmount,
			IsPresent:     r.IsPresent,
		})
	}

	res, err := h.svc.BulkMark(c.Context(), attendance.BulkMarkRequest{
		Date:    body.Date,
		AddedBy: reqctx.ActorFromContext(c.Context()),
		Records: records,
	})
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, res)
}

// GET /attendance
// Patient rows with the attendance projection of ?date, today by default.
func (h *AttendanceHandler) List(c fiber.Ctx) error {
	var q struct {
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
		Search  string `query:"search"`
		Date    string `query:"date"`
		Status  string `query:"status"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	day := domain.Today(h.now(), h.loc)
	if q.Date != "" {
		d, err := domain.ParseDay(q.Date)
		if err != nil {
			return respondError(c, err)
		}
		day = d
	}
	status, err := optionalStatus(q.Status)
	if err != nil {
		return respondError(c, err)
	}

	page, err := h.patients.List(c.Context(), patient.ListRequest{
		Page:    q.Page,
		PerPage: q.PerPage,
		Search:  q.Search,
		Status:  status,
		Date:    &day,
	})
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, page)
}

// GET /attendance/:patientId
func (h *AttendanceHandler) History(c fiber.Ctx) error {
	pid, valid := uuidParam(c, "patientId")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	var q pageQuery
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	page, err := h.svc.History(c.Context(), attendance.HistoryRequest{
		PatientID: pid,
		Page:      q.Page,
		PerPage:   q.PerPage,
		Search:    q.Search,
	})
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, page)
}
