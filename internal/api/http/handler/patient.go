package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/service/patient"
	"github.com/Alijeyrad/clinic_ledger/pkg/reqctx"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func optionalStatus(raw string) (*domain.Status, error) {
	if raw == "" {
		return nil, nil
	}
	st, err := domain.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GET /patients
func (h *PatientHandler) List(c fiber.Ctx) error {
	var q struct {
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
		Search  string `query:"search"`
		Status  string `query:"status"`
		Date    string `query:"date"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	status, err := optionalStatus(q.Status)
	if err != nil {
		return respondError(c, err)
	}
	day, err := optionalDay(q.Date)
	if err != nil {
		return respondError(c, err)
	}

	page, err := h.svc.List(c.Context(), patient.ListRequest{
		Page:    q.Page,
		PerPage: q.PerPage,
		Search:  q.Search,
		Status:  status,
		Date:    day,
	})
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, page)
}

// GET /patients/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	row, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, row)
}

// POST /patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name           string  `json:"name"`
		FatherName     string  `json:"father_name"`
		DOB            *string `json:"dob"`
		Gender         string  `json:"gender"`
		Phone          string  `json:"phone"`
		Address        string  `json:"address"`
		Status         string  `json:"status"`
		DiseaseID      *string `json:"disease_id"`
		EnrollmentDate *string `json:"enrollment_date"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := patient.CreateRequest{
		Name:       body.Name,
		FatherName: body.FatherName,
		Gender:     body.Gender,
		Phone:      body.Phone,
		Address:    body.Address,
		Status:     body.Status,
		CreatedBy:  reqctx.ActorFromContext(c.Context()),
	}
	if body.DiseaseID != nil && *body.DiseaseID != "" {
		id, err := uuid.Parse(*body.DiseaseID)
		if err != nil {
			return badRequest(c, "invalid disease_id")
		}
		req.DiseaseID = &id
	}
	var err error
	if req.DOB, err = dateField(body.DOB); err != nil {
		return badRequest(c, "invalid dob")
	}
	if req.EnrollmentDate, err = dateField(body.EnrollmentDate); err != nil {
		return badRequest(c, "invalid enrollment_date")
	}

	p, err := h.svc.Create(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, p)
}

// PATCH /patients/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	var body struct {
		Name           *string `json:"name"`
		FatherName     *string `json:"father_name"`
		DOB            *string `json:"dob"`
		Gender         *string `json:"gender"`
		Phone          *string `json:"phone"`
		Address        *string `json:"address"`
		Status         *string `json:"status"`
		DiseaseID      *string `json:"disease_id"`
		EnrollmentDate *string `json:"enrollment_date"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := patient.UpdateRequest{
		Name:       body.Name,
		FatherName: body.FatherName,
		Gender:     body.Gender,
		Phone:      body.Phone,
		Address:    body.Address,
		Status:     body.Status,
		UpdatedBy:  reqctx.ActorFromContext(c.Context()),
	}
	if body.DiseaseID != nil && *body.DiseaseID != "" {
		did, err := uuid.Parse(*body.DiseaseID)
		if err != nil {
			return badRequest(c, "invalid disease_id")
		}
		req.DiseaseID = &did
	}
	var err error
	if req.DOB, err = dateField(body.DOB); err != nil {
		return badRequest(c, "invalid dob")
	}
	if req.EnrollmentDate, err = dateField(body.EnrollmentDate); err != nil {
		return badRequest(c, "invalid enrollment_date")
	}

	p, err := h.svc.Update(c.Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, p)
}

// DELETE /patients/:id
func (h *PatientHandler) Delete(c fiber.Ctx) error {
	id, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return noContent(c)
}

func dateField(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDay(*raw)
	if err != nil {
		return nil, err
	}
	t := d.Time()
	return &t, nil
}
