package patient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	Page    int
	PerPage int
	Search  string
	Status  *domain.Status
	// Date attaches the attendance projection for that day to every row.
	Date *domain.Day
}

type CreateRequest struct {
	Name           string
	FatherName     string
	DOB            *time.Time
	Gender         string
	Phone          string
	Address        string
	Status         string
	DiseaseID      *uuid.UUID
	EnrollmentDate *time.Time
	CreatedBy      *uuid.UUID
}

// UpdateRequest changes only the non-nil fields.
type UpdateRequest struct {
	Name           *string
	FatherName     *string
	DOB            *time.Time
	Gender         *string
	Phone          *string
	Address        *string
	Status         *string
	DiseaseID      *uuid.UUID
	EnrollmentDate *time.Time
	UpdatedBy      *uuid.UUID
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, req ListRequest) (domain.Page[domain.PatientRow], error)
	Get(ctx context.Context, id uuid.UUID) (domain.PatientRow, error)
	Create(ctx context.Context, req CreateRequest) (domain.Patient, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (domain.Patient, error)
	// Delete removes the patient together with attendance, transactions and
	// the notification.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	st  store.PatientStore
	pub events.Publisher
	now func() time.Time
}

func New(st store.PatientStore, pub events.Publisher, now func() time.Time) Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &patientService{st: st, pub: pub, now: now}
}

func (s *patientService) List(ctx context.Context, req ListRequest) (domain.Page[domain.PatientRow], error) {
	page, perPage := domain.NormalizePage(req.Page, req.PerPage)

	rows, total, err := s.st.ListPatients(ctx, store.PatientFilter{
		Search: req.Search,
		Status: req.Status,
		Date:   req.Date,
		Limit:  perPage,
		Offset: domain.Offset(page, perPage),
	})
	if err != nil {
		return domain.Page[domain.PatientRow]{}, fmt.Errorf("list patients: %w", err)
	}
	return domain.NewPage(rows, total, page, perPage), nil
}

func (s *patientService) Get(ctx context.Context, id uuid.UUID) (domain.PatientRow, error) {
	row, err := s.st.GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PatientRow{}, ErrPatientNotFound
		}
		return domain.PatientRow{}, fmt.Errorf("get patient: %w", err)
	}
	return row, nil
}

func (s *patientService) Create(ctx context.Context, req CreateRequest) (domain.Patient, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Patient{}, ErrNameRequired
	}
	status := domain.StatusOngoing
	if req.Status != "" {
		st, err := domain.ParseStatus(req.Status)
		if err != nil {
			return domain.Patient{}, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
		}
		status = st
	}

	now := s.now()
	enrolled := now
	if req.EnrollmentDate != nil {
		enrolled = *req.EnrollmentDate
	}

	p, err := s.st.CreatePatient(ctx, domain.Patient{
		ID:             uuid.New(),
		Name:           name,
		FatherName:     strings.TrimSpace(req.FatherName),
		DOB:            req.DOB,
		Gender:         strings.TrimSpace(req.Gender),
		Phone:          strings.TrimSpace(req.Phone),
		Address:        strings.TrimSpace(req.Address),
		Status:         status,
		DiseaseID:      req.DiseaseID,
		EnrollmentDate: enrolled,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			return domain.Patient{}, ErrUnknownReference
		}
		return domain.Patient{}, fmt.Errorf("create patient: %w", err)
	}

	s.publish(ctx, events.SubjectPatientCreated, events.PatientChanged{PatientID: p.ID, Name: p.Name, At: now})
	return p, nil
}

func (s *patientService) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (domain.Patient, error) {
	patch := store.PatientPatch{
		FatherName:     trimmed(req.FatherName),
		DOB:            req.DOB,
		Gender:         trimmed(req.Gender),
		Phone:          trimmed(req.Phone),
		Address:        trimmed(req.Address),
		DiseaseID:      req.DiseaseID,
		EnrollmentDate: req.EnrollmentDate,
		UpdatedBy:      req.UpdatedBy,
		UpdatedAt:      s.now(),
	}
	if req.Name != nil {
		patch.Name = trimmed(req.Name)
		if *patch.Name == "" {
			return domain.Patient{}, ErrNameRequired
		}
	}
	if req.Status != nil {
		st, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return domain.Patient{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
		}
		patch.Status = &st
	}

	p, err := s.st.UpdatePatient(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrForeignKey):
			return domain.Patient{}, ErrUnknownReference
		case errors.Is(err, domain.ErrNotFound):
			return domain.Patient{}, ErrPatientNotFound
		}
		return domain.Patient{}, fmt.Errorf("update patient: %w", err)
	}

	s.publish(ctx, events.SubjectPatientUpdated, events.PatientChanged{PatientID: p.ID, Name: p.Name, At: patch.UpdatedAt})
	return p, nil
}

func (s *patientService) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.st.DeletePatient(ctx, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if n == 0 {
		return ErrPatientNotFound
	}
	s.publish(ctx, events.SubjectPatientDeleted, events.PatientChanged{PatientID: id, At: s.now()})
	return nil
}

func (s *patientService) publish(ctx context.Context, subject string, payload any) {
	if err := s.pub.Publish(ctx, subject, payload); err != nil {
		slog.WarnContext(ctx, "event publish failed", "subject", subject, "err", err)
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
