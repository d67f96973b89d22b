package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store/storetest"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
)

var fixedNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*storetest.Memory, *events.Recorder, Service) {
	t.Helper()
	mem := storetest.New()
	rec := &events.Recorder{}
	return mem, rec, New(mem, rec, func() time.Time { return fixedNow })
}

func TestCreate(t *testing.T) {
	mem, rec, svc := newService(t)
	disease := mem.AddDisease(domain.Disease{Name: "Physio", Amount: decimal.NewFromInt(100)})
	missing := uuid.New()

	tests := []struct {
		name       string
		req        CreateRequest
		wantErr    error
		wantStatus domain.Status
	}{
		{name: "defaults to ongoing", req: CreateRequest{Name: "  Sara "}, wantStatus: domain.StatusOngoing},
		{name: "explicit status", req: CreateRequest{Name: "Reza", Status: "completed", DiseaseID: &disease.ID}, wantStatus: domain.StatusCompleted},
		{name: "blank name", req: CreateRequest{Name: "   "}, wantErr: ErrNameRequired},
		{name: "bad status", req: CreateRequest{Name: "Ali", Status: "paused"}, wantErr: ErrInvalidStatus},
		{name: "unknown disease", req: CreateRequest{Name: "Ali", DiseaseID: &missing}, wantErr: ErrUnknownReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Create(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if p.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", p.Status, tt.wantStatus)
			}
			if !p.AmountPaid.IsZero() || !p.EnrollmentDate.Equal(fixedNow) {
				t.Errorf("patient = %+v", p)
			}
			if _, ok := mem.Patient(p.ID); !ok {
				t.Error("patient not stored")
			}
		})
	}

	if n := len(rec.Events()); n != 2 {
		t.Errorf("events = %d, want 2", n)
	}
}

func TestListWithProjection(t *testing.T) {
	mem, _, svc := newService(t)
	ctx := context.Background()
	day := domain.MustParseDay("2025-01-15")

	present := mem.AddPatient(domain.Patient{Name: "Present", AmountPaid: decimal.NewFromInt(40), CreatedAt: fixedNow})
	absent := mem.AddPatient(domain.Patient{Name: "Absent", Phone: "0912", CreatedAt: fixedNow.Add(-time.Hour)})
	mem.AddAttendance(domain.AttendanceRecord{PatientID: present.ID, Day: day, DiseaseName: "Physio", DiseaseAmount: decimal.NewFromInt(100), MarkedAt: fixedNow})
	mem.AddAttendance(domain.AttendanceRecord{PatientID: present.ID, Day: day.AddDays(-1), DiseaseAmount: decimal.NewFromInt(50)})

	page, err := svc.List(ctx, ListRequest{Date: &day})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("page = %+v", page)
	}

	rows := map[uuid.UUID]domain.PatientRow{}
	for _, r := range page.Items {
		rows[r.ID] = r
	}

	p := rows[present.ID]
	if p.AttendanceCount != 2 || !p.TotalBill.Equal(decimal.NewFromInt(150)) || !p.Due.Equal(decimal.NewFromInt(110)) {
		t.Errorf("present totals = %d/%s/%s", p.AttendanceCount, p.TotalBill, p.Due)
	}
	if p.Attendance == nil || !p.Attendance.IsPresent || p.Attendance.Disease == nil || *p.Attendance.Disease != "Physio" {
		t.Errorf("present projection = %+v", p.Attendance)
	}

	a := rows[absent.ID]
	if a.Attendance == nil || a.Attendance.IsPresent || a.Attendance.Amount != nil {
		t.Errorf("absent projection = %+v", a.Attendance)
	}

	found, err := svc.List(ctx, ListRequest{Search: "0912"})
	if err != nil {
		t.Fatalf("List(search) error = %v", err)
	}
	if found.Total != 1 || found.Items[0].ID != absent.ID || found.Items[0].Attendance != nil {
		t.Errorf("search page = %+v", found)
	}
}

func TestGetAndDelete(t *testing.T) {
	mem, rec, svc := newService(t)
	ctx := context.Background()
	p := mem.AddPatient(domain.Patient{Name: "Sara"})
	mem.AddAttendance(domain.AttendanceRecord{PatientID: p.ID, Day: domain.MustParseDay("2025-01-15")})

	if _, err := svc.Get(ctx, p.ID); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n := len(mem.Attendance(p.ID)); n != 0 {
		t.Errorf("attendance survived delete: %d", n)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Get(deleted) error = %v", err)
	}
	if err := svc.Delete(ctx, p.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Delete(deleted) error = %v", err)
	}
	if got := rec.Subjects(); len(got) != 1 || got[0] != events.SubjectPatientDeleted {
		t.Errorf("published = %v", got)
	}
}

func TestUpdate(t *testing.T) {
	ptr := func(s string) *string { return &s }
	missing := uuid.New()

	tests := []struct {
		name    string
		req     func(staff uuid.UUID) UpdateRequest
		wantErr error
		check   func(t *testing.T, p domain.Patient)
	}{
		{
			name: "status and phone",
			req: func(staff uuid.UUID) UpdateRequest {
				return UpdateRequest{Status: ptr("cancelled"), Phone: ptr(" 0935 "), UpdatedBy: &staff}
			},
			check: func(t *testing.T, p domain.Patient) {
				if p.Status != domain.StatusCancelled || p.Phone != "0935" {
					t.Errorf("patient = %+v", p)
				}
				if p.Name != "Sara" || p.FatherName != "Hassan" {
					t.Errorf("untouched fields changed: %+v", p)
				}
				if p.UpdatedBy == nil || !p.UpdatedAt.Equal(fixedNow) {
					t.Errorf("updated stamp = %v %v", p.UpdatedBy, p.UpdatedAt)
				}
			},
		},
		{
			name:    "blank name",
			req:     func(uuid.UUID) UpdateRequest { return UpdateRequest{Name: ptr("  ")} },
			wantErr: ErrNameRequired,
		},
		{
			name:    "bad status",
			req:     func(uuid.UUID) UpdateRequest { return UpdateRequest{Status: ptr("paused")} },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "unknown disease",
			req:     func(uuid.UUID) UpdateRequest { return UpdateRequest{DiseaseID: &missing} },
			wantErr: ErrUnknownReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem, rec, svc := newService(t)
			staff := mem.AddUser(domain.User{Name: "Desk", Email: "desk@clinic.test"})
			p := mem.AddPatient(domain.Patient{Name: "Sara", FatherName: "Hassan", Status: domain.StatusOngoing})

			got, err := svc.Update(context.Background(), p.ID, tt.req(staff.ID))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Update() error = %v, want %v", err, tt.wantErr)
				}
				if stored, _ := mem.Patient(p.ID); stored.Status != domain.StatusOngoing || stored.Name != "Sara" {
					t.Errorf("stored patient changed on error: %+v", stored)
				}
				if n := len(rec.Events()); n != 0 {
					t.Errorf("events = %d, want 0", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			tt.check(t, got)
			if stored, _ := mem.Patient(p.ID); stored.Status != got.Status {
				t.Errorf("stored status = %s, want %s", stored.Status, got.Status)
			}
			if subj := rec.Subjects(); len(subj) != 1 || subj[0] != events.SubjectPatientUpdated {
				t.Errorf("published = %v", subj)
			}
		})
	}
}

func TestUpdateMissingPatient(t *testing.T) {
	_, _, svc := newService(t)
	name := "Sara"
	if _, err := svc.Update(context.Background(), uuid.New(), UpdateRequest{Name: &name}); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Update(missing) error = %v", err)
	}
}
