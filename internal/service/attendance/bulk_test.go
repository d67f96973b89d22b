package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
)

func TestCollapse(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	got, err := collapse([]BulkRecord{
		{PatientID: a, IsPresent: true, DiseaseName: "first"},
		{PatientID: b, IsPresent: true},
		{PatientID: a, IsPresent: false, DiseaseName: "last"},
	})
	if err != nil {
		t.Fatalf("collapse() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].PatientID != a || got[0].IsPresent || got[0].DiseaseName != "last" {
		t.Errorf("got[0] = %+v, want the last record of a", got[0])
	}
	if got[1].PatientID != b {
		t.Errorf("got[1] = %+v, want b", got[1])
	}

	tests := []struct {
		name    string
		records []BulkRecord
		wantErr error
	}{
		{name: "nil patient", records: []BulkRecord{{IsPresent: true}}, wantErr: ErrPatientRequired},
		{name: "negative amount", records: []BulkRecord{{PatientID: a, DiseaseAmount: amt(-5)}}, wantErr: ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := collapse(tt.records); !errors.Is(err, tt.wantErr) {
				t.Errorf("collapse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBulkMarkValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	if _, err := f.svc.BulkMark(ctx, BulkMarkRequest{Records: []BulkRecord{{PatientID: uuid.New()}}}); !errors.Is(err, ErrDateRequired) {
		t.Errorf("missing date error = %v", err)
	}
	if _, err := f.svc.BulkMark(ctx, BulkMarkRequest{Date: "2025-01-15"}); !errors.Is(err, ErrRecordsRequired) {
		t.Errorf("empty records error = %v", err)
	}
}

func TestBulkMarkLastWins(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	a := f.mem.AddPatient(domain.Patient{Name: "A"})
	b := f.mem.AddPatient(domain.Patient{Name: "B"})
	c := f.mem.AddPatient(domain.Patient{Name: "C"})
	f.mem.AddAttendance(domain.AttendanceRecord{PatientID: c.ID, Day: domain.MustParseDay("2025-01-15"), DiseaseAmount: decimal.NewFromInt(70)})

	res, err := f.svc.BulkMark(ctx, BulkMarkRequest{
		Date: "2025-01-15",
		Records: []BulkRecord{
			{PatientID: a.ID, IsPresent: true, DiseaseName: "Physio", DiseaseAmount: amt(100)},
			{PatientID: b.ID, IsPresent: true, DiseaseName: "Physio", DiseaseAmount: amt(100)},
			{PatientID: c.ID, IsPresent: false},
			{PatientID: b.ID, IsPresent: false},
			{PatientID: a.ID, IsPresent: true, DiseaseName: "Massage", DiseaseAmount: amt(80)},
		},
	})
	if err != nil {
		t.Fatalf("BulkMark() error = %v", err)
	}
	if res.PresentCount != 3 || res.AbsentCount != 2 || res.Reconciled {
		t.Errorf("result = %+v, want 3 present, 2 absent as submitted", res)
	}

	recs := f.mem.Attendance(a.ID)
	if len(recs) != 1 || recs[0].DiseaseName != "Massage" || !recs[0].DiseaseAmount.Equal(decimal.NewFromInt(80)) {
		t.Errorf("a records = %+v, want one Massage visit", recs)
	}
	if got := len(f.mem.Attendance(b.ID)); got != 0 {
		t.Errorf("b records = %d, want 0", got)
	}
	if got := len(f.mem.Attendance(c.ID)); got != 0 {
		t.Errorf("c records = %d, want 0", got)
	}

	if got := f.rec.Subjects(); len(got) != 1 || got[0] != events.SubjectBulkMarked {
		t.Errorf("published = %v", got)
	}
}

func TestBulkMarkUnknownPatientRollsBack(t *testing.T) {
	for _, reconcile := range []bool{false, true} {
		name := "plain"
		if reconcile {
			name = "reconcile"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, Options{BulkReconcile: reconcile})
			a := f.mem.AddPatient(domain.Patient{Name: "A"})

			_, err := f.svc.BulkMark(context.Background(), BulkMarkRequest{
				Date: "2025-01-15",
				Records: []BulkRecord{
					{PatientID: a.ID, IsPresent: true, DiseaseAmount: amt(100)},
					{PatientID: uuid.New(), IsPresent: true, DiseaseAmount: amt(100)},
				},
			})
			if !errors.Is(err, ErrPatientNotFound) {
				t.Fatalf("BulkMark() error = %v, want ErrPatientNotFound", err)
			}
			if got := len(f.mem.Attendance(a.ID)); got != 0 {
				t.Errorf("a records = %d, want 0 after rollback", got)
			}
			if len(f.rec.Events()) != 0 {
				t.Errorf("events published: %v", f.rec.Subjects())
			}
		})
	}
}

func TestBulkMarkUnknownAbsentPatient(t *testing.T) {
	for _, reconcile := range []bool{false, true} {
		name := "plain"
		if reconcile {
			name = "reconcile"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, Options{BulkReconcile: reconcile})
			a := f.mem.AddPatient(domain.Patient{Name: "A"})

			res, err := f.svc.BulkMark(context.Background(), BulkMarkRequest{
				Date: "2025-01-15",
				Records: []BulkRecord{
					{PatientID: a.ID, IsPresent: true, DiseaseAmount: amt(100)},
					{PatientID: uuid.New(), IsPresent: false},
				},
			})
			if err != nil {
				t.Fatalf("BulkMark() error = %v", err)
			}
			if res.PresentCount != 1 || res.AbsentCount != 1 {
				t.Errorf("result = %+v", res)
			}
			if got := len(f.mem.Attendance(a.ID)); got != 1 {
				t.Errorf("a records = %d, want 1", got)
			}
		})
	}
}

func TestBulkMarkNotifications(t *testing.T) {
	tests := []struct {
		name      string
		reconcile bool
		wantNote  bool
	}{
		{name: "skipped by default", reconcile: false, wantNote: false},
		{name: "reconciled", reconcile: true, wantNote: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{BulkReconcile: tt.reconcile})
			p := f.mem.AddPatient(domain.Patient{Name: "Sara"})
			seedDays(f, p.ID, 14)

			if _, err := f.svc.BulkMark(context.Background(), BulkMarkRequest{
				Date:    "2025-01-15",
				Records: []BulkRecord{{PatientID: p.ID, IsPresent: true, DiseaseAmount: amt(100)}},
			}); err != nil {
				t.Fatalf("BulkMark() error = %v", err)
			}

			n, ok := f.mem.Notification(p.ID)
			if ok != tt.wantNote {
				t.Fatalf("notification present = %v, want %v", ok, tt.wantNote)
			}
			if ok && n.TotalAttendanceCount != 15 {
				t.Errorf("count = %d, want 15", n.TotalAttendanceCount)
			}
			subjects := f.rec.Subjects()
			wantEvents := 1
			if tt.wantNote {
				wantEvents = 2
			}
			if len(subjects) != wantEvents {
				t.Errorf("published = %v", subjects)
			}
		})
	}
}

func TestBulkMarkAtomic(t *testing.T) {
	boom := errors.New("injected")
	f := newFixture(t, Options{})
	a := f.mem.AddPatient(domain.Patient{Name: "A"})
	b := f.mem.AddPatient(domain.Patient{Name: "B"})
	f.mem.AddAttendance(domain.AttendanceRecord{PatientID: b.ID, Day: domain.MustParseDay("2025-01-15")})
	f.mem.FailOn("DeleteAttendanceBatch", boom)

	_, err := f.svc.BulkMark(context.Background(), BulkMarkRequest{
		Date: "2025-01-15",
		Records: []BulkRecord{
			{PatientID: a.ID, IsPresent: true},
			{PatientID: b.ID, IsPresent: false},
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("BulkMark() error = %v, want %v", err, boom)
	}
	if errors.Is(err, store.ErrForeignKey) {
		t.Errorf("injected failure reported as a missing patient")
	}
	if got := len(f.mem.Attendance(a.ID)); got != 0 {
		t.Errorf("a records = %d, want 0", got)
	}
	if got := len(f.mem.Attendance(b.ID)); got != 1 {
		t.Errorf("b records = %d, want 1", got)
	}
}
