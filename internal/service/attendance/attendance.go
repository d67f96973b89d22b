package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/service/notification"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Toggle marks one patient present or absent on one day and brings the
	// bill totals and milestone notification in line, atomically.
	Toggle(ctx context.Context, req ToggleRequest) (ToggleResult, error)
	// BulkMark applies a whole day's register in one transaction.
	BulkMark(ctx context.Context, req BulkMarkRequest) (BulkMarkResult, error)
	// History pages through one patient's attendance, newest day first.
	History(ctx context.Context, req HistoryRequest) (domain.Page[domain.AttendanceRecord], error)
}

type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

type ToggleRequest struct {
	PatientID     uuid.UUID
	DiseaseName   string
	DiseaseAmount *decimal.Decimal
	AddedBy       *uuid.UUID
	Date          string
	IsPresent     bool
}

type ToggleResult struct {
	Action               Action               `json:"action"`
	PatientID            uuid.UUID            `json:"patient_id"`
	Date                 domain.Day           `json:"date"`
	BillChange           decimal.Decimal      `json:"bill_change"`
	TotalAttendanceCount int                  `json:"total_attendance_count"`
	TotalBill            decimal.Decimal      `json:"total_bill"`
	AffectedRows         int64                `json:"affected_rows"`
	Notification         notification.Outcome `json:"notification"`
}

type BulkRecord struct {
	PatientID     uuid.UUID
	DiseaseName   string
	DiseaseAmount *decimal.Decimal
	IsPresent     bool
}

type BulkMarkRequest struct {
	Date    string
	AddedBy *uuid.UUID
	Records []BulkRecord
}

type BulkMarkResult struct {
	Date         domain.Day `json:"date"`
	PresentCount int        `json:"present"`
	AbsentCount  int        `json:"absent"`
	Reconciled   bool       `json:"reconciled"`
}

type HistoryRequest struct {
	PatientID uuid.UUID
	Page      int
	PerPage   int
	Search    string
}

type Options struct {
	// BulkReconcile makes BulkMark lock every touched patient and rerun
	// totals and the notification deriver for each.
	BulkReconcile bool
	// Location is the clinic time zone marked_at is expressed in.
	Location *time.Location
	Now      func() time.Time
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

const meterName = "github.com/Alijeyrad/clinic_ledger/internal/service/attendance"

type attendanceService struct {
	st      store.Store
	deriver *notification.Deriver
	pub     events.Publisher
	opts    Options

	toggles metric.Int64Counter
	marked  metric.Int64Counter
}

func New(st store.Store, deriver *notification.Deriver, pub events.Publisher, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if pub == nil {
		pub = events.Nop{}
	}

	meter := otel.Meter(meterName)
	toggles, _ := meter.Int64Counter("ledger_attendance_toggles_total",
		metric.WithDescription("Attendance toggles by resulting action"))
	marked, _ := meter.Int64Counter("ledger_attendance_bulk_records_total",
		metric.WithDescription("Records applied through bulk marking"))

	return &attendanceService{
		st:      st,
		deriver: deriver,
		pub:     pub,
		opts:    opts,
		toggles: toggles,
		marked:  marked,
	}
}

func parseDate(raw string) (domain.Day, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Day{}, ErrDateRequired
	}
	return domain.ParseDay(raw)
}

func amountOf(a *decimal.Decimal) (decimal.Decimal, error) {
	if a == nil {
		return decimal.Zero, nil
	}
	if a.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return *a, nil
}

func patientErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrPatientNotFound, err)
	}
	return err
}

// now returns the current instant in the clinic time zone.
func (s *attendanceService) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *attendanceService) Toggle(ctx context.Context, req ToggleRequest) (ToggleResult, error) {
	if req.PatientID == uuid.Nil {
		return ToggleResult{}, ErrPatientRequired
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return ToggleResult{}, err
	}
	amount, err := amountOf(req.DiseaseAmount)
	if err != nil {
		return ToggleResult{}, err
	}

	now := s.now()
	res := ToggleResult{PatientID: req.PatientID, Date: day}
	var milestone *domain.Notification

	err = s.st.WithTx(ctx, func(tx store.Tx) error {
		p, err := tx.LockPatient(ctx, req.PatientID)
		if err != nil {
			return patientErr(err)
		}

		prev, existed, err := tx.AttendanceOn(ctx, p.ID, day)
		if err != nil {
			return err
		}
		oldAmount := decimal.Zero
		if existed {
			oldAmount = prev.DiseaseAmount
		}

		if req.IsPresent {
			_, err := tx.UpsertAttendance(ctx, domain.AttendanceRecord{
				ID:            uuid.New(),
				PatientID:     p.ID,
				Day:           day,
				DiseaseName:   strings.TrimSpace(req.DiseaseName),
				DiseaseAmount: amount,
				AddedBy:       req.AddedBy,
				MarkedAt:      day.At(now),
			})
			if err != nil {
				return err
			}
			res.Action = ActionAdded
			if existed {
				res.Action = ActionUpdated
			}
			res.BillChange = amount.Sub(oldAmount)
			res.AffectedRows = 1
		} else {
			n, err := tx.DeleteAttendance(ctx, p.ID, day)
			if err != nil {
				return err
			}
			res.Action = ActionDeleted
			res.BillChange = oldAmount.Neg()
			res.AffectedRows = n
		}

		totals, err := tx.AttendanceTotals(ctx, p.ID)
		if err != nil {
			return err
		}
		res.TotalAttendanceCount = totals.Count
		res.TotalBill = totals.Bill

		out, err := s.deriver.Reconcile(ctx, tx, notification.Input{
			PatientID:   p.ID,
			PatientName: p.Name,
			Count:       totals.Count,
			TotalBill:   totals.Bill,
			Now:         now,
		})
		if err != nil {
			return err
		}
		res.Notification = out.Outcome
		if out.Outcome.Reached() {
			milestone = out.Notification
		}
		return nil
	})
	if err != nil {
		return ToggleResult{}, fmt.Errorf("toggle attendance: %w", err)
	}

	s.toggles.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(res.Action))))

	s.publish(ctx, events.SubjectAttendanceToggled, events.AttendanceToggled{
		PatientID:            res.PatientID,
		Date:                 day.String(),
		Action:               string(res.Action),
		BillChange:           res.BillChange,
		TotalAttendanceCount: res.TotalAttendanceCount,
		TotalBill:            res.TotalBill,
		At:                   now,
	})
	if milestone != nil {
		s.publish(ctx, events.SubjectMilestoneReached, milestoneEvent(milestone, day))
	}

	return res, nil
}

func milestoneEvent(n *domain.Notification, day domain.Day) events.MilestoneReached {
	return events.MilestoneReached{
		PatientID:   n.PatientID,
		PatientName: n.PatientName,
		Count:       n.TotalAttendanceCount,
		TotalBill:   n.TotalBill,
		Date:        day.String(),
	}
}

func (s *attendanceService) publish(ctx context.Context, subject string, payload any) {
	if err := s.pub.Publish(ctx, subject, payload); err != nil {
		slog.WarnContext(ctx, "event publish failed", "subject", subject, "err", err)
	}
}

func (s *attendanceService) History(ctx context.Context, req HistoryRequest) (domain.Page[domain.AttendanceRecord], error) {
	if req.PatientID == uuid.Nil {
		return domain.Page[domain.AttendanceRecord]{}, ErrPatientRequired
	}
	page, perPage := domain.NormalizePage(req.Page, req.PerPage)

	items, total, err := s.st.ListAttendance(ctx, store.AttendanceFilter{
		PatientID: req.PatientID,
		Search:    req.Search,
		Limit:     perPage,
		Offset:    domain.Offset(page, perPage),
	})
	if err != nil {
		return domain.Page[domain.AttendanceRecord]{}, fmt.Errorf("attendance history: %w", err)
	}
	return domain.NewPage(items, total, page, perPage), nil
}
