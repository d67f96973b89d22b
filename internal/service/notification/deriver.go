package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
)

const DefaultMilestoneSize = 15

type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeDeleted   Outcome = "deleted"
	OutcomeUnchanged Outcome = "unchanged"
)

// Reached reports whether the outcome is a fresh or refreshed milestone.
func (o Outcome) Reached() bool {
	return o == OutcomeCreated || o == OutcomeUpdated
}

// Input is the post-mutation attendance state of one patient.
type Input struct {
	PatientID   uuid.UUID
	PatientName string
	Count       int
	TotalBill   decimal.Decimal
	Now         time.Time
}

type Result struct {
	Outcome      Outcome
	Notification *domain.Notification
}

// Deriver keeps a patient's milestone notification in step with its
// attendance count. It writes only through the caller's transaction.
type Deriver struct {
	milestone int
}

func NewDeriver(milestone int) (*Deriver, error) {
	if milestone <= 0 {
		return nil, ErrInvalidMilestone
	}
	return &Deriver{milestone: milestone}, nil
}

func (d *Deriver) MilestoneSize() int { return d.milestone }

func Message(patientName string, count int) string {
	return fmt.Sprintf("Patient %s has completed %d days of attendance.", patientName, count)
}

// Reconcile upserts an unread notification when Count sits on a milestone,
// removes a notification whose stored count is above Count, and otherwise
// leaves the row alone.
func (d *Deriver) Reconcile(ctx context.Context, tx store.NotificationTx, in Input) (Result, error) {
	current, exists, err := tx.NotificationFor(ctx, in.PatientID)
	if err != nil {
		return Result{}, fmt.Errorf("load notification: %w", err)
	}

	if in.Count > 0 && in.Count%d.milestone == 0 {
		n := domain.Notification{
			ID:                   uuid.New(),
			PatientID:            in.PatientID,
			PatientName:          in.PatientName,
			TotalAttendanceCount: in.Count,
			TotalBill:            in.TotalBill,
			Message:              Message(in.PatientName, in.Count),
			IsRead:               false,
			CreatedAt:            in.Now,
			UpdatedAt:            in.Now,
		}
		saved, err := tx.SaveNotification(ctx, n)
		if err != nil {
			return Result{}, fmt.Errorf("save notification: %w", err)
		}
		outcome := OutcomeCreated
		if exists {
			outcome = OutcomeUpdated
		}
		return Result{Outcome: outcome, Notification: &saved}, nil
	}

	if exists && current.TotalAttendanceCount > in.Count {
		if _, err := tx.DeleteNotification(ctx, in.PatientID); err != nil {
			return Result{}, fmt.Errorf("delete notification: %w", err)
		}
		return Result{Outcome: OutcomeDeleted}, nil
	}

	return Result{Outcome: OutcomeUnchanged}, nil
}
