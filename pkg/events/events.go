// Package events publishes committed ledger changes on NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

const (
	SubjectAttendanceToggled = "ledger.attendance.toggled"
	SubjectBulkMarked        = "ledger.attendance.bulk_marked"
	SubjectPaymentAdded      = "ledger.payment.added"
	SubjectPaymentDeleted    = "ledger.payment.deleted"
	SubjectMilestoneReached  = "ledger.milestone.reached"
	SubjectPatientCreated    = "ledger.patient.created"
	SubjectPatientUpdated    = "ledger.patient.updated"
	SubjectPatientDeleted    = "ledger.patient.deleted"

	// SubjectAll matches every ledger subject.
	SubjectAll = "ledger.>"
)

type AttendanceToggled struct {
	PatientID            uuid.UUID       `json:"patient_id"`
	Date                 string          `json:"date"`
	Action               string          `json:"action"`
	BillChange           decimal.Decimal `json:"bill_change"`
	TotalAttendanceCount int             `json:"total_attendance_count"`
	TotalBill            decimal.Decimal `json:"total_bill"`
	At                   time.Time       `json:"at"`
}

type BulkMarked struct {
	Date         string    `json:"date"`
	PresentCount int       `json:"present_count"`
	AbsentCount  int       `json:"absent_count"`
	At           time.Time `json:"at"`
}

type PaymentChanged struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	PatientID     uuid.UUID       `json:"patient_id"`
	Amount        decimal.Decimal `json:"amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	At            time.Time       `json:"at"`
}

type MilestoneReached struct {
	PatientID   uuid.UUID       `json:"patient_id"`
	PatientName string          `json:"patient_name"`
	Count       int             `json:"count"`
	TotalBill   decimal.Decimal `json:"total_bill"`
	Date        string          `json:"date"`
}

type PatientChanged struct {
	PatientID uuid.UUID `json:"patient_id"`
	Name      string    `json:"name"`
	At        time.Time `json:"at"`
}

// Publisher sends an event after the change it describes has committed.
// Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, b); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Nop drops every event. Used when NATS is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Published is one event captured by a Recorder.
type Published struct {
	Subject string
	Payload any
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) Publish(_ context.Context, subject string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Subject: subject, Payload: payload})
	return nil
}

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

// Subjects lists recorded subjects in publish order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}
