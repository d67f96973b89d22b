package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

var (
	ErrForeignKey = fmt.Errorf("referenced row does not exist: %w", domain.ErrNotFound)
	ErrDuplicate  = fmt.Errorf("duplicate key: %w", domain.ErrConflict)

	// ErrNoRows reports a lookup that matched nothing.
	ErrNoRows = fmt.Errorf("no rows: %w", domain.ErrNotFound)
)

// ---------------------------------------------------------------------------
// Transaction scope
// ---------------------------------------------------------------------------

// TxRunner runs fn inside one database transaction. The transaction commits
// only if fn returns nil; every other path rolls back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type PatientTx interface {
	// LockPatient reads the patient and holds its row lock until the
	// transaction ends.
	LockPatient(ctx context.Context, id uuid.UUID) (domain.Patient, error)
	// AddAmountPaid applies delta to amount_paid and returns the new value.
	AddAmountPaid(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type AttendanceTx interface {
	AttendanceOn(ctx context.Context, patientID uuid.UUID, day domain.Day) (domain.AttendanceRecord, bool, error)
	// UpsertAttendance inserts the record or replaces the disease, amount
	// and marked_at of the existing record for (patient, day).
	UpsertAttendance(ctx context.Context, rec domain.AttendanceRecord) (domain.AttendanceRecord, error)
	DeleteAttendance(ctx context.Context, patientID uuid.UUID, day domain.Day) (int64, error)
	AttendanceTotals(ctx context.Context, patientID uuid.UUID) (Totals, error)
	UpsertAttendanceBatch(ctx context.Context, b AttendanceBatch) (int64, error)
	DeleteAttendanceBatch(ctx context.Context, day domain.Day, patientIDs []uuid.UUID) (int64, error)
}

type NotificationTx interface {
	NotificationFor(ctx context.Context, patientID uuid.UUID) (domain.Notification, bool, error)
	// SaveNotification creates or overwrites the single notification row of
	// the patient.
	SaveNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
	DeleteNotification(ctx context.Context, patientID uuid.UUID) (int64, error)
}

type TransactionTx interface {
	InsertTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	LockTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) (int64, error)
}

type Tx interface {
	PatientTx
	AttendanceTx
	NotificationTx
	TransactionTx
}

// ---------------------------------------------------------------------------
// Reads and plain writes
// ---------------------------------------------------------------------------

type PatientStore interface {
	ListPatients(ctx context.Context, f PatientFilter) ([]domain.PatientRow, int, error)
	GetPatient(ctx context.Context, id uuid.UUID) (domain.PatientRow, error)
	CreatePatient(ctx context.Context, p domain.Patient) (domain.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, patch PatientPatch) (domain.Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) (int64, error)
}

type AttendanceReader interface {
	ListAttendance(ctx context.Context, f AttendanceFilter) ([]domain.AttendanceRecord, int, error)
}

type NotificationStore interface {
	ListNotifications(ctx context.Context, f NotificationFilter) (NotificationList, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) (int64, error)
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
}

type TransactionReader interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	ListTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, int, error)
}

type StatsReader interface {
	HomeStats(ctx context.Context, today domain.Day, loc *time.Location) (domain.HomeStats, error)
}

type UserStore interface {
	UpsertUser(ctx context.Context, u domain.User) (domain.User, error)
}

// Store is everything the services need from persistence.
type Store interface {
	TxRunner
	PatientStore
	AttendanceReader
	NotificationStore
	TransactionReader
	StatsReader
	UserStore
	Ping(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// Parameters
// ---------------------------------------------------------------------------

type Totals struct {
	Count int
	Bill  decimal.Decimal
}

type BatchEntry struct {
	PatientID     uuid.UUID
	DiseaseName   string
	DiseaseAmount decimal.Decimal
}

// AttendanceBatch is a multi-row upsert for one day.
type AttendanceBatch struct {
	Day      domain.Day
	AddedBy  *uuid.UUID
	MarkedAt time.Time
	Entries  []BatchEntry
}

type PatientFilter struct {
	Search string
	Status *domain.Status
	// Date adds the attendance projection for that day.
	Date   *domain.Day
	Limit  int
	Offset int
}

// PatientPatch carries the fields to change. Nil leaves a column as is.
type PatientPatch struct {
	Name           *string
	FatherName     *string
	DOB            *time.Time
	Gender         *string
	Phone          *string
	Address        *string
	Status         *domain.Status
	DiseaseID      *uuid.UUID
	EnrollmentDate *time.Time
	UpdatedBy      *uuid.UUID
	UpdatedAt      time.Time
}

type AttendanceFilter struct {
	PatientID uuid.UUID
	Search    string
	Limit     int
	Offset    int
}

type NotificationFilter struct {
	Search string
	Read   *bool
	Limit  int
	Offset int
}

type NotificationList struct {
	Items  []domain.Notification
	Total  int
	Unread int
}

type TransactionFilter struct {
	PatientID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
