package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var Statuses = []Status{StatusOngoing, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

type Disease struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Patient is the ledger owner. AmountPaid is the running sum of the
// patient's transactions; the billed total is derived from attendance.
type Patient struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	FatherName     string          `json:"father_name,omitempty"`
	DOB            *time.Time      `json:"dob,omitempty"`
	Gender         string          `json:"gender,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Address        string          `json:"address,omitempty"`
	Status         Status          `json:"status"`
	DiseaseID      *uuid.UUID      `json:"disease_id,omitempty"`
	EnrollmentDate time.Time       `json:"enrollment_date"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	UpdatedBy      *uuid.UUID      `json:"updated_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DayAttendance is the attendance projection of a patient row for one
// requested date. The zero value means absent.
type DayAttendance struct {
	IsPresent bool             `json:"is_present"`
	Disease   *string          `json:"disease"`
	Amount    *decimal.Decimal `json:"amount"`
	MarkedAt  *time.Time       `json:"marked_at"`
}

// PatientRow is the read model served by patient listings.
type PatientRow struct {
	Patient
	Disease         *Disease        `json:"disease,omitempty"`
	CreatedByName   *string         `json:"created_by_name,omitempty"`
	UpdatedByName   *string         `json:"updated_by_name,omitempty"`
	AttendanceCount int             `json:"attendance_count"`
	TotalBill       decimal.Decimal `json:"total_bill"`
	Due             decimal.Decimal `json:"due"`
	Attendance      *DayAttendance  `json:"attendance,omitempty"`
}
