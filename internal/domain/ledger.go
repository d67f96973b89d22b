package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttendanceRecord is unique per (PatientID, Day).
type AttendanceRecord struct {
	ID            uuid.UUID       `json:"id"`
	PatientID     uuid.UUID       `json:"patient_id"`
	Day           Day             `json:"date"`
	DiseaseName   string          `json:"disease_name"`
	DiseaseAmount decimal.Decimal `json:"disease_amount"`
	AddedBy       *uuid.UUID      `json:"added_by,omitempty"`
	MarkedAt      time.Time       `json:"marked_at"`
}

// Transaction is an append-only ledger entry. Amount is signed.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	PatientID   uuid.UUID       `json:"patient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note"`
	CreatedBy   *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	PatientName string          `json:"patient_name,omitempty"`
	CreatorName *string         `json:"creator_name,omitempty"`
}

// Notification holds the most recent attendance milestone of a patient.
// There is at most one per patient.
type Notification struct {
	ID                   uuid.UUID        `json:"id"`
	PatientID            uuid.UUID        `json:"patient_id"`
	PatientName          string           `json:"patient_name"`
	TotalAttendanceCount int              `json:"total_attendance_count"`
	TotalBill            decimal.Decimal  `json:"total_bill"`
	Message              string           `json:"message"`
	IsRead               bool             `json:"is_read"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	AmountPaid           *decimal.Decimal `json:"amount_paid,omitempty"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type DayCount struct {
	Day   Day `json:"date"`
	Count int `json:"count"`
}

type HomeStats struct {
	Day              Day             `json:"date"`
	TodayAttendance  int             `json:"today_attendance"`
	TodayRevenue     decimal.Decimal `json:"today_revenue"`
	TotalPatients    int             `json:"total_patients"`
	PatientsByStatus map[Status]int  `json:"patients_by_status"`
	LastSevenDays    []DayCount      `json:"last_seven_days"`
}
