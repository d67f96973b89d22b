package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

const patientColumns = `p.id, p.name, p.father_name, p.dob, p.gender, p.phone, p.address,
	p.status, p.disease_id, p.enrollment_date, p.amount_paid,
	p.created_by, p.updated_by, p.created_at, p.updated_at`

func scanPatient(row pgx.Row, extra ...any) (domain.Patient, error) {
	var p domain.Patient
	dest := []any{
		&p.ID, &p.Name, &p.FatherName, &p.DOB, &p.Gender, &p.Phone, &p.Address,
		&p.Status, &p.DiseaseID, &p.EnrollmentDate, &p.AmountPaid,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return p, err
}

// ---------------------------------------------------------------------------
// Transactional
// ---------------------------------------------------------------------------

func (t *pgTx) LockPatient(ctx context.Context, id uuid.UUID) (domain.Patient, error) {
	p, err := scanPatient(t.q.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients p WHERE p.id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Patient{}, mapErr("lock patient", err)
	}
	return p, nil
}

func (t *pgTx) AddAmountPaid(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := t.q.QueryRow(ctx,
		`UPDATE patients SET amount_paid = amount_paid + $2 WHERE id = $1 RETURNING amount_paid`,
		id, delta,
	).Scan(&paid)
	if err != nil {
		return decimal.Zero, mapErr("add amount paid", err)
	}
	return paid, nil
}

// ---------------------------------------------------------------------------
// Read model
// ---------------------------------------------------------------------------

const patientRowSelect = `SELECT ` + patientColumns + `,
	d.id, d.name, d.amount,
	cu.name, uu.name,
	COALESCE(t.cnt, 0), COALESCE(t.bill, 0),
	a.disease_name, a.disease_amount, a.marked_at
FROM patients p
LEFT JOIN diseases d ON d.id = p.disease_id
LEFT JOIN users cu ON cu.id = p.created_by
LEFT JOIN users uu ON uu.id = p.updated_by
LEFT JOIN LATERAL (
	SELECT COUNT(*) AS cnt, SUM(disease_amount) AS bill
	FROM attendances WHERE patient_id = p.id
) t ON true
LEFT JOIN attendances a ON a.patient_id = p.id AND a.day = $1::date`

func scanPatientRow(row pgx.Row, projected bool) (domain.PatientRow, error) {
	var (
		out           domain.PatientRow
		diseaseID     *uuid.UUID
		diseaseName   *string
		diseaseAmount decimal.NullDecimal
		attName       *string
		attAmount     decimal.NullDecimal
		attMarkedAt   *time.Time
	)

	p, err := scanPatient(row,
		&diseaseID, &diseaseName, &diseaseAmount,
		&out.CreatedByName, &out.UpdatedByName,
		&out.AttendanceCount, &out.TotalBill,
		&attName, &attAmount, &attMarkedAt,
	)
	if err != nil {
		return domain.PatientRow{}, err
	}
	out.Patient = p
	out.Due = out.TotalBill.Sub(p.AmountPaid)

	if diseaseID != nil {
		out.Disease = &domain.Disease{ID: *diseaseID, Amount: diseaseAmount.Decimal}
		if diseaseName != nil {
			out.Disease.Name = *diseaseName
		}
	}

	if projected {
		out.Attendance = &domain.DayAttendance{}
		if attMarkedAt != nil {
			out.Attendance.IsPresent = true
			out.Attendance.Disease = attName
			amt := attAmount.Decimal
			out.Attendance.Amount = &amt
			out.Attendance.MarkedAt = attMarkedAt
		}
	}
	return out, nil
}

func patientWhere(f PatientFilter, args []any) (string, []any) {
	var conds []string
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.name ILIKE $%d OR p.phone ILIKE $%d)", n, n))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conds = append(conds, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Postgres) ListPatients(ctx context.Context, f PatientFilter) ([]domain.PatientRow, int, error) {
	where, countArgs := patientWhere(f, nil)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients p`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapErr("count patients", err)
	}

	var day *time.Time
	if f.Date != nil {
		t := f.Date.Time()
		day = &t
	}
	where, args := patientWhere(f, []any{day})
	args = append(args, f.Limit, f.Offset)
	q := patientRowSelect + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC, p.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, mapErr("list patients", err)
	}
	defer rows.Close()

	var out []domain.PatientRow
	for rows.Next() {
		r, err := scanPatientRow(rows, f.Date != nil)
		if err != nil {
			return nil, 0, mapErr("scan patient", err)
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *Postgres) GetPatient(ctx context.Context, id uuid.UUID) (domain.PatientRow, error) {
	r, err := scanPatientRow(s.pool.QueryRow(ctx, patientRowSelect+` WHERE p.id = $2`, nil, id), false)
	if err != nil {
		return domain.PatientRow{}, mapErr("get patient", err)
	}
	return r, nil
}

func (s *Postgres) CreatePatient(ctx context.Context, p domain.Patient) (domain.Patient, error) {
	out, err := scanPatient(s.pool.QueryRow(ctx,
		`INSERT INTO patients AS p
			(id, name, father_name, dob, gender, phone, address, status, disease_id,
			 enrollment_date, amount_paid, created_by, updated_by, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,$11,$11,$12,$12)
		 RETURNING `+patientColumns,
		p.ID, p.Name, p.FatherName, p.DOB, p.Gender, p.Phone, p.Address, string(p.Status), p.DiseaseID,
		p.EnrollmentDate, p.CreatedBy, p.CreatedAt,
	))
	if err != nil {
		return domain.Patient{}, mapErr("create patient", err)
	}
	return out, nil
}

// UpdatePatient applies patch and stamps updated_by and updated_at. Nil
// patch fields keep the stored value.
func (s *Postgres) UpdatePatient(ctx context.Context, id uuid.UUID, patch PatientPatch) (domain.Patient, error) {
	var status *string
	if patch.Status != nil {
		v := string(*patch.Status)
		status = &v
	}
	out, err := scanPatient(s.pool.QueryRow(ctx,
		`UPDATE patients AS p SET
			name            = COALESCE($2, p.name),
			father_name     = COALESCE($3, p.father_name),
			dob             = COALESCE($4::date, p.dob),
			gender          = COALESCE($5, p.gender),
			phone           = COALESCE($6, p.phone),
			address         = COALESCE($7, p.address),
			status          = COALESCE($8, p.status),
			disease_id      = COALESCE($9::uuid, p.disease_id),
			enrollment_date = COALESCE($10::date, p.enrollment_date),
			updated_by      = COALESCE($11::uuid, p.updated_by),
			updated_at      = $12
		 WHERE p.id = $1
		 RETURNING `+patientColumns,
		id, patch.Name, patch.FatherName, patch.DOB, patch.Gender, patch.Phone, patch.Address,
		status, patch.DiseaseID, patch.EnrollmentDate, patch.UpdatedBy, patch.UpdatedAt,
	))
	if err != nil {
		return domain.Patient{}, mapErr("update patient", err)
	}
	return out, nil
}

// DeletePatient removes the patient. Attendance, transactions and the
// notification go with it through ON DELETE CASCADE.
func (s *Postgres) DeletePatient(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return 0, mapErr("delete patient", err)
	}
	return tag.RowsAffected(), nil
}
