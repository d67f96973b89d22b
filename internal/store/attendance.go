package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

const attendanceColumns = `id, patient_id, day, disease_name, disease_amount, added_by, marked_at`

func scanAttendance(row pgx.Row) (domain.AttendanceRecord, error) {
	var (
		rec domain.AttendanceRecord
		day time.Time
	)
	err := row.Scan(&rec.ID, &rec.PatientID, &day, &rec.DiseaseName, &rec.DiseaseAmount, &rec.AddedBy, &rec.MarkedAt)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	rec.Day = domain.DayOf(day)
	return rec, nil
}

func (t *pgTx) AttendanceOn(ctx context.Context, patientID uuid.UUID, day domain.Day) (domain.AttendanceRecord, bool, error) {
	rec, err := scanAttendance(t.q.QueryRow(ctx,
		`SELECT `+attendanceColumns+` FROM attendances WHERE patient_id = $1 AND day = $2`,
		patientID, day.Time(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AttendanceRecord{}, false, nil
	}
	if err != nil {
		return domain.AttendanceRecord{}, false, mapErr("get attendance", err)
	}
	return rec, true, nil
}

func (t *pgTx) UpsertAttendance(ctx context.Context, rec domain.AttendanceRecord) (domain.AttendanceRecord, error) {
	out, err := scanAttendance(t.q.QueryRow(ctx,
		`INSERT INTO attendances (`+attendanceColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (patient_id, day) DO UPDATE SET
			disease_name   = EXCLUDED.disease_name,
			disease_amount = EXCLUDED.disease_amount,
			marked_at      = EXCLUDED.marked_at
		 RETURNING `+attendanceColumns,
		rec.ID, rec.PatientID, rec.Day.Time(), rec.DiseaseName, rec.DiseaseAmount, rec.AddedBy, rec.MarkedAt,
	))
	if err != nil {
		return domain.AttendanceRecord{}, mapErr("upsert attendance", err)
	}
	return out, nil
}

func (t *pgTx) DeleteAttendance(ctx context.Context, patientID uuid.UUID, day domain.Day) (int64, error) {
	tag, err := t.q.Exec(ctx, `DELETE FROM attendances WHERE patient_id = $1 AND day = $2`, patientID, day.Time())
	if err != nil {
		return 0, mapErr("delete attendance", err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) AttendanceTotals(ctx context.Context, patientID uuid.UUID) (Totals, error) {
	var out Totals
	err := t.q.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(disease_amount), 0) FROM attendances WHERE patient_id = $1`,
		patientID,
	).Scan(&out.Count, &out.Bill)
	if err != nil {
		return Totals{}, mapErr("attendance totals", err)
	}
	return out, nil
}

func (t *pgTx) UpsertAttendanceBatch(ctx context.Context, b AttendanceBatch) (int64, error) {
	if len(b.Entries) == 0 {
		return 0, nil
	}
	ids := make([]string, len(b.Entries))
	patients := make([]string, len(b.Entries))
	names := make([]string, len(b.Entries))
	amounts := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		ids[i] = uuid.NewString()
		patients[i] = e.PatientID.String()
		names[i] = e.DiseaseName
		amounts[i] = e.DiseaseAmount.String()
	}

	tag, err := t.q.Exec(ctx,
		`INSERT INTO attendances (`+attendanceColumns+`)
		 SELECT u.id::uuid, u.patient_id::uuid, $1::date, u.disease_name, u.disease_amount::numeric, $2::uuid, $3::timestamptz
		 FROM unnest($4::text[], $5::text[], $6::text[], $7::text[])
			AS u(id, patient_id, disease_name, disease_amount)
		 ON CONFLICT (patient_id, day) DO UPDATE SET
			disease_name   = EXCLUDED.disease_name,
			disease_amount = EXCLUDED.disease_amount,
			marked_at      = EXCLUDED.marked_at`,
		b.Day.Time(), b.AddedBy, b.MarkedAt, ids, patients, names, amounts,
	)
	if err != nil {
		return 0, mapErr("bulk upsert attendance", err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) DeleteAttendanceBatch(ctx context.Context, day domain.Day, patientIDs []uuid.UUID) (int64, error) {
	if len(patientIDs) == 0 {
		return 0, nil
	}
	ids := make([]string, len(patientIDs))
	for i, id := range patientIDs {
		ids[i] = id.String()
	}
	tag, err := t.q.Exec(ctx,
		`DELETE FROM attendances WHERE day = $1 AND patient_id = ANY($2::text[]::uuid[])`,
		day.Time(), ids,
	)
	if err != nil {
		return 0, mapErr("bulk delete attendance", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) ListAttendance(ctx context.Context, f AttendanceFilter) ([]domain.AttendanceRecord, int, error) {
	where := ` WHERE patient_id = $1`
	args := []any{f.PatientID}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+q+"%")
		where += ` AND disease_name ILIKE $2`
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attendances`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count attendance", err)
	}

	n := len(args)
	args = append(args, f.Limit, f.Offset)
	rows, err := s.pool.Query(ctx,
		`SELECT `+attendanceColumns+` FROM attendances`+where+
			` ORDER BY day DESC LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
		args...,
	)
	if err != nil {
		return nil, 0, mapErr("list attendance", err)
	}
	defer rows.Close()

	var out []domain.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, mapErr("scan attendance", err)
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}
