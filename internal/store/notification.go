package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

const notificationColumns = `n.id, n.patient_id, n.patient_name, n.total_attendance_count, n.total_bill,
	n.message, n.is_read, n.created_at, n.updated_at`

func scanNotification(row pgx.Row, extra ...any) (domain.Notification, error) {
	var n domain.Notification
	dest := []any{
		&n.ID, &n.PatientID, &n.PatientName, &n.TotalAttendanceCount, &n.TotalBill,
		&n.Message, &n.IsRead, &n.CreatedAt, &n.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return n, err
}

func (t *pgTx) NotificationFor(ctx context.Context, patientID uuid.UUID) (domain.Notification, bool, error) {
	n, err := scanNotification(t.q.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications n WHERE n.patient_id = $1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Notification{}, false, nil
	}
	if err != nil {
		return domain.Notification{}, false, mapErr("get notification", err)
	}
	return n, true, nil
}

func (t *pgTx) SaveNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	out, err := scanNotification(t.q.QueryRow(ctx,
		`INSERT INTO notifications AS n
			(id, patient_id, patient_name, total_attendance_count, total_bill, message, is_read, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		 ON CONFLICT (patient_id) DO UPDATE SET
			patient_name           = EXCLUDED.patient_name,
			total_attendance_count = EXCLUDED.total_attendance_count,
			total_bill             = EXCLUDED.total_bill,
			message                = EXCLUDED.message,
			is_read                = EXCLUDED.is_read,
			updated_at             = EXCLUDED.updated_at
		 RETURNING `+notificationColumns,
		n.ID, n.PatientID, n.PatientName, n.TotalAttendanceCount, n.TotalBill, n.Message, n.IsRead, n.UpdatedAt,
	))
	if err != nil {
		return domain.Notification{}, mapErr("save notification", err)
	}
	return out, nil
}

func (t *pgTx) DeleteNotification(ctx context.Context, patientID uuid.UUID) (int64, error) {
	tag, err := t.q.Exec(ctx, `DELETE FROM notifications WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, mapErr("delete notification", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) ListNotifications(ctx context.Context, f NotificationFilter) (NotificationList, error) {
	var (
		conds []string
		args  []any
	)
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(n.patient_name ILIKE $%d OR n.message ILIKE $%d)", len(args), len(args)))
	}
	if f.Read != nil {
		args = append(args, *f.Read)
		conds = append(conds, fmt.Sprintf("n.is_read = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var out NotificationList
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), (SELECT COUNT(*) FROM notifications WHERE is_read = false)
		 FROM notifications n`+where,
		args...,
	).Scan(&out.Total, &out.Unread)
	if err != nil {
		return NotificationList{}, mapErr("count notifications", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationColumns+`, p.amount_paid
		 FROM notifications n JOIN patients p ON p.id = n.patient_id`+where+
			fmt.Sprintf(` ORDER BY n.updated_at DESC, n.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return NotificationList{}, mapErr("list notifications", err)
	}
	defer rows.Close()

	for rows.Next() {
		var paid decimal.Decimal
		n, err := scanNotification(rows, &paid)
		if err != nil {
			return NotificationList{}, mapErr("scan notification", err)
		}
		n.AmountPaid = &paid
		out.Items = append(out.Items, n)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkNotificationRead(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return 0, mapErr("mark notification read", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE is_read = false`)
	if err != nil {
		return 0, mapErr("mark all notifications read", err)
	}
	return tag.RowsAffected(), nil
}
