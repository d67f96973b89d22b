package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

const transactionColumns = `t.id, t.patient_id, t.amount, t.note, t.created_by, t.created_at`

func scanTransaction(row pgx.Row, extra ...any) (domain.Transaction, error) {
	var tr domain.Transaction
	dest := []any{&tr.ID, &tr.PatientID, &tr.Amount, &tr.Note, &tr.CreatedBy, &tr.CreatedAt}
	err := row.Scan(append(dest, extra...)...)
	return tr, err
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr domain.Transaction) (domain.Transaction, error) {
	out, err := scanTransaction(t.q.QueryRow(ctx,
		`INSERT INTO transactions AS t (id, patient_id, amount, note, created_by, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING `+transactionColumns,
		tr.ID, tr.PatientID, tr.Amount, tr.Note, tr.CreatedBy, tr.CreatedAt,
	))
	if err != nil {
		return domain.Transaction{}, mapErr("insert transaction", err)
	}
	return out, nil
}

func (t *pgTx) LockTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	out, err := scanTransaction(t.q.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions t WHERE t.id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Transaction{}, mapErr("lock transaction", err)
	}
	return out, nil
}

func (t *pgTx) DeleteTransaction(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := t.q.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return 0, mapErr("delete transaction", err)
	}
	return tag.RowsAffected(), nil
}

const transactionSelect = `SELECT ` + transactionColumns + `, p.name, u.name
FROM transactions t
JOIN patients p ON p.id = t.patient_id
LEFT JOIN users u ON u.id = t.created_by`

func (s *Postgres) GetTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	var (
		patientName string
		creatorName *string
	)
	tr, err := scanTransaction(s.pool.QueryRow(ctx, transactionSelect+` WHERE t.id = $1`, id),
		&patientName, &creatorName)
	if err != nil {
		return domain.Transaction{}, mapErr("get transaction", err)
	}
	tr.PatientName = patientName
	tr.CreatorName = creatorName
	return tr, nil
}

func (s *Postgres) ListTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		conds = append(conds, fmt.Sprintf("t.patient_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("t.created_at < $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions t`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count transactions", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.pool.Query(ctx,
		transactionSelect+where+
			fmt.Sprintf(" ORDER BY t.created_at DESC, t.id LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, mapErr("list transactions", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			patientName string
			creatorName *string
		)
		tr, err := scanTransaction(rows, &patientName, &creatorName)
		if err != nil {
			return nil, 0, mapErr("scan transaction", err)
		}
		tr.PatientName = patientName
		tr.CreatorName = creatorName
		out = append(out, tr)
	}
	return out, total, rows.Err()
}
