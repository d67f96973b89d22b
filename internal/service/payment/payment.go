package payment

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
	"go.opentelemetry.io/otel/metric"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// AddPayment appends a signed ledger entry and moves amount_paid by the
	// same amount.
	AddPayment(ctx context.Context, req AddPaymentRequest) (domain.Transaction, error)
	// DeletePaymentByID removes an entry and backs its amount out of
	// amount_paid.
	DeletePaymentByID(ctx context.Context, id uuid.UUID) (DeleteResult, error)

	Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	List(ctx context.Context, req ListRequest) (domain.Page[domain.Transaction], error)
}

type AddPaymentRequest struct {
	PatientID uuid.UUID
	Amount    decimal.Decimal
	Note      string
	CreatedBy *uuid.UUID
}

type DeleteResult struct {
	DeletedTransactionID uuid.UUID       `json:"deleted_transaction_id"`
	DeletedAmount        decimal.Decimal `json:"deleted_amount"`
	UpdatedAmountPaid    decimal.Decimal `json:"updated_amount_paid"`
}

type ListRequest struct {
	PatientID *uuid.UUID
	// Day keeps entries created on that calendar day in the clinic zone.
	Day     *domain.Day
	Page    int
	PerPage int
}

type Options struct {
	Location *time.Location
	Now      func() time.Time
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

const meterName = "github.com/Alijeyrad/clinic_ledger/internal/service/payment"

type paymentService struct {
	st   store.Store
	pub  events.Publisher
	opts Options

	added   metric.Int64Counter
	deleted metric.Int64Counter
}

func New(st store.Store, pub events.Publisher, opts Options) Service {
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
	added, _ := meter.Int64Counter("ledger_payments_added_total")
	deleted, _ := meter.Int64Counter("ledger_payments_deleted_total")

	return &paymentService{st: st, pub: pub, opts: opts, added: added, deleted: deleted}
}

func (s *paymentService) AddPayment(ctx context.Context, req AddPaymentRequest) (domain.Transaction, error) {
	if req.PatientID == uuid.Nil {
		return domain.Transaction{}, ErrPatientRequired
	}
	if req.Amount.IsZero() {
		return domain.Transaction{}, ErrAmountRequired
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return domain.Transaction{}, ErrAmountPrecision
	}

	now := s.opts.Now().In(s.opts.Location)
	var (
		saved domain.Transaction
		paid  decimal.Decimal
	)

	err := s.st.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.LockPatient(ctx, req.PatientID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %w", ErrPatientNotFound, err)
			}
			return err
		}

		var err error
		saved, err = tx.InsertTransaction(ctx, domain.Transaction{
			ID:        uuid.New(),
			PatientID: req.PatientID,
			Amount:    req.Amount,
			Note:      strings.TrimSpace(req.Note),
			CreatedBy: req.CreatedBy,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		paid, err = tx.AddAmountPaid(ctx, req.PatientID, saved.Amount)
		return err
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("add payment: %w", err)
	}

	s.added.Add(ctx, 1)
	s.publish(ctx, events.SubjectPaymentAdded, events.PaymentChanged{
		TransactionID: saved.ID,
		PatientID:     saved.PatientID,
		Amount:        saved.Amount,
		AmountPaid:    paid,
		At:            now,
	})
	return saved, nil
}

func (s *paymentService) DeletePaymentByID(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	var (
		res     DeleteResult
		patient uuid.UUID
	)

	err := s.st.WithTx(ctx, func(tx store.Tx) error {
		tr, err := tx.LockTransaction(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %w", ErrTransactionNotFound, err)
			}
			return err
		}

		n, err := tx.DeleteTransaction(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrTransactionNotFound
		}

		paid, err := tx.AddAmountPaid(ctx, tr.PatientID, tr.Amount.Neg())
		if err != nil {
			return err
		}

		patient = tr.PatientID
		res = DeleteResult{
			DeletedTransactionID: tr.ID,
			DeletedAmount:        tr.Amount,
			UpdatedAmountPaid:    paid,
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete payment: %w", err)
	}

	s.deleted.Add(ctx, 1)
	s.publish(ctx, events.SubjectPaymentDeleted, events.PaymentChanged{
		TransactionID: res.DeletedTransactionID,
		PatientID:     patient,
		Amount:        res.DeletedAmount,
		AmountPaid:    res.UpdatedAmountPaid,
		At:            s.opts.Now().In(s.opts.Location),
	})
	return res, nil
}

func (s *paymentService) publish(ctx context.Context, subject string, payload any) {
	if err := s.pub.Publish(ctx, subject, payload); err != nil {
		slog.WarnContext(ctx, "event publish failed", "subject", subject, "err", err)
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *paymentService) Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	tr, err := s.st.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Transaction{}, ErrTransactionNotFound
		}
		return domain.Transaction{}, fmt.Errorf("get payment: %w", err)
	}
	return tr, nil
}

func (s *paymentService) List(ctx context.Context, req ListRequest) (domain.Page[domain.Transaction], error) {
	page, perPage := domain.NormalizePage(req.Page, req.PerPage)

	f := store.TransactionFilter{
		PatientID: req.PatientID,
		Limit:     perPage,
		Offset:    domain.Offset(page, perPage),
	}
	if req.Day != nil {
		from := req.Day.Start(s.opts.Location)
		to := req.Day.AddDays(1).Start(s.opts.Location)
		f.From, f.To = &from, &to
	}

	items, total, err := s.st.ListTransactions(ctx, f)
	if err != nil {
		return domain.Page[domain.Transaction]{}, fmt.Errorf("list payments: %w", err)
	}
	return domain.NewPage(items, total, page, perPage), nil
}
