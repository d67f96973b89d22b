package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store/storetest"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
)

var clinicTZ = time.FixedZone("clinic", 3*3600+1800)

func newService(t *testing.T, now func() time.Time) (*storetest.Memory, *events.Recorder, Service) {
	t.Helper()
	mem := storetest.New()
	rec := &events.Recorder{}
	return mem, rec, New(mem, rec, Options{Location: clinicTZ, Now: now})
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// sumOf is the ledger side of the balance invariant.
func sumOf(txs []domain.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tr := range txs {
		sum = sum.Add(tr.Amount)
	}
	return sum
}

func TestAddPaymentValidation(t *testing.T) {
	_, _, svc := newService(t, nil)

	tests := []struct {
		name    string
		req     AddPaymentRequest
		wantErr error
	}{
		{name: "missing patient", req: AddPaymentRequest{Amount: dec(10)}, wantErr: ErrPatientRequired},
		{name: "zero amount", req: AddPaymentRequest{PatientID: uuid.New()}, wantErr: ErrAmountRequired},
		{name: "sub-cent amount", req: AddPaymentRequest{PatientID: uuid.New(), Amount: decimal.RequireFromString("10.005")}, wantErr: ErrAmountPrecision},
		{name: "unknown patient", req: AddPaymentRequest{PatientID: uuid.New(), Amount: dec(10)}, wantErr: ErrPatientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddPayment(context.Background(), tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddPayment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrailingZerosAccepted(t *testing.T) {
	mem, _, svc := newService(t, nil)
	p := mem.AddPatient(domain.Patient{Name: "Sara"})

	if _, err := svc.AddPayment(context.Background(), AddPaymentRequest{PatientID: p.ID, Amount: decimal.RequireFromString("12.500")}); err != nil {
		t.Fatalf("AddPayment() error = %v", err)
	}
	got, _ := mem.Patient(p.ID)
	if !got.AmountPaid.Equal(sumOf(mem.Transactions(p.ID))) {
		t.Errorf("amount_paid %s != transaction sum %s", got.AmountPaid, sumOf(mem.Transactions(p.ID)))
	}
}

func TestAddThenDeleteFirst(t *testing.T) {
	mem, rec, svc := newService(t, nil)
	ctx := context.Background()
	p := mem.AddPatient(domain.Patient{Name: "Sara"})

	first, err := svc.AddPayment(ctx, AddPaymentRequest{PatientID: p.ID, Amount: dec(500), Note: " deposit "})
	if err != nil {
		t.Fatalf("AddPayment(500) error = %v", err)
	}
	if first.Note != "deposit" {
		t.Errorf("Note = %q, want trimmed", first.Note)
	}
	if _, err := svc.AddPayment(ctx, AddPaymentRequest{PatientID: p.ID, Amount: dec(200)}); err != nil {
		t.Fatalf("AddPayment(200) error = %v", err)
	}

	res, err := svc.DeletePaymentByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("DeletePaymentByID() error = %v", err)
	}
	if res.DeletedTransactionID != first.ID || !res.DeletedAmount.Equal(dec(500)) || !res.UpdatedAmountPaid.Equal(dec(200)) {
		t.Errorf("result = %+v", res)
	}

	got, _ := mem.Patient(p.ID)
	if !got.AmountPaid.Equal(dec(200)) {
		t.Errorf("amount_paid = %s, want 200", got.AmountPaid)
	}
	if !got.AmountPaid.Equal(sumOf(mem.Transactions(p.ID))) {
		t.Errorf("amount_paid %s drifted from ledger sum", got.AmountPaid)
	}

	want := []string{events.SubjectPaymentAdded, events.SubjectPaymentAdded, events.SubjectPaymentDeleted}
	subjects := rec.Subjects()
	if len(subjects) != len(want) {
		t.Fatalf("published = %v, want %v", subjects, want)
	}
	for i := range want {
		if subjects[i] != want[i] {
			t.Errorf("published[%d] = %s, want %s", i, subjects[i], want[i])
		}
	}
}

func TestNegativePaymentIsRefund(t *testing.T) {
	mem, _, svc := newService(t, nil)
	ctx := context.Background()
	p := mem.AddPatient(domain.Patient{Name: "Sara"})

	for _, a := range []int64{300, -120} {
		if _, err := svc.AddPayment(ctx, AddPaymentRequest{PatientID: p.ID, Amount: dec(a)}); err != nil {
			t.Fatalf("AddPayment(%d) error = %v", a, err)
		}
	}
	got, _ := mem.Patient(p.ID)
	if !got.AmountPaid.Equal(dec(180)) {
		t.Errorf("amount_paid = %s, want 180", got.AmountPaid)
	}
}

func TestDeletePaymentNotFound(t *testing.T) {
	mem, rec, svc := newService(t, nil)
	ctx := context.Background()
	p := mem.AddPatient(domain.Patient{Name: "Sara"})
	tr, err := svc.AddPayment(ctx, AddPaymentRequest{PatientID: p.ID, Amount: dec(50)})
	if err != nil {
		t.Fatalf("AddPayment() error = %v", err)
	}

	if _, err := svc.DeletePaymentByID(ctx, tr.ID); err != nil {
		t.Fatalf("first delete error = %v", err)
	}
	_, err = svc.DeletePaymentByID(ctx, tr.ID)
	if !errors.Is(err, ErrTransactionNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrTransactionNotFound", err)
	}

	got, _ := mem.Patient(p.ID)
	if !got.AmountPaid.IsZero() {
		t.Errorf("amount_paid = %s, want 0", got.AmountPaid)
	}
	if n := len(rec.Events()); n != 2 {
		t.Errorf("events = %d, want 2", n)
	}
}

func TestPaymentIsAtomic(t *testing.T) {
	boom := errors.New("injected")

	t.Run("add", func(t *testing.T) {
		mem, rec, svc := newService(t, nil)
		p := mem.AddPatient(domain.Patient{Name: "Sara"})
		mem.FailOn("AddAmountPaid", boom)

		if _, err := svc.AddPayment(context.Background(), AddPaymentRequest{PatientID: p.ID, Amount: dec(500)}); !errors.Is(err, boom) {
			t.Fatalf("AddPayment() error = %v", err)
		}
		if n := len(mem.Transactions(p.ID)); n != 0 {
			t.Errorf("transactions = %d, want 0", n)
		}
		if len(rec.Events()) != 0 {
			t.Errorf("events published: %v", rec.Subjects())
		}
	})

	t.Run("delete", func(t *testing.T) {
		mem, _, svc := newService(t, nil)
		p := mem.AddPatient(domain.Patient{Name: "Sara"})
		tr, err := svc.AddPayment(context.Background(), AddPaymentRequest{PatientID: p.ID, Amount: dec(500)})
		if err != nil {
			t.Fatalf("AddPayment() error = %v", err)
		}
		mem.FailOn("Commit", boom)

		if _, err := svc.DeletePaymentByID(context.Background(), tr.ID); !errors.Is(err, boom) {
			t.Fatalf("DeletePaymentByID() error = %v", err)
		}
		got, _ := mem.Patient(p.ID)
		if n := len(mem.Transactions(p.ID)); n != 1 || !got.AmountPaid.Equal(dec(500)) {
			t.Errorf("state changed: %d transactions, amount_paid %s", n, got.AmountPaid)
		}
	})
}

func TestBalanceUnderConcurrency(t *testing.T) {
	mem, _, svc := newService(t, nil)
	ctx := context.Background()
	p := mem.AddPatient(domain.Patient{Name: "Sara"})

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []uuid.UUID
	)
	for i := 1; i <= 40; i++ {
		wg.Add(1)
		go func(a int64) {
			defer wg.Done()
			tr, err := svc.AddPayment(ctx, AddPaymentRequest{PatientID: p.ID, Amount: dec(a)})
			if err != nil {
				t.Errorf("AddPayment(%d) error = %v", a, err)
				return
			}
			mu.Lock()
			ids = append(ids, tr.ID)
			mu.Unlock()
		}(int64(i))
	}
	wg.Wait()

	for _, id := range ids[:20] {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := svc.DeletePaymentByID(ctx, id); err != nil {
				t.Errorf("DeletePaymentByID() error = %v", err)
			}
		}(id)
	}
	wg.Wait()

	got, _ := mem.Patient(p.ID)
	txs := mem.Transactions(p.ID)
	if len(txs) != 20 {
		t.Errorf("transactions = %d, want 20", len(txs))
	}
	if !got.AmountPaid.Equal(sumOf(txs)) {
		t.Errorf("amount_paid = %s, ledger sum = %s", got.AmountPaid, sumOf(txs))
	}
}

func TestListByDay(t *testing.T) {
	now := time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC)
	mem, _, svc := newService(t, func() time.Time { return now })
	ctx := context.Background()
	p := mem.AddPatient(domain.Patient{Name: "Sara"})

	// 20:00 UTC is already 2025-01-15 23:30 in the clinic zone.
	if _, err := svc.AddPayment(ctx, AddPaymentRequest{PatientID: p.ID, Amount: dec(10)}); err != nil {
		t.Fatalf("AddPayment() error = %v", err)
	}
	// 21:00 UTC falls on the next clinic day.
	now = now.Add(time.Hour)
	if _, err := svc.AddPayment(ctx, AddPaymentRequest{PatientID: p.ID, Amount: dec(20)}); err != nil {
		t.Fatalf("AddPayment() error = %v", err)
	}

	tests := []struct {
		day  string
		want int64
	}{
		{day: "2025-01-15", want: 10},
		{day: "2025-01-16", want: 20},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			d := domain.MustParseDay(tt.day)
			page, err := svc.List(ctx, ListRequest{PatientID: &p.ID, Day: &d})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if page.Total != 1 || !page.Items[0].Amount.Equal(dec(tt.want)) {
				t.Fatalf("page = %+v", page)
			}
			if page.Items[0].PatientName != "Sara" {
				t.Errorf("PatientName = %q", page.Items[0].PatientName)
			}
		})
	}

	all, err := svc.List(ctx, ListRequest{})
	if err != nil || all.Total != 2 {
		t.Errorf("List(all) = %+v, %v", all, err)
	}
}

func TestGet(t *testing.T) {
	mem, _, svc := newService(t, nil)
	ctx := context.Background()
	u := mem.AddUser(domain.User{Name: "Desk", Email: "desk@clinic.test"})
	p := mem.AddPatient(domain.Patient{Name: "Sara"})
	tr, err := svc.AddPayment(ctx, AddPaymentRequest{PatientID: p.ID, Amount: dec(10), CreatedBy: &u.ID})
	if err != nil {
		t.Fatalf("AddPayment() error = %v", err)
	}

	got, err := svc.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.CreatorName == nil || *got.CreatorName != "Desk" {
		t.Errorf("CreatorName = %v", got.CreatorName)
	}
	if _, err := svc.Get(ctx, uuid.New()); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("Get(unknown) error = %v", err)
	}
}
