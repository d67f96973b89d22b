package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store/storetest"
)

func seedMilestones(t *testing.T, mem *storetest.Memory, names ...string) []domain.Patient {
	t.Helper()
	d, _ := NewDeriver(1)
	var out []domain.Patient
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, name := range names {
		p := mem.AddPatient(domain.Patient{Name: name, AmountPaid: decimal.NewFromInt(int64(i * 100))})
		reconcile(t, mem, d, Input{PatientID: p.ID, PatientName: name, Count: 1, Now: base.Add(time.Duration(i) * time.Hour)})
		out = append(out, p)
	}
	return out
}

func TestServiceList(t *testing.T) {
	mem := storetest.New()
	patients := seedMilestones(t, mem, "Sara", "Reza", "Sahar")
	svc := New(mem)
	ctx := context.Background()

	if err := svc.MarkRead(ctx, mustNotification(t, mem, patients[0].ID).ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	unread := false
	tests := []struct {
		name       string
		req        ListRequest
		wantTotal  int
		wantFirst  string
		wantUnread int
	}{
		{name: "all newest first", req: ListRequest{}, wantTotal: 3, wantFirst: "Sahar", wantUnread: 2},
		{name: "search by name", req: ListRequest{Search: "sa"}, wantTotal: 2, wantFirst: "Sahar", wantUnread: 2},
		{name: "unread only", req: ListRequest{Read: &unread}, wantTotal: 2, wantFirst: "Sahar", wantUnread: 2},
		{name: "second page", req: ListRequest{Page: 2, PerPage: 2}, wantTotal: 3, wantFirst: "Sara", wantUnread: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.List(ctx, tt.req)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
			if res.UnreadCount != tt.wantUnread {
				t.Errorf("UnreadCount = %d, want %d", res.UnreadCount, tt.wantUnread)
			}
			if len(res.Items) == 0 || res.Items[0].PatientName != tt.wantFirst {
				t.Fatalf("first item = %+v, want %s", res.Items, tt.wantFirst)
			}
			if res.Items[0].AmountPaid == nil {
				t.Error("AmountPaid not joined")
			}
		})
	}
}

func TestServiceMarkRead(t *testing.T) {
	mem := storetest.New()
	seedMilestones(t, mem, "Sara", "Reza")
	svc := New(mem)
	ctx := context.Background()

	if err := svc.MarkRead(ctx, uuid.New()); !errors.Is(err, ErrNotificationNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("MarkRead(unknown) error = %v", err)
	}

	n, err := svc.MarkAllRead(ctx)
	if err != nil || n != 2 {
		t.Fatalf("MarkAllRead() = %d, %v; want 2", n, err)
	}
	n, err = svc.MarkAllRead(ctx)
	if err != nil || n != 0 {
		t.Fatalf("MarkAllRead() again = %d, %v; want 0", n, err)
	}
}

func mustNotification(t *testing.T, mem *storetest.Memory, patientID uuid.UUID) domain.Notification {
	t.Helper()
	n, ok := mem.Notification(patientID)
	if !ok {
		t.Fatalf("no notification for %s", patientID)
	}
	return n
}
