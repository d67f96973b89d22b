package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, req ListRequest) (ListResult, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type ListRequest struct {
	Page    int
	PerPage int
	Search  string
	// Read filters by read state when set.
	Read *bool
}

type ListResult struct {
	domain.Page[domain.Notification]
	UnreadCount int `json:"unread_count"`
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	st store.NotificationStore
}

func New(st store.NotificationStore) Service {
	return &notificationService{st: st}
}

func (s *notificationService) List(ctx context.Context, req ListRequest) (ListResult, error) {
	page, perPage := domain.NormalizePage(req.Page, req.PerPage)

	res, err := s.st.ListNotifications(ctx, store.NotificationFilter{
		Search: req.Search,
		Read:   req.Read,
		Limit:  perPage,
		Offset: domain.Offset(page, perPage),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list notifications: %w", err)
	}

	return ListResult{
		Page:        domain.NewPage(res.Items, res.Total, page, perPage),
		UnreadCount: res.Unread,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	n, err := s.st.MarkNotificationRead(ctx, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.st.MarkAllNotificationsRead(ctx)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}
