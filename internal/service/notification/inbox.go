package notification

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
)

// InboxSender stores employee notifications so they can be read after the stream is gone.
type InboxSender struct {
	repo notification.InboxRepository
}

func NewInboxSender(repo notification.InboxRepository) *InboxSender {
	return &InboxSender{repo: repo}
}

func (s *InboxSender) Send(ctx context.Context, msg notification.Message) error {
	if msg.To.EmployeeID == "" {
		return nil
	}
	return s.repo.Create(ctx, &notification.InboxItem{
		CompanyID:  msg.CompanyID,
		EmployeeID: msg.To.EmployeeID,
		Kind:       msg.Kind,
		Title:      msg.Kind.Title(),
		Payload:    msg.Payload,
		CreatedAt:  msg.QueuedAt,
	})
}

type InboxServiceImpl struct {
	notification.InboxRepository
	now func() time.Time
}

func NewInboxService(repo notification.InboxRepository) notification.InboxService {
	return &InboxServiceImpl{InboxRepository: repo, now: time.Now}
}

func inboxOwner(actor user.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if actor.EmployeeID == "" {
		return user.ErrEmployeeRequired
	}
	return nil
}

// List implements notification.InboxService.
func (s *InboxServiceImpl) List(ctx context.Context, actor user.Actor, filter notification.InboxFilter) ([]notification.InboxItem, int64, error) {
	if err := inboxOwner(actor); err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	items, total, err := s.InboxRepository.List(ctx, actor.CompanyID, actor.EmployeeID, filter)
	if err != nil {
		return nil, 0, apperr.Dependency("failed to list notifications", err)
	}
	return items, total, nil
}

// UnreadCount implements notification.InboxService.
func (s *InboxServiceImpl) UnreadCount(ctx context.Context, actor user.Actor) (int64, error) {
	if err := inboxOwner(actor); err != nil {
		return 0, err
	}

	count, err := s.InboxRepository.UnreadCount(ctx, actor.CompanyID, actor.EmployeeID)
	if err != nil {
		return 0, apperr.Dependency("failed to count unread notifications", err)
	}
	return count, nil
}

// MarkRead implements notification.InboxService.
func (s *InboxServiceImpl) MarkRead(ctx context.Context, actor user.Actor, req notification.MarkReadRequest) (int64, error) {
	if err := inboxOwner(actor); err != nil {
		return 0, err
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	updated, err := s.InboxRepository.MarkRead(ctx, actor.CompanyID, actor.EmployeeID, req.IDs, s.now())
	if err != nil {
		return 0, apperr.Dependency("failed to mark notifications as read", err)
	}
	return updated, nil
}

// MarkAllRead implements notification.InboxService.
func (s *InboxServiceImpl) MarkAllRead(ctx context.Context, actor user.Actor) (int64, error) {
	if err := inboxOwner(actor); err != nil {
		return 0, err
	}

	updated, err := s.InboxRepository.MarkAllRead(ctx, actor.CompanyID, actor.EmployeeID, s.now())
	if err != nil {
		return 0, apperr.Dependency("failed to mark notifications as read", err)
	}
	return updated, nil
}
