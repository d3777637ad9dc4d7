package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
)

type Inbox struct {
	mu    sync.Mutex
	items []notification.InboxItem
}

func NewInbox() *Inbox {
	return &Inbox{}
}

func (m *Inbox) Create(ctx context.Context, item *notification.InboxItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.ID == "" {
		item.ID = newID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *Inbox) owned(companyID, employeeID string, item notification.InboxItem) bool {
	return item.CompanyID == companyID && item.EmployeeID == employeeID
}

// List returns newest first.
func (m *Inbox) List(ctx context.Context, companyID, employeeID string, filter notification.InboxFilter) ([]notification.InboxItem, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []notification.InboxItem
	for i := len(m.items) - 1; i >= 0; i-- {
		item := m.items[i]
		if !m.owned(companyID, employeeID, item) || (filter.UnreadOnly && item.IsRead) {
			continue
		}
		out = append(out, item)
	}
	slices.SortStableFunc(out, func(a, b notification.InboxItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return page(out, filter.Offset(), filter.Limit), int64(len(out)), nil
}

func (m *Inbox) UnreadCount(ctx context.Context, companyID, employeeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, item := range m.items {
		if m.owned(companyID, employeeID, item) && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *Inbox) MarkRead(ctx context.Context, companyID, employeeID string, ids []string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for i := range m.items {
		item := &m.items[i]
		if m.owned(companyID, employeeID, *item) && !item.IsRead && slices.Contains(ids, item.ID) {
			item.IsRead = true
			item.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (m *Inbox) MarkAllRead(ctx context.Context, companyID, employeeID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for i := range m.items {
		item := &m.items[i]
		if m.owned(companyID, employeeID, *item) && !item.IsRead {
			item.IsRead = true
			item.ReadAt = &at
			n++
		}
	}
	return n, nil
}
