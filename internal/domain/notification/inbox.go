package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
)

// InboxItem is a stored in-app notification for one employee.
type InboxItem struct {
	ID         string         `json:"id"`
	CompanyID  string         `json:"company_id"`
	EmployeeID string         `json:"employee_id"`
	Kind       EventKind      `json:"kind"`
	Title      string         `json:"title"`
	Payload    map[string]any `json:"payload,omitempty"`
	IsRead     bool           `json:"is_read"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type InboxFilter struct {
	UnreadOnly bool `json:"unread_only"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
}

func (f *InboxFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (f InboxFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

func (r *MarkReadRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.IDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "ids",
			Message: "at least one notification id is required",
		})
	}
	if len(r.IDs) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "ids",
			Message: "at most 100 notifications can be marked at once",
		})
	}
	for _, id := range r.IDs {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "ids",
				Message: fmt.Sprintf("invalid notification id %q", id),
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// InboxRepository scopes every operation to one employee of one company.
type InboxRepository interface {
	Create(ctx context.Context, item *InboxItem) error
	List(ctx context.Context, companyID, employeeID string, filter InboxFilter) ([]InboxItem, int64, error)
	UnreadCount(ctx context.Context, companyID, employeeID string) (int64, error)
	// MarkRead ignores ids that are unknown, already read, or owned by someone else.
	MarkRead(ctx context.Context, companyID, employeeID string, ids []string, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, companyID, employeeID string, at time.Time) (int64, error)
}

// InboxService exposes the caller's own notifications.
type InboxService interface {
	List(ctx context.Context, actor user.Actor, filter InboxFilter) ([]InboxItem, int64, error)
	UnreadCount(ctx context.Context, actor user.Actor) (int64, error)
	MarkRead(ctx context.Context, actor user.Actor, req MarkReadRequest) (int64, error)
	MarkAllRead(ctx context.Context, actor user.Actor) (int64, error)
}
