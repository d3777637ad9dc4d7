package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type inboxRepository struct {
	db *database.DB
}

// NewInboxRepository creates the notification inbox repository
func NewInboxRepository(db *database.DB) notification.InboxRepository {
	return &inboxRepository{db: db}
}

const inboxColumns = `id, company_id, employee_id, kind, title, payload, is_read, read_at, created_at`

// Create implements notification.InboxRepository.
func (r *inboxRepository) Create(ctx context.Context, n *notification.InboxItem) error {
	q := GetQuerier(ctx, r.db)

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	query := `
		INSERT INTO notifications (` + inboxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = q.Exec(ctx, query,
		n.ID,
		n.CompanyID,
		n.EmployeeID,
		string(n.Kind),
		n.Title,
		payload,
		n.IsRead,
		n.ReadAt,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func scanInboxItems(rows pgx.Rows) ([]notification.InboxItem, error) {
	defer rows.Close()

	items := []notification.InboxItem{}
	for rows.Next() {
		var n notification.InboxItem
		var payload []byte
		var kind string

		if err := rows.Scan(
			&n.ID,
			&n.CompanyID,
			&n.EmployeeID,
			&kind,
			&n.Title,
			&payload,
			&n.IsRead,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.Kind = notification.EventKind(kind)
		if payload != nil {
			if err := json.Unmarshal(payload, &n.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification payload: %w", err)
			}
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	return items, nil
}

// List implements notification.InboxRepository.
func (r *inboxRepository) List(ctx context.Context, companyID, employeeID string, filter notification.InboxFilter) ([]notification.InboxItem, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := tenantWhere("company_id", companyID).and("employee_id = $%d", employeeID)
	if filter.UnreadOnly {
		where.raw("is_read = false")
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	suffix, args := where.paged(filter.Limit, filter.Offset())
	rows, err := q.Query(ctx,
		"SELECT "+inboxColumns+" FROM notifications WHERE "+where.String()+" ORDER BY created_at DESC, id "+suffix,
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}

	items, err := scanInboxItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UnreadCount implements notification.InboxRepository.
func (r *inboxRepository) UnreadCount(ctx context.Context, companyID, employeeID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT COUNT(*) FROM notifications WHERE company_id = $1 AND employee_id = $2 AND is_read = false`
	var count int64
	if err := q.QueryRow(ctx, query, companyID, employeeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkRead implements notification.InboxRepository.
func (r *inboxRepository) MarkRead(ctx context.Context, companyID, employeeID string, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE company_id = $2 AND employee_id = $3 AND is_read = false AND id = ANY($4::uuid[])
	`
	tag, err := q.Exec(ctx, query, at, companyID, employeeID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	return tag.RowsAffected(), nil
}

// MarkAllRead implements notification.InboxRepository.
func (r *inboxRepository) MarkAllRead(ctx context.Context, companyID, employeeID string, at time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE company_id = $2 AND employee_id = $3 AND is_read = false
	`
	tag, err := q.Exec(ctx, query, at, companyID, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return tag.RowsAffected(), nil
}
