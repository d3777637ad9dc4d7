package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/correction"
)

type CorrectionRepository struct {
	mu       sync.Mutex
	requests map[string]correction.Request
}

func NewCorrectionRepository() *CorrectionRepository {
	return &CorrectionRepository{requests: make(map[string]correction.Request)}
}

func (m *CorrectionRepository) Create(ctx context.Context, r *correction.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = newID()
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	m.requests[r.ID] = *r
	return nil
}

func (m *CorrectionRepository) GetByID(ctx context.Context, companyID, id string) (*correction.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok || r.CompanyID != companyID {
		return nil, correction.ErrCorrectionNotFound
	}
	return &r, nil
}

func (m *CorrectionRepository) HasPending(ctx context.Context, companyID, employeeID string, date time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := date.Format("2006-01-02")
	for _, r := range m.requests {
		if r.CompanyID == companyID && r.EmployeeID == employeeID &&
			r.Status == correction.StatusPending && r.RequestedDate.Format("2006-01-02") == day {
			return true, nil
		}
	}
	return false, nil
}

func (m *CorrectionRepository) List(ctx context.Context, companyID string, filter correction.ListFilter) ([]correction.Request, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []correction.Request
	for _, r := range m.requests {
		if r.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return page(out, filter.Offset(), filter.Limit), int64(len(out)), nil
}

func (m *CorrectionRepository) Resolve(ctx context.Context, companyID, id string, d correction.Decision) (*correction.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok || r.CompanyID != companyID {
		return nil, correction.ErrCorrectionNotFound
	}
	if r.Status != correction.StatusPending {
		return nil, correction.ErrCorrectionAlreadyProcessed
	}

	r.Status = d.Status
	r.ReviewedBy = d.ReviewedBy
	at := d.ReviewedAt
	r.ReviewedAt = &at
	r.Comments = d.Comments
	r.UpdatedAt = d.ReviewedAt
	m.requests[id] = r
	return &r, nil
}

func (m *CorrectionRepository) SetAttendanceID(ctx context.Context, companyID, id, attendanceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok || r.CompanyID != companyID {
		return correction.ErrCorrectionNotFound
	}
	r.AttendanceID = &attendanceID
	m.requests[id] = r
	return nil
}
