package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
)

type AttendanceService interface {
	CheckIn(ctx context.Context, actor user.Actor, req CheckInRequest) (*Record, error)
	CheckOut(ctx context.Context, actor user.Actor, req CheckOutRequest) (*Record, error)
	GetToday(ctx context.Context, actor user.Actor) (*Record, error)
	GetByID(ctx context.Context, actor user.Actor, id string) (*Record, error)
	List(ctx context.Context, actor user.Actor, filter ListFilter) ([]Record, int64, error)

	// Admin maintenance
	ManualEntry(ctx context.Context, actor user.Actor, req ManualEntryRequest) (*Record, error)
	UpdateRecord(ctx context.Context, actor user.Actor, id string, req UpdateRecordRequest) (*Record, error)
	DeleteRecord(ctx context.Context, actor user.Actor, id string) error

	// Read-only views
	GetDailyReport(ctx context.Context, actor user.Actor, date string) (*DailyReport, error)
	GetRangeStats(ctx context.Context, actor user.Actor, req RangeStatsRequest) (*RangeStats, error)
	Export(ctx context.Context, actor user.Actor, filter ListFilter, format export.Format) ([]byte, error)

	// BuildDailyReport is GetDailyReport for system callers (scheduler jobs); no actor checks.
	BuildDailyReport(ctx context.Context, companyID string, day time.Time) (*DailyReport, error)
}
