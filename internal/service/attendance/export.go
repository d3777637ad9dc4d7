package attendance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
)

const exportPageSize = 100

var exportHeaders = []string{
	"Date", "Employee ID", "Employee", "Status", "Check In", "Check Out",
	"Hours Worked", "Overtime Hours", "Minutes Late", "Manual Entry",
}

// Export implements attendance.AttendanceService. It renders every record matching filter,
// ignoring the filter's paging.
func (a *AttendanceServiceImpl) Export(ctx context.Context, actor user.Actor, filter attendance.ListFilter, format export.Format) ([]byte, error) {
	cfg, err := a.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()

	table := export.Table{Title: "Attendance", Headers: exportHeaders}

	filter.Page, filter.Limit = 1, exportPageSize
	for {
		records, total, err := a.List(ctx, actor, filter)
		if err != nil {
			return nil, err
		}
		for i := range records {
			table.Rows = append(table.Rows, exportRow(&records[i], loc))
		}
		if int64(filter.Page*filter.Limit) >= total || len(records) == 0 {
			break
		}
		filter.Page++
	}

	out, err := a.renderer.Render(table, format)
	if err != nil {
		return nil, fmt.Errorf("failed to render attendance export: %w", err)
	}
	return out, nil
}

func exportRow(r *attendance.Record, loc *time.Location) []string {
	name := ""
	if r.EmployeeName != nil {
		name = *r.EmployeeName
	}
	clock := func(p *attendance.Punch) string {
		if p == nil || p.Time.IsZero() {
			return ""
		}
		return p.Time.In(loc).Format("15:04")
	}

	return []string{
		r.DayKey(),
		r.EmployeeID,
		name,
		string(r.Status),
		clock(r.CheckIn),
		clock(r.CheckOut),
		strconv.FormatFloat(r.HoursWorked, 'f', 2, 64),
		strconv.FormatFloat(r.OvertimeHours, 'f', 2, 64),
		strconv.Itoa(r.LateArrival.MinutesLate),
		strconv.FormatBool(r.IsManualEntry),
	}
}
