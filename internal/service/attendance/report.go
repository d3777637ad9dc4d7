package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
)

// GetDailyReport implements attendance.AttendanceService. An empty date means today.
func (a *AttendanceServiceImpl) GetDailyReport(ctx context.Context, actor user.Actor, date string) (*attendance.DailyReport, error) {
	if err := requirePermission(actor, user.PermissionReportsView); err != nil {
		return nil, err
	}

	cfg, err := a.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()

	day := attendance.NormalizeDate(a.now(), loc)
	if date != "" {
		if _, ok := validator.IsValidDate(date); !ok {
			return nil, validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}}
		}
		day, _ = time.ParseInLocation("2006-01-02", date, loc)
	}

	return a.BuildDailyReport(ctx, actor.CompanyID, day)
}

// BuildDailyReport aggregates one company's day without permission checks.
// The scheduler's daily report job calls it directly.
func (a *AttendanceServiceImpl) BuildDailyReport(ctx context.Context, companyID string, day time.Time) (*attendance.DailyReport, error) {
	key := attendance.DayKey(day)

	employees, err := a.employees.ListActive(ctx, companyID)
	if err != nil {
		return nil, apperr.Dependency("failed to list active employees for daily report "+key, err)
	}
	records, err := a.AttendanceRepository.ListByDate(ctx, companyID, day)
	if err != nil {
		return nil, apperr.Dependency("failed to list attendance for daily report "+key, err)
	}
	onLeave, err := a.leaves.EmployeesOnLeave(ctx, companyID, day)
	if err != nil {
		return nil, apperr.Dependency("failed to list approved leave for daily report "+key, err)
	}

	byEmployee := make(map[string]attendance.Record, len(records))
	for _, r := range records {
		byEmployee[r.EmployeeID] = r
	}

	report := &attendance.DailyReport{
		Date:           key,
		TotalEmployees: len(employees),
		Absentees:      []attendance.EmployeeBrief{},
		LateArrivals:   []attendance.LateArrivalEntry{},
	}

	var totalHours float64
	var withHours int
	for _, emp := range employees {
		brief := attendance.EmployeeBrief{EmployeeID: emp.ID, EmployeeName: emp.FullName}

		r, ok := byEmployee[emp.ID]
		if !ok {
			if onLeave[emp.ID] {
				report.OnLeave++
			} else {
				report.Absent++
				report.Absentees = append(report.Absentees, brief)
			}
			continue
		}

		switch {
		case r.Status.IsAttended():
			report.Present++
		case r.Status == attendance.StatusAbsent:
			report.Absent++
			report.Absentees = append(report.Absentees, brief)
		case r.Status == attendance.StatusOnLeave:
			report.OnLeave++
		}

		if r.LateArrival.IsLate && r.HasCheckIn() {
			report.Late++
			report.LateArrivals = append(report.LateArrivals, attendance.LateArrivalEntry{
				EmployeeID:   emp.ID,
				EmployeeName: emp.FullName,
				CheckInTime:  r.CheckIn.Time,
				MinutesLate:  r.LateArrival.MinutesLate,
			})
		}

		if r.HoursWorked > 0 {
			totalHours += r.HoursWorked
			withHours++
		}
	}

	if withHours > 0 {
		report.AverageHours = round2(totalHours / float64(withHours))
	}

	return report, nil
}

// GetRangeStats implements attendance.AttendanceService. Employees may only query themselves.
func (a *AttendanceServiceImpl) GetRangeStats(ctx context.Context, actor user.Actor, req attendance.RangeStatsRequest) (*attendance.RangeStats, error) {
	if err := requirePermission(actor, user.PermissionAttendanceViewOwn); err != nil {
		return nil, err
	}
	if req.EmployeeID == "" {
		req.EmployeeID = actor.EmployeeID
	}
	if req.EmployeeID == "" {
		return nil, user.ErrEmployeeRequired
	}
	if req.EmployeeID != actor.EmployeeID && !actor.Can(user.PermissionAttendanceViewAll) {
		return nil, user.ErrPermissionDenied
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := a.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	start, _ := time.ParseInLocation("2006-01-02", req.StartDate, cfg.Location())
	end, _ := time.ParseInLocation("2006-01-02", req.EndDate, cfg.Location())

	records, err := a.AttendanceRepository.ListByEmployeeRange(ctx, actor.CompanyID, req.EmployeeID, start, end)
	if err != nil {
		return nil, apperr.Dependency(fmt.Sprintf("failed to load attendance of employee %s from %s to %s", req.EmployeeID, req.StartDate, req.EndDate), err)
	}

	stats := RangeStatsOf(records)
	stats.EmployeeID = req.EmployeeID
	stats.StartDate = req.StartDate
	stats.EndDate = req.EndDate
	return &stats, nil
}

// RangeStatsOf aggregates records: present counts present and late, onTimePercentage is
// (present - late) / totalDays rounded to a whole percent.
func RangeStatsOf(records []attendance.Record) attendance.RangeStats {
	var stats attendance.RangeStats
	stats.TotalDays = len(records)

	for _, r := range records {
		switch r.Status {
		case attendance.StatusPresent, attendance.StatusLate:
			stats.Present++
		case attendance.StatusAbsent:
			stats.Absent++
		case attendance.StatusHalfDay:
			stats.HalfDays++
		case attendance.StatusOnLeave:
			stats.Leave++
		}
		if r.LateArrival.IsLate {
			stats.Late++
		}
		stats.TotalHours += r.HoursWorked
	}

	stats.TotalHours = round2(stats.TotalHours)
	if stats.TotalDays > 0 {
		stats.AverageHours = round2(stats.TotalHours / float64(stats.TotalDays))
		onTime := stats.Present - stats.Late
		if onTime < 0 {
			onTime = 0
		}
		stats.OnTimePercentage = math.Round(float64(onTime) / float64(stats.TotalDays) * 100)
	}

	return stats
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
