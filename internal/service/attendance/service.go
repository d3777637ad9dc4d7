package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	settings  settings.SettingsService
	employees employee.Directory
	leaves    leave.Checker
	renderer  export.Renderer
	now       func() time.Time
}

type Option func(*AttendanceServiceImpl)

// WithClock replaces time.Now for punch times and "today".
func WithClock(now func() time.Time) Option {
	return func(a *AttendanceServiceImpl) {
		a.now = now
	}
}

func NewAttendanceService(
	repo attendance.AttendanceRepository,
	settingsService settings.SettingsService,
	employees employee.Directory,
	leaves leave.Checker,
	renderer export.Renderer,
	opts ...Option,
) attendance.AttendanceService {
	a := &AttendanceServiceImpl{
		AttendanceRepository: repo,
		settings:             settingsService,
		employees:            employees,
		leaves:               leaves,
		renderer:             renderer,
		now:                  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func requireEmployee(actor user.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if actor.EmployeeID == "" {
		return user.ErrEmployeeRequired
	}
	if !actor.Can(user.PermissionAttendanceRecordOwn) {
		return user.ErrPermissionDenied
	}
	return nil
}

func requirePermission(actor user.Actor, permission user.Permission) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !actor.Can(permission) {
		return user.ErrPermissionDenied
	}
	return nil
}

// activeEmployee loads the employee and rejects inactive ones.
func (a *AttendanceServiceImpl) activeEmployee(ctx context.Context, companyID, employeeID string) (*employee.Employee, error) {
	emp, err := a.employees.GetByID(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, fmt.Errorf("employee %s: %w", employeeID, err)
		}
		return nil, apperr.Dependency("failed to load employee "+employeeID, err)
	}
	if !emp.IsActive() {
		return nil, fmt.Errorf("employee %s: %w", employeeID, employee.ErrEmployeeInactive)
	}
	return emp, nil
}

// findDay returns the record for the calendar day, or nil when there is none.
func (a *AttendanceServiceImpl) findDay(ctx context.Context, companyID, employeeID string, date time.Time) (*attendance.Record, error) {
	r, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, companyID, employeeID, date)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return nil, nil
		}
		return nil, apperr.Dependency("failed to load attendance for "+attendance.Describe(employeeID, date), err)
	}
	return r, nil
}

func punchFrom(ts time.Time, method attendance.Method, geo *attendance.Geolocation, note *string) *attendance.Punch {
	if method == "" {
		method = attendance.MethodWeb
	}
	return &attendance.Punch{Time: ts, Method: method, Geolocation: geo, Note: note}
}

// locate stamps the geofence result on a copy of geo. With an enforced fence, a missing
// location or one outside every office is rejected.
func locate(cfg *settings.TenantSettings, geo *attendance.Geolocation) (*attendance.Geolocation, error) {
	fence := cfg.Geofence
	if !fence.Active() {
		return geo, nil
	}
	if geo == nil {
		if fence.Enforce {
			return nil, attendance.ErrGeolocationRequired
		}
		return nil, nil
	}

	stamped := *geo
	within := fence.Within(geo.Latitude, geo.Longitude)
	stamped.WithinGeofence = &within
	if !within && fence.Enforce {
		return nil, attendance.ErrOutsideGeofence
	}
	return &stamped, nil
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, actor user.Actor, req attendance.CheckInRequest) (*attendance.Record, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := a.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	if _, err := a.activeEmployee(ctx, actor.CompanyID, actor.EmployeeID); err != nil {
		return nil, err
	}

	ts := a.now()
	date := attendance.NormalizeDate(ts, cfg.Location())
	who := attendance.Describe(actor.EmployeeID, date)

	geo, err := locate(cfg, req.Geolocation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", who, err)
	}

	existing, err := a.findDay(ctx, actor.CompanyID, actor.EmployeeID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.HasCheckIn() {
		return nil, fmt.Errorf("%s: %w", who, attendance.ErrAlreadyCheckedIn)
	}

	onLeave, err := a.leaves.HasApprovedLeave(ctx, actor.CompanyID, actor.EmployeeID, date)
	if err != nil {
		return nil, apperr.Dependency(who, fmt.Errorf("%w: %v", leave.ErrLeaveLookupFailed, err))
	}
	if onLeave {
		return nil, fmt.Errorf("%s: %w", who, attendance.ErrOnApprovedLeave)
	}

	switch kind, holiday := attendance.ClassifyDay(date, cfg); kind {
	case attendance.Weekend:
		return nil, fmt.Errorf("%s: %w", who, attendance.ErrWeekend)
	case attendance.Holiday:
		return nil, fmt.Errorf("%s (%s): %w", who, holiday.Name, attendance.ErrHoliday)
	}

	record := existing
	if record == nil {
		record = &attendance.Record{
			CompanyID:  actor.CompanyID,
			EmployeeID: actor.EmployeeID,
			Date:       date,
		}
	} else {
		// the employee's own punch supersedes an absence marked on their behalf
		record.IsManualEntry = false
		record.MarkedBy = nil
		record.AdminNotes = nil
	}
	record.CheckIn = punchFrom(ts, req.Method, geo, req.Note)
	record.Recalculate(cfg)
	record.Status = attendance.StatusForCheckIn(record.LateArrival)

	if existing == nil {
		if err := a.AttendanceRepository.Create(ctx, record); err != nil {
			if errors.Is(err, attendance.ErrAttendanceExists) {
				// lost the race against a concurrent check-in for the same day
				return nil, fmt.Errorf("%s: %w", who, attendance.ErrAlreadyCheckedIn)
			}
			return nil, apperr.Dependency("failed to create attendance for "+who, err)
		}
	} else if err := a.AttendanceRepository.Update(ctx, record); err != nil {
		return nil, apperr.Dependency("failed to update attendance for "+who, err)
	}

	slog.Info("employee checked in",
		"company_id", actor.CompanyID,
		"employee_id", actor.EmployeeID,
		"date", attendance.DayKey(date),
		"late", record.LateArrival.IsLate,
		"minutes_late", record.LateArrival.MinutesLate,
	)

	return record, nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, actor user.Actor, req attendance.CheckOutRequest) (*attendance.Record, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := a.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	ts := a.now()
	date := attendance.NormalizeDate(ts, cfg.Location())
	who := attendance.Describe(actor.EmployeeID, date)

	record, err := a.findDay(ctx, actor.CompanyID, actor.EmployeeID, date)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.HasCheckIn() {
		return nil, fmt.Errorf("%s: %w", who, attendance.ErrNoCheckIn)
	}
	if record.HasCheckOut() {
		return nil, fmt.Errorf("%s: %w", who, attendance.ErrAlreadyCheckedOut)
	}
	if !ts.After(record.CheckIn.Time) {
		return nil, fmt.Errorf("%s: %w", who, attendance.ErrCheckOutBeforeCheckIn)
	}

	geo, err := locate(cfg, req.Geolocation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", who, err)
	}

	record.CheckOut = punchFrom(ts, req.Method, geo, req.Note)
	record.Recalculate(cfg)

	if err := a.AttendanceRepository.Update(ctx, record); err != nil {
		return nil, apperr.Dependency("failed to update attendance for "+who, err)
	}

	slog.Info("employee checked out",
		"company_id", actor.CompanyID,
		"employee_id", actor.EmployeeID,
		"date", attendance.DayKey(date),
		"hours_worked", record.HoursWorked,
		"overtime_hours", record.OvertimeHours,
	)

	return record, nil
}

// GetToday implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetToday(ctx context.Context, actor user.Actor) (*attendance.Record, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}

	cfg, err := a.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	date := attendance.NormalizeDate(a.now(), cfg.Location())

	record, err := a.findDay(ctx, actor.CompanyID, actor.EmployeeID, date)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%s: %w", attendance.Describe(actor.EmployeeID, date), attendance.ErrAttendanceNotFound)
	}
	return record, nil
}

// GetByID implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetByID(ctx context.Context, actor user.Actor, id string) (*attendance.Record, error) {
	if err := requirePermission(actor, user.PermissionAttendanceViewOwn); err != nil {
		return nil, err
	}

	record, err := a.AttendanceRepository.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return nil, err
		}
		return nil, apperr.Dependency("failed to load attendance "+id, err)
	}
	if record.EmployeeID != actor.EmployeeID && !actor.Can(user.PermissionAttendanceViewAll) {
		return nil, user.ErrPermissionDenied
	}
	return record, nil
}

// List implements attendance.AttendanceService. Callers without view_all only see their own records.
func (a *AttendanceServiceImpl) List(ctx context.Context, actor user.Actor, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	if err := requirePermission(actor, user.PermissionAttendanceViewOwn); err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	if !actor.Can(user.PermissionAttendanceViewAll) {
		if actor.EmployeeID == "" {
			return nil, 0, user.ErrEmployeeRequired
		}
		filter.EmployeeID = &actor.EmployeeID
	}

	records, total, err := a.AttendanceRepository.List(ctx, actor.CompanyID, filter)
	if err != nil {
		return nil, 0, apperr.Dependency("failed to list attendance", err)
	}
	return records, total, nil
}

// ManualEntry implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ManualEntry(ctx context.Context, actor user.Actor, req attendance.ManualEntryRequest) (*attendance.Record, error) {
	if err := requirePermission(actor, user.PermissionAttendanceManage); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := a.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	if _, err := a.activeEmployee(ctx, actor.CompanyID, req.EmployeeID); err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, cfg.Location())
	if err != nil {
		return nil, err
	}

	record := &attendance.Record{
		CompanyID:     actor.CompanyID,
		EmployeeID:    req.EmployeeID,
		Date:          date,
		IsManualEntry: true,
		MarkedBy:      &actor.UserID,
		AdminNotes:    req.AdminNotes,
	}
	if req.CheckIn != nil {
		record.CheckIn = punchFrom(*req.CheckIn, attendance.MethodManual, nil, nil)
	}
	if req.CheckOut != nil {
		record.CheckOut = punchFrom(*req.CheckOut, attendance.MethodManual, nil, nil)
	}
	record.Recalculate(cfg)

	if req.Status != nil {
		record.Status = *req.Status
	} else {
		record.Status = attendance.StatusForCheckIn(record.LateArrival)
	}

	who := attendance.Describe(req.EmployeeID, date)
	if err := a.AttendanceRepository.Create(ctx, record); err != nil {
		if errors.Is(err, attendance.ErrAttendanceExists) {
			return nil, fmt.Errorf("%s: %w", who, err)
		}
		return nil, apperr.Dependency("failed to create attendance for "+who, err)
	}

	slog.Info("manual attendance entry created",
		"company_id", actor.CompanyID,
		"employee_id", req.EmployeeID,
		"date", req.Date,
		"status", record.Status,
		"marked_by", actor.UserID,
	)

	return record, nil
}

// UpdateRecord implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) UpdateRecord(ctx context.Context, actor user.Actor, id string, req attendance.UpdateRecordRequest) (*attendance.Record, error) {
	if err := requirePermission(actor, user.PermissionAttendanceManage); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := a.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	record, err := a.AttendanceRepository.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return nil, err
		}
		return nil, apperr.Dependency("failed to load attendance "+id, err)
	}
	who := attendance.Describe(record.EmployeeID, record.Date)

	if req.CheckIn != nil {
		record.CheckIn = punchFrom(*req.CheckIn, attendance.MethodManual, nil, nil)
	}
	if req.CheckOut != nil {
		record.CheckOut = punchFrom(*req.CheckOut, attendance.MethodManual, nil, nil)
	}
	if record.HasCheckOut() && !record.HasCheckIn() {
		return nil, fmt.Errorf("%s: %w", who, attendance.ErrNoCheckIn)
	}
	if record.HasCheckIn() && record.HasCheckOut() && !record.CheckOut.Time.After(record.CheckIn.Time) {
		return nil, fmt.Errorf("%s: %w", who, attendance.ErrCheckOutBeforeCheckIn)
	}
	record.Recalculate(cfg)

	switch {
	case req.Status != nil:
		record.Status = *req.Status
	case req.CheckIn != nil:
		record.Status = attendance.StatusForCheckIn(record.LateArrival)
	}
	if req.AdminNotes != nil {
		record.AdminNotes = req.AdminNotes
	}
	record.IsManualEntry = true
	record.MarkedBy = &actor.UserID

	if err := a.AttendanceRepository.Update(ctx, record); err != nil {
		return nil, apperr.Dependency("failed to update attendance for "+who, err)
	}

	slog.Info("attendance record updated", "company_id", actor.CompanyID, "attendance_id", id, "updated_by", actor.UserID)
	return record, nil
}

// DeleteRecord implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteRecord(ctx context.Context, actor user.Actor, id string) error {
	if err := requirePermission(actor, user.PermissionAttendanceManage); err != nil {
		return err
	}

	if err := a.AttendanceRepository.Delete(ctx, actor.CompanyID, id); err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return err
		}
		return apperr.Dependency("failed to delete attendance "+id, err)
	}

	slog.Warn("attendance record deleted", "company_id", actor.CompanyID, "attendance_id", id, "deleted_by", actor.UserID)
	return nil
}
