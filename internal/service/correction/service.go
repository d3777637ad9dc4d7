package correction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
)

type CorrectionServiceImpl struct {
	correction.CorrectionRepository
	attendanceRepo attendance.AttendanceRepository
	settings       settings.SettingsService
	employees      employee.Directory
	notifier       notification.Notifier
	tx             database.TxManager
	now            func() time.Time
}

type Option func(*CorrectionServiceImpl)

func WithClock(now func() time.Time) Option {
	return func(c *CorrectionServiceImpl) {
		c.now = now
	}
}

func NewCorrectionService(
	repo correction.CorrectionRepository,
	attendanceRepo attendance.AttendanceRepository,
	settingsService settings.SettingsService,
	employees employee.Directory,
	notifier notification.Notifier,
	tx database.TxManager,
	opts ...Option,
) correction.CorrectionService {
	c := &CorrectionServiceImpl{
		CorrectionRepository: repo,
		attendanceRepo:       attendanceRepo,
		settings:             settingsService,
		employees:            employees,
		notifier:             notifier,
		tx:                   tx,
		now:                  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestCorrection implements correction.CorrectionService.
func (c *CorrectionServiceImpl) RequestCorrection(ctx context.Context, actor user.Actor, req correction.CreateCorrectionRequest) (*correction.Request, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if actor.EmployeeID == "" {
		return nil, user.ErrEmployeeRequired
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := c.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()

	date, _ := time.ParseInLocation("2006-01-02", req.RequestedDate, loc)
	if date.After(attendance.NormalizeDate(c.now(), loc)) {
		return nil, validator.ValidationErrors{{Field: "requested_date", Message: "requested_date must not be in the future"}}
	}
	if errs := timesOnDay(req, date, loc); len(errs) > 0 {
		return nil, errs
	}
	who := attendance.Describe(actor.EmployeeID, date)

	pending, err := c.CorrectionRepository.HasPending(ctx, actor.CompanyID, actor.EmployeeID, date)
	if err != nil {
		return nil, apperr.Dependency("failed to check pending corrections for "+who, err)
	}
	if pending {
		return nil, fmt.Errorf("%s: %w", who, correction.ErrPendingCorrectionExists)
	}

	request := &correction.Request{
		CompanyID:         actor.CompanyID,
		EmployeeID:        actor.EmployeeID,
		RequestType:       req.RequestType,
		RequestedDate:     date,
		RequestedCheckIn:  req.RequestedCheckIn,
		RequestedCheckOut: req.RequestedCheckOut,
		Reason:            req.Reason,
		Attachments:       req.Attachments,
		Status:            correction.StatusPending,
	}

	existing, err := c.attendanceRepo.GetByEmployeeAndDate(ctx, actor.CompanyID, actor.EmployeeID, date)
	switch {
	case err == nil:
		request.AttendanceID = &existing.ID
	case !errors.Is(err, attendance.ErrAttendanceNotFound):
		return nil, apperr.Dependency("failed to load attendance for "+who, err)
	}

	if err := c.CorrectionRepository.Create(ctx, request); err != nil {
		return nil, apperr.Dependency("failed to create correction request for "+who, err)
	}

	slog.Info("correction requested",
		"company_id", actor.CompanyID,
		"employee_id", actor.EmployeeID,
		"request_id", request.ID,
		"type", request.RequestType,
		"date", req.RequestedDate,
	)

	return request, nil
}

// ReviewCorrection implements correction.CorrectionService. The status change and the
// attendance upsert commit together; a request resolved concurrently fails with
// ErrCorrectionAlreadyProcessed.
func (c *CorrectionServiceImpl) ReviewCorrection(ctx context.Context, actor user.Actor, id string, req correction.ReviewCorrectionRequest) (*correction.Request, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !actor.CanApprove() {
		return nil, correction.ErrReviewerRequired
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := c.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	var resolved *correction.Request
	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		resolved, err = c.CorrectionRepository.Resolve(ctx, actor.CompanyID, id, correction.Decision{
			Status:     req.Status,
			ReviewedBy: &actor.UserID,
			ReviewedAt: c.now(),
			Comments:   req.Comments,
		})
		if err != nil {
			return err
		}
		if resolved.Status != correction.StatusApproved {
			return nil
		}

		record, err := c.applyApproval(ctx, cfg, resolved, actor.UserID)
		if err != nil {
			return err
		}
		if resolved.AttendanceID == nil || *resolved.AttendanceID != record.ID {
			if err := c.CorrectionRepository.SetAttendanceID(ctx, actor.CompanyID, resolved.ID, record.ID); err != nil {
				return apperr.Dependency("failed to link correction "+resolved.ID, err)
			}
			resolved.AttendanceID = &record.ID
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, correction.ErrCorrectionNotFound) || errors.Is(err, correction.ErrCorrectionAlreadyProcessed) {
			return nil, fmt.Errorf("correction %s: %w", id, err)
		}
		return nil, err
	}

	slog.Info("correction reviewed",
		"company_id", actor.CompanyID,
		"request_id", id,
		"employee_id", resolved.EmployeeID,
		"status", resolved.Status,
		"reviewed_by", actor.UserID,
	)

	c.notifyDecision(ctx, resolved)
	return resolved, nil
}

// applyApproval upserts the day's record from the request. Only the requested times
// are overwritten; hours, lateness and status are recomputed.
func (c *CorrectionServiceImpl) applyApproval(ctx context.Context, cfg *settings.TenantSettings, req *correction.Request, reviewer string) (*attendance.Record, error) {
	date := attendance.NormalizeDate(req.RequestedDate, cfg.Location())
	who := attendance.Describe(req.EmployeeID, date)

	record, err := c.attendanceRepo.GetByEmployeeAndDate(ctx, req.CompanyID, req.EmployeeID, date)
	if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return nil, apperr.Dependency("failed to load attendance for "+who, err)
	}

	if record == nil {
		record = &attendance.Record{
			CompanyID:     req.CompanyID,
			EmployeeID:    req.EmployeeID,
			Date:          date,
			IsManualEntry: true,
			MarkedBy:      &reviewer,
		}
		applyRequestedTimes(record, req)
		if err := validateTimes(record, who); err != nil {
			return nil, err
		}
		record.Recalculate(cfg)
		record.Status = attendance.StatusPresent
		if req.RequestType == correction.TypeLateApproval {
			record.LateArrival = attendance.LateArrival{}
		}

		err := c.attendanceRepo.Create(ctx, record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, attendance.ErrAttendanceExists) {
			return nil, apperr.Dependency("failed to create attendance for "+who, err)
		}

		// a check-in or the absence job created the day meanwhile; amend that record instead
		record, err = c.attendanceRepo.GetByEmployeeAndDate(ctx, req.CompanyID, req.EmployeeID, date)
		if err != nil {
			return nil, apperr.Dependency("failed to reload attendance for "+who, err)
		}
	}

	applyRequestedTimes(record, req)
	if err := validateTimes(record, who); err != nil {
		return nil, err
	}
	record.Recalculate(cfg)

	switch {
	case req.RequestType == correction.TypeLateApproval:
		record.LateArrival = attendance.LateArrival{}
		record.Status = attendance.StatusPresent
	case record.HasCheckIn() && (record.Status == "" || record.Status == attendance.StatusAbsent ||
		record.Status == attendance.StatusPresent || record.Status == attendance.StatusLate):
		record.Status = attendance.StatusForCheckIn(record.LateArrival)
	}
	record.MarkedBy = &reviewer

	if err := c.attendanceRepo.Update(ctx, record); err != nil {
		return nil, apperr.Dependency("failed to update attendance for "+who, err)
	}
	return record, nil
}

// timesOnDay rejects requested punches that fall on another calendar day in the tenant's zone.
func timesOnDay(req correction.CreateCorrectionRequest, date time.Time, loc *time.Location) validator.ValidationErrors {
	day := attendance.DayKey(date)
	var errs validator.ValidationErrors
	check := func(field string, t *time.Time) {
		if t != nil && attendance.DayKey(attendance.NormalizeDate(*t, loc)) != day {
			errs = append(errs, validator.ValidationError{Field: field, Message: field + " must fall on requested_date"})
		}
	}
	check("requested_check_in", req.RequestedCheckIn)
	check("requested_check_out", req.RequestedCheckOut)
	return errs
}

func applyRequestedTimes(record *attendance.Record, req *correction.Request) {
	if req.RequestedCheckIn != nil {
		record.CheckIn = &attendance.Punch{Time: *req.RequestedCheckIn, Method: attendance.MethodManual}
	}
	if req.RequestedCheckOut != nil {
		record.CheckOut = &attendance.Punch{Time: *req.RequestedCheckOut, Method: attendance.MethodManual}
	}
}

func validateTimes(record *attendance.Record, who string) error {
	if record.HasCheckOut() && !record.HasCheckIn() {
		return fmt.Errorf("%s: %w", who, attendance.ErrNoCheckIn)
	}
	if record.HasCheckIn() && record.HasCheckOut() && !record.CheckOut.Time.After(record.CheckIn.Time) {
		return fmt.Errorf("%s: %w", who, attendance.ErrCheckOutBeforeCheckIn)
	}
	return nil
}

func (c *CorrectionServiceImpl) notifyDecision(ctx context.Context, req *correction.Request) {
	emp, err := c.employees.GetByID(ctx, req.CompanyID, req.EmployeeID)
	if err != nil {
		slog.Warn("skipping correction notification", "request_id", req.ID, "employee_id", req.EmployeeID, "error", err)
		return
	}

	payload := map[string]any{
		"request_id":   req.ID,
		"request_type": string(req.RequestType),
		"date":         attendance.DayKey(req.RequestedDate),
		"status":       string(req.Status),
	}
	if req.Comments != nil {
		payload["comments"] = *req.Comments
	}

	c.notifier.Notify(ctx, req.CompanyID, notification.Recipient{
		EmployeeID: emp.ID,
		Name:       emp.FullName,
		Email:      emp.Email,
	}, notification.EventCorrectionDecided, payload)
}

// CancelCorrection implements correction.CorrectionService.
func (c *CorrectionServiceImpl) CancelCorrection(ctx context.Context, actor user.Actor, id string) (*correction.Request, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	current, err := c.CorrectionRepository.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		if errors.Is(err, correction.ErrCorrectionNotFound) {
			return nil, fmt.Errorf("correction %s: %w", id, err)
		}
		return nil, apperr.Dependency("failed to load correction "+id, err)
	}
	if actor.EmployeeID == "" || current.EmployeeID != actor.EmployeeID {
		return nil, correction.ErrNotRequestOwner
	}

	cancelled, err := c.CorrectionRepository.Resolve(ctx, actor.CompanyID, id, correction.Decision{
		Status:     correction.StatusCancelled,
		ReviewedAt: c.now(),
	})
	if err != nil {
		if errors.Is(err, correction.ErrCorrectionAlreadyProcessed) || errors.Is(err, correction.ErrCorrectionNotFound) {
			return nil, fmt.Errorf("correction %s: %w", id, err)
		}
		return nil, apperr.Dependency("failed to cancel correction "+id, err)
	}

	slog.Info("correction cancelled", "company_id", actor.CompanyID, "request_id", id, "employee_id", actor.EmployeeID)
	return cancelled, nil
}

// GetByID implements correction.CorrectionService.
func (c *CorrectionServiceImpl) GetByID(ctx context.Context, actor user.Actor, id string) (*correction.Request, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	req, err := c.CorrectionRepository.GetByID(ctx, actor.CompanyID, id)
	if err != nil {
		if errors.Is(err, correction.ErrCorrectionNotFound) {
			return nil, err
		}
		return nil, apperr.Dependency("failed to load correction "+id, err)
	}
	if req.EmployeeID != actor.EmployeeID && !actor.CanApprove() {
		return nil, user.ErrPermissionDenied
	}
	return req, nil
}

// List implements correction.CorrectionService. Non-reviewers only see their own requests.
func (c *CorrectionServiceImpl) List(ctx context.Context, actor user.Actor, filter correction.ListFilter) ([]correction.Request, int64, error) {
	if err := actor.Validate(); err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	if !actor.CanApprove() {
		if actor.EmployeeID == "" {
			return nil, 0, user.ErrEmployeeRequired
		}
		filter.EmployeeID = &actor.EmployeeID
	}

	requests, total, err := c.CorrectionRepository.List(ctx, actor.CompanyID, filter)
	if err != nil {
		return nil, 0, apperr.Dependency("failed to list corrections", err)
	}
	return requests, total, nil
}
