package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/lock"
	"golang.org/x/sync/errgroup"
)

const (
	JobMarkAbsent        = "mark_absent_employees"
	JobCheckInReminder   = "check_in_reminder"
	JobCheckOutReminder  = "check_out_reminder"
	JobDailyReport       = "daily_attendance_report"
	autoAbsentNote       = "auto-marked"
	doneKeyTTL           = 36 * time.Hour
	defaultTickInterval  = time.Minute
	defaultLockTTL       = 10 * time.Minute
	defaultOrgConcurrent = 4
)

// DailyReporter builds the per-company day summary sent by the daily report job.
type DailyReporter interface {
	BuildDailyReport(ctx context.Context, companyID string, day time.Time) (*attendance.DailyReport, error)
}

// JobError is one employee's failure inside a batch run.
type JobError struct {
	EmployeeID string `json:"employee_id"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

// JobReport summarizes one job run for one company and day.
type JobReport struct {
	Job       string     `json:"job"`
	CompanyID string     `json:"company_id"`
	Date      string     `json:"date"`
	Processed int        `json:"processed"`
	Marked    int        `json:"marked"`
	Notified  int        `json:"notified"`
	Skipped   int        `json:"skipped"`
	Errors    []JobError `json:"errors"`
	Cancelled bool       `json:"cancelled"`
}

func (r *JobReport) fail(employeeID string, err error) {
	r.Errors = append(r.Errors, JobError{
		EmployeeID: employeeID,
		Kind:       string(apperr.KindOf(err)),
		Message:    err.Error(),
	})
}

// TenantJob describes a per-company job: when it is due and what it does.
// Each job runs at most once per company and working day.
type TenantJob struct {
	Name string
	Due  func(cfg *settings.TenantSettings, local time.Time) bool
	Run  func(ctx context.Context, companyID string, date time.Time) (JobReport, error)
}

// JobsConfig tunes the host side of the attendance jobs.
type JobsConfig struct {
	TickInterval time.Duration
	Concurrency  int
	LockTTL      time.Duration
}

type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	employees      employee.Directory
	companies      company.CompanyRepository
	leaves         leave.Checker
	settings       settings.SettingsService
	notifier       notification.Notifier
	reports        DailyReporter
	locker         lock.Locker
	config         JobsConfig
	now            func() time.Time
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	employees employee.Directory,
	companies company.CompanyRepository,
	leaves leave.Checker,
	settingsService settings.SettingsService,
	notifier notification.Notifier,
	reports DailyReporter,
	locker lock.Locker,
	cfg JobsConfig,
) *AttendanceJobs {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultOrgConcurrent
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		employees:      employees,
		companies:      companies,
		leaves:         leaves,
		settings:       settingsService,
		notifier:       notifier,
		reports:        reports,
		locker:         locker,
		config:         cfg,
		now:            time.Now,
	}
}

// WithClock replaces time.Now for trigger evaluation.
func (j *AttendanceJobs) WithClock(now func() time.Time) *AttendanceJobs {
	j.now = now
	return j
}

// TenantJobs returns the job descriptions in registration order.
func (j *AttendanceJobs) TenantJobs() []TenantJob {
	return []TenantJob{
		{
			Name: JobMarkAbsent,
			Due: func(cfg *settings.TenantSettings, local time.Time) bool {
				return cfg.AutoAbsent.Enabled && reached(local, cfg.AutoAbsent.CutoffTime, settings.DefaultAutoAbsentAt)
			},
			Run: j.MarkAbsentEmployees,
		},
		{
			Name: JobCheckInReminder,
			Due: func(cfg *settings.TenantSettings, local time.Time) bool {
				n := cfg.Notifications
				return n.CheckInReminder && reached(local, n.CheckInReminderTime, settings.DefaultCheckInRemindAt)
			},
			Run: j.SendCheckInReminders,
		},
		{
			Name: JobCheckOutReminder,
			Due: func(cfg *settings.TenantSettings, local time.Time) bool {
				n := cfg.Notifications
				return n.CheckOutReminder && reached(local, n.CheckOutReminderTime, settings.DefaultCheckOutAt)
			},
			Run: j.SendCheckOutReminders,
		},
		{
			Name: JobDailyReport,
			Due: func(cfg *settings.TenantSettings, local time.Time) bool {
				n := cfg.Notifications
				return n.DailyReport && reached(local, n.DailyReportTime, settings.DefaultDailyReportAt)
			},
			Run: j.SendDailyReport,
		},
	}
}

func reached(local time.Time, clock, fallback string) bool {
	return local.Hour()*60+local.Minute() >= settings.ClockOrDefault(clock, fallback)
}

// RegisterJobs adds one ticker job per tenant job to the scheduler.
func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	for _, job := range j.TenantJobs() {
		scheduler.AddJob(Job{
			Name:     job.Name,
			Interval: j.config.TickInterval,
			Fn:       func(ctx context.Context) error { return j.Tick(ctx, job) },
		})
	}
}

// Tick evaluates job for every active company and runs it where due.
// Companies are processed concurrently; one company's failure does not stop the others.
func (j *AttendanceJobs) Tick(ctx context.Context, job TenantJob) error {
	companies, err := j.companies.ListActive(ctx)
	if err != nil {
		return apperr.Dependency("failed to list companies", err)
	}

	var (
		g    errgroup.Group
		errs = make([]error, len(companies))
	)
	g.SetLimit(j.config.Concurrency)
	for i, c := range companies {
		g.Go(func() error {
			errs[i] = j.runForCompany(ctx, job, c.ID)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func runKey(job, companyID string) string {
	return fmt.Sprintf("job:%s:%s", job, companyID)
}

func doneKey(job, companyID string, date time.Time) string {
	return fmt.Sprintf("done:%s:%s:%s", job, companyID, attendance.DayKey(date))
}

func (j *AttendanceJobs) runForCompany(ctx context.Context, job TenantJob, companyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, err := j.settings.Get(ctx, companyID)
	if err != nil {
		return fmt.Errorf("%s for company %s: %w", job.Name, companyID, err)
	}
	loc := cfg.Location()
	local := j.now().In(loc)
	day := attendance.NormalizeDate(local, loc)
	if !attendance.IsWorkingDay(day, cfg) || !job.Due(cfg, local) {
		return nil
	}

	run := runKey(job.Name, companyID)
	runToken, ok, err := j.locker.Acquire(ctx, run, j.config.LockTTL)
	if err != nil {
		return apperr.Dependency("failed to acquire job lock", err)
	}
	if !ok {
		slog.Debug("cron job already running", "job", job.Name, "company_id", companyID)
		return nil
	}
	defer j.locker.Release(context.WithoutCancel(ctx), run, runToken)

	done := doneKey(job.Name, companyID, day)
	doneToken, ok, err := j.locker.Acquire(ctx, done, doneKeyTTL)
	if err != nil {
		return apperr.Dependency("failed to acquire job day key", err)
	}
	if !ok {
		return nil
	}

	report, err := job.Run(ctx, companyID, day)
	if err != nil {
		// let the next tick retry the day
		_ = j.locker.Release(context.WithoutCancel(ctx), done, doneToken)
		slog.Error("cron job run failed",
			"job", job.Name,
			"company_id", companyID,
			"date", report.Date,
			"processed", report.Processed,
			"error", err,
		)
		return fmt.Errorf("%s for company %s: %w", job.Name, companyID, err)
	}

	slog.Info("cron job run completed",
		"job", job.Name,
		"company_id", companyID,
		"date", report.Date,
		"processed", report.Processed,
		"marked", report.Marked,
		"notified", report.Notified,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return nil
}

// absenceCandidates returns active employees with neither a record nor approved leave on date.
func (j *AttendanceJobs) absenceCandidates(ctx context.Context, companyID string, date time.Time) ([]employee.Employee, error) {
	employees, err := j.employees.ListActive(ctx, companyID)
	if err != nil {
		return nil, apperr.Dependency("failed to list active employees", err)
	}
	if len(employees) == 0 {
		return nil, nil
	}

	records, err := j.attendanceRepo.ListByDate(ctx, companyID, date)
	if err != nil {
		return nil, apperr.Dependency("failed to list attendance", err)
	}
	recorded := make(map[string]bool, len(records))
	for _, r := range records {
		recorded[r.EmployeeID] = true
	}

	onLeave, err := j.leaves.EmployeesOnLeave(ctx, companyID, date)
	if err != nil {
		return nil, apperr.Dependency("failed to list employees on leave", fmt.Errorf("%w: %v", leave.ErrLeaveLookupFailed, err))
	}

	var candidates []employee.Employee
	for _, e := range employees {
		if recorded[e.ID] || onLeave[e.ID] {
			continue
		}
		candidates = append(candidates, e)
	}
	return candidates, nil
}

func recipient(e employee.Employee) notification.Recipient {
	return notification.Recipient{EmployeeID: e.ID, Name: e.FullName, Email: e.Email}
}

func adminRecipients(cfg *settings.TenantSettings) []notification.Recipient {
	out := make([]notification.Recipient, 0, len(cfg.Notifications.Recipients))
	for _, addr := range cfg.Notifications.Recipients {
		out = append(out, notification.Recipient{Email: addr})
	}
	return out
}

// MarkAbsentEmployees creates absent records for employees with no record and no approved leave.
// Existing records are never overwritten; a record written concurrently counts as skipped.
// On cancellation the records already written are kept.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context, companyID string, date time.Time) (JobReport, error) {
	report := JobReport{Job: JobMarkAbsent, CompanyID: companyID, Date: attendance.DayKey(date)}

	cfg, err := j.settings.Get(ctx, companyID)
	if err != nil {
		return report, err
	}
	date = attendance.NormalizeDate(date, cfg.Location())
	if !attendance.IsWorkingDay(date, cfg) {
		return report, nil
	}

	candidates, err := j.absenceCandidates(ctx, companyID, date)
	if err != nil {
		return report, err
	}

	note := autoAbsentNote
	var marked []attendance.EmployeeBrief
	for _, e := range candidates {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			return report, err
		}
		report.Processed++

		rec := &attendance.Record{
			CompanyID:     companyID,
			EmployeeID:    e.ID,
			Date:          date,
			Status:        attendance.StatusAbsent,
			IsManualEntry: true,
			AdminNotes:    &note,
		}
		if err := j.attendanceRepo.Create(ctx, rec); err != nil {
			if errors.Is(err, attendance.ErrAttendanceExists) {
				report.Skipped++
				continue
			}
			if ctx.Err() != nil {
				report.Cancelled = true
				return report, ctx.Err()
			}
			slog.Error("failed to mark employee absent", "company_id", companyID, "employee_id", e.ID, "error", err)
			report.fail(e.ID, fmt.Errorf("%s: %w", attendance.Describe(e.ID, date), err))
			continue
		}

		report.Marked++
		marked = append(marked, attendance.EmployeeBrief{EmployeeID: e.ID, EmployeeName: e.FullName})
		if cfg.Notifications.AbsentAlert {
			j.notifier.Notify(ctx, companyID, recipient(e), notification.EventMarkedAbsent, map[string]any{
				"date": report.Date,
			})
			report.Notified++
		}
	}

	if cfg.Notifications.AbsentAlert && len(marked) > 0 {
		names := make([]string, 0, len(marked))
		for _, m := range marked {
			names = append(names, m.EmployeeName)
		}
		for _, to := range adminRecipients(cfg) {
			j.notifier.Notify(ctx, companyID, to, notification.EventAbsenteeAlert, map[string]any{
				"date":      report.Date,
				"count":     len(marked),
				"absentees": names,
			})
			report.Notified++
		}
	}
	return report, nil
}

// SendCheckInReminders notifies every absence candidate. It writes nothing.
func (j *AttendanceJobs) SendCheckInReminders(ctx context.Context, companyID string, date time.Time) (JobReport, error) {
	report := JobReport{Job: JobCheckInReminder, CompanyID: companyID, Date: attendance.DayKey(date)}

	candidates, err := j.absenceCandidates(ctx, companyID, date)
	if err != nil {
		return report, err
	}
	for _, e := range candidates {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			return report, err
		}
		report.Processed++
		j.notifier.Notify(ctx, companyID, recipient(e), notification.EventCheckInReminder, map[string]any{
			"date": report.Date,
		})
		report.Notified++
	}
	return report, nil
}

// SendCheckOutReminders notifies employees who checked in but have not checked out.
func (j *AttendanceJobs) SendCheckOutReminders(ctx context.Context, companyID string, date time.Time) (JobReport, error) {
	report := JobReport{Job: JobCheckOutReminder, CompanyID: companyID, Date: attendance.DayKey(date)}

	records, err := j.attendanceRepo.ListByDate(ctx, companyID, date)
	if err != nil {
		return report, apperr.Dependency("failed to list attendance", err)
	}
	for _, r := range records {
		if !r.HasCheckIn() || r.HasCheckOut() {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			return report, err
		}
		report.Processed++

		e, err := j.employees.GetByID(ctx, companyID, r.EmployeeID)
		if err != nil {
			report.fail(r.EmployeeID, fmt.Errorf("%s: %w", attendance.Describe(r.EmployeeID, date), err))
			continue
		}
		j.notifier.Notify(ctx, companyID, recipient(*e), notification.EventCheckOutReminder, map[string]any{
			"date":     report.Date,
			"check_in": r.CheckIn.Time.Format("15:04"),
		})
		report.Notified++
	}
	return report, nil
}

// SendDailyReport mails the day's summary to the configured recipients.
func (j *AttendanceJobs) SendDailyReport(ctx context.Context, companyID string, date time.Time) (JobReport, error) {
	report := JobReport{Job: JobDailyReport, CompanyID: companyID, Date: attendance.DayKey(date)}

	cfg, err := j.settings.Get(ctx, companyID)
	if err != nil {
		return report, err
	}
	recipients := adminRecipients(cfg)
	if len(recipients) == 0 {
		return report, nil
	}

	daily, err := j.reports.BuildDailyReport(ctx, companyID, date)
	if err != nil {
		return report, err
	}
	absentees := make([]string, 0, len(daily.Absentees))
	for _, a := range daily.Absentees {
		absentees = append(absentees, a.EmployeeName)
	}
	payload := map[string]any{
		"date":      daily.Date,
		"total":     daily.TotalEmployees,
		"present":   daily.Present,
		"absent":    daily.Absent,
		"late":      daily.Late,
		"on_leave":  daily.OnLeave,
		"absentees": absentees,
	}

	for _, to := range recipients {
		report.Processed++
		j.notifier.Notify(ctx, companyID, to, notification.EventDailyReport, payload)
		report.Notified++
	}
	return report, nil
}
