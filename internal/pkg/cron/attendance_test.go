package cron

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/repository/memory"
	settingsservice "github.com/cmlabs-hris/hris-attendance-payroll/internal/service/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

type stubReporter struct {
	report *attendance.DailyReport
	err    error
}

func (s stubReporter) BuildDailyReport(ctx context.Context, companyID string, day time.Time) (*attendance.DailyReport, error) {
	return s.report, s.err
}

type fixture struct {
	jobs     *AttendanceJobs
	records  *memory.AttendanceRepository
	dir      *memory.Directory
	leaves   *memory.LeaveCalendar
	settings *memory.SettingsRepository
	notifier *memory.Notifier
	clock    time.Time
}

func tenantSettings(companyID string) settings.TenantSettings {
	return settings.TenantSettings{
		ID:          "s-" + companyID,
		CompanyID:   companyID,
		Timezone:    "UTC",
		WorkingDays: settings.DefaultWorkingDays,
		Shift:       settings.Shift{StartTime: "09:00", EndTime: "18:00", GraceMinutes: 0},
		AutoAbsent:  settings.AutoAbsent{Enabled: true, CutoffTime: "10:00"},
		Notifications: settings.Notifications{
			AbsentAlert:          true,
			DailyReport:          true,
			CheckInReminder:      true,
			CheckOutReminder:     true,
			CheckInReminderTime:  "09:45",
			CheckOutReminderTime: "19:00",
			DailyReportTime:      "10:00",
			Recipients:           []string{"hr@example.com"},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		records:  memory.NewAttendanceRepository(),
		dir:      memory.NewDirectory(),
		leaves:   memory.NewLeaveCalendar(),
		settings: memory.NewSettingsRepository(),
		notifier: memory.NewNotifier(),
		clock:    monday.Add(10*time.Hour + 30*time.Minute),
	}

	f.dir.AddCompany(company.Company{ID: "c1", Name: "Acme"})
	f.dir.AddCompany(company.Company{ID: "c2", Name: "Globex"})
	f.dir.AddEmployee(employee.Employee{ID: "e1", CompanyID: "c1", FullName: "Ayu", Email: "ayu@example.com"})
	f.dir.AddEmployee(employee.Employee{ID: "e2", CompanyID: "c1", FullName: "Budi", Email: "budi@example.com"})
	f.dir.AddEmployee(employee.Employee{ID: "e3", CompanyID: "c1", FullName: "Citra"})
	f.dir.AddEmployee(employee.Employee{ID: "e4", CompanyID: "c2", FullName: "Dewi"})
	f.settings.Put(tenantSettings("c1"))
	f.settings.Put(tenantSettings("c2"))

	// e2 checked in late, e3 is on leave
	require.NoError(t, f.records.Create(context.Background(), &attendance.Record{
		CompanyID:   "c1",
		EmployeeID:  "e2",
		Date:        monday,
		CheckIn:     &attendance.Punch{Time: monday.Add(9*time.Hour + 20*time.Minute), Method: attendance.MethodWeb},
		Status:      attendance.StatusLate,
		LateArrival: attendance.LateArrival{IsLate: true, MinutesLate: 20},
	}))
	f.leaves.Approve("c1", "e3", monday, monday)

	f.jobs = NewAttendanceJobs(
		f.records,
		f.dir,
		memory.CompanyList{Directory: f.dir},
		f.leaves,
		settingsservice.NewSettingsService(f.settings, nil),
		f.notifier,
		stubReporter{report: &attendance.DailyReport{
			Date:           "2025-03-03",
			TotalEmployees: 3,
			Present:        1,
			Absent:         1,
			Late:           1,
			OnLeave:        1,
			Absentees:      []attendance.EmployeeBrief{{EmployeeID: "e1", EmployeeName: "Ayu"}},
		}},
		lock.NewMemoryLocker().WithClock(func() time.Time { return f.clock }),
		JobsConfig{Concurrency: 2},
	).WithClock(func() time.Time { return f.clock })
	return f
}

func TestMarkAbsentEmployees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.jobs.MarkAbsentEmployees(ctx, "c1", monday)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Marked)
	assert.Empty(t, report.Errors)

	rec, err := f.records.GetByEmployeeAndDate(ctx, "c1", "e1", monday)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
	assert.True(t, rec.IsManualEntry)
	require.NotNil(t, rec.AdminNotes)
	assert.Equal(t, "auto-marked", *rec.AdminNotes)

	// the late check-in is left alone
	late, err := f.records.GetByEmployeeAndDate(ctx, "c1", "e2", monday)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, late.Status)

	_, err = f.records.GetByEmployeeAndDate(ctx, "c1", "e3", monday)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	assert.Len(t, f.notifier.Sent(notification.EventMarkedAbsent), 1)
	alerts := f.notifier.Sent(notification.EventAbsenteeAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, "hr@example.com", alerts[0].To.Email)
	assert.Equal(t, []string{"Ayu"}, alerts[0].Payload["absentees"])
}

func TestMarkAbsentEmployees_RerunMarksNobody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.jobs.MarkAbsentEmployees(ctx, "c1", monday)
	require.NoError(t, err)
	before := f.records.Count()

	report, err := f.jobs.MarkAbsentEmployees(ctx, "c1", monday)
	require.NoError(t, err)
	assert.Zero(t, report.Marked)
	assert.Zero(t, report.Processed)
	assert.Equal(t, before, f.records.Count())
	assert.Len(t, f.notifier.Sent(notification.EventAbsenteeAlert), 1)
}

func TestMarkAbsentEmployees_ConcurrentCheckInIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.records.FailCreate = func(r *attendance.Record) error {
		if r.EmployeeID == "e1" {
			return attendance.ErrAttendanceExists
		}
		return nil
	}

	report, err := f.jobs.MarkAbsentEmployees(context.Background(), "c1", monday)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Marked)
	assert.Empty(t, report.Errors)
	assert.Empty(t, f.notifier.Sent(notification.EventAbsenteeAlert))
}

func TestMarkAbsentEmployees_CollectsPerEmployeeErrors(t *testing.T) {
	f := newFixture(t)
	f.dir.AddEmployee(employee.Employee{ID: "e5", CompanyID: "c1", FullName: "Eko"})
	f.records.FailCreate = func(r *attendance.Record) error {
		if r.EmployeeID == "e1" {
			return memory.ErrStorage
		}
		return nil
	}

	report, err := f.jobs.MarkAbsentEmployees(context.Background(), "c1", monday)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Marked)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "e1", report.Errors[0].EmployeeID)
	assert.Equal(t, string(apperr.KindInternal), report.Errors[0].Kind)
	assert.Contains(t, report.Errors[0].Message, "employee e1 on 2025-03-03")
}

func TestMarkAbsentEmployees_CancellationKeepsCompletedWrites(t *testing.T) {
	f := newFixture(t)
	f.dir.AddEmployee(employee.Employee{ID: "e5", CompanyID: "c1", FullName: "Eko"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	writes := 0
	f.records.FailCreate = func(r *attendance.Record) error {
		writes++
		cancel()
		return nil
	}

	report, err := f.jobs.MarkAbsentEmployees(ctx, "c1", monday)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 1, report.Marked)
	assert.Equal(t, 1, writes)

	_, err = f.records.GetByEmployeeAndDate(context.Background(), "c1", "e1", monday)
	assert.NoError(t, err)
}

func TestMarkAbsentEmployees_NonWorkingDay(t *testing.T) {
	f := newFixture(t)

	report, err := f.jobs.MarkAbsentEmployees(context.Background(), "c1", monday.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
	assert.Equal(t, 1, f.records.Count())
}

func TestMarkAbsentEmployees_DirectoryFailure(t *testing.T) {
	f := newFixture(t)
	f.dir.Err = memory.ErrStorage

	_, err := f.jobs.MarkAbsentEmployees(context.Background(), "c1", monday)
	assert.True(t, apperr.Is(err, apperr.KindDependency))
}

func TestSendCheckInReminders_IsReadOnly(t *testing.T) {
	f := newFixture(t)

	report, err := f.jobs.SendCheckInReminders(context.Background(), "c1", monday)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 1, f.records.Count())

	sent := f.notifier.Sent(notification.EventCheckInReminder)
	require.Len(t, sent, 1)
	assert.Equal(t, "e1", sent[0].To.EmployeeID)
	assert.Equal(t, "ayu@example.com", sent[0].To.Email)
}

func TestSendCheckOutReminders(t *testing.T) {
	f := newFixture(t)

	report, err := f.jobs.SendCheckOutReminders(context.Background(), "c1", monday)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notified)

	sent := f.notifier.Sent(notification.EventCheckOutReminder)
	require.Len(t, sent, 1)
	assert.Equal(t, "e2", sent[0].To.EmployeeID)
	assert.Equal(t, "09:20", sent[0].Payload["check_in"])
}

func TestSendDailyReport(t *testing.T) {
	f := newFixture(t)

	report, err := f.jobs.SendDailyReport(context.Background(), "c1", monday)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notified)

	sent := f.notifier.Sent(notification.EventDailyReport)
	require.Len(t, sent, 1)
	assert.Equal(t, 3, sent[0].Payload["total"])
	assert.Equal(t, []string{"Ayu"}, sent[0].Payload["absentees"])
}

func TestSendDailyReport_WithoutRecipients(t *testing.T) {
	f := newFixture(t)
	s := tenantSettings("c1")
	s.Notifications.Recipients = nil
	f.settings.Put(s)

	report, err := f.jobs.SendDailyReport(context.Background(), "c1", monday)
	require.NoError(t, err)
	assert.Zero(t, report.Notified)
}

func jobNamed(t *testing.T, jobs *AttendanceJobs, name string) TenantJob {
	t.Helper()
	for _, job := range jobs.TenantJobs() {
		if job.Name == name {
			return job
		}
	}
	t.Fatalf("no job %s", name)
	return TenantJob{}
}

func TestTick_RunsOncePerCompanyAndDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := jobNamed(t, f.jobs, JobMarkAbsent)

	require.NoError(t, f.jobs.Tick(ctx, job))
	// e1 in c1, e4 in c2
	assert.Equal(t, 3, f.records.Count())

	// a record deleted after the run is not re-marked the same day
	rec, err := f.records.GetByEmployeeAndDate(ctx, "c2", "e4", monday)
	require.NoError(t, err)
	require.NoError(t, f.records.Delete(ctx, "c2", rec.ID))

	require.NoError(t, f.jobs.Tick(ctx, job))
	assert.Equal(t, 2, f.records.Count())
	assert.Len(t, f.notifier.Sent(notification.EventAbsenteeAlert), 2)

	// next working day runs again
	f.clock = f.clock.AddDate(0, 0, 1)
	require.NoError(t, f.jobs.Tick(ctx, job))
	assert.Equal(t, 2+4, f.records.Count())
}

func TestTick_WaitsForTrigger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock = monday.Add(9 * time.Hour)
	require.NoError(t, f.jobs.Tick(ctx, jobNamed(t, f.jobs, JobMarkAbsent)))
	require.NoError(t, f.jobs.Tick(ctx, jobNamed(t, f.jobs, JobCheckInReminder)))
	assert.Equal(t, 1, f.records.Count())
	assert.Empty(t, f.notifier.Sent(""))

	// Saturday
	f.clock = monday.AddDate(0, 0, 5).Add(12 * time.Hour)
	require.NoError(t, f.jobs.Tick(ctx, jobNamed(t, f.jobs, JobMarkAbsent)))
	assert.Equal(t, 1, f.records.Count())
}

func TestTick_DisabledAutoAbsent(t *testing.T) {
	f := newFixture(t)
	s := tenantSettings("c1")
	s.AutoAbsent.Enabled = false
	f.settings.Put(s)

	require.NoError(t, f.jobs.Tick(context.Background(), jobNamed(t, f.jobs, JobMarkAbsent)))
	// only c2's employee
	assert.Equal(t, 2, f.records.Count())
}

func TestTick_FailedRunIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := jobNamed(t, f.jobs, JobMarkAbsent)

	f.leaves.Err = memory.ErrStorage
	err := f.jobs.Tick(ctx, job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%s for company c1", JobMarkAbsent))
	assert.Equal(t, 1, f.records.Count())

	f.leaves.Err = nil
	require.NoError(t, f.jobs.Tick(ctx, job))
	assert.Equal(t, 3, f.records.Count())
}

func TestTick_SkipsWhileRunLockHeld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	locker := lock.NewMemoryLocker()
	f.jobs.locker = locker

	_, ok, err := locker.Acquire(ctx, runKey(JobMarkAbsent, "c1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.jobs.Tick(ctx, jobNamed(t, f.jobs, JobMarkAbsent)))
	_, err = f.records.GetByEmployeeAndDate(ctx, "c1", "e1", monday)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestTick_CompanyListFailure(t *testing.T) {
	f := newFixture(t)
	f.dir.Err = errors.New("db down")

	err := f.jobs.Tick(context.Background(), jobNamed(t, f.jobs, JobMarkAbsent))
	assert.True(t, apperr.Is(err, apperr.KindDependency))
}

func TestRegisterJobs(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(context.Background())
	f.jobs.RegisterJobs(s)

	names := make([]string, 0)
	for _, job := range s.Jobs() {
		names = append(names, job.Name)
		assert.Equal(t, time.Minute, job.Interval)
	}
	assert.Equal(t, []string{JobMarkAbsent, JobCheckInReminder, JobCheckOutReminder, JobDailyReport}, names)

	s.RunOnce(context.Background())
	assert.Len(t, f.notifier.Sent(notification.EventDailyReport), 2)
}
