package attendance

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/repository/memory"
	settingsservice "github.com/cmlabs-hris/hris-attendance-payroll/internal/service/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "c1"

type fixture struct {
	svc      attendance.AttendanceService
	repo     *memory.AttendanceRepository
	dir      *memory.Directory
	leaves   *memory.LeaveCalendar
	settings *memory.SettingsRepository
	now      time.Time
}

func tenantSettings() settings.TenantSettings {
	return settings.TenantSettings{
		CompanyID:   companyID,
		Timezone:    "UTC",
		WorkingDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		Holidays:    []settings.Holiday{{Date: "2025-03-05", Name: "Founders Day", Kind: settings.HolidayCompany}},
		Shift:       settings.Shift{StartTime: "09:00", EndTime: "18:00", GraceMinutes: 15, MinimumHours: 8, HalfDayHours: 4},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     memory.NewAttendanceRepository(),
		dir:      memory.NewDirectory(),
		leaves:   memory.NewLeaveCalendar(),
		settings: memory.NewSettingsRepository(),
		now:      at("2025-03-03 09:20"), // Monday
	}
	f.settings.Put(tenantSettings())

	for _, e := range []employee.Employee{
		{ID: "e1", CompanyID: companyID, FullName: "Ayu Lestari"},
		{ID: "e2", CompanyID: companyID, FullName: "Budi Santoso"},
		{ID: "e3", CompanyID: companyID, FullName: "Citra Dewi"},
		{ID: "e4", CompanyID: companyID, FullName: "Dimas Pratama"},
		{ID: "e5", CompanyID: companyID, FullName: "Eka Putri", EmploymentStatus: employee.EmploymentStatusResigned},
		{ID: "x1", CompanyID: "c2", FullName: "Other Tenant"},
	} {
		f.dir.AddEmployee(e)
	}

	f.svc = NewAttendanceService(
		f.repo,
		settingsservice.NewSettingsService(f.settings, nil),
		f.dir,
		f.leaves,
		export.NewRenderer(),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func tp(s string) *time.Time {
	t := at(s)
	return &t
}

// punch checks an employee in and out with the clock set to each time.
func (f *fixture) punch(t *testing.T, employeeID, in, out string) {
	t.Helper()
	ctx := context.Background()

	f.now = at(in)
	_, err := f.svc.CheckIn(ctx, employeeActor(employeeID), attendance.CheckInRequest{})
	require.NoError(t, err)

	f.now = at(out)
	_, err = f.svc.CheckOut(ctx, employeeActor(employeeID), attendance.CheckOutRequest{})
	require.NoError(t, err)
}

func employeeActor(id string) user.Actor {
	return user.Actor{UserID: "u-" + id, EmployeeID: id, CompanyID: companyID, Role: user.RoleEmployee}
}

var adminActor = user.Actor{UserID: "u-admin", EmployeeID: "e-admin", CompanyID: companyID, Role: user.RoleAdmin}

func TestCheckIn_LateArrival(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.CheckIn(context.Background(), employeeActor("e1"), attendance.CheckInRequest{Method: attendance.MethodMobile})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusLate, r.Status)
	assert.True(t, r.LateArrival.IsLate)
	assert.Equal(t, 5, r.LateArrival.MinutesLate)
	assert.Equal(t, "2025-03-03", r.DayKey())
	assert.Equal(t, attendance.MethodMobile, r.CheckIn.Method)
}

func TestCheckIn_OnTime(t *testing.T) {
	f := newFixture(t)

	f.now = at("2025-03-03 09:15")
	r, err := f.svc.CheckIn(context.Background(), employeeActor("e1"), attendance.CheckInRequest{})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusPresent, r.Status)
	assert.False(t, r.LateArrival.IsLate)
	assert.Equal(t, attendance.MethodWeb, r.CheckIn.Method)
}

func TestCheckIn_PunchTimeComesFromServerClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.now = at("2025-03-04 11:30")

	var req attendance.CheckInRequest
	require.NoError(t, json.Unmarshal([]byte(`{"method":"web","timestamp":"2025-03-04T08:00:00Z"}`), &req))
	r, err := f.svc.CheckIn(ctx, employeeActor("e1"), req)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, r.Status)
	assert.Equal(t, 135, r.LateArrival.MinutesLate)
	assert.Equal(t, at("2025-03-04 11:30"), r.CheckIn.Time)

	var backdated attendance.CheckInRequest
	require.NoError(t, json.Unmarshal([]byte(`{"timestamp":"2025-02-25T08:00:00Z"}`), &backdated))
	_, err = f.svc.CheckIn(ctx, employeeActor("e2"), backdated)
	require.NoError(t, err)

	backdatedDay, err := f.repo.ListByDate(ctx, companyID, at("2025-02-25 00:00"))
	require.NoError(t, err)
	assert.Empty(t, backdatedDay)
	today, err := f.repo.ListByDate(ctx, companyID, at("2025-03-04 00:00"))
	require.NoError(t, err)
	assert.Len(t, today, 2)
}

func TestCheckIn_TwiceFailsWithAlreadyCheckedIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	require.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "employee e1 on 2025-03-03")
	assert.Equal(t, 1, f.repo.Count())
}

func TestCheckIn_ConcurrentCallsCreateOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, rejected int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 19, rejected)
	assert.Equal(t, 1, f.repo.Count())
}

func TestCheckIn_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.leaves.Approve(companyID, "e2", at("2025-03-03 00:00"), at("2025-03-04 00:00"))

	_, err := f.svc.CheckIn(ctx, employeeActor("e2"), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrOnApprovedLeave)

	f.now = at("2025-03-08 09:00")
	_, err = f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrWeekend)
	assert.True(t, attendance.IsNonWorkingDay(err))

	f.now = at("2025-03-05 09:00")
	_, err = f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrHoliday)
	assert.True(t, attendance.IsNonWorkingDay(err))
	assert.Contains(t, err.Error(), "Founders Day")

	f.now = at("2025-03-03 09:00")
	_, err = f.svc.CheckIn(ctx, employeeActor("e5"), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)

	assert.Equal(t, 0, f.repo.Count(), "rejected check-ins write nothing")
}

func TestCheckIn_LeaveLookupFailureIsDependency(t *testing.T) {
	f := newFixture(t)
	f.leaves.Err = memory.ErrStorage

	_, err := f.svc.CheckIn(context.Background(), employeeActor("e1"), attendance.CheckInRequest{})
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
}

func TestCheckIn_ConvertsAutoAbsentRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note := "auto-marked"
	require.NoError(t, f.repo.Create(ctx, &attendance.Record{
		CompanyID:     companyID,
		EmployeeID:    "e1",
		Date:          at("2025-03-03 00:00"),
		Status:        attendance.StatusAbsent,
		IsManualEntry: true,
		AdminNotes:    &note,
	}))

	f.now = at("2025-03-03 10:30")
	r, err := f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusLate, r.Status)
	assert.Equal(t, 75, r.LateArrival.MinutesLate)
	assert.Equal(t, 1, f.repo.Count())

	stored, err := f.repo.GetByID(ctx, companyID, r.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsManualEntry)
	assert.Nil(t, stored.AdminNotes)
	assert.Nil(t, stored.MarkedBy)
}

func TestCheckIn_Geofence(t *testing.T) {
	office := settings.OfficeLocation{Name: "HQ", Latitude: -6.2088, Longitude: 106.8456, RadiusMeters: 150}
	near := &attendance.Geolocation{Latitude: -6.2090, Longitude: 106.8457}
	far := &attendance.Geolocation{Latitude: -6.9175, Longitude: 107.6191}

	t.Run("stamps the result when not enforced", func(t *testing.T) {
		f := newFixture(t)
		s := tenantSettings()
		s.Geofence = settings.Geofence{Enabled: true, Offices: []settings.OfficeLocation{office}}
		f.settings.Put(s)

		r, err := f.svc.CheckIn(context.Background(), employeeActor("e1"), attendance.CheckInRequest{Geolocation: far})
		require.NoError(t, err)
		require.NotNil(t, r.CheckIn.Geolocation.WithinGeofence)
		assert.False(t, *r.CheckIn.Geolocation.WithinGeofence)
		assert.Nil(t, far.WithinGeofence, "request location is not mutated")
	})

	t.Run("enforced fence rejects distant and missing locations", func(t *testing.T) {
		f := newFixture(t)
		s := tenantSettings()
		s.Geofence = settings.Geofence{Enabled: true, Enforce: true, Offices: []settings.OfficeLocation{office}}
		f.settings.Put(s)
		ctx := context.Background()

		_, err := f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{Geolocation: far})
		assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)

		_, err = f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
		assert.ErrorIs(t, err, attendance.ErrGeolocationRequired)
		assert.Equal(t, 0, f.repo.Count())

		r, err := f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{Geolocation: near})
		require.NoError(t, err)
		assert.True(t, *r.CheckIn.Geolocation.WithinGeofence)
	})
}

func TestCheckOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1 := employeeActor("e1")

	f.now = at("2025-03-03 18:30")
	_, err := f.svc.CheckOut(ctx, e1, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNoCheckIn)

	f.now = at("2025-03-03 09:00")
	_, err = f.svc.CheckIn(ctx, e1, attendance.CheckInRequest{})
	require.NoError(t, err)

	// clock stepped backwards
	f.now = at("2025-03-03 08:00")
	_, err = f.svc.CheckOut(ctx, e1, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	f.now = at("2025-03-03 18:30")
	r, err := f.svc.CheckOut(ctx, e1, attendance.CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, 9.5, r.HoursWorked)
	assert.Equal(t, 1.5, r.OvertimeHours)
	assert.Equal(t, attendance.StatusPresent, r.Status)
	assert.False(t, r.EarlyDeparture.IsEarly)

	f.now = at("2025-03-03 19:00")
	_, err = f.svc.CheckOut(ctx, e1, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestGetToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetToday(ctx, employeeActor("e1"))
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	_, err = f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	require.NoError(t, err)

	r, err := f.svc.GetToday(ctx, employeeActor("e1"))
	require.NoError(t, err)
	assert.Equal(t, "e1", r.EmployeeID)
}

func TestManualEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := attendance.ManualEntryRequest{
		EmployeeID: "e2",
		Date:       "2025-03-04",
		CheckIn:    tp("2025-03-04 08:55"),
		CheckOut:   tp("2025-03-04 18:00"),
	}

	_, err := f.svc.ManualEntry(ctx, employeeActor("e1"), req)
	assert.ErrorIs(t, err, user.ErrPermissionDenied)

	r, err := f.svc.ManualEntry(ctx, adminActor, req)
	require.NoError(t, err)
	assert.True(t, r.IsManualEntry)
	assert.Equal(t, "u-admin", *r.MarkedBy)
	assert.Equal(t, attendance.StatusPresent, r.Status)
	assert.Equal(t, 9.08, r.HoursWorked)

	_, err = f.svc.ManualEntry(ctx, adminActor, req)
	assert.ErrorIs(t, err, attendance.ErrAttendanceExists)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUpdateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.now = at("2025-03-03 09:40")
	r, err := f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	require.NoError(t, err)
	require.Equal(t, attendance.StatusLate, r.Status)

	updated, err := f.svc.UpdateRecord(ctx, adminActor, r.ID, attendance.UpdateRecordRequest{
		CheckIn:  tp("2025-03-03 09:00"),
		CheckOut: tp("2025-03-03 17:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, updated.Status)
	assert.Equal(t, 8.0, updated.HoursWorked)
	assert.True(t, updated.EarlyDeparture.IsEarly)
	assert.Equal(t, 60, updated.EarlyDeparture.MinutesEarly)

	halfDay := attendance.StatusHalfDay
	updated, err = f.svc.UpdateRecord(ctx, adminActor, r.ID, attendance.UpdateRecordRequest{Status: &halfDay})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusHalfDay, updated.Status)

	_, err = f.svc.UpdateRecord(ctx, adminActor, r.ID, attendance.UpdateRecordRequest{CheckOut: tp("2025-03-03 08:00")})
	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteRecord(ctx, employeeActor("e1"), r.ID), user.ErrPermissionDenied)
	require.NoError(t, f.svc.DeleteRecord(ctx, adminActor, r.ID))
	assert.ErrorIs(t, f.svc.DeleteRecord(ctx, adminActor, r.ID), attendance.ErrAttendanceNotFound)
}

func TestGetByID_TenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CheckIn(ctx, employeeActor("e1"), attendance.CheckInRequest{})
	require.NoError(t, err)

	otherAdmin := adminActor
	otherAdmin.CompanyID = "c2"
	_, err = f.svc.GetByID(ctx, otherAdmin, r.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	_, err = f.svc.GetByID(ctx, employeeActor("e2"), r.ID)
	assert.ErrorIs(t, err, user.ErrPermissionDenied)

	got, err := f.svc.GetByID(ctx, adminActor, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
}

func TestList_EmployeesSeeOnlyTheirOwn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"e1", "e2"} {
		_, err := f.svc.CheckIn(ctx, employeeActor(id), attendance.CheckInRequest{})
		require.NoError(t, err)
	}

	records, total, err := f.svc.List(ctx, employeeActor("e1"), attendance.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "e1", records[0].EmployeeID)

	_, total, err = f.svc.List(ctx, adminActor, attendance.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGetDailyReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.punch(t, "e1", "2025-03-03 09:00", "2025-03-03 18:00")
	f.punch(t, "e2", "2025-03-03 09:45", "2025-03-03 17:45")
	f.leaves.Approve(companyID, "e3", at("2025-03-03 00:00"), at("2025-03-03 00:00"))

	_, err := f.svc.GetDailyReport(ctx, employeeActor("e1"), "2025-03-03")
	assert.ErrorIs(t, err, user.ErrPermissionDenied)

	report, err := f.svc.GetDailyReport(ctx, adminActor, "2025-03-03")
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalEmployees)
	assert.Equal(t, 2, report.Present)
	assert.Equal(t, 1, report.Late)
	assert.Equal(t, 1, report.OnLeave)
	assert.Equal(t, 1, report.Absent)
	require.Len(t, report.Absentees, 1)
	assert.Equal(t, "e4", report.Absentees[0].EmployeeID)
	require.Len(t, report.LateArrivals, 1)
	assert.Equal(t, "Budi Santoso", report.LateArrivals[0].EmployeeName)
	assert.Equal(t, 30, report.LateArrivals[0].MinutesLate)
	assert.Equal(t, 8.5, report.AverageHours)

	_, err = f.svc.GetDailyReport(ctx, adminActor, "03/03/2025")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGetRangeStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1 := employeeActor("e1")

	days := []struct{ in, out string }{
		{"2025-03-03 09:00", "2025-03-03 18:00"},
		{"2025-03-04 09:30", "2025-03-04 18:00"},
		{"2025-03-06 08:50", "2025-03-06 17:20"},
	}
	for _, d := range days {
		f.punch(t, "e1", d.in, d.out)
	}
	absent := attendance.StatusAbsent
	_, err := f.svc.ManualEntry(ctx, adminActor, attendance.ManualEntryRequest{EmployeeID: "e1", Date: "2025-03-07", Status: &absent})
	require.NoError(t, err)

	stats, err := f.svc.GetRangeStats(ctx, e1, attendance.RangeStatsRequest{StartDate: "2025-03-01", EndDate: "2025-03-31"})
	require.NoError(t, err)

	assert.Equal(t, "e1", stats.EmployeeID)
	assert.Equal(t, 4, stats.TotalDays)
	assert.Equal(t, 3, stats.Present)
	assert.Equal(t, 1, stats.Absent)
	assert.Equal(t, 1, stats.Late)
	assert.Equal(t, 26.0, stats.TotalHours)
	assert.Equal(t, 6.5, stats.AverageHours)
	assert.Equal(t, 50.0, stats.OnTimePercentage)

	_, err = f.svc.GetRangeStats(ctx, e1, attendance.RangeStatsRequest{EmployeeID: "e2", StartDate: "2025-03-01", EndDate: "2025-03-31"})
	assert.ErrorIs(t, err, user.ErrPermissionDenied)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.now = at("2025-03-03 09:00")
	for _, id := range []string{"e1", "e2"} {
		_, err := f.svc.CheckIn(ctx, employeeActor(id), attendance.CheckInRequest{})
		require.NoError(t, err)
	}

	out, err := f.svc.Export(ctx, adminActor, attendance.ListFilter{}, export.FormatCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "09:00", rows[1][4])
}
