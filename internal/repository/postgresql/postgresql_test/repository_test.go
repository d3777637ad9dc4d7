package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *TestDatabaseSetup

func TestMain(m *testing.M) {
	ctx := context.Background()
	setup, ok, err := NewTestDatabase(ctx)
	if !ok {
		// TEST_DATABASE_URL not set, nothing to run against
		os.Exit(0)
	}
	if err != nil {
		panic(err)
	}
	testDB = setup

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

type seed struct {
	companyID, otherCompanyID string
	ayu, budi                 string
}

func seedData(t *testing.T) seed {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, testDB.TruncateAllTables(ctx))

	var s seed
	require.NoError(t, testDB.DB.QueryRow(ctx, `INSERT INTO companies (name) VALUES ('Acme') RETURNING id`).Scan(&s.companyID))
	require.NoError(t, testDB.DB.QueryRow(ctx, `INSERT INTO companies (name) VALUES ('Globex') RETURNING id`).Scan(&s.otherCompanyID))

	var userID string
	require.NoError(t, testDB.DB.QueryRow(ctx, `INSERT INTO users (email) VALUES ('ayu@example.com') RETURNING id`).Scan(&userID))
	require.NoError(t, testDB.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, user_id, employee_code, full_name, base_salary)
		VALUES ($1, $2, 'E001', 'Ayu Lestari', 30000) RETURNING id
	`, s.companyID, userID).Scan(&s.ayu))
	require.NoError(t, testDB.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, employee_code, full_name, base_salary)
		VALUES ($1, 'E002', 'Budi Santoso', 45000) RETURNING id
	`, s.companyID).Scan(&s.budi))
	_, err := testDB.DB.Exec(ctx, `
		INSERT INTO employees (company_id, employee_code, full_name, employment_status)
		VALUES ($1, 'E003', 'Citra', 'resigned')
	`, s.companyID)
	require.NoError(t, err)
	return s
}

var day = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func TestAttendanceRepository(t *testing.T) {
	s := seedData(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(testDB.DB)

	rec := &attendance.Record{
		CompanyID:   s.companyID,
		EmployeeID:  s.ayu,
		Date:        day,
		CheckIn:     &attendance.Punch{Time: day.Add(9*time.Hour + 20*time.Minute), Method: attendance.MethodWeb},
		Status:      attendance.StatusLate,
		LateArrival: attendance.LateArrival{IsLate: true, MinutesLate: 5},
	}
	require.NoError(t, repo.Create(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	dup := &attendance.Record{CompanyID: s.companyID, EmployeeID: s.ayu, Date: day, Status: attendance.StatusAbsent}
	assert.ErrorIs(t, repo.Create(ctx, dup), attendance.ErrAttendanceExists)

	got, err := repo.GetByEmployeeAndDate(ctx, s.companyID, s.ayu, day)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, got.Status)
	require.NotNil(t, got.CheckIn)
	assert.True(t, got.CheckIn.Time.Equal(rec.CheckIn.Time))
	assert.Nil(t, got.CheckOut)
	require.NotNil(t, got.EmployeeName)
	assert.Equal(t, "Ayu Lestari", *got.EmployeeName)

	got.CheckOut = &attendance.Punch{Time: day.Add(18 * time.Hour), Method: attendance.MethodWeb}
	got.HoursWorked = 8.67
	require.NoError(t, repo.Update(ctx, got))

	byDate, err := repo.ListByDate(ctx, s.companyID, day)
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, 8.67, byDate[0].HoursWorked)

	status := attendance.StatusLate
	list, total, err := repo.List(ctx, s.companyID, attendance.ListFilter{Status: &status, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	// another tenant sees nothing
	_, err = repo.GetByID(ctx, s.otherCompanyID, rec.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, s.otherCompanyID, rec.ID), attendance.ErrAttendanceNotFound)

	ranged, err := repo.ListByEmployeeRange(ctx, s.companyID, s.ayu, day.AddDate(0, 0, -1), day)
	require.NoError(t, err)
	assert.Len(t, ranged, 1)
}

func TestAttendanceRepository_CreateInsideTransactionSurvivesConflict(t *testing.T) {
	s := seedData(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(testDB.DB)
	tx := postgresql.NewTxManager(testDB.DB)

	require.NoError(t, repo.Create(ctx, &attendance.Record{CompanyID: s.companyID, EmployeeID: s.ayu, Date: day, Status: attendance.StatusPresent}))

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		err := repo.Create(ctx, &attendance.Record{CompanyID: s.companyID, EmployeeID: s.ayu, Date: day, Status: attendance.StatusAbsent})
		require.ErrorIs(t, err, attendance.ErrAttendanceExists)

		existing, err := repo.GetByEmployeeAndDate(ctx, s.companyID, s.ayu, day)
		if err != nil {
			return err
		}
		existing.IsManualEntry = true
		return repo.Update(ctx, existing)
	})
	require.NoError(t, err)

	got, err := repo.GetByEmployeeAndDate(ctx, s.companyID, s.ayu, day)
	require.NoError(t, err)
	assert.True(t, got.IsManualEntry)
}

func TestCorrectionRepository_FirstWriterWins(t *testing.T) {
	s := seedData(t)
	ctx := context.Background()
	repo := postgresql.NewCorrectionRepository(testDB.DB)

	checkIn := day.Add(9 * time.Hour)
	req := &correction.Request{
		CompanyID:        s.companyID,
		EmployeeID:       s.ayu,
		RequestType:      correction.TypeForgotCheckIn,
		RequestedDate:    day,
		RequestedCheckIn: &checkIn,
		Reason:           "badge reader offline",
		Status:           correction.StatusPending,
	}
	require.NoError(t, repo.Create(ctx, req))

	second := *req
	second.ID = ""
	assert.ErrorIs(t, repo.Create(ctx, &second), correction.ErrPendingCorrectionExists)

	pending, err := repo.HasPending(ctx, s.companyID, s.ayu, day)
	require.NoError(t, err)
	assert.True(t, pending)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for _, status := range []correction.Status{correction.StatusApproved, correction.StatusCancelled, correction.StatusRejected} {
		wg.Add(1)
		go func(status correction.Status) {
			defer wg.Done()
			_, err := repo.Resolve(ctx, s.companyID, req.ID, correction.Decision{Status: status, ReviewedAt: time.Now()})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, correction.ErrCorrectionAlreadyProcessed)
		}(status)
	}
	wg.Wait()
	assert.Equal(t, 1, winners)

	_, err = repo.Resolve(ctx, s.otherCompanyID, req.ID, correction.Decision{Status: correction.StatusApproved, ReviewedAt: time.Now()})
	assert.ErrorIs(t, err, correction.ErrCorrectionNotFound)
}

func TestSettingsRepository_CreateIfAbsent(t *testing.T) {
	s := seedData(t)
	ctx := context.Background()
	repo := postgresql.NewSettingsRepository(testDB.DB)
	hq := settings.OfficeLocation{Name: "HQ", Latitude: -6.2088, Longitude: 106.8456, RadiusMeters: 120}

	first, err := repo.CreateIfAbsent(ctx, &settings.TenantSettings{
		CompanyID:   s.companyID,
		Timezone:    "Asia/Jakarta",
		WorkingDays: settings.DefaultWorkingDays,
		Holidays:    []settings.Holiday{{Date: "2025-03-31", Name: "Eid"}},
		Shift:       settings.Shift{StartTime: "08:00", EndTime: "17:00", GraceMinutes: 10},
		AutoAbsent:  settings.AutoAbsent{Enabled: true, CutoffTime: "10:00"},
		Geofence:    settings.Geofence{Enabled: true, Offices: []settings.OfficeLocation{hq}},
	})
	require.NoError(t, err)

	second, err := repo.CreateIfAbsent(ctx, &settings.TenantSettings{CompanyID: s.companyID, Timezone: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Asia/Jakarta", second.Timezone)
	assert.Equal(t, "Eid", second.Holidays[0].Name)
	require.Len(t, second.Geofence.Offices, 1)
	assert.Equal(t, 120.0, second.Geofence.Offices[0].RadiusMeters)

	second.Shift.GraceMinutes = 20
	require.NoError(t, repo.Update(ctx, second))
	got, err := repo.GetByCompanyID(ctx, s.companyID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Shift.GraceMinutes)

	_, err = repo.GetByCompanyID(ctx, s.otherCompanyID)
	assert.ErrorIs(t, err, settings.ErrSettingsNotFound)
}

func TestSalaryRepository_Lifecycle(t *testing.T) {
	s := seedData(t)
	ctx := context.Background()
	repo := postgresql.NewSalaryRepository(testDB.DB)

	rec := &payroll.SalaryRecord{
		CompanyID:     s.companyID,
		EmployeeID:    s.ayu,
		Month:         3,
		Year:          2025,
		BaseSalary:    decimal.NewFromInt(30000),
		Deductions:    []payroll.LineItem{{Kind: payroll.DeductionAbsent, Amount: decimal.NewFromInt(2000)}},
		PaymentStatus: payroll.PaymentStatusPending,
	}
	rec.RecomputeTotals()
	require.NoError(t, repo.Create(ctx, rec))

	dup := *rec
	assert.ErrorIs(t, repo.Create(ctx, &dup), payroll.ErrSalaryRecordExists)

	exists, err := repo.ExistsForPeriod(ctx, s.companyID, 3, 2025)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetByID(ctx, s.companyID, rec.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(28000).Equal(got.NetSalary))
	require.Len(t, got.Deductions, 1)
	assert.Nil(t, got.Increment)

	require.NoError(t, repo.Lock(ctx, s.companyID, rec.ID, s.ayu, time.Now()))
	assert.ErrorIs(t, repo.Lock(ctx, s.companyID, rec.ID, s.ayu, time.Now()), payroll.ErrSalaryAlreadyLocked)
	assert.ErrorIs(t, repo.Update(ctx, got), payroll.ErrSalaryRecordLocked)
	assert.ErrorIs(t, repo.Delete(ctx, s.companyID, rec.ID), payroll.ErrSalaryRecordLocked)
	assert.ErrorIs(t, repo.Acknowledge(ctx, s.companyID, rec.ID, s.ayu, time.Now()), payroll.ErrSalaryNotPaid)
	assert.ErrorIs(t, repo.Lock(ctx, s.otherCompanyID, rec.ID, s.ayu, time.Now()), payroll.ErrSalaryRecordNotFound)

	stats, err := repo.Statistics(ctx, s.companyID, 2025, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRecords)
	assert.Equal(t, 1, stats.LockedCount)
	assert.True(t, decimal.NewFromInt(30000).Equal(stats.TotalGross))
}

func TestInboxRepository(t *testing.T) {
	s := seedData(t)
	ctx := context.Background()
	repo := postgresql.NewInboxRepository(testDB.DB)

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i, kind := range []notification.EventKind{notification.EventCheckInReminder, notification.EventMarkedAbsent} {
		item := &notification.InboxItem{
			CompanyID:  s.companyID,
			EmployeeID: s.ayu,
			Kind:       kind,
			Title:      kind.Title(),
			Payload:    map[string]any{"date": "2025-03-03"},
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, item))
		ids = append(ids, item.ID)
	}

	items, total, err := repo.List(ctx, s.companyID, s.ayu, notification.InboxFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, notification.EventMarkedAbsent, items[0].Kind)
	assert.Equal(t, "2025-03-03", items[0].Payload["date"])

	updated, err := repo.MarkRead(ctx, s.otherCompanyID, s.ayu, ids, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated, "other tenant cannot mark")

	updated, err = repo.MarkRead(ctx, s.companyID, s.ayu, ids[:1], time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	unread, err := repo.UnreadCount(ctx, s.companyID, s.ayu)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	items, total, err = repo.List(ctx, s.companyID, s.ayu, notification.InboxFilter{UnreadOnly: true, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, ids[1], items[0].ID)

	updated, err = repo.MarkAllRead(ctx, s.companyID, s.ayu, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)
}

func TestEmployeeDirectoryAndLeave(t *testing.T) {
	s := seedData(t)
	ctx := context.Background()
	dir := postgresql.NewEmployeeDirectory(testDB.DB)

	active, err := dir.ListActive(ctx, s.companyID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Ayu Lestari", active[0].FullName)
	assert.Equal(t, "ayu@example.com", active[0].Email)

	base, err := dir.GetBaseSalary(ctx, s.companyID, s.budi)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(45000).Equal(base))

	_, err = dir.GetByID(ctx, s.otherCompanyID, s.ayu)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = testDB.DB.Exec(ctx, `
		INSERT INTO leave_requests (employee_id, start_date, end_date, status)
		VALUES ($1, '2025-03-01', '2025-03-05', 'approved'), ($2, '2025-03-03', '2025-03-03', 'pending')
	`, s.ayu, s.budi)
	require.NoError(t, err)

	leaves := postgresql.NewLeaveChecker(testDB.DB)
	onLeave, err := leaves.EmployeesOnLeave(ctx, s.companyID, day)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{s.ayu: true}, onLeave)

	has, err := leaves.HasApprovedLeave(ctx, s.companyID, s.budi, day)
	require.NoError(t, err)
	assert.False(t, has)

	companies, err := postgresql.NewCompanyRepository(testDB.DB).ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 2)
}
