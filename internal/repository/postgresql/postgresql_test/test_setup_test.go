package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
)

// coreSchema is the subset of the HR core tables the attendance schema references.
const coreSchema = `
CREATE TABLE IF NOT EXISTS companies (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name       VARCHAR(255) NOT NULL,
    deleted_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS users (
    id    UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
    id   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(255) NOT NULL
);
CREATE TABLE IF NOT EXISTS employees (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    company_id        UUID NOT NULL REFERENCES companies(id),
    user_id           UUID REFERENCES users(id),
    position_id       UUID REFERENCES positions(id),
    employee_code     VARCHAR(50) NOT NULL,
    full_name         VARCHAR(255) NOT NULL,
    employment_status VARCHAR(20) NOT NULL DEFAULT 'active',
    base_salary       NUMERIC(15, 2),
    deleted_at        TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS leave_requests (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    employee_id UUID NOT NULL REFERENCES employees(id),
    start_date  DATE NOT NULL,
    end_date    DATE NOT NULL,
    status      VARCHAR(20) NOT NULL
);
`

// TestDatabaseSetup initializes the test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema. ok is false when the
// variable is unset.
func NewTestDatabase(ctx context.Context) (setup *TestDatabaseSetup, ok bool, err error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, false, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 10, MinConns: 1})
	if err != nil {
		return nil, true, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if _, err := db.Exec(ctx, coreSchema); err != nil {
		db.Close()
		return nil, true, fmt.Errorf("failed to create core schema: %w", err)
	}

	_, file, _, _ := runtime.Caller(0)
	migration, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations", "0001_attendance_payroll.sql"))
	if err != nil {
		db.Close()
		return nil, true, fmt.Errorf("failed to read migration: %w", err)
	}
	if _, err := db.Exec(ctx, string(migration)); err != nil {
		db.Close()
		return nil, true, fmt.Errorf("failed to apply migration: %w", err)
	}

	return &TestDatabaseSetup{DB: db}, true, nil
}

// TruncateAllTables removes all rows from the tables used by the tests
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"notifications",
		"salary_records",
		"attendance_corrections",
		"attendance_records",
		"attendance_settings",
		"leave_requests",
		"employees",
		"positions",
		"users",
		"companies",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
