package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

// ListActive implements company.CompanyRepository.
func (c *companyRepositoryImpl) ListActive(ctx context.Context) ([]company.Company, error) {
	q := GetQuerier(ctx, c.db)

	rows, err := q.Query(ctx, `
		SELECT id, name
		FROM companies
		WHERE deleted_at IS NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []company.Company
	for rows.Next() {
		var found company.Company
		if err := rows.Scan(&found.ID, &found.Name); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, found)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}

	return companies, nil
}
