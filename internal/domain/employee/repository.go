package employee

import (
	"context"

	"github.com/shopspring/decimal"
)

// Directory is the employee collaborator. All methods include companyID to
// prevent cross-company data access.
type Directory interface {
	ListActive(ctx context.Context, companyID string) ([]Employee, error)
	GetByID(ctx context.Context, companyID, id string) (*Employee, error)
	GetBaseSalary(ctx context.Context, companyID, id string) (decimal.Decimal, error)
}
