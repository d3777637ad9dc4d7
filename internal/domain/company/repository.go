package company

import "context"

// CompanyRepository lists the tenants the scheduler iterates over.
type CompanyRepository interface {
	ListActive(ctx context.Context) ([]Company, error)
}
