package correction

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
)

type CorrectionService interface {
	RequestCorrection(ctx context.Context, actor user.Actor, req CreateCorrectionRequest) (*Request, error)
	ReviewCorrection(ctx context.Context, actor user.Actor, id string, req ReviewCorrectionRequest) (*Request, error)
	CancelCorrection(ctx context.Context, actor user.Actor, id string) (*Request, error)
	GetByID(ctx context.Context, actor user.Actor, id string) (*Request, error)
	List(ctx context.Context, actor user.Actor, filter ListFilter) ([]Request, int64, error)
}
