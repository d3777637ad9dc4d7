package correction

import "github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"

var (
	ErrCorrectionNotFound         = apperr.New(apperr.KindNotFound, "CORRECTION_NOT_FOUND", "correction request not found")
	ErrCorrectionAlreadyProcessed = apperr.New(apperr.KindConflict, "CORRECTION_ALREADY_PROCESSED", "correction request is no longer pending")
	ErrNotRequestOwner            = apperr.New(apperr.KindForbidden, "NOT_REQUEST_OWNER", "only the requesting employee can cancel this request")
	ErrReviewerRequired           = apperr.New(apperr.KindForbidden, "REVIEWER_REQUIRED", "only administrators can review correction requests")
	ErrPendingCorrectionExists    = apperr.New(apperr.KindConflict, "PENDING_CORRECTION_EXISTS", "a pending correction already exists for this day")
)
