package leave

import "github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"

var ErrLeaveLookupFailed = apperr.New(apperr.KindDependency, "LEAVE_LOOKUP_FAILED", "failed to check approved leave")
