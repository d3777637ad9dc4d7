package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// The client is usually gone by now.
	if errors.Is(err, context.Canceled) {
		Fail(w, http.StatusServiceUnavailable, "REQUEST_CANCELLED", "request cancelled")
		return
	}

	kind := apperr.KindOf(err)
	status := StatusOf(kind)

	switch kind {
	case apperr.KindInternal:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
		return
	case apperr.KindDependency:
		slog.Warn("dependency failure", "error", err)
		Fail(w, status, apperr.CodeOf(err), "A backing service is unavailable, try again later")
		return
	}

	// the wrapped prefix names the employee, day or period
	Fail(w, status, apperr.CodeOf(err), err.Error())
}

// StatusOf is the HTTP status of an error kind.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case apperr.KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
