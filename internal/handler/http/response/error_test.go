package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	errLocked := apperr.New(apperr.KindConflict, "SALARY_LOCKED", "salary record is locked")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation errors", validator.ValidationErrors{{Field: "date", Message: "bad"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"validation kind", apperr.New(apperr.KindValidation, "INVALID_CLOCK", "bad clock"), http.StatusBadRequest, "INVALID_CLOCK"},
		{"not found", apperr.New(apperr.KindNotFound, "ATTENDANCE_NOT_FOUND", "not found"), http.StatusNotFound, "ATTENDANCE_NOT_FOUND"},
		{"wrapped conflict", fmt.Errorf("lock s-1: %w", errLocked), http.StatusConflict, "SALARY_LOCKED"},
		{"forbidden", apperr.New(apperr.KindForbidden, "PERMISSION_DENIED", "nope"), http.StatusForbidden, "PERMISSION_DENIED"},
		{"precondition", apperr.New(apperr.KindPreconditionFailed, "NOT_CHECKED_IN", "no check-in"), http.StatusPreconditionFailed, "NOT_CHECKED_IN"},
		{"dependency", apperr.Dependency("failed to list", errors.New("connection refused")), http.StatusServiceUnavailable, "dependency"},
		{"cancelled", fmt.Errorf("list: %w", context.Canceled), http.StatusServiceUnavailable, "REQUEST_CANCELLED"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleError_HidesDependencyDetails(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, apperr.Dependency("failed to list", errors.New("dial tcp 10.0.0.1:5432")))

	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}

func TestHandleError_KeepsWrappedContext(t *testing.T) {
	errCheckedIn := apperr.New(apperr.KindPreconditionFailed, "ALREADY_CHECKED_IN", "already checked in today")

	w := httptest.NewRecorder()
	HandleError(w, fmt.Errorf("employee e1 on 2025-03-03: %w", errCheckedIn))

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_CHECKED_IN", resp.Error.Code)
	assert.Equal(t, "employee e1 on 2025-03-03: already checked in today", resp.Error.Message)
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(41), meta.TotalItems)

	assert.Equal(t, 0, NewMeta(1, 20, 0).TotalPages)
}
