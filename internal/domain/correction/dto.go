package correction

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
)

var requestTypes = []string{
	string(TypeForgotCheckIn),
	string(TypeForgotCheckOut),
	string(TypeCorrection),
	string(TypeLateApproval),
}

type CreateCorrectionRequest struct {
	RequestType       RequestType `json:"request_type"`
	RequestedDate     string      `json:"requested_date"`
	RequestedCheckIn  *time.Time  `json:"requested_check_in,omitempty"`
	RequestedCheckOut *time.Time  `json:"requested_check_out,omitempty"`
	Reason            string      `json:"reason"`
	Attachments       []string    `json:"attachments,omitempty"`
}

func (r *CreateCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsInSlice(string(r.RequestType), requestTypes) {
		errs = append(errs, validator.ValidationError{
			Field:   "request_type",
			Message: "request_type must be forgot-checkin, forgot-checkout, correction or late-approval",
		})
	}

	if _, ok := validator.IsValidDate(r.RequestedDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "requested_date",
			Message: "requested_date must be in YYYY-MM-DD format",
		})
	}

	switch r.RequestType {
	case TypeForgotCheckIn:
		if r.RequestedCheckIn == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "requested_check_in",
				Message: "requested_check_in is required for forgot-checkin",
			})
		}
	case TypeForgotCheckOut:
		if r.RequestedCheckOut == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "requested_check_out",
				Message: "requested_check_out is required for forgot-checkout",
			})
		}
	case TypeCorrection:
		if r.RequestedCheckIn == nil && r.RequestedCheckOut == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "requested_check_in",
				Message: "a correction needs requested_check_in or requested_check_out",
			})
		}
	}

	if r.RequestedCheckIn != nil && r.RequestedCheckOut != nil && !r.RequestedCheckOut.After(*r.RequestedCheckIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "requested_check_out",
			Message: "requested_check_out must be after requested_check_in",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(r.Attachments) > 5 {
		errs = append(errs, validator.ValidationError{
			Field:   "attachments",
			Message: "at most 5 attachments are allowed",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ReviewCorrectionRequest struct {
	Status   Status  `json:"status"`
	Comments *string `json:"comments,omitempty"`
}

func (r *ReviewCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Status != StatusApproved && r.Status != StatusRejected {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be approved or rejected",
		})
	}

	if r.Comments != nil && len(*r.Comments) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "comments",
			Message: "comments must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *Status `json:"status,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}

	if f.Status != nil {
		valid := []string{string(StatusPending), string(StatusApproved), string(StatusRejected), string(StatusCancelled)}
		if !validator.IsInSlice(string(*f.Status), valid) {
			errs = append(errs, validator.ValidationError{Field: "status", Message: "invalid status"})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type RequestResponse struct {
	ID                string      `json:"id"`
	EmployeeID        string      `json:"employee_id"`
	EmployeeName      *string     `json:"employee_name,omitempty"`
	AttendanceID      *string     `json:"attendance_id,omitempty"`
	RequestType       RequestType `json:"request_type"`
	RequestedDate     string      `json:"requested_date"`
	RequestedCheckIn  *time.Time  `json:"requested_check_in,omitempty"`
	RequestedCheckOut *time.Time  `json:"requested_check_out,omitempty"`
	Reason            string      `json:"reason"`
	Attachments       []string    `json:"attachments"`
	Status            Status      `json:"status"`
	ReviewedBy        *string     `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time  `json:"reviewed_at,omitempty"`
	Comments          *string     `json:"comments,omitempty"`
	CreatedAt         string      `json:"created_at"`
}

func ToResponse(r *Request) RequestResponse {
	attachments := r.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return RequestResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		EmployeeName:      r.EmployeeName,
		AttendanceID:      r.AttendanceID,
		RequestType:       r.RequestType,
		RequestedDate:     r.RequestedDate.Format("2006-01-02"),
		RequestedCheckIn:  r.RequestedCheckIn,
		RequestedCheckOut: r.RequestedCheckOut,
		Reason:            r.Reason,
		Attachments:       attachments,
		Status:            r.Status,
		ReviewedBy:        r.ReviewedBy,
		ReviewedAt:        r.ReviewedAt,
		Comments:          r.Comments,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
}
