package correction

import "time"

type RequestType string

const (
	TypeForgotCheckIn  RequestType = "forgot-checkin"
	TypeForgotCheckOut RequestType = "forgot-checkout"
	TypeCorrection     RequestType = "correction"
	TypeLateApproval   RequestType = "late-approval"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports statuses that can no longer change.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// Request asks an admin to create or amend an attendance record.
// Status only moves pending -> approved | rejected | cancelled.
type Request struct {
	ID                string
	CompanyID         string
	EmployeeID        string
	AttendanceID      *string
	RequestType       RequestType
	RequestedDate     time.Time
	RequestedCheckIn  *time.Time
	RequestedCheckOut *time.Time
	Reason            string
	Attachments       []string
	Status            Status
	ReviewedBy        *string
	ReviewedAt        *time.Time
	Comments          *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// DTO / Join
	EmployeeName *string
}

// Decision is the outcome of a review or cancellation, applied with first-writer-wins semantics.
type Decision struct {
	Status     Status
	ReviewedBy *string
	ReviewedAt time.Time
	Comments   *string
}
