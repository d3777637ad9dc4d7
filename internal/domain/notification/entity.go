package notification

import (
	"time"
)

// EventKind identifies what happened; senders pick a template per kind.
type EventKind string

const (
	EventCheckInReminder   EventKind = "attendance.check_in_reminder"
	EventCheckOutReminder  EventKind = "attendance.check_out_reminder"
	EventMarkedAbsent      EventKind = "attendance.absent"
	EventAbsenteeAlert     EventKind = "attendance.absentee_alert"
	EventDailyReport       EventKind = "attendance.daily_report"
	EventCorrectionDecided EventKind = "attendance.correction_decided"
	EventPayrollGenerated  EventKind = "payroll.generated"
)

// Recipient is either an employee or an administrator address from the settings.
type Recipient struct {
	EmployeeID string
	Name       string
	Email      string
}

// Message is one queued notification.
type Message struct {
	CompanyID string
	To        Recipient
	Kind      EventKind
	Payload   map[string]any
	QueuedAt  time.Time
}

// Title returns the human subject line for a kind.
func (k EventKind) Title() string {
	switch k {
	case EventCheckInReminder:
		return "Reminder: you have not checked in today"
	case EventCheckOutReminder:
		return "Reminder: you have not checked out today"
	case EventMarkedAbsent:
		return "You were marked absent"
	case EventAbsenteeAlert:
		return "Absentee alert"
	case EventDailyReport:
		return "Daily attendance report"
	case EventCorrectionDecided:
		return "Attendance correction reviewed"
	case EventPayrollGenerated:
		return "Payroll generated"
	default:
		return string(k)
	}
}
