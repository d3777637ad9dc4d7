package notification

import "context"

// Notifier is fire-and-forget: it never blocks the caller and never fails the calling workflow.
type Notifier interface {
	Notify(ctx context.Context, companyID string, to Recipient, kind EventKind, payload map[string]any)
}

// Sender delivers one message (SMTP, log, ...).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
