package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/email"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/sse"
)

// EmailSender mails a rendered notification to recipients that have an address.
type EmailSender struct {
	mailer   email.Mailer
	renderer *email.Renderer
}

func NewEmailSender(mailer email.Mailer, renderer *email.Renderer) *EmailSender {
	return &EmailSender{mailer: mailer, renderer: renderer}
}

func (e *EmailSender) Send(ctx context.Context, msg notification.Message) error {
	if msg.To.Email == "" {
		return nil
	}

	body, err := e.renderer.RenderNotification(msg.Kind.Title(), msg.To.Name, msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", msg.Kind, err)
	}
	return e.mailer.Send(ctx, msg.To.Email, msg.Kind.Title(), body)
}

// LogSender writes notifications to the structured log. Used when SMTP is not configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg notification.Message) error {
	slog.InfoContext(ctx, "notification",
		"company_id", msg.CompanyID,
		"employee_id", msg.To.EmployeeID,
		"to", msg.To.Email,
		"kind", msg.Kind,
		"payload", msg.Payload,
	)
	return nil
}

// HubSender pushes employee notifications to their open event streams.
type HubSender struct {
	hub *sse.Hub
}

func NewHubSender(hub *sse.Hub) *HubSender {
	return &HubSender{hub: hub}
}

// StreamPayload is the data of a streamed notification event.
type StreamPayload struct {
	Title    string         `json:"title"`
	Payload  map[string]any `json:"payload"`
	QueuedAt string         `json:"queued_at"`
}

func (h *HubSender) Send(ctx context.Context, msg notification.Message) error {
	if msg.To.EmployeeID == "" {
		return nil
	}
	h.hub.Publish(msg.CompanyID, msg.To.EmployeeID, sse.Event{
		Name: string(msg.Kind),
		Data: StreamPayload{
			Title:    msg.Kind.Title(),
			Payload:  msg.Payload,
			QueuedAt: msg.QueuedAt.Format(time.RFC3339),
		},
	})
	return nil
}
