package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
)

// Notifier records notifications instead of delivering them.
type Notifier struct {
	mu   sync.Mutex
	sent []notification.Message
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(ctx context.Context, companyID string, to notification.Recipient, kind notification.EventKind, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification.Message{CompanyID: companyID, To: to, Kind: kind, Payload: payload})
}

// Sent returns the recorded messages of the given kind, or all when kind is empty.
func (n *Notifier) Sent(kind notification.EventKind) []notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []notification.Message
	for _, m := range n.sent {
		if kind == "" || m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}
