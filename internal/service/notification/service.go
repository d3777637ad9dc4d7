package notification

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
)

// Config holds notification service configuration
type Config struct {
	WorkerCount int           // default: 2
	QueueSize   int           // default: 1000
	SendTimeout time.Duration // default: 30 seconds, per sender and message
}

// Service queues notifications and delivers them from background workers through every sender.
type Service struct {
	senders []notification.Sender
	config  Config
	now     func() time.Time

	queue   chan notification.Message
	wg      sync.WaitGroup
	stopCh  chan struct{}
	stopped atomic.Bool
	dropped atomic.Int64
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(cfg Config, senders ...notification.Sender) *Service {
	// Set defaults
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	s := &Service{
		senders: senders,
		config:  cfg,
		now:     time.Now,
		queue:   make(chan notification.Message, cfg.QueueSize),
		stopCh:  make(chan struct{}),
	}

	// Start background workers
	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("notification service started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize, "senders", len(senders))
	return s
}

// worker delivers queued messages until Stop, then drains what is left.
func (s *Service) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case msg := <-s.queue:
			s.deliver(id, msg)
		case <-s.stopCh:
			for {
				select {
				case msg := <-s.queue:
					s.deliver(id, msg)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) deliver(worker int, msg notification.Message) {
	for _, sender := range s.senders {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.SendTimeout)
		err := sender.Send(ctx, msg)
		cancel()
		if err != nil {
			slog.Error("failed to deliver notification",
				"worker", worker,
				"company_id", msg.CompanyID,
				"employee_id", msg.To.EmployeeID,
				"kind", msg.Kind,
				"error", err,
			)
		}
	}
}

// Notify implements notification.Notifier. It never blocks: when the queue is full or the
// service is stopped the message is dropped and logged.
func (s *Service) Notify(ctx context.Context, companyID string, to notification.Recipient, kind notification.EventKind, payload map[string]any) {
	msg := notification.Message{
		CompanyID: companyID,
		To:        to,
		Kind:      kind,
		Payload:   payload,
		QueuedAt:  s.now(),
	}

	if s.stopped.Load() {
		s.drop(msg, "service stopped")
		return
	}

	select {
	case s.queue <- msg:
	default:
		s.drop(msg, "queue full")
	}
}

func (s *Service) drop(msg notification.Message, reason string) {
	s.dropped.Add(1)
	slog.Warn("notification dropped",
		"reason", reason,
		"company_id", msg.CompanyID,
		"employee_id", msg.To.EmployeeID,
		"kind", msg.Kind,
	)
}

// Dropped returns how many notifications were discarded.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

// Stop gracefully stops the notification service, delivering what is already queued.
func (s *Service) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
	slog.Info("notification service stopped", "dropped", s.dropped.Load())
}
