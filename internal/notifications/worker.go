package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/medibook/medibook-platform/internal/observability/metrics"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// DefaultPollInterval is how often the reminder worker wakes up.
const DefaultPollInterval = time.Minute

// Worker delivers due reminders: it marks them visible in the in-app inbox
// and emails the recipient when an email channel is configured.
type Worker struct {
	repo     Repository
	users    UserDirectory
	email    EmailSender // nil disables email
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	interval time.Duration
	now      func() time.Time
}

// WorkerOption customizes a Worker.
type WorkerOption func(*Worker)

// WithWorkerEmailSender attaches an email channel to reminder delivery.
func WithWorkerEmailSender(sender EmailSender) WorkerOption {
	return func(w *Worker) { w.email = sender }
}

// WithWorkerMetrics attaches notification metrics. Nil metrics are safe.
func WithWorkerMetrics(m *metrics.BookingMetrics) WorkerOption {
	return func(w *Worker) { w.metrics = m }
}

// WithPollInterval overrides how often the worker polls for due reminders.
func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithWorkerClock overrides the time source, for tests.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

func NewWorker(repo Repository, userDir UserDirectory, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if repo == nil {
		panic("notifications: repository required")
	}
	if userDir == nil {
		panic("notifications: user directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		repo:     repo,
		users:    userDir,
		logger:   logger,
		interval: DefaultPollInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls for due reminders until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			if _, err := w.ProcessDue(ctx); err != nil {
				w.logger.Error("reminder worker: process due failed", "error", err)
			}
		}
	}
}

// ProcessDue delivers all reminders whose scheduled time has passed.
// Returns the number of reminders delivered.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	due, err := w.repo.ListDue(ctx, w.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("notifications worker: list due: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	w.logger.Info("reminder worker: processing due reminders", "count", len(due))

	delivered := 0
	for _, n := range due {
		if err := w.deliverOne(ctx, n); err != nil {
			w.logger.Error("reminder worker: delivery failed", "id", n.ID, "error", err)
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (w *Worker) deliverOne(ctx context.Context, n *Notification) error {
	if err := w.repo.MarkSent(ctx, n.ID, w.now().UTC()); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	w.metrics.ObserveNotification("reminder", "sent")

	if w.email != nil {
		w.emailRecipient(ctx, n)
	}

	w.logger.Info("reminder delivered", "id", n.ID, "user_id", n.UserID, "appointment_id", n.AppointmentID)
	return nil
}

func (w *Worker) emailRecipient(ctx context.Context, n *Notification) {
	user, err := w.users.GetByID(ctx, n.UserID)
	if err != nil {
		w.logger.Error("reminder email lookup failed", "user_id", n.UserID, "error", err)
		return
	}
	if user.Email == "" {
		return
	}
	msg := EmailMessage{
		To:      user.Email,
		ToName:  user.Name,
		Subject: n.Title,
		Body:    n.Message,
	}
	if err := w.email.Send(ctx, msg); err != nil {
		w.metrics.ObserveNotification("email", "failed")
		w.logger.Error("reminder email failed", "user_id", n.UserID, "error", err)
		return
	}
	w.metrics.ObserveNotification("email", "sent")
}
