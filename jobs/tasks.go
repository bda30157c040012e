package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gestao-municipal/gestao/internal/jobs"
	"github.com/gestao-municipal/gestao/internal/notifications"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskExpiryScan runs the daily contract expiry notification scan.
	TaskExpiryScan = "notifications:expiry_scan"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// NewExpiryScanTask constructs the scan task; it carries no payload.
func NewExpiryScanTask() *asynq.Task {
	return asynq.NewTask(TaskExpiryScan, nil, asynq.MaxRetry(3))
}

// MailHandler processes TaskTypeSendEmail tasks. Delivery itself belongs to an
// external relay, so the handler records the hand-off in the log.
type MailHandler struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes one mail task.
func (h MailHandler) Handle(ctx context.Context, t *asynq.Task) error {
	metrics := h.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", TaskTypeSendEmail))

	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		metrics.ObserveMail("malformed")
		logger.Warn("discard malformed mail task", slog.Any("error", err))
		return asynq.SkipRetry
	}
	if strings.TrimSpace(payload.To) == "" {
		metrics.ObserveMail("malformed")
		logger.Warn("discard mail task without recipient", slog.String("subject", payload.Subject))
		return asynq.SkipRetry
	}
	logger.Info("mail handed off", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	metrics.ObserveMail("sent")
	return nil
}

// Enqueuer is the subset of asynq.Client used to queue tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// mailRetention keeps finished mail tasks long enough for a same-day rescan
// to hit the task ID conflict instead of queueing the message again.
const mailRetention = 48 * time.Hour

// QueueMailer queues notification messages as mail tasks.
type QueueMailer struct {
	Queue Enqueuer
}

// Send implements notifications.Mailer. A keyed message becomes the asynq task
// ID, so re-sending an accepted key is a no-op.
func (m QueueMailer) Send(ctx context.Context, msg notifications.Message) error {
	task, err := NewSendEmailTask(SendEmailPayload{To: msg.To, Subject: msg.Subject, Body: msg.Body})
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault)}
	if msg.Key != "" {
		opts = append(opts, asynq.TaskID(msg.Key), asynq.Retention(mailRetention))
	}
	_, err = m.Queue.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}
