package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"huletfish/internal/logger"
	"huletfish/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
	pushTimeout    = 5 * time.Second
)

type Job struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(job Job) error
}

type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(host string, port int, user, pass, from, fromName string) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(host, port, user, pass),
		from:     from,
		fromName: fromName,
	}
}

func (s *SMTPSender) Send(job Job) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetAddressHeader("To", job.To, job.Name)
	m.SetHeader("Subject", job.Subject)
	m.SetBody("text/plain", job.Body)

	return s.dialer.DialAndSend(m)
}

// Service queues jobs on a Redis list and delivers them from a worker loop.
// Delivery goes through a circuit breaker so an unreachable SMTP server
// does not stall the worker on every job.
type Service struct {
	redis      *redis.Client
	sender     Sender
	breaker    *gobreaker.CircuitBreaker
	retryDelay time.Duration
	popTimeout time.Duration
}

func New(rdb *redis.Client, sender Sender) *Service {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "smtp",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Service{
		redis:      rdb,
		sender:     sender,
		breaker:    breaker,
		retryDelay: 5 * time.Second,
		popTimeout: 2 * time.Second,
	}
}

func (s *Service) Queue(ctx context.Context, job Job) error {
	if job.Created.IsZero() {
		job.Created = time.Now()
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", job.To, err)
		return err
	}

	logger.Info("email queued", "type", job.Type, "to", job.To)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, s.popTimeout, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Debug("sending email", "to", job.To, "attempt", job.Tries)
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.sender.Send(job)
	})
	if err == nil {
		metrics.RecordNotification(job.Type, "sent")
		logger.Info("email sent", "type", job.Type, "to", job.To)
		return
	}

	if errors.Is(err, gobreaker.ErrOpenState) {
		logger.Warn("smtp circuit open, delaying email", "to", job.To)
	} else {
		logger.Error("failed to send email", "to", job.To, "error", err)
	}

	if job.Tries < maxTries {
		s.requeue(ctx, job)
		return
	}

	logger.Errorf("Email to %s failed after %d attempts", job.To, maxTries)
	metrics.RecordNotification(job.Type, "failed")
	s.saveFailed(ctx, job, err)
}

// requeue waits out the retry delay, or until ctx is done, and puts job back
// on the queue. The push itself outlives ctx so shutdown keeps the job.
func (s *Service) requeue(ctx context.Context, job Job) {
	timer := time.NewTimer(s.retryDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
	case <-timer.C:
	}

	if err := s.push(ctx, queueKey, job); err != nil {
		logger.Error("failed to requeue email, dropping it", "type", job.Type, "to", job.To, "attempt", job.Tries, "error", err)
		metrics.RecordNotification(job.Type, "failed")
		return
	}
	logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
}

func (s *Service) saveFailed(ctx context.Context, job Job, sendErr error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": sendErr.Error(),
		"time":  time.Now(),
	}
	if err := s.push(ctx, failedQueueKey, failed); err != nil {
		logger.Error("failed to record failed email", "type", job.Type, "to", job.To, "send_error", sendErr, "error", err)
		return
	}
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

func (s *Service) push(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	return s.redis.LPush(ctx, key, string(data)).Err()
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

// MonitorQueue refreshes the queue length gauge every interval until ctx is
// done.
func (s *Service) MonitorQueue(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.QueueLength(ctx)
		}
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.redis.Close()
}
