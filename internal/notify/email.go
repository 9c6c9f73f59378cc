package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"bookpass/internal/logger"
	"bookpass/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	emailQueue       = "emails"
	emailFailedQueue = "emails:failed"
	maxEmailTries    = 3
)

type EmailJob struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// EmailService queues outbound mail in redis and drains the queue from a
// worker goroutine. Senders only ever enqueue; SMTP failures stay inside
// the worker and never reach the booking path.
type EmailService struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func NewEmailService(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *EmailService {
	return &EmailService{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

// NewEmailServiceWithClient is used by tests to inject a redis mock.
func NewEmailServiceWithClient(client *redis.Client, fromEmail, fromName string) *EmailService {
	return &EmailService{
		redis:    client,
		from:     fromEmail,
		fromName: fromName,
	}
}

func (s *EmailService) Send(ctx context.Context, to, name, subject, body string) error {
	job := EmailJob{
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, emailQueue, data).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", to, err)
		metrics.RecordEmail("queued", "failed")
		return err
	}

	logger.Infof("Email queued: %s to %s", subject, to)
	metrics.RecordEmail("queued", "success")
	return nil
}

func (s *EmailService) Start(ctx context.Context) {
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

func (s *EmailService) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, emailQueue).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending email to %s (attempt %d)", job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)

		if job.Tries < maxEmailTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), emailQueue, data)
			logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Email to %s failed after %d attempts", job.To, maxEmailTries)
			metrics.RecordEmail("sent", "failed")
			s.saveFailed(job, err)
		}
		return
	}

	logger.Infof("Email sent successfully to %s", job.To)
	metrics.RecordEmail("sent", "success")
}

func (s *EmailService) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *EmailService) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), emailFailedQueue, data)
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

func (s *EmailService) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, emailQueue).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *EmailService) Close() error {
	return s.redis.Close()
}

func (s *EmailService) SendBookingConfirmation(ctx context.Context, email, name, serviceName string, when time.Time, visitors, covered, paid int) error {
	subject := "Booking Confirmed - " + serviceName

	coverage := ""
	switch {
	case paid == 0:
		coverage = fmt.Sprintf("All %d visitors are covered by your package.", visitors)
	case covered == 0:
		coverage = fmt.Sprintf("%d visitors, payment required for all of them.", visitors)
	default:
		coverage = fmt.Sprintf("%d visitors: %d covered by your package, %d to be paid.", visitors, covered, paid)
	}

	body := fmt.Sprintf(`Hi %s,

Your booking is confirmed!

Service: %s
Time: %s
%s

See you soon!

- BookPass Team`, name, serviceName, when.Format("Jan 2, 2006 at 3:04 PM"), coverage)

	return s.Send(ctx, email, name, subject, body)
}

func (s *EmailService) SendPurchaseConfirmation(ctx context.Context, email, name, packageName string) error {
	subject := "Package Purchased - " + packageName
	body := fmt.Sprintf(`Hi %s,

Thanks for purchasing the %s package. Your prepaid units are ready to use.

- BookPass Team`, name, packageName)

	return s.Send(ctx, email, name, subject, body)
}

func (s *EmailService) SendCancellation(ctx context.Context, email, name, serviceName string) error {
	subject := "Booking Cancelled - " + serviceName
	body := fmt.Sprintf(`Hi %s,

Your booking has been cancelled:

Service: %s

- BookPass Team`, name, serviceName)

	return s.Send(ctx, email, name, subject, body)
}
