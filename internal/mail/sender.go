package mail

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers jobs over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, job Job) error {
	m := s.message(job)

	// gomail has no context support, so the dial runs in its own
	// goroutine and we stop waiting when ctx ends. The goroutine finishes
	// on its own once the SMTP conversation does.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return errJob("send", job, err)
		}
		return nil
	case <-ctx.Done():
		return errJob("send", job, ctx.Err())
	}
}

func (s *SMTPSender) message(job Job) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", job.To...)
	if len(job.Cc) > 0 {
		m.SetHeader("Cc", job.Cc...)
	}
	m.SetHeader("Subject", job.Subject)
	m.SetBody("text/plain", job.Body)
	return m
}

// LogSender writes jobs to the log instead of sending them. It's what
// runs when no SMTP host is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, job Job) error {
	s.logger.Info("email (not sent, no SMTP configured)",
		zap.Strings("to", job.To),
		zap.Strings("cc", job.Cc),
		zap.String("subject", job.Subject),
		zap.String("tag", job.Tag),
		zap.String("body", job.Body),
	)
	return nil
}
