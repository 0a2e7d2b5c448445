package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/aerozone/backend/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// EmailService sends backup archives over SMTP. It implements EmailSender.
type EmailService struct {
	cfg     *config.Config
	dialer  *gomail.Dialer
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewEmailService(cfg *config.Config, log *zap.SugaredLogger) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost}
	if cfg.SMTPPort == 465 {
		dialer.SSL = true
	}
	return &EmailService{
		cfg:     cfg,
		dialer:  dialer,
		timeout: cfg.SendTimeout,
		log:     log,
	}
}

// SendBackupArchive mails the archive to every recipient as a single message
// with a named zip attachment. Sending is bounded by the configured timeout
// so a hung SMTP connection cannot block an execution indefinitely.
func (s *EmailService) SendBackupArchive(ctx context.Context, recipients []string, subject string, attachment EmailAttachment) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.SMTPFrom, s.cfg.SMTPFromName))
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", fmt.Sprintf(
		"Attached is the scheduled backup archive %s (%d bytes).\n\nThis message was generated automatically.\n",
		attachment.Filename, len(attachment.Data)))
	m.Attach(attachment.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(attachment.Data)
		return err
	}))

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	timeout := s.timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		s.log.Infow("backup archive mailed",
			"recipients", len(recipients), "attachment", attachment.Filename)
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("smtp send timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
