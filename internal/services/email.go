package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"clubsphere/internal/config"
)

// Mailer sends plain text e-mail
type Mailer interface {
	SendEmail(to []string, subject, body string) error
}

type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(cfg *config.Config) *EmailService {
	var dialer *gomail.Dialer
	if cfg.SMTPHost != "" && cfg.SMTPUser != "" && cfg.SMTPPass != "" {
		dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	}
	from := cfg.EmailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &EmailService{dialer: dialer, from: from}
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if s.dialer == nil {
		return errors.New("SMTP credentials not fully configured")
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("Message-ID", messageID(s.from))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func messageID(from string) string {
	domain := "clubsphere.local"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.Trim(from[at+1:], "> ")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
