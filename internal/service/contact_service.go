package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ContactMessage is one public contact form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Message string
}

type ContactService struct {
	notify     *NotificationService
	adminEmail string
	log        *zap.Logger
}

func NewContactService(notify *NotificationService, adminEmail string, log *zap.Logger) *ContactService {
	return &ContactService{notify: notify, adminEmail: adminEmail, log: log}
}

// Submit validates the form and relays it to the support inbox, with a
// confirmation to the sender. Both emails are best effort.
func (s *ContactService) Submit(ctx context.Context, msg *ContactMessage) error {
	var fields []string
	if strings.TrimSpace(msg.Name) == "" {
		fields = append(fields, "name is required")
	}
	if strings.TrimSpace(msg.Email) == "" {
		fields = append(fields, "email is required")
	}
	if strings.TrimSpace(msg.Message) == "" {
		fields = append(fields, "message is required")
	}
	if len(fields) > 0 {
		return newValidationError(fields...)
	}
	if !emailPattern.MatchString(msg.Email) {
		return newValidationError("email format is invalid")
	}

	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		subject = "General inquiry"
	}

	if s.adminEmail != "" {
		s.notify.EnqueueAsync(contactFormEmail(s.adminEmail, msg.Name, msg.Email, subject, msg.Message))
	}
	s.notify.EnqueueAsync(contactConfirmationEmail(msg.Email, msg.Name))

	s.log.Info("contact form submitted", zap.String("email", msg.Email))
	return nil
}
