package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vetlink/vetlink/pkg/mailer"
	"github.com/vetlink/vetlink/pkg/metrics"
)

type Notification struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// NotificationService delivers email off the request path. Messages are
// buffered on a channel and sent by a single worker; when the buffer is
// full the message is dropped and counted rather than blocking a handler.
type NotificationService struct {
	mailer  mailer.Mailer
	log     *zap.Logger
	metrics *metrics.Collector
	queue   chan Notification
	done    chan struct{}
}

func NewNotificationService(m mailer.Mailer, collector *metrics.Collector, log *zap.Logger, bufferSize int) *NotificationService {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	svc := &NotificationService{
		mailer:  m,
		log:     log,
		metrics: collector,
		queue:   make(chan Notification, bufferSize),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// SendNow delivers a notification on the caller's goroutine. For flows
// where the email is the whole point and the caller must see a failure.
func (s *NotificationService) SendNow(n Notification) error {
	if err := s.mailer.Send(n.To, n.Subject, n.Body); err != nil {
		return fmt.Errorf("sending %s email: %w", n.Kind, err)
	}
	s.metrics.NotificationsSent.WithLabelValues(n.Kind).Inc()
	return nil
}

// EnqueueAsync hands a notification to the worker without blocking.
func (s *NotificationService) EnqueueAsync(n Notification) {
	select {
	case s.queue <- n:
	default:
		s.metrics.NotificationsDropped.Inc()
		s.log.Warn("notification buffer full, dropping message",
			zap.String("kind", n.Kind),
			zap.String("to", n.To),
		)
	}
}

func (s *NotificationService) Shutdown() {
	close(s.queue)
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("notification service shutdown timed out; some messages may be lost")
	}
}

func (s *NotificationService) worker() {
	defer close(s.done)
	for n := range s.queue {
		if err := s.mailer.Send(n.To, n.Subject, n.Body); err != nil {
			s.log.Error("failed to send notification email",
				zap.String("kind", n.Kind),
				zap.Error(err),
			)
			continue
		}
		s.metrics.NotificationsSent.WithLabelValues(n.Kind).Inc()
	}
}

func welcomeEmail(to, username string) Notification {
	return Notification{
		Kind:    "welcome",
		To:      to,
		Subject: "Welcome to VetLink",
		Body: fmt.Sprintf("Hi %s,\n\nYour VetLink account is ready. "+
			"You can now book appointments, manage pet profiles and reach nearby pharmacies.\n\n"+
			"The VetLink Team", username),
	}
}

func passwordResetEmail(to, resetURL string) Notification {
	return Notification{
		Kind:    "password_reset",
		To:      to,
		Subject: "Reset your VetLink password",
		Body: fmt.Sprintf("We received a request to reset your password.\n\n"+
			"Open the link below within 1 hour to choose a new one:\n%s\n\n"+
			"If you did not request this, you can ignore this email.", resetURL),
	}
}

func appointmentBookedEmail(to, ownerName, date, tod string) Notification {
	return Notification{
		Kind:    "appointment_booked",
		To:      to,
		Subject: "New appointment request",
		Body: fmt.Sprintf("%s has requested an appointment on %s at %s.\n\n"+
			"Please accept or reject it from your dashboard.", ownerName, date, tod),
	}
}

func appointmentStatusEmail(to, date, tod, status string) Notification {
	return Notification{
		Kind:    "appointment_status",
		To:      to,
		Subject: fmt.Sprintf("Appointment %s", status),
		Body: fmt.Sprintf("Your appointment on %s at %s is now %s.\n\n"+
			"Log in to VetLink for details.", date, tod, status),
	}
}

func contactFormEmail(adminEmail, name, email, subject, message string) Notification {
	return Notification{
		Kind:    "contact_form",
		To:      adminEmail,
		Subject: fmt.Sprintf("Contact form: %s", subject),
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", name, email, message),
	}
}

func contactConfirmationEmail(to, name string) Notification {
	return Notification{
		Kind:    "contact_confirmation",
		To:      to,
		Subject: "We received your message",
		Body: fmt.Sprintf("Hi %s,\n\nThanks for reaching out. "+
			"Our team will get back to you as soon as possible.\n\n"+
			"The VetLink Team", name),
	}
}
