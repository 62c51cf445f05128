package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medagenda/scheduling-api/internal/repository"
	"github.com/medagenda/scheduling-api/pkg/event"
	"github.com/medagenda/scheduling-api/pkg/logger"
)

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Notifier turns appointment lifecycle events into patient emails.
type Notifier struct {
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	dialer   *gomail.Dialer
	from     string
	logger   *logger.Logger
}

func NewNotifier(
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	cfg SMTPConfig,
	logger *logger.Logger,
) *Notifier {
	return &Notifier{
		patients: patients,
		doctors:  doctors,
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:     cfg.From,
		logger:   logger,
	}
}

// HandleMessage decodes one broker message and sends the matching email.
// Unknown event types are ignored so new producers can roll out first.
func (n *Notifier) HandleMessage(ctx context.Context, payload []byte) error {
	var evt event.AppointmentEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}

	subject, body, ok := n.render(ctx, &evt)
	if !ok {
		n.logger.Info("Skipping unknown event type", "event_type", evt.EventType)
		return nil
	}

	patient, err := n.patients.Get(ctx, evt.PatientID)
	if err != nil {
		return fmt.Errorf("failed to load patient for notification: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", patient.Email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}

	n.logger.Info("Notification sent",
		"event_type", evt.EventType,
		"appointment_id", evt.AppointmentID,
	)
	return nil
}

func (n *Notifier) render(ctx context.Context, evt *event.AppointmentEvent) (subject, body string, ok bool) {
	doctorName := "your doctor"
	if doctor, err := n.doctors.Get(ctx, evt.DoctorID); err == nil {
		doctorName = "Dr. " + doctor.Name
	}

	when := fmt.Sprintf("%s at %s", evt.Date, evt.Start)

	switch evt.EventType {
	case event.TypeAppointmentBooked:
		return "Appointment booked",
			fmt.Sprintf("Your appointment with %s is booked for %s.", doctorName, when), true
	case event.TypeAppointmentConfirmed:
		return "Appointment confirmed",
			fmt.Sprintf("Your appointment with %s on %s is confirmed.", doctorName, when), true
	case event.TypeAppointmentCancelled:
		return "Appointment cancelled",
			fmt.Sprintf("Your appointment with %s on %s was cancelled.", doctorName, when), true
	case event.TypeAppointmentRescheduled:
		return "Appointment rescheduled",
			fmt.Sprintf("Your appointment with %s was moved. The previous slot on %s is released.", doctorName, when), true
	case event.TypeAppointmentCompleted:
		return "Thanks for your visit",
			fmt.Sprintf("Your appointment with %s on %s is complete.", doctorName, when), true
	default:
		return "", "", false
	}
}
