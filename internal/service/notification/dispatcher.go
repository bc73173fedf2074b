package notification

import (
	"context"
	"encoding/json"

	"gopkg.in/gomail.v2"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/pkg/logger"
	"github.com/meditracker/patientflow-api/pkg/messaging"
	"github.com/meditracker/patientflow-api/pkg/metrics"
)

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Dispatcher consumes committed notification events from the broker and
// delivers them best-effort. The push channel is a logged placeholder for the
// hospital's FCM gateway; email is sent when the patient registered one.
type Dispatcher struct {
	mailer  MailSender
	from    string
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(mailer MailSender, from string, logger *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		mailer:  mailer,
		from:    from,
		logger:  logger,
		metrics: m,
	}
}

// Run blocks consuming the notification channel until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, broker messaging.Broker) error {
	msgs, err := broker.Subscribe(ctx, model.EventTypeNotification)
	if err != nil {
		return err
	}

	d.logger.Info("notification dispatcher started")
	for msg := range msgs {
		var n model.PatientNotification
		if err := json.Unmarshal(msg, &n); err != nil {
			d.logger.Error(err, "failed to decode notification payload")
			continue
		}
		d.Dispatch(&n)
	}
	return nil
}

func (d *Dispatcher) Dispatch(n *model.PatientNotification) {
	// FCM placeholder
	d.logger.ZL.Info().
		Str("patient_id", n.PatientID.String()).
		Str("title", n.Title).
		Str("body", n.Body).
		Msg("push notification dispatched")
	if d.metrics != nil {
		d.metrics.NotificationsDispatched.WithLabelValues("push", "success").Inc()
	}

	if n.Email == "" || d.mailer == nil {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", n.Email)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/plain", n.Body)

	if err := d.mailer.DialAndSend(m); err != nil {
		d.logger.Error(err, "failed to send notification email", "patient_id", n.PatientID.String())
		if d.metrics != nil {
			d.metrics.NotificationsDispatched.WithLabelValues("email", "error").Inc()
		}
		return
	}
	if d.metrics != nil {
		d.metrics.NotificationsDispatched.WithLabelValues("email", "success").Inc()
	}
}
