package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/service/servicetest"
	"github.com/meditracker/patientflow-api/pkg/logger"
)

type fakeMailer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeMailer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestQueueTxWritesOutboxEvent(t *testing.T) {
	outbox := &servicetest.OutboxRepo{}
	events := NewEvents(outbox)

	patient := &model.Patient{
		Base:     model.Base{ID: uuid.New()},
		FullName: "Jane Doe",
		Email:    "jane@example.com",
	}
	err := events.QueueTx(context.Background(), nil, patient, "Visit Started", "Assigned to Dr. Alice Heart")
	require.NoError(t, err)

	require.Len(t, outbox.Events, 1)
	assert.Equal(t, model.EventTypeNotification, outbox.Events[0].EventType)
	assert.Equal(t, model.OutboxStatusPending, outbox.Events[0].Status)
	assert.Equal(t, []string{"Visit Started"}, outbox.Titles())
}

func TestDispatchSendsEmailWhenPatientHasOne(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, "noreply@meditracker.local", logger.NewLogger(nil), nil)

	d.Dispatch(&model.PatientNotification{
		PatientID: uuid.New(),
		Title:     "Payment Success",
		Body:      "Paid 300.00 for Consultation - Alice Heart",
		Email:     "jane@example.com",
	})

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"jane@example.com"}, mailer.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Payment Success"}, mailer.sent[0].GetHeader("Subject"))
}

func TestDispatchSkipsEmailWithoutAddress(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, "noreply@meditracker.local", logger.NewLogger(nil), nil)

	d.Dispatch(&model.PatientNotification{
		PatientID: uuid.New(),
		Title:     "Visit Completed",
		Body:      "Thank you for visiting.",
	})

	assert.Empty(t, mailer.sent)
}
