package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
)

// Events queues patient notifications through the transactional outbox. The
// event row commits or rolls back with the owning operation; delivery happens
// after commit and never blocks it.
type Events struct {
	outbox repository.OutboxRepository
}

func NewEvents(outbox repository.OutboxRepository) *Events {
	return &Events{outbox: outbox}
}

func (e *Events) QueueTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient, title, body string) error {
	payload, err := json.Marshal(&model.PatientNotification{
		PatientID: patient.ID,
		Title:     title,
		Body:      body,
		Email:     patient.Email,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	return e.outbox.CreateTx(ctx, tx, &model.OutboxEvent{
		EventType: model.EventTypeNotification,
		Payload:   payload,
	})
}

// QueueBestEffortTx logs and swallows queueing failures; notifications must
// never fail the owning operation.
func (e *Events) QueueBestEffortTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient, title, body string) {
	if err := e.QueueTx(ctx, tx, patient, title, body); err != nil {
		log.Warn().Err(err).
			Str("patient_id", patient.ID.String()).
			Str("title", title).
			Msg("failed to queue notification, continuing")
	}
}
