package model

import (
	"github.com/google/uuid"
)

// EventTypeNotification is the outbox event type carrying patient
// notifications; the worker subscribes to the matching broker channel.
const EventTypeNotification = "NOTIFICATION"

// PatientNotification is the payload delivered to the notification worker.
// Delivery is best-effort; the push channel is a logged placeholder for the
// hospital's FCM gateway and email is used when the patient registered one.
type PatientNotification struct {
	PatientID uuid.UUID `json:"patient_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Email     string    `json:"email,omitempty"`
}
