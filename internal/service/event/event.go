package event

import (
	"context"
)

// Emitter records domain events for asynchronous publication.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// PrescriptionCreated is the payload of model.EventPrescriptionCreated.
type PrescriptionCreated struct {
	ID          int64  `json:"id"`
	Filename    string `json:"pdf_filename"`
	QueueNumber string `json:"queue_number"`
	DoctorID    int64  `json:"doctor_id"`
	CreatedAt   string `json:"created_at"`
}

// PrescriptionStatusUpdated is the payload of model.EventPrescriptionStatusUpdated.
type PrescriptionStatusUpdated struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// QueueEntryIssued is the payload of model.EventQueueEntryIssued.
type QueueEntryIssued struct {
	QueueNumber string `json:"queue_number"`
	PatientID   int64  `json:"patient_id"`
	DoctorID    int64  `json:"doctor_id"`
	CreatedAt   string `json:"created_at"`
}
