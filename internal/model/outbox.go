package model

import (
	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	// OutboxStatusProcessing marks rows claimed by a worker that has not finished them.
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusProcessed  OutboxStatus = "PROCESSED"
	OutboxStatusFailed     OutboxStatus = "FAILED"
)

const (
	EventPrescriptionCreated       = "PRESCRIPTION_CREATED"
	EventPrescriptionStatusUpdated = "PRESCRIPTION_STATUS_UPDATED"
	EventQueueEntryIssued          = "QUEUE_ENTRY_ISSUED"
)

type OutboxEvent struct {
	// Seq is assigned by the store and orders events by emission.
	Seq          int64     `db:"seq" json:"seq"`
	ID           uuid.UUID `db:"id" json:"id"`
	EventType    string    `db:"event_type" json:"event_type"`
	Payload      string    `db:"payload" json:"payload"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int       `db:"retry_count" json:"retry_count"`
	CreatedAt    string    `db:"created_at" json:"created_at"`
	ClaimedAt    *string   `db:"claimed_at" json:"claimed_at,omitempty"`
	ProcessedAt  *string   `db:"processed_at" json:"processed_at,omitempty"`
}
