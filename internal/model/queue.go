package model

import "fmt"

// QueueEntry is one issued position in a doctor's visit queue.
type QueueEntry struct {
	ID          int64  `json:"id" db:"id"`
	PatientID   int64  `json:"patient_id" db:"patient_id"`
	DoctorID    int64  `json:"doctor_id" db:"doctor_id"`
	QueueNumber string `json:"queue_number" db:"queue_number"`
	CreatedAt   string `json:"created_at" db:"created_at"`
}

// QueueTicket is a queue entry joined with the patient it was issued to.
type QueueTicket struct {
	QueueEntry
	PatientUsername string          `json:"patient_username"`
	Patient         *PatientProfile `json:"patient"`
}

// FormatQueueNumber renders the n-th number of a doctor's queue, e.g. "1-01".
func FormatQueueNumber(doctorID int64, n int) string {
	return fmt.Sprintf("%d-%02d", doctorID, n)
}

type IssueQueueRequest struct {
	DoctorID int64 `json:"doctor_id" binding:"required,min=1"`
}
