package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pharmily/pharmily-api/internal/email"
	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/validator"
)

const sendTimeout = 30 * time.Second

type Service interface {
	// QueueIssued tells the patient their number. Delivery happens in the
	// background and failures are only logged.
	QueueIssued(ctx context.Context, patient *model.User, doctor *model.DoctorProfile, entry *model.QueueEntry)
}

type service struct {
	emailSvc email.Service
	validate validator.Validator
	async    bool
}

func NewService(emailSvc email.Service, validate validator.Validator) Service {
	return &service{
		emailSvc: emailSvc,
		validate: validate,
		async:    true,
	}
}

func (s *service) QueueIssued(ctx context.Context, patient *model.User, doctor *model.DoctorProfile, entry *model.QueueEntry) {
	// usernames are only sometimes email addresses
	if err := s.validate.ValidateField("username", patient.Username, "required", "email"); err != nil {
		return
	}

	name := patient.Username
	if p, ok := patient.Patient(); ok && p.Name != "" {
		name = p.Name
	}
	subject := fmt.Sprintf("Nomor antrean %s", entry.QueueNumber)
	content := fmt.Sprintf(
		"Halo %s,\n\nNomor antrean Anda: %s\nDokter: %s\nRumah sakit: %s\nWaktu: %s\n",
		name, entry.QueueNumber, doctor.Name, doctor.HospitalName, entry.CreatedAt,
	)

	send := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := s.emailSvc.SendCustom(ctx, patient.Username, subject, content); err != nil {
			log.Warn().Err(err).
				Int64("patient_id", patient.ID).
				Str("queue_number", entry.QueueNumber).
				Msg("Failed to send queue notification")
		}
	}

	if !s.async {
		send(ctx)
		return
	}
	// the request context ends with the response
	go send(context.WithoutCancel(ctx))
}
