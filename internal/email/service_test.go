package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewServiceDisabled(t *testing.T) {
	svc := NewService(Config{Enabled: false, Host: "smtp.example.com"})
	assert.IsType(t, noopService{}, svc)
	assert.NoError(t, svc.SendCustom(context.Background(), "a@b.c", "hi", "body"))
}

func TestNewServiceEnabled(t *testing.T) {
	svc := NewService(Config{Enabled: true, Host: "smtp.example.com", Port: 587, From: "clinic@example.com"})
	smtp, ok := svc.(*smtpService)
	if assert.True(t, ok) {
		assert.Equal(t, "clinic@example.com", smtp.from)
	}
}

func TestSMTPServiceHonorsCancelledContext(t *testing.T) {
	svc := NewService(Config{Enabled: true, Host: "127.0.0.1", Port: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendCustom(ctx, "a@b.c", "hi", "body")
	assert.ErrorIs(t, err, context.Canceled)
}
