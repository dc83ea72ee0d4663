package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_ReportsMissingWhatsAppSettings(t *testing.T) {
	err := Config{SlotOfferCount: 3}.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "WHATSAPP_TOKEN")
	require.Contains(t, err.Error(), "VERIFY_TOKEN")
}

func TestValidate_RejectsOfferCountAboveButtonLimit(t *testing.T) {
	cfg := Config{
		WhatsAppToken:         "token",
		WhatsAppPhoneNumberID: "123",
		VerifyToken:           "verify",
		SlotOfferCount:        4,
	}
	require.Error(t, cfg.Validate())

	cfg.SlotOfferCount = 3
	require.NoError(t, cfg.Validate())
}
