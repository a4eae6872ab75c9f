package utils

import (
	"time"
)

// Currency constants
const (
	// BRLCurrency is the only settlement currency the engine handles
	BRLCurrency = "BRL"
)

// Webhook constants
const (
	// WebhookSignatureHeaders are the header names accepted for the gateway
	// signature, checked in order. Asaas sends asaas-access-token; older
	// integrations used the generic names.
	WebhookSignatureHeaderAsaas   = "asaas-access-token"
	WebhookSignatureHeaderX       = "x-signature"
	WebhookSignatureHeaderGeneric = "signature"

	// DefaultGatewayTimeout bounds the payment lookup during webhook processing
	DefaultGatewayTimeout = 5 * time.Second
)

// Operator token constants
const (
	// OperatorTokenTTL is the time-to-live for operator access tokens (24 hours)
	OperatorTokenTTL = 24 * time.Hour
)
