package dto

// GatewayWebhookPayment is the payment object embedded in gateway notifications
type GatewayWebhookPayment struct {
	ID       string  `json:"id"`
	Customer string  `json:"customer"`
	Status   string  `json:"status"`
	Value    float64 `json:"value"`
}

// GatewayWebhookRequest is the raw notification body sent by the payment gateway.
// It is parsed only after the HMAC signature over the raw body has been verified.
type GatewayWebhookRequest struct {
	Event       string                `json:"event"`
	Payment     GatewayWebhookPayment `json:"payment"`
	DateCreated string                `json:"dateCreated"`
}

// WebhookAckResponse acknowledges receipt of a gateway notification
type WebhookAckResponse struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Status    string `json:"status,omitempty"`
}
