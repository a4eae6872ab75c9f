// Package businessflow contains the core business logic for gateway webhook ingestion
package businessflow

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/feirahub/commission-engine/app/dto"
	"github.com/feirahub/commission-engine/app/services"
	"github.com/feirahub/commission-engine/config"
	"github.com/feirahub/commission-engine/models"
	"github.com/feirahub/commission-engine/repository"
	"github.com/feirahub/commission-engine/utils"
	"gorm.io/gorm"
)

// subscriptionEffect describes what a gateway payment status does to the
// referenced subscription.
type subscriptionEffect struct {
	TargetStatus models.SubscriptionStatus
	Description  string
}

// paymentStatusEffects maps gateway payment statuses to subscription effects.
// Statuses not in the table leave the subscription pending.
var paymentStatusEffects = map[string]subscriptionEffect{
	services.GatewayPaymentStatusReceived:  {models.SubscriptionStatusActive, "payment received"},
	services.GatewayPaymentStatusConfirmed: {models.SubscriptionStatusActive, "payment confirmed"},
	services.GatewayPaymentStatusOverdue:   {models.SubscriptionStatusCancelled, "payment overdue"},
	services.GatewayPaymentStatusRefunded:  {models.SubscriptionStatusCancelled, "payment refunded"},
}

// WebhookFlow handles gateway notification ingestion
type WebhookFlow interface {
	Ingest(ctx context.Context, rawBody []byte, signature string, metadata *ClientMetadata) (*dto.WebhookAckResponse, error)
}

// WebhookFlowImpl implements the webhook ingestion business flow
type WebhookFlowImpl struct {
	webhookRepo      repository.WebhookEventRepository
	subscriptionRepo repository.SubscriptionRepository
	auditRepo        repository.AuditLogRepository
	gateway          services.GatewayClient
	gatewayCfg       config.GatewayConfig
	db               *gorm.DB
}

// NewWebhookFlow creates a new webhook flow instance
func NewWebhookFlow(
	webhookRepo repository.WebhookEventRepository,
	subscriptionRepo repository.SubscriptionRepository,
	auditRepo repository.AuditLogRepository,
	gateway services.GatewayClient,
	gatewayCfg config.GatewayConfig,
	db *gorm.DB,
) WebhookFlow {
	return &WebhookFlowImpl{
		webhookRepo:      webhookRepo,
		subscriptionRepo: subscriptionRepo,
		auditRepo:        auditRepo,
		gateway:          gateway,
		gatewayCfg:       gatewayCfg,
		db:               db,
	}
}

// Ingest processes one gateway notification at most once. The HMAC signature
// is verified over the raw body before any parsing. The unique idempotency
// key insert is the concurrency mutex: concurrent deliveries of the same
// logical event race to insert it, exactly one wins and runs side effects,
// the loser reads back the stored outcome. The gateway lookup runs outside
// the local transaction so locks are never held across network calls.
func (f *WebhookFlowImpl) Ingest(ctx context.Context, rawBody []byte, signature string, metadata *ClientMetadata) (*dto.WebhookAckResponse, error) {
	if err := f.verifySignature(rawBody, signature); err != nil {
		webhookEventsTotal.WithLabelValues(webhookOutcomeRejected).Inc()
		return nil, NewBusinessError("WEBHOOK_REJECTED", "Webhook rejected", err)
	}

	var payload dto.GatewayWebhookRequest
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		webhookEventsTotal.WithLabelValues(webhookOutcomeRejected).Inc()
		return nil, NewBusinessError("WEBHOOK_REJECTED", "Webhook rejected", ErrWebhookPayloadInvalid)
	}
	if payload.Payment.ID == "" {
		webhookEventsTotal.WithLabelValues(webhookOutcomeRejected).Inc()
		return nil, NewBusinessError("WEBHOOK_REJECTED", "Webhook rejected", ErrWebhookPaymentIDRequired)
	}

	event := &models.WebhookEvent{
		IdempotencyKey: DeriveIdempotencyKey(payload.Event, payload.Payment.ID, payload.DateCreated),
		EventType:      payload.Event,
		PaymentID:      payload.Payment.ID,
		Status:         models.WebhookEventStatusProcessing,
	}
	if err := f.webhookRepo.Save(ctx, event); err != nil {
		if repository.IsUniqueViolation(err) {
			return f.replayStoredOutcome(ctx, event.IdempotencyKey, metadata)
		}
		return nil, NewBusinessError("WEBHOOK_FAILED", "Webhook processing failed", err)
	}

	ack, err := f.process(ctx, event, &payload, metadata)
	if err != nil {
		errMsg := err.Error()
		if markErr := f.webhookRepo.MarkFailed(ctx, event.ID, errMsg, utils.UTCNow()); markErr != nil {
			log.Println("Failed to mark webhook event failed", markErr)
		}
		webhookEventsTotal.WithLabelValues(webhookOutcomeFailed).Inc()
		description := fmt.Sprintf("Webhook %s for payment %s failed", event.EventType, event.PaymentID)
		if auditErr := createAuditLog(ctx, f.auditRepo, nil, models.AuditActionWebhookFailed, description, false, &errMsg, metadata); auditErr != nil {
			log.Println("Failed to create audit log for webhook failure", auditErr)
		}
		return nil, err
	}

	if markErr := f.webhookRepo.MarkCompleted(ctx, event.ID, utils.UTCNow()); markErr != nil {
		log.Println("Failed to mark webhook event completed", markErr)
	}
	webhookEventsTotal.WithLabelValues(webhookOutcomeCompleted).Inc()
	description := fmt.Sprintf("Webhook %s for payment %s processed", event.EventType, event.PaymentID)
	if err := createAuditLog(ctx, f.auditRepo, nil, models.AuditActionWebhookProcessed, description, true, nil, metadata); err != nil {
		log.Println("Failed to create audit log for webhook", err)
	}

	return ack, nil
}

// process runs the side effects for a freshly inserted event
func (f *WebhookFlowImpl) process(ctx context.Context, event *models.WebhookEvent, payload *dto.GatewayWebhookRequest, metadata *ClientMetadata) (*dto.WebhookAckResponse, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, f.gatewayCfg.Timeout)
	defer cancel()

	payment, err := f.gateway.GetPayment(lookupCtx, payload.Payment.ID)
	if err != nil {
		if errors.Is(err, services.ErrGatewayPaymentNotFound) {
			return nil, NewBusinessError("WEBHOOK_PAYMENT_UNKNOWN", "Payment unknown to gateway", err)
		}
		return nil, NewBusinessError("WEBHOOK_GATEWAY_UNAVAILABLE", "Gateway lookup failed", err)
	}

	effect, known := paymentStatusEffects[payment.Status]
	if !known {
		// Nothing to do yet; acknowledge so the gateway stops retrying.
		return &dto.WebhookAckResponse{Received: true, Status: string(models.WebhookEventStatusCompleted)}, nil
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		subscription, err := f.subscriptionRepo.ByGatewayCustomerID(txCtx, payment.Customer)
		if err != nil {
			return err
		}
		if subscription == nil {
			subscription, err = f.subscriptionRepo.ByGatewayPaymentID(txCtx, payment.ID)
			if err != nil {
				return err
			}
		}
		if subscription == nil {
			// Unmatched reference is a graceful no-op, not a failure.
			return nil
		}

		now := utils.UTCNow()
		subscription.GatewayPaymentID = payment.ID
		subscription.Status = effect.TargetStatus
		switch effect.TargetStatus {
		case models.SubscriptionStatusActive:
			subscription.ActivatedAt = &now
			subscription.CancelledAt = nil
		case models.SubscriptionStatusCancelled:
			subscription.CancelledAt = &now
		}
		return f.subscriptionRepo.Update(txCtx, subscription)
	})
	if err != nil {
		return nil, NewBusinessError("WEBHOOK_FAILED", "Webhook processing failed", err)
	}

	return &dto.WebhookAckResponse{Received: true, Status: string(models.WebhookEventStatusCompleted)}, nil
}

// replayStoredOutcome handles a redelivery: the idempotency key already
// exists, so the stored outcome is returned without re-running side effects.
func (f *WebhookFlowImpl) replayStoredOutcome(ctx context.Context, idempotencyKey string, metadata *ClientMetadata) (*dto.WebhookAckResponse, error) {
	stored, err := f.webhookRepo.ByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, NewBusinessError("WEBHOOK_FAILED", "Webhook processing failed", err)
	}
	if stored == nil {
		return nil, NewBusinessError("WEBHOOK_FAILED", "Webhook processing failed", gorm.ErrRecordNotFound)
	}

	webhookEventsTotal.WithLabelValues(webhookOutcomeDuplicate).Inc()
	description := fmt.Sprintf("Duplicate webhook %s for payment %s short-circuited", stored.EventType, stored.PaymentID)
	if err := createAuditLog(ctx, f.auditRepo, nil, models.AuditActionWebhookDuplicate, description, true, nil, metadata); err != nil {
		log.Println("Failed to create audit log for duplicate webhook", err)
	}

	return &dto.WebhookAckResponse{
		Received:  true,
		Duplicate: true,
		Status:    string(stored.Status),
	}, nil
}

// verifySignature checks the HMAC-SHA256 signature over the raw body against
// the shared webhook secret. Verification happens before JSON parsing so a
// mutated body can never bypass it.
func (f *WebhookFlowImpl) verifySignature(rawBody []byte, signature string) error {
	if signature == "" {
		return ErrWebhookSignatureMissing
	}

	mac := hmac.New(sha256.New, []byte(f.gatewayCfg.WebhookSecret))
	mac.Write(rawBody)
	digest := mac.Sum(nil)

	// Gateways disagree on the digest encoding; both hex and base64 are seen
	// in the wild.
	provided := strings.TrimPrefix(signature, "sha256=")
	if hmac.Equal([]byte(strings.ToLower(provided)), []byte(hex.EncodeToString(digest))) {
		return nil
	}
	if hmac.Equal([]byte(provided), []byte(base64.StdEncoding.EncodeToString(digest))) {
		return nil
	}
	return ErrWebhookSignatureInvalid
}

// DeriveIdempotencyKey builds the deterministic key that identifies one
// logical gateway event across redeliveries. Components are length-prefixed
// before hashing so no two distinct (eventType, paymentID, timestamp) triples
// can produce the same key. Events without a timestamp fall back to the
// ingestion time, so they are never deduplicated against each other.
func DeriveIdempotencyKey(eventType, paymentID, eventTimestamp string) string {
	if eventTimestamp == "" {
		eventTimestamp = utils.UTCNowRFC3339()
	}
	h := sha256.New()
	for _, part := range []string{eventType, paymentID, eventTimestamp} {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(part)))
		h.Write(length[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
