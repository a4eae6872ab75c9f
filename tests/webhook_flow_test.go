package tests

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/feirahub/commission-engine/app/services"
	businessflow "github.com/feirahub/commission-engine/business_flow"
	"github.com/feirahub/commission-engine/config"
	"github.com/feirahub/commission-engine/models"
	"github.com/feirahub/commission-engine/repository"
	testingutil "github.com/feirahub/commission-engine/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "test-webhook-secret"

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookFlow(testDB *testingutil.TestDB, gateway services.GatewayClient) (businessflow.WebhookFlow, repository.WebhookEventRepository, repository.SubscriptionRepository) {
	webhookRepo := repository.NewWebhookEventRepository(testDB.DB)
	subscriptionRepo := repository.NewSubscriptionRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	gatewayCfg := config.GatewayConfig{
		BaseURL:       "https://gateway.test",
		APIKey:        "test-key",
		WebhookSecret: testWebhookSecret,
		Timeout:       2 * time.Second,
	}

	flow := businessflow.NewWebhookFlow(webhookRepo, subscriptionRepo, auditRepo, gateway, gatewayCfg, testDB.DB)
	return flow, webhookRepo, subscriptionRepo
}

func webhookBody(event, paymentID, dateCreated string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"payment":{"id":%q},"dateCreated":%q}`, event, paymentID, dateCreated))
}

func TestWebhookIngestion(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		gateway := services.NewMockGatewayClient()
		flow, webhookRepo, subscriptionRepo := newWebhookFlow(testDB, gateway)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")

		store, err := fixtures.CreateTestStore()
		require.NoError(t, err)
		subscription, err := fixtures.CreateTestSubscription(store.ID, models.SubscriptionStatusPending)
		require.NoError(t, err)

		gateway.RegisterPayment(&services.GatewayPayment{
			ID:       "pay_confirm_1",
			Customer: subscription.GatewayCustomerID,
			Status:   services.GatewayPaymentStatusConfirmed,
			Value:    49.90,
		})

		t.Run("ConfirmedPaymentActivatesSubscription", func(t *testing.T) {
			body := webhookBody("PAYMENT_CONFIRMED", "pay_confirm_1", "2026-08-30 10:00:00")

			ack, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.NoError(t, err)
			require.NotNil(t, ack)
			assert.True(t, ack.Received)
			assert.False(t, ack.Duplicate)

			updated, err := subscriptionRepo.ByStoreID(context.Background(), store.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, models.SubscriptionStatusActive, updated.Status)
			assert.NotNil(t, updated.ActivatedAt)
			assert.Equal(t, "pay_confirm_1", updated.GatewayPaymentID)

			key := businessflow.DeriveIdempotencyKey("PAYMENT_CONFIRMED", "pay_confirm_1", "2026-08-30 10:00:00")
			stored, err := webhookRepo.ByIdempotencyKey(context.Background(), key)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.WebhookEventStatusCompleted, stored.Status)
		})

		t.Run("RedeliveryShortCircuits", func(t *testing.T) {
			body := webhookBody("PAYMENT_CONFIRMED", "pay_confirm_1", "2026-08-30 10:00:00")
			lookupsBefore := len(gateway.Lookups())

			ack, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.NoError(t, err)
			require.NotNil(t, ack)
			assert.True(t, ack.Received)
			assert.True(t, ack.Duplicate)
			assert.Equal(t, string(models.WebhookEventStatusCompleted), ack.Status)

			// No second gateway lookup on replay
			assert.Len(t, gateway.Lookups(), lookupsBefore)
		})

		t.Run("OverduePaymentCancelsSubscription", func(t *testing.T) {
			gateway.RegisterPayment(&services.GatewayPayment{
				ID:       "pay_overdue_1",
				Customer: subscription.GatewayCustomerID,
				Status:   services.GatewayPaymentStatusOverdue,
				Value:    49.90,
			})
			body := webhookBody("PAYMENT_OVERDUE", "pay_overdue_1", "2026-08-31 10:00:00")

			_, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.NoError(t, err)

			updated, err := subscriptionRepo.ByStoreID(context.Background(), store.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, models.SubscriptionStatusCancelled, updated.Status)
			assert.NotNil(t, updated.CancelledAt)
		})

		t.Run("UnmappedStatusIsNoOp", func(t *testing.T) {
			gateway.RegisterPayment(&services.GatewayPayment{
				ID:       "pay_pending_1",
				Customer: subscription.GatewayCustomerID,
				Status:   services.GatewayPaymentStatusPending,
				Value:    49.90,
			})
			body := webhookBody("PAYMENT_CREATED", "pay_pending_1", "2026-08-31 11:00:00")

			ack, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.NoError(t, err)
			assert.True(t, ack.Received)

			// Subscription untouched (still cancelled from the previous case)
			updated, err := subscriptionRepo.ByStoreID(context.Background(), store.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SubscriptionStatusCancelled, updated.Status)
		})

		t.Run("UnmatchedReferenceIsNoOp", func(t *testing.T) {
			gateway.RegisterPayment(&services.GatewayPayment{
				ID:       "pay_orphan_1",
				Customer: "cus_nobody",
				Status:   services.GatewayPaymentStatusConfirmed,
				Value:    49.90,
			})
			body := webhookBody("PAYMENT_CONFIRMED", "pay_orphan_1", "2026-08-31 12:00:00")

			ack, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.NoError(t, err)
			assert.True(t, ack.Received)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestWebhookRejections(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		gateway := services.NewMockGatewayClient()
		flow, webhookRepo, _ := newWebhookFlow(testDB, gateway)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")

		t.Run("MissingSignature", func(t *testing.T) {
			body := webhookBody("PAYMENT_CONFIRMED", "pay_x", "2026-08-30 10:00:00")
			_, err := flow.Ingest(context.Background(), body, "", metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsWebhookSignatureMissing(err))
		})

		t.Run("ForgedSignature", func(t *testing.T) {
			body := webhookBody("PAYMENT_CONFIRMED", "pay_x", "2026-08-30 10:00:00")
			_, err := flow.Ingest(context.Background(), body, "deadbeef", metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsWebhookSignatureInvalid(err))

			// Nothing was looked up or persisted
			assert.Empty(t, gateway.Lookups())
		})

		t.Run("TamperedBody", func(t *testing.T) {
			body := webhookBody("PAYMENT_CONFIRMED", "pay_x", "2026-08-30 10:00:00")
			signature := signBody(body)
			tampered := webhookBody("PAYMENT_CONFIRMED", "pay_y", "2026-08-30 10:00:00")

			_, err := flow.Ingest(context.Background(), tampered, signature, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsWebhookSignatureInvalid(err))
		})

		t.Run("MalformedPayload", func(t *testing.T) {
			body := []byte("{not json")
			_, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsWebhookPayloadInvalid(err))
		})

		t.Run("MissingPaymentID", func(t *testing.T) {
			body := []byte(`{"event":"PAYMENT_CONFIRMED","payment":{"id":""}}`)
			_, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsWebhookPaymentIDRequired(err))
		})

		t.Run("SignaturePrefixAccepted", func(t *testing.T) {
			gateway.RegisterPayment(&services.GatewayPayment{
				ID:     "pay_prefixed_1",
				Status: services.GatewayPaymentStatusPending,
			})
			body := webhookBody("PAYMENT_CREATED", "pay_prefixed_1", "2026-08-30 10:00:00")

			ack, err := flow.Ingest(context.Background(), body, "sha256="+signBody(body), metadata)
			require.NoError(t, err)
			assert.True(t, ack.Received)
		})

		t.Run("Base64SignatureAccepted", func(t *testing.T) {
			gateway.RegisterPayment(&services.GatewayPayment{
				ID:     "pay_b64_1",
				Status: services.GatewayPaymentStatusPending,
			})
			body := webhookBody("PAYMENT_CREATED", "pay_b64_1", "2026-08-30 10:05:00")

			mac := hmac.New(sha256.New, []byte(testWebhookSecret))
			mac.Write(body)
			signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

			ack, err := flow.Ingest(context.Background(), body, signature, metadata)
			require.NoError(t, err)
			assert.True(t, ack.Received)
		})

		t.Run("GatewayUnknownPaymentMarksEventFailed", func(t *testing.T) {
			body := webhookBody("PAYMENT_CONFIRMED", "pay_ghost_1", "2026-08-30 10:00:00")

			_, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.Error(t, err)

			key := businessflow.DeriveIdempotencyKey("PAYMENT_CONFIRMED", "pay_ghost_1", "2026-08-30 10:00:00")
			stored, err := webhookRepo.ByIdempotencyKey(context.Background(), key)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.WebhookEventStatusFailed, stored.Status)
			assert.NotEmpty(t, stored.ErrorMessage)
		})

		t.Run("GatewayOutageMarksEventFailed", func(t *testing.T) {
			gateway.FailWith(services.ErrGatewayUnavailable)
			defer gateway.FailWith(nil)

			body := webhookBody("PAYMENT_CONFIRMED", "pay_down_1", "2026-08-30 10:00:00")
			_, err := flow.Ingest(context.Background(), body, signBody(body), metadata)
			require.Error(t, err)

			key := businessflow.DeriveIdempotencyKey("PAYMENT_CONFIRMED", "pay_down_1", "2026-08-30 10:00:00")
			stored, err := webhookRepo.ByIdempotencyKey(context.Background(), key)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.WebhookEventStatusFailed, stored.Status)
		})

		return nil
	})
	require.NoError(t, err)
}
