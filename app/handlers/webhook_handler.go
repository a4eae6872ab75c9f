package handlers

import (
	"errors"
	"log"

	"github.com/feirahub/commission-engine/app/dto"
	"github.com/feirahub/commission-engine/app/services"
	businessflow "github.com/feirahub/commission-engine/business_flow"
	"github.com/feirahub/commission-engine/utils"
	"github.com/gofiber/fiber/v3"
)

type WebhookHandlerInterface interface {
	GatewayWebhook(c fiber.Ctx) error
}

type WebhookHandler struct {
	flow businessflow.WebhookFlow
}

func NewWebhookHandler(flow businessflow.WebhookFlow) *WebhookHandler {
	return &WebhookHandler{flow: flow}
}

func (h *WebhookHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: errorCode, Details: details},
	})
}

// GatewayWebhook ingests a payment gateway notification. The raw body is
// handed to the flow untouched so the signature check covers exactly the
// bytes the gateway signed.
// @Summary Gateway Webhook
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookAckResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 502 {object} dto.APIResponse
// @Router /api/v1/webhooks/gateway [post]
func (h *WebhookHandler) GatewayWebhook(c fiber.Ctx) error {
	rawBody := c.Body()
	signature := firstSignatureHeader(c)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	ack, err := h.flow.Ingest(requestContext(c, "/api/v1/webhooks/gateway"), rawBody, signature, metadata)
	if err != nil {
		if businessflow.IsWebhookSignatureMissing(err) || businessflow.IsWebhookSignatureInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Webhook signature rejected", "INVALID_SIGNATURE", nil)
		}
		if businessflow.IsWebhookPayloadInvalid(err) || businessflow.IsWebhookPaymentIDRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Webhook payload rejected", "INVALID_PAYLOAD", nil)
		}
		if errors.Is(err, services.ErrGatewayPaymentNotFound) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Payment unknown to gateway", "PAYMENT_NOT_FOUND", nil)
		}
		if errors.Is(err, services.ErrGatewayUnavailable) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Gateway lookup failed", "GATEWAY_UNAVAILABLE", nil)
		}

		// 5xx so the gateway redelivers; the idempotency key makes the
		// retry safe.
		log.Println("Webhook processing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Webhook processing failed", "WEBHOOK_FAILED", nil)
	}

	return c.Status(fiber.StatusOK).JSON(ack)
}

// firstSignatureHeader returns the first populated accepted signature header
func firstSignatureHeader(c fiber.Ctx) string {
	for _, header := range []string{
		utils.WebhookSignatureHeaderAsaas,
		utils.WebhookSignatureHeaderX,
		utils.WebhookSignatureHeaderGeneric,
	} {
		if value := c.Get(header); value != "" {
			return value
		}
	}
	return ""
}
