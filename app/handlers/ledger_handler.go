package handlers

import (
	"log"

	"github.com/feirahub/commission-engine/app/dto"
	businessflow "github.com/feirahub/commission-engine/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type LedgerHandlerInterface interface {
	Record(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

type LedgerHandler struct {
	flow      businessflow.LedgerFlow
	validator *validator.Validate
}

func NewLedgerHandler(flow businessflow.LedgerFlow) *LedgerHandler {
	return &LedgerHandler{flow: flow, validator: validator.New()}
}

func (h *LedgerHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: errorCode, Details: details},
	})
}

func (h *LedgerHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// Record appends a commission ledger entry for a completed order
// @Summary Record Commission Transaction
// @Tags Ledger
// @Accept json
// @Produce json
// @Param request body dto.RecordTransactionRequest true "Order data"
// @Success 201 {object} dto.APIResponse{data=dto.CommissionTransactionDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/commission-transactions [post]
func (h *LedgerHandler) Record(c fiber.Ctx) error {
	var req dto.RecordTransactionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.flow.RecordTransaction(requestContext(c, "/api/v1/commission-transactions"), &req, metadata)
	if err != nil {
		if businessflow.IsStoreNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Store not found", "STORE_NOT_FOUND", nil)
		}
		if businessflow.IsStoreInactive(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Store is inactive", "STORE_INACTIVE", nil)
		}
		if businessflow.IsSubscriptionNotActive(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Store subscription is not active", "SUBSCRIPTION_NOT_ACTIVE", nil)
		}
		if businessflow.IsCommissionRateNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No active commission rate for category", "RATE_NOT_FOUND", nil)
		}
		if businessflow.IsOrderAlreadyRecorded(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Order already has a commission entry", "ORDER_ALREADY_RECORDED", nil)
		}
		if businessflow.IsInvalidOrderAmount(err) || businessflow.IsOrderIDRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_ORDER", nil)
		}

		log.Println("Record commission transaction failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Record commission transaction failed", "RECORD_TRANSACTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Commission transaction recorded", result)
}

// Get retrieves a single ledger entry
// @Summary Get Commission Transaction
// @Tags Ledger
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} dto.APIResponse{data=dto.CommissionTransactionDTO}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/commission-transactions/{id} [get]
func (h *LedgerHandler) Get(c fiber.Ctx) error {
	transactionID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid transaction ID", "INVALID_TRANSACTION_ID", nil)
	}

	result, err := h.flow.GetTransaction(requestContext(c, "/api/v1/commission-transactions/:id"), transactionID)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Commission transaction not found", "TRANSACTION_NOT_FOUND", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Commission transaction retrieved", result)
}

// List lists ledger entries with optional filters
// @Summary List Commission Transactions
// @Tags Ledger
// @Produce json
// @Param store_id query int false "Filter by store"
// @Param status query string false "Filter by status"
// @Param start_date query string false "Filter entries from date (YYYY-MM-DD)"
// @Param end_date query string false "Filter entries until date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.ListTransactionsResponse}
// @Router /api/v1/commission-transactions [get]
func (h *LedgerHandler) List(c fiber.Ctx) error {
	var req dto.ListTransactionsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.flow.ListTransactions(requestContext(c, "/api/v1/commission-transactions"), &req)
	if err != nil {
		log.Println("List commission transactions failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List commission transactions failed", "LIST_TRANSACTIONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Commission transactions retrieved", result)
}
