package handlers

import (
	"log"

	"github.com/feirahub/commission-engine/app/dto"
	businessflow "github.com/feirahub/commission-engine/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type PayoutHandlerInterface interface {
	Create(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Report(c fiber.Ctx) error
}

type PayoutHandler struct {
	flow      businessflow.PayoutFlow
	validator *validator.Validate
}

func NewPayoutHandler(flow businessflow.PayoutFlow) *PayoutHandler {
	return &PayoutHandler{flow: flow, validator: validator.New()}
}

func (h *PayoutHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: errorCode, Details: details},
	})
}

func (h *PayoutHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// Create batches a store's calculated commissions for a period into a payout
// @Summary Create Payout
// @Tags Payouts
// @Accept json
// @Produce json
// @Param request body dto.CreatePayoutRequest true "Store and period"
// @Success 201 {object} dto.APIResponse{data=dto.CommissionPayoutDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/payouts [post]
func (h *PayoutHandler) Create(c fiber.Ctx) error {
	var req dto.CreatePayoutRequest
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

	result, err := h.flow.CreatePayout(requestContext(c, "/api/v1/payouts"), &req, metadata)
	if err != nil {
		if businessflow.IsStoreNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Store not found", "STORE_NOT_FOUND", nil)
		}
		if businessflow.IsPayoutAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Payout already exists for this store and period", "PAYOUT_ALREADY_EXISTS", nil)
		}
		if businessflow.IsNothingToPayOut(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "No calculated transactions in period", "NOTHING_TO_PAY_OUT", nil)
		}
		if businessflow.IsInvalidPeriod(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Period must be in YYYY-MM format", "INVALID_PERIOD", nil)
		}

		log.Println("Create payout failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create payout failed", "CREATE_PAYOUT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Payout created", result)
}

// UpdateStatus moves a payout through its lifecycle
// @Summary Update Payout Status
// @Tags Payouts
// @Accept json
// @Produce json
// @Param id path int true "Payout ID"
// @Param request body dto.UpdatePayoutStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=dto.CommissionPayoutDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/payouts/{id}/status [patch]
func (h *PayoutHandler) UpdateStatus(c fiber.Ctx) error {
	payoutID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid payout ID", "INVALID_PAYOUT_ID", nil)
	}

	operatorID, ok := c.Locals("operator_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Operator ID not found in context", "MISSING_OPERATOR_ID", nil)
	}

	var req dto.UpdatePayoutStatusRequest
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

	result, err := h.flow.UpdateStatus(requestContext(c, "/api/v1/payouts/:id/status"), payoutID, operatorID, &req, metadata)
	if err != nil {
		if businessflow.IsPayoutNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Payout not found", "PAYOUT_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidPayoutStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid payout status", "INVALID_PAYOUT_STATUS", nil)
		}
		if businessflow.IsInvalidPayoutTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Payout status transition not allowed", "INVALID_PAYOUT_TRANSITION", nil)
		}

		log.Println("Update payout status failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Update payout status failed", "UPDATE_PAYOUT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Payout status updated", result)
}

// Get retrieves a single payout
// @Summary Get Payout
// @Tags Payouts
// @Produce json
// @Param id path int true "Payout ID"
// @Success 200 {object} dto.APIResponse{data=dto.CommissionPayoutDTO}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/payouts/{id} [get]
func (h *PayoutHandler) Get(c fiber.Ctx) error {
	payoutID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid payout ID", "INVALID_PAYOUT_ID", nil)
	}

	result, err := h.flow.GetPayout(requestContext(c, "/api/v1/payouts/:id"), payoutID)
	if err != nil {
		if businessflow.IsPayoutNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Payout not found", "PAYOUT_NOT_FOUND", nil)
		}
		log.Println("Get payout failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get payout failed", "GET_PAYOUT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Payout retrieved", result)
}

// List lists payouts with optional filters
// @Summary List Payouts
// @Tags Payouts
// @Produce json
// @Param store_id query int false "Filter by store"
// @Param period query string false "Filter by period (YYYY-MM)"
// @Param status query string false "Filter by status"
// @Success 200 {object} dto.APIResponse{data=dto.ListPayoutsResponse}
// @Router /api/v1/payouts [get]
func (h *PayoutHandler) List(c fiber.Ctx) error {
	var req dto.ListPayoutsRequest
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

	result, err := h.flow.ListPayouts(requestContext(c, "/api/v1/payouts"), &req)
	if err != nil {
		log.Println("List payouts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List payouts failed", "LIST_PAYOUTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Payouts retrieved", result)
}

// Report downloads a payout's ledger breakdown as an xlsx workbook
// @Summary Download Payout Report
// @Tags Payouts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Payout ID"
// @Success 200 {file} binary
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/payouts/{id}/report [get]
func (h *PayoutHandler) Report(c fiber.Ctx) error {
	payoutID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid payout ID", "INVALID_PAYOUT_ID", nil)
	}

	contents, filename, err := h.flow.BuildPayoutReport(requestContext(c, "/api/v1/payouts/:id/report"), payoutID)
	if err != nil {
		if businessflow.IsPayoutNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Payout not found", "PAYOUT_NOT_FOUND", nil)
		}
		log.Println("Build payout report failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Build payout report failed", "PAYOUT_REPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Send(contents)
}
