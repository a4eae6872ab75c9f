package handlers

import (
	"log"
	"strconv"

	"github.com/feirahub/commission-engine/app/dto"
	businessflow "github.com/feirahub/commission-engine/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type CommissionRateHandlerInterface interface {
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

type CommissionRateHandler struct {
	flow      businessflow.CommissionRateFlow
	validator *validator.Validate
}

func NewCommissionRateHandler(flow businessflow.CommissionRateFlow) *CommissionRateHandler {
	return &CommissionRateHandler{flow: flow, validator: validator.New()}
}

func (h *CommissionRateHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: errorCode, Details: details},
	})
}

func (h *CommissionRateHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// Create configures the commission rate for a product category
// @Summary Create Commission Rate
// @Tags CommissionRates
// @Accept json
// @Produce json
// @Param request body dto.CreateCommissionRateRequest true "Commission rate data"
// @Success 201 {object} dto.APIResponse{data=dto.CommissionRateDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/commission-rates [post]
func (h *CommissionRateHandler) Create(c fiber.Ctx) error {
	var req dto.CreateCommissionRateRequest
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

	result, err := h.flow.CreateRate(requestContext(c, "/api/v1/commission-rates"), &req, metadata)
	if err != nil {
		return h.mapRateError(c, err, "Create commission rate failed", "CREATE_RATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Commission rate created", result)
}

// Update modifies an existing commission rate
// @Summary Update Commission Rate
// @Tags CommissionRates
// @Accept json
// @Produce json
// @Param id path int true "Rate ID"
// @Param request body dto.UpdateCommissionRateRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.CommissionRateDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/commission-rates/{id} [put]
func (h *CommissionRateHandler) Update(c fiber.Ctx) error {
	rateID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rate ID", "INVALID_RATE_ID", nil)
	}

	var req dto.UpdateCommissionRateRequest
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

	result, err := h.flow.UpdateRate(requestContext(c, "/api/v1/commission-rates/:id"), rateID, &req, metadata)
	if err != nil {
		return h.mapRateError(c, err, "Update commission rate failed", "UPDATE_RATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Commission rate updated", result)
}

// Delete soft-deletes a commission rate without recorded transactions
// @Summary Delete Commission Rate
// @Tags CommissionRates
// @Produce json
// @Param id path int true "Rate ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/commission-rates/{id} [delete]
func (h *CommissionRateHandler) Delete(c fiber.Ctx) error {
	rateID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rate ID", "INVALID_RATE_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	if err := h.flow.DeleteRate(requestContext(c, "/api/v1/commission-rates/:id"), rateID, metadata); err != nil {
		return h.mapRateError(c, err, "Delete commission rate failed", "DELETE_RATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Commission rate deleted", nil)
}

// Get retrieves a single commission rate
// @Summary Get Commission Rate
// @Tags CommissionRates
// @Produce json
// @Param id path int true "Rate ID"
// @Success 200 {object} dto.APIResponse{data=dto.CommissionRateDTO}
// @Failure 404 {object} dto.APIResponse
// @Router /api/v1/commission-rates/{id} [get]
func (h *CommissionRateHandler) Get(c fiber.Ctx) error {
	rateID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rate ID", "INVALID_RATE_ID", nil)
	}

	result, err := h.flow.GetRate(requestContext(c, "/api/v1/commission-rates/:id"), rateID)
	if err != nil {
		return h.mapRateError(c, err, "Get commission rate failed", "GET_RATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Commission rate retrieved", result)
}

// List lists commission rates with optional filters
// @Summary List Commission Rates
// @Tags CommissionRates
// @Produce json
// @Param category_id query int false "Filter by category"
// @Param is_active query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListCommissionRatesResponse}
// @Router /api/v1/commission-rates [get]
func (h *CommissionRateHandler) List(c fiber.Ctx) error {
	var req dto.ListCommissionRatesRequest
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

	result, err := h.flow.ListRates(requestContext(c, "/api/v1/commission-rates"), &req)
	if err != nil {
		return h.mapRateError(c, err, "List commission rates failed", "LIST_RATES_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Commission rates retrieved", result)
}

func (h *CommissionRateHandler) mapRateError(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsCommissionRateNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Commission rate not found", "RATE_NOT_FOUND", nil)
	}
	if businessflow.IsCategoryRateConflict(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Category already has an active rate", "CATEGORY_RATE_CONFLICT", nil)
	}
	if businessflow.IsRateHasTransactions(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Rate has recorded transactions, deactivate instead", "RATE_HAS_TRANSACTIONS", nil)
	}
	if businessflow.IsInvalidCommissionType(err) || businessflow.IsInvalidCommissionValue(err) || businessflow.IsInvalidRateBounds(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_RATE", nil)
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}
