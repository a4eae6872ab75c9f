// Package businessflow contains the core business logic for commission and payout workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Store-related errors
	ErrStoreNotFound         = errors.New("store not found")
	ErrStoreInactive         = errors.New("store is inactive")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrSubscriptionNotActive = errors.New("store subscription is not active")

	// Commission rate errors
	ErrCommissionRateNotFound = errors.New("commission rate not found")
	ErrCategoryRateConflict   = errors.New("category already has an active commission rate")
	ErrInvalidCommissionType  = errors.New("commission type must be percentage or fixed")
	ErrInvalidCommissionValue = errors.New("commission value must be positive")
	ErrInvalidRateBounds      = errors.New("min amount must be less than max amount")
	ErrRateHasTransactions    = errors.New("commission rate has recorded transactions")

	// Ledger errors
	ErrOrderAlreadyRecorded = errors.New("order already has a commission entry")
	ErrInvalidOrderAmount   = errors.New("order amount must be positive")
	ErrOrderIDRequired      = errors.New("order ID is required")

	// Payout errors
	ErrInvalidPeriod           = errors.New("period must be in YYYY-MM format")
	ErrPayoutNotFound          = errors.New("payout not found")
	ErrPayoutAlreadyExists     = errors.New("payout already exists for this store and period")
	ErrNothingToPayOut         = errors.New("no calculated transactions in period")
	ErrInvalidPayoutStatus     = errors.New("invalid payout status")
	ErrInvalidPayoutTransition = errors.New("payout status transition not allowed")

	// Webhook errors
	ErrWebhookSignatureMissing  = errors.New("webhook signature header is missing")
	ErrWebhookSignatureInvalid  = errors.New("webhook signature is invalid")
	ErrWebhookPayloadInvalid    = errors.New("webhook payload is malformed")
	ErrWebhookPaymentIDRequired = errors.New("webhook payment ID is required")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsStoreNotFound(err error) bool {
	return errors.Is(err, ErrStoreNotFound)
}

func IsStoreInactive(err error) bool {
	return errors.Is(err, ErrStoreInactive)
}

func IsSubscriptionNotFound(err error) bool {
	return errors.Is(err, ErrSubscriptionNotFound)
}

func IsSubscriptionNotActive(err error) bool {
	return errors.Is(err, ErrSubscriptionNotActive)
}

func IsCommissionRateNotFound(err error) bool {
	return errors.Is(err, ErrCommissionRateNotFound)
}

func IsCategoryRateConflict(err error) bool {
	return errors.Is(err, ErrCategoryRateConflict)
}

func IsInvalidCommissionType(err error) bool {
	return errors.Is(err, ErrInvalidCommissionType)
}

func IsInvalidCommissionValue(err error) bool {
	return errors.Is(err, ErrInvalidCommissionValue)
}

func IsInvalidRateBounds(err error) bool {
	return errors.Is(err, ErrInvalidRateBounds)
}

func IsRateHasTransactions(err error) bool {
	return errors.Is(err, ErrRateHasTransactions)
}

func IsOrderAlreadyRecorded(err error) bool {
	return errors.Is(err, ErrOrderAlreadyRecorded)
}

func IsInvalidOrderAmount(err error) bool {
	return errors.Is(err, ErrInvalidOrderAmount)
}

func IsOrderIDRequired(err error) bool {
	return errors.Is(err, ErrOrderIDRequired)
}

func IsInvalidPeriod(err error) bool {
	return errors.Is(err, ErrInvalidPeriod)
}

func IsPayoutNotFound(err error) bool {
	return errors.Is(err, ErrPayoutNotFound)
}

func IsPayoutAlreadyExists(err error) bool {
	return errors.Is(err, ErrPayoutAlreadyExists)
}

func IsNothingToPayOut(err error) bool {
	return errors.Is(err, ErrNothingToPayOut)
}

func IsInvalidPayoutStatus(err error) bool {
	return errors.Is(err, ErrInvalidPayoutStatus)
}

func IsInvalidPayoutTransition(err error) bool {
	return errors.Is(err, ErrInvalidPayoutTransition)
}

func IsWebhookSignatureMissing(err error) bool {
	return errors.Is(err, ErrWebhookSignatureMissing)
}

func IsWebhookSignatureInvalid(err error) bool {
	return errors.Is(err, ErrWebhookSignatureInvalid)
}

func IsWebhookPayloadInvalid(err error) bool {
	return errors.Is(err, ErrWebhookPayloadInvalid)
}

func IsWebhookPaymentIDRequired(err error) bool {
	return errors.Is(err, ErrWebhookPaymentIDRequired)
}
