package dto

// CreatePayoutRequest batches a store's calculated commissions for a period
type CreatePayoutRequest struct {
	StoreID uint   `json:"store_id" validate:"required,min=1"`
	Period  string `json:"period" validate:"required,len=7"`
}

// UpdatePayoutStatusRequest moves a payout through its lifecycle
type UpdatePayoutStatusRequest struct {
	Status           string `json:"status" validate:"required,oneof=pending processing completed failed"`
	PaymentReference string `json:"payment_reference" validate:"omitempty,max=255"`
	Notes            string `json:"notes" validate:"omitempty,max=2000"`
}

// CommissionPayoutDTO is the API representation of a payout batch
type CommissionPayoutDTO struct {
	ID               uint    `json:"id"`
	UUID             string  `json:"uuid"`
	StoreID          uint    `json:"store_id"`
	Period           string  `json:"period"`
	TotalCommission  float64 `json:"total_commission"`
	TotalPayout      float64 `json:"total_payout"`
	TransactionCount int     `json:"transaction_count"`
	Status           string  `json:"status"`
	PaymentReference string  `json:"payment_reference,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	ProcessedBy      *uint   `json:"processed_by,omitempty"`
	ProcessedAt      *string `json:"processed_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// ListPayoutsRequest filters and paginates payout listings
type ListPayoutsRequest struct {
	StoreID  *uint   `json:"store_id" query:"store_id" validate:"omitempty,min=1"`
	Period   *string `json:"period" query:"period" validate:"omitempty,len=7"`
	Status   *string `json:"status" query:"status" validate:"omitempty,oneof=pending processing completed failed"`
	Page     int     `json:"page" query:"page" validate:"omitempty,min=1"`
	PageSize int     `json:"page_size" query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListPayoutsResponse returns a page of payouts
type ListPayoutsResponse struct {
	Payouts    []CommissionPayoutDTO `json:"payouts"`
	Pagination PaginationDTO         `json:"pagination"`
}
