package dto

// RecordTransactionRequest records a commission ledger entry for a completed order
type RecordTransactionRequest struct {
	StoreID     uint    `json:"store_id" validate:"required,min=1"`
	OrderID     string  `json:"order_id" validate:"required,max=255"`
	CategoryID  uint    `json:"category_id" validate:"required,min=1"`
	OrderAmount float64 `json:"order_amount" validate:"required,gt=0"`
}

// CommissionTransactionDTO is the API representation of a ledger entry
type CommissionTransactionDTO struct {
	ID                    uint    `json:"id"`
	UUID                  string  `json:"uuid"`
	StoreID               uint    `json:"store_id"`
	OrderID               string  `json:"order_id"`
	CategoryID            uint    `json:"category_id"`
	OrderAmount           float64 `json:"order_amount"`
	CommissionRateApplied float64 `json:"commission_rate_applied"`
	CommissionAmount      float64 `json:"commission_amount"`
	Status                string  `json:"status"`
	PaidAt                *string `json:"paid_at,omitempty"`
	CreatedAt             string  `json:"created_at"`
}

// ListTransactionsRequest filters and paginates ledger listings
type ListTransactionsRequest struct {
	StoreID    *uint   `json:"store_id" query:"store_id" validate:"omitempty,min=1"`
	CategoryID *uint   `json:"category_id" query:"category_id" validate:"omitempty,min=1"`
	Status     *string `json:"status" query:"status" validate:"omitempty,oneof=calculated paid cancelled"`
	StartDate  *string `json:"start_date" query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate    *string `json:"end_date" query:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Page       int     `json:"page" query:"page" validate:"omitempty,min=1"`
	PageSize   int     `json:"page_size" query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListTransactionsResponse returns a page of ledger entries
type ListTransactionsResponse struct {
	Transactions []CommissionTransactionDTO `json:"transactions"`
	Pagination   PaginationDTO              `json:"pagination"`
}
