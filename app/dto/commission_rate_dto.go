package dto

// CreateCommissionRateRequest configures the commission rate for a product category
type CreateCommissionRateRequest struct {
	CategoryID      uint     `json:"category_id" validate:"required,min=1"`
	CommissionType  string   `json:"commission_type" validate:"required,oneof=percentage fixed"`
	CommissionValue float64  `json:"commission_value" validate:"required,gt=0"`
	MinAmount       *float64 `json:"min_amount" validate:"omitempty,gte=0"`
	MaxAmount       *float64 `json:"max_amount" validate:"omitempty,gt=0"`
	Description     string   `json:"description" validate:"omitempty,max=1000"`
}

// UpdateCommissionRateRequest updates an existing commission rate. Nil fields
// are left unchanged.
type UpdateCommissionRateRequest struct {
	CommissionType  *string  `json:"commission_type" validate:"omitempty,oneof=percentage fixed"`
	CommissionValue *float64 `json:"commission_value" validate:"omitempty,gt=0"`
	MinAmount       *float64 `json:"min_amount" validate:"omitempty,gte=0"`
	MaxAmount       *float64 `json:"max_amount" validate:"omitempty,gt=0"`
	IsActive        *bool    `json:"is_active"`
	Description     *string  `json:"description" validate:"omitempty,max=1000"`
}

// CommissionRateDTO is the API representation of a commission rate
type CommissionRateDTO struct {
	ID              uint     `json:"id"`
	UUID            string   `json:"uuid"`
	CategoryID      uint     `json:"category_id"`
	CommissionType  string   `json:"commission_type"`
	CommissionValue float64  `json:"commission_value"`
	MinAmount       *float64 `json:"min_amount,omitempty"`
	MaxAmount       *float64 `json:"max_amount,omitempty"`
	IsActive        bool     `json:"is_active"`
	Description     string   `json:"description,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// ListCommissionRatesRequest filters and paginates commission rate listings
type ListCommissionRatesRequest struct {
	CategoryID *uint `json:"category_id" query:"category_id" validate:"omitempty,min=1"`
	IsActive   *bool `json:"is_active" query:"is_active"`
	Page       int   `json:"page" query:"page" validate:"omitempty,min=1"`
	PageSize   int   `json:"page_size" query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListCommissionRatesResponse returns a page of commission rates
type ListCommissionRatesResponse struct {
	Rates      []CommissionRateDTO `json:"rates"`
	Pagination PaginationDTO       `json:"pagination"`
}
