package request

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateGigRequest struct {
	VenueID            string           `json:"venue_id" validate:"required,uuid"`
	Title              string           `json:"title" validate:"required,min=3,max=200"`
	Description        *string          `json:"description" validate:"omitempty,max=5000"`
	JobTypeID          *string          `json:"job_type_id" validate:"omitempty,uuid"`
	StartTime          time.Time        `json:"start_time" validate:"required"`
	EndTime            time.Time        `json:"end_time" validate:"required,gtfield=StartTime"`
	PayAmount          *decimal.Decimal `json:"pay_amount"`
	Currency           string           `json:"currency" validate:"omitempty,iso4217"`
	InsuranceProductID *string          `json:"insurance_product_id" validate:"omitempty,uuid"`
	ContractTemplateID *string          `json:"contract_template_id" validate:"omitempty,uuid"`
}

// PreauthorizeGigRequest optionally carries a card token from the client
// payment form. Without it the venue's stored payment customer is charged.
type PreauthorizeGigRequest struct {
	CardToken string `json:"card_token" validate:"omitempty,max=255"`
}

type ListGigsRequest struct {
	PaginatedRequest
	VenueID       *string `json:"venue_id" validate:"omitempty,uuid"`
	PublishStatus *string `json:"publish_status" validate:"omitempty,oneof=draft preauthorized published"`
}
