package response

import (
	"time"

	"gig-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type GigResponse struct {
	ID                 string                    `json:"id"`
	PublicCode         string                    `json:"public_code"`
	Title              string                    `json:"title"`
	Description        *string                   `json:"description,omitempty"`
	VenueID            string                    `json:"venue_id"`
	JobTypeID          *string                   `json:"job_type_id,omitempty"`
	StartTime          time.Time                 `json:"start_time"`
	EndTime            time.Time                 `json:"end_time"`
	PayAmount          *decimal.Decimal          `json:"pay_amount,omitempty"`
	Currency           string                    `json:"currency"`
	InsuranceProductID *string                   `json:"insurance_product_id,omitempty"`
	InsuranceSnapshot  *entity.InsuranceSnapshot `json:"insurance_snapshot"`
	ContractTemplateID *string                   `json:"contract_template_id,omitempty"`
	ContractSnapshot   *entity.ContractSnapshot  `json:"contract_snapshot"`
	PaymentSnapshot    *entity.PaymentSnapshot   `json:"payment_snapshot"`
	PublishStatus      entity.GigPublishStatus   `json:"publish_status"`
	PublishedAt        *time.Time                `json:"published_at,omitempty"`
	CreatedBy          string                    `json:"created_by"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

func NewGigResponse(g *entity.Gig) *GigResponse {
	return &GigResponse{
		ID:                 g.ID.String(),
		PublicCode:         g.PublicCode,
		Title:              g.Title,
		Description:        g.Description,
		VenueID:            g.VenueID.String(),
		JobTypeID:          uuidString(g.JobTypeID),
		StartTime:          g.StartTime,
		EndTime:            g.EndTime,
		PayAmount:          g.PayAmount,
		Currency:           g.Currency,
		InsuranceProductID: uuidString(g.InsuranceProductID),
		InsuranceSnapshot:  g.InsuranceSnapshot,
		ContractTemplateID: uuidString(g.ContractTemplateID),
		ContractSnapshot:   g.ContractSnapshot,
		PaymentSnapshot:    g.PaymentSnapshot,
		PublishStatus:      g.PublishStatus,
		PublishedAt:        g.PublishedAt,
		CreatedBy:          g.CreatedBy.String(),
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
}
