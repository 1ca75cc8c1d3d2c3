package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GigPublishStatus string

const (
	GigStatusDraft         GigPublishStatus = "draft"
	GigStatusPreauthorized GigPublishStatus = "preauthorized"
	GigStatusPublished     GigPublishStatus = "published"
)

var gigAdvances = map[GigPublishStatus]GigPublishStatus{
	GigStatusDraft:         GigStatusPreauthorized,
	GigStatusPreauthorized: GigStatusPublished,
}

// CanAdvanceTo reports whether next is the single forward step from s.
func (s GigPublishStatus) CanAdvanceTo(next GigPublishStatus) bool {
	n, ok := gigAdvances[s]
	return ok && n == next
}

func (s GigPublishStatus) Valid() bool {
	return s == GigStatusDraft || s == GigStatusPreauthorized || s == GigStatusPublished
}

type Gig struct {
	Base
	PublicCode         string             `db:"public_code"`
	Title              string             `db:"title"`
	Description        *string            `db:"description"`
	VenueID            uuid.UUID          `db:"venue_id"`
	JobTypeID          *uuid.UUID         `db:"job_type_id"`
	StartTime          time.Time          `db:"start_time"`
	EndTime            time.Time          `db:"end_time"`
	PayAmount          *decimal.Decimal   `db:"pay_amount"`
	Currency           string             `db:"currency"`
	InsuranceProductID *uuid.UUID         `db:"insurance_product_id"`
	InsuranceSnapshot  *InsuranceSnapshot `db:"insurance_snapshot"`
	ContractTemplateID *uuid.UUID         `db:"contract_template_id"`
	ContractSnapshot   *ContractSnapshot  `db:"contract_snapshot"`
	PaymentSnapshot    *PaymentSnapshot   `db:"payment_snapshot"`
	PublishStatus      GigPublishStatus   `db:"publish_status"`
	PublishedAt        *time.Time         `db:"published_at"`
	CreatedBy          uuid.UUID          `db:"created_by"`
}

// Pay returns the total pay, zero when unset.
func (g *Gig) Pay() decimal.Decimal {
	if g.PayAmount == nil {
		return decimal.Zero
	}
	return *g.PayAmount
}
