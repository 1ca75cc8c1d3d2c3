package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsuranceSnapshot freezes the insurance product a gig was priced with.
type InsuranceSnapshot struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Scope        InsuranceScope  `json:"scope"`
	Price        decimal.Decimal `json:"price"`
	PriceCents   int64           `json:"price_cents"`
	Currency     string          `json:"currency"`
	ProviderID   uuid.UUID       `json:"provider_id"`
	ProviderName string          `json:"provider_name"`
}

func NewInsuranceSnapshot(p *InsuranceProduct) *InsuranceSnapshot {
	return &InsuranceSnapshot{
		ProductID:    p.ID,
		Code:         p.Code,
		Name:         p.Name,
		Description:  p.Description,
		Scope:        p.Scope,
		Price:        decimal.New(p.PriceCents, -2),
		PriceCents:   p.PriceCents,
		Currency:     p.Currency,
		ProviderID:   p.ProviderID,
		ProviderName: p.ProviderName,
	}
}

func (s *InsuranceSnapshot) Clone() *InsuranceSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// ContractSnapshot freezes the full legal text of a contract template.
type ContractSnapshot struct {
	TemplateID uuid.UUID `json:"template_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	Body       string    `json:"body"`
}

func NewContractSnapshot(t *ContractTemplate) *ContractSnapshot {
	return &ContractSnapshot{
		TemplateID: t.ID,
		Code:       t.Code,
		Name:       t.Name,
		Version:    t.Version,
		Body:       t.Body,
	}
}

func (s *ContractSnapshot) Clone() *ContractSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

const (
	PreauthStatusRequiresPaymentMethod = "requires_payment_method"
	PreauthStatusSkipped               = "skipped"

	CaptureModeManual  = "manual"
	CaptureModeSkipped = "skipped"
)

type PaymentPreauth struct {
	AuthorizationID *string `json:"authorization_id"`
	AmountMinor     int64   `json:"amount_minor"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	CaptureMode     string  `json:"capture_mode"`
}

type PricingInputs struct {
	JobTypeCode   string          `json:"job_type_code"`
	Hours         decimal.Decimal `json:"hours"`
	MinHourlyRate decimal.Decimal `json:"min_hourly_rate"`
	FeePercent    decimal.Decimal `json:"fee_percent"`
	FeeFixed      decimal.Decimal `json:"fee_fixed"`
}

type PaymentBreakdown struct {
	WorkerGross            decimal.Decimal `json:"worker_gross"`
	InsurancePremium       decimal.Decimal `json:"insurance_premium"`
	PlatformFee            decimal.Decimal `json:"platform_fee"`
	ProcessingFeeEstimated decimal.Decimal `json:"processing_fee_estimated"`
	Total                  decimal.Decimal `json:"total"`
	Currency               string          `json:"currency"`
	ComputedAt             time.Time       `json:"computed_at"`
	Inputs                 PricingInputs   `json:"inputs"`
	PricingVersion         string          `json:"pricing_version"`
}

// PaymentSnapshot is the priced, pre-authorized charge attached to a gig.
type PaymentSnapshot struct {
	ID        uuid.UUID        `json:"id"`
	Provider  string           `json:"provider"`
	Preauth   PaymentPreauth   `json:"preauth"`
	Breakdown PaymentBreakdown `json:"breakdown"`
}

func (s *PaymentSnapshot) Clone() *PaymentSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.Preauth.AuthorizationID != nil {
		id := *s.Preauth.AuthorizationID
		c.Preauth.AuthorizationID = &id
	}
	return &c
}
