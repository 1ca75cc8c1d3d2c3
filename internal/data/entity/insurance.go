package entity

import "github.com/google/uuid"

type InsuranceScope string

const (
	InsuranceScopeJob     InsuranceScope = "job"
	InsuranceScopeMonthly InsuranceScope = "monthly"
	InsuranceScopeAnnual  InsuranceScope = "annual"
)

type InsuranceProvider struct {
	Base
	Name     string `db:"name"`
	Country  string `db:"country"`
	IsActive bool   `db:"is_active"`
}

type InsuranceProduct struct {
	Base
	Code         string         `db:"code"`
	Name         string         `db:"name"`
	Description  string         `db:"description"`
	Scope        InsuranceScope `db:"scope"`
	PriceCents   int64          `db:"price_cents"`
	Currency     string         `db:"currency"`
	ProviderID   uuid.UUID      `db:"provider_id"`
	ProviderName string         `db:"provider_name"`
	IsActive     bool           `db:"is_active"`
}
