package entity

import "github.com/shopspring/decimal"

type JobType struct {
	Base
	Code                     string           `db:"code"`
	Name                     string           `db:"name"`
	MinHourlyRate            *decimal.Decimal `db:"min_hourly_rate"`
	DefaultInsuranceTierCode *string          `db:"default_insurance_tier_code"`
	Active                   bool             `db:"active"`
}

// MinRate returns the minimum hourly rate, zero when the category sets none.
func (j *JobType) MinRate() decimal.Decimal {
	if j.MinHourlyRate == nil {
		return decimal.Zero
	}
	return *j.MinHourlyRate
}
