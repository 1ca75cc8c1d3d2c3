// Package pricing computes the frozen payment breakdown of a gig.
package pricing

import (
	"time"

	"gig-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const Version = "v1"

var (
	DefaultFeePercent  = decimal.RequireFromString("2.9")
	DefaultFeeFixed    = decimal.RequireFromString("0.30")
	DefaultPlatformFee = decimal.NewFromInt(5)

	hundred = decimal.NewFromInt(100)
)

// Calculator holds the processing fee schedule of the payment provider.
type Calculator struct {
	FeePercent decimal.Decimal
	FeeFixed   decimal.Decimal
}

func NewCalculator(feePercent, feeFixed decimal.Decimal) Calculator {
	return Calculator{FeePercent: feePercent, FeeFixed: feeFixed}
}

func DefaultCalculator() Calculator {
	return NewCalculator(DefaultFeePercent, DefaultFeeFixed)
}

type Input struct {
	Provider         string
	WorkerGross      decimal.Decimal
	InsurancePremium decimal.Decimal
	PlatformFee      decimal.Decimal
	Currency         string
	JobTypeCode      string
	Hours            decimal.Decimal
	MinHourlyRate    decimal.Decimal
}

type Result struct {
	Snapshot    entity.PaymentSnapshot
	TotalCharge decimal.Decimal
}

// Build prices the charge. It performs no validation and no I/O.
func (c Calculator) Build(in Input, now time.Time) Result {
	gross := Round2(in.WorkerGross)
	premium := Round2(in.InsurancePremium)
	platform := Round2(in.PlatformFee)

	// fee and total are computed on the unrounded base; only the reported
	// components are rounded
	base := in.WorkerGross.Add(in.InsurancePremium).Add(in.PlatformFee)
	fee := Round2(base.Mul(c.FeePercent).Div(hundred).Add(c.FeeFixed))
	total := Round2(base.Add(fee))

	return Result{
		TotalCharge: total,
		Snapshot: entity.PaymentSnapshot{
			ID:       uuid.New(),
			Provider: in.Provider,
			Preauth: entity.PaymentPreauth{
				AmountMinor: ToMinorUnits(total),
				Currency:    in.Currency,
				Status:      entity.PreauthStatusRequiresPaymentMethod,
				CaptureMode: entity.CaptureModeManual,
			},
			Breakdown: entity.PaymentBreakdown{
				WorkerGross:            gross,
				InsurancePremium:       premium,
				PlatformFee:            platform,
				ProcessingFeeEstimated: fee,
				Total:                  total,
				Currency:               in.Currency,
				ComputedAt:             now.UTC(),
				Inputs: entity.PricingInputs{
					JobTypeCode:   in.JobTypeCode,
					Hours:         in.Hours,
					MinHourlyRate: in.MinHourlyRate,
					FeePercent:    c.FeePercent,
					FeeFixed:      c.FeeFixed,
				},
				PricingVersion: Version,
			},
		},
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToMinorUnits converts a major-unit amount to cents. Currencies without a
// two-digit minor unit are not supported.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// ElapsedHours returns the length of [start, end) in hours, or zero when the
// window is empty or inverted.
func ElapsedHours(start, end time.Time) decimal.Decimal {
	if !end.After(start) {
		return decimal.Zero
	}
	secs := int64(end.Sub(start) / time.Second)
	return decimal.NewFromInt(secs).Div(decimal.NewFromInt(3600))
}

// MinimumPay is the lowest acceptable total pay for the given rate and hours.
func MinimumPay(hourlyRate, hours decimal.Decimal) decimal.Decimal {
	return Round2(hourlyRate.Mul(hours))
}
