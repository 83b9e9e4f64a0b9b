package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultPlatformFeePercent is the operator's share of every payment.
const DefaultPlatformFeePercent = 10

var hundred = decimal.NewFromInt(100)

// RevenueSplit is the division of a gross amount between the platform and
// the kiosk owner. PlatformFee + OwnerRevenue always equals Amount.
type RevenueSplit struct {
	Amount       decimal.Decimal `json:"amount"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	OwnerRevenue decimal.Decimal `json:"owner_revenue"`
}

// Splitter applies a fixed percentage platform fee.
type Splitter struct {
	feePercent decimal.Decimal
}

// NewSplitter returns a Splitter charging percent of every amount.
func NewSplitter(percent float64) Splitter {
	if percent <= 0 || percent >= 100 {
		percent = DefaultPlatformFeePercent
	}
	return Splitter{feePercent: decimal.NewFromFloat(percent)}
}

// FeePercent reports the configured platform percentage.
func (s Splitter) FeePercent() decimal.Decimal {
	if s.feePercent.IsZero() {
		return decimal.NewFromInt(DefaultPlatformFeePercent)
	}
	return s.feePercent
}

// Split rounds the platform fee to whole rupees, half away from zero. The
// owner absorbs the rounding remainder.
func (s Splitter) Split(amount decimal.Decimal) (RevenueSplit, error) {
	if err := ValidateAmount("amount", amount); err != nil {
		return RevenueSplit{}, err
	}
	fee := amount.Mul(s.FeePercent()).Div(hundred).Round(0)
	return RevenueSplit{
		Amount:       amount,
		PlatformFee:  fee,
		OwnerRevenue: amount.Sub(fee),
	}, nil
}

// Split uses the default 10% policy.
func Split(amount decimal.Decimal) (RevenueSplit, error) {
	return Splitter{}.Split(amount)
}

// ValidateAmount accepts positive amounts with at most two decimal places.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return NewValidationError(field, "must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return NewValidationError(field, "must have at most two decimal places")
	}
	return nil
}
