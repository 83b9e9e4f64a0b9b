package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitScenarios(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		wantFee   string
		wantOwner string
	}{
		{name: "fifty", amount: "50", wantFee: "5", wantOwner: "45"},
		{name: "sixty one rounds down", amount: "61", wantFee: "6", wantOwner: "55"},
		{name: "half rounds up", amount: "5", wantFee: "1", wantOwner: "4"},
		{name: "sixty five", amount: "65", wantFee: "7", wantOwner: "58"},
		{name: "fractional", amount: "49.99", wantFee: "5", wantOwner: "44.99"},
		{name: "tiny fractional", amount: "0.5", wantFee: "0", wantOwner: "0.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			split, err := Split(decimal.RequireFromString(tc.amount))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !split.PlatformFee.Equal(decimal.RequireFromString(tc.wantFee)) {
				t.Fatalf("expected fee %s, got %s", tc.wantFee, split.PlatformFee)
			}
			if !split.OwnerRevenue.Equal(decimal.RequireFromString(tc.wantOwner)) {
				t.Fatalf("expected owner revenue %s, got %s", tc.wantOwner, split.OwnerRevenue)
			}
		})
	}
}

func TestSplitAlwaysSumsToAmount(t *testing.T) {
	tenth := decimal.RequireFromString("0.1")
	for cents := int64(1); cents <= 100000; cents += 37 {
		amount := decimal.New(cents, -2)
		split, err := Split(amount)
		if err != nil {
			t.Fatalf("amount %s: unexpected error: %v", amount, err)
		}
		if !split.PlatformFee.Add(split.OwnerRevenue).Equal(amount) {
			t.Fatalf("amount %s: %s + %s does not sum back", amount, split.PlatformFee, split.OwnerRevenue)
		}
		if !split.PlatformFee.Equal(amount.Mul(tenth).Round(0)) {
			t.Fatalf("amount %s: fee %s is not round(amount*0.1)", amount, split.PlatformFee)
		}
	}
	for rupees := int64(1); rupees <= 5000; rupees++ {
		amount := decimal.NewFromInt(rupees)
		split, err := Split(amount)
		if err != nil {
			t.Fatalf("amount %s: unexpected error: %v", amount, err)
		}
		if !split.PlatformFee.Add(split.OwnerRevenue).Equal(amount) {
			t.Fatalf("amount %s does not sum back", amount)
		}
	}
}

func TestSplitRejectsInvalidAmounts(t *testing.T) {
	for _, raw := range []string{"0", "-1", "-0.01", "10.005"} {
		_, err := Split(decimal.RequireFromString(raw))
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("amount %s: expected validation error, got %v", raw, err)
		}
	}
}

func TestNewSplitterCustomPercent(t *testing.T) {
	split, err := NewSplitter(15).Split(decimal.NewFromInt(70))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !split.PlatformFee.Equal(decimal.NewFromInt(11)) || !split.OwnerRevenue.Equal(decimal.NewFromInt(59)) {
		t.Fatalf("unexpected split %+v", split)
	}

	fallback := NewSplitter(0)
	if !fallback.FeePercent().Equal(decimal.NewFromInt(DefaultPlatformFeePercent)) {
		t.Fatalf("expected default percent, got %s", fallback.FeePercent())
	}
}
