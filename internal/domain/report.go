package domain

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RevenueSummary aggregates a set of kiosks for the dashboard.
type RevenueSummary struct {
	KioskCount              int             `json:"kiosk_count"`
	ActiveKiosks            int             `json:"active_kiosks"`
	RefillNeeded            int             `json:"refill_needed"`
	TotalPayments           int             `json:"total_payments"`
	TotalRevenue            decimal.Decimal `json:"total_revenue"`
	PlatformRevenue         decimal.Decimal `json:"platform_revenue"`
	OwnerRevenue            decimal.Decimal `json:"owner_revenue"`
	AverageTransactionValue decimal.Decimal `json:"average_transaction_value"`
	AveragePerKiosk         decimal.Decimal `json:"average_per_kiosk"`
	AveragePerPayment       decimal.Decimal `json:"average_per_payment"`
}

// KioskRevenue is one row of the revenue ranking.
type KioskRevenue struct {
	KioskID       uuid.UUID       `json:"kiosk_id"`
	Name          string          `json:"name"`
	Location      string          `json:"location"`
	TotalPayments int             `json:"total_payments"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	OwnerRevenue  decimal.Decimal `json:"owner_revenue"`
}

// SummarizeKiosks sums the revenue counters of kiosks. Averages are zero
// when there is nothing to divide by. AveragePerKiosk and AveragePerPayment
// are computed over the owner share.
func SummarizeKiosks(kiosks []Kiosk) RevenueSummary {
	s := RevenueSummary{
		KioskCount:              len(kiosks),
		TotalRevenue:            decimal.Zero,
		PlatformRevenue:         decimal.Zero,
		OwnerRevenue:            decimal.Zero,
		AverageTransactionValue: decimal.Zero,
		AveragePerKiosk:         decimal.Zero,
		AveragePerPayment:       decimal.Zero,
	}
	for i := range kiosks {
		k := &kiosks[i]
		s.TotalPayments += k.TotalPayments
		s.TotalRevenue = s.TotalRevenue.Add(k.TotalRevenue)
		s.PlatformRevenue = s.PlatformRevenue.Add(k.PlatformRevenue)
		s.OwnerRevenue = s.OwnerRevenue.Add(k.OwnerRevenue)
		if k.Status == KioskActive {
			s.ActiveKiosks++
		}
		if k.NeedsRefill {
			s.RefillNeeded++
		}
	}
	if s.TotalPayments > 0 {
		payments := decimal.NewFromInt(int64(s.TotalPayments))
		s.AverageTransactionValue = s.TotalRevenue.Div(payments).Round(2)
		s.AveragePerPayment = s.OwnerRevenue.Div(payments).Round(2)
	}
	if s.KioskCount > 0 {
		s.AveragePerKiosk = s.OwnerRevenue.Div(decimal.NewFromInt(int64(s.KioskCount))).Round(2)
	}
	return s
}

// RankKiosksByRevenue orders kiosks by total revenue, highest first, with
// ties broken by name.
func RankKiosksByRevenue(kiosks []Kiosk) []KioskRevenue {
	ranked := make([]KioskRevenue, 0, len(kiosks))
	for _, k := range kiosks {
		ranked = append(ranked, KioskRevenue{
			KioskID:       k.ID,
			Name:          k.Name,
			Location:      k.Location,
			TotalPayments: k.TotalPayments,
			TotalRevenue:  k.TotalRevenue,
			OwnerRevenue:  k.OwnerRevenue,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].TotalRevenue.Cmp(ranked[j].TotalRevenue); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}
