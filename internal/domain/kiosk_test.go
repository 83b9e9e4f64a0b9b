package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestKiosk(t *testing.T) *Kiosk {
	t.Helper()
	k, err := NewKiosk(NewKioskInput{
		Name:             "Mall Entrance",
		Location:         "Phoenix Mall, Pune",
		PricePerCleaning: decimal.NewFromInt(50),
	}, time.Now())
	if err != nil {
		t.Fatalf("NewKiosk failed: %v", err)
	}
	return k
}

func TestNewKioskOnboardingDefaults(t *testing.T) {
	k := newTestKiosk(t)
	if k.TotalPayments != 0 || k.PaymentsSinceRefill != 0 {
		t.Fatalf("expected zero counters, got %d/%d", k.TotalPayments, k.PaymentsSinceRefill)
	}
	if k.LiquidLevel != 100 || k.NeedsRefill {
		t.Fatalf("expected full tank without refill flag, got %d/%v", k.LiquidLevel, k.NeedsRefill)
	}
	if k.Status != KioskActive {
		t.Fatalf("expected active, got %s", k.Status)
	}
	if k.QRCode == "" {
		t.Fatal("expected generated qr code")
	}
}

func TestNewKioskValidation(t *testing.T) {
	tests := []struct {
		name string
		in   NewKioskInput
	}{
		{name: "missing name", in: NewKioskInput{Location: "x", PricePerCleaning: decimal.NewFromInt(10)}},
		{name: "missing location", in: NewKioskInput{Name: "x", PricePerCleaning: decimal.NewFromInt(10)}},
		{name: "zero price", in: NewKioskInput{Name: "x", Location: "y"}},
		{name: "negative refill limit", in: NewKioskInput{Name: "x", Location: "y", PricePerCleaning: decimal.NewFromInt(10), RefillLimit: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewKiosk(tc.in, time.Now()); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecordPaymentIncrementsCounters(t *testing.T) {
	k := newTestKiosk(t)
	split, _ := Split(decimal.NewFromInt(50))
	k.RecordPayment(split)
	k.RecordPayment(split)

	if k.TotalPayments != 2 || k.PaymentsSinceRefill != 2 {
		t.Fatalf("expected 2 payments, got %d/%d", k.TotalPayments, k.PaymentsSinceRefill)
	}
	if !k.TotalRevenue.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected revenue 100, got %s", k.TotalRevenue)
	}
	if !k.OwnerRevenue.Equal(decimal.NewFromInt(90)) || !k.PlatformRevenue.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected split counters %s/%s", k.OwnerRevenue, k.PlatformRevenue)
	}
}

func TestRefillPolicyPaymentLimit(t *testing.T) {
	policy := DefaultRefillPolicy()
	k := newTestKiosk(t)
	split, _ := Split(decimal.NewFromInt(50))
	for i := 0; i < 249; i++ {
		k.RecordPayment(split)
	}
	if policy.Apply(k) {
		t.Fatal("249 payments must not flag a refill")
	}
	k.RecordPayment(split)
	if k.TotalPayments != 250 {
		t.Fatalf("expected 250 payments, got %d", k.TotalPayments)
	}
	if !policy.Apply(k) || !k.NeedsRefill {
		t.Fatal("250 payments must flag a refill regardless of liquid level")
	}
	if got := policy.Reason(k); got != "Reached 250 payment limit" {
		t.Fatalf("unexpected reason %q", got)
	}
	if policy.Apply(k) {
		t.Fatal("Apply must only report the transition once")
	}
}

func TestRefillPolicyLiquidThreshold(t *testing.T) {
	policy := DefaultRefillPolicy()
	tests := []struct {
		level int
		want  bool
	}{
		{level: 100, want: false},
		{level: 26, want: false},
		{level: 25, want: false},
		{level: 24, want: true},
		{level: 0, want: true},
	}
	for _, tc := range tests {
		k := newTestKiosk(t)
		if err := k.SetLiquidLevel(tc.level); err != nil {
			t.Fatalf("SetLiquidLevel(%d) failed: %v", tc.level, err)
		}
		if got := policy.NeedsRefill(k); got != tc.want {
			t.Fatalf("level %d: expected %v, got %v", tc.level, tc.want, got)
		}
	}

	k := newTestKiosk(t)
	_ = k.SetLiquidLevel(10)
	if got := policy.Reason(k); got != "Low liquid level" {
		t.Fatalf("unexpected reason %q", got)
	}
	if err := k.SetLiquidLevel(101); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRefillPolicyPerKioskLimit(t *testing.T) {
	policy := DefaultRefillPolicy()
	k := newTestKiosk(t)
	k.RefillLimit = 3
	split, _ := Split(decimal.NewFromInt(50))
	for i := 0; i < 3; i++ {
		k.RecordPayment(split)
	}
	if !policy.NeedsRefill(k) {
		t.Fatal("expected per-kiosk limit to apply")
	}
}

func TestCompleteRefillKeepsRevenue(t *testing.T) {
	policy := DefaultRefillPolicy()
	k := newTestKiosk(t)
	split, _ := Split(decimal.NewFromInt(50))
	for i := 0; i < 250; i++ {
		k.RecordPayment(split)
	}
	_ = k.SetLiquidLevel(5)
	policy.Apply(k)

	revenue := k.TotalRevenue
	owner := k.OwnerRevenue
	platform := k.PlatformRevenue

	k.CompleteRefill(time.Now())
	policy.Apply(k)

	if k.LiquidLevel != 100 || k.NeedsRefill {
		t.Fatalf("expected full tank and cleared flag, got %d/%v", k.LiquidLevel, k.NeedsRefill)
	}
	if k.PaymentsSinceRefill != 0 {
		t.Fatalf("expected counter since refill reset, got %d", k.PaymentsSinceRefill)
	}
	if k.TotalPayments != 250 {
		t.Fatalf("lifetime payments must be kept, got %d", k.TotalPayments)
	}
	if !k.TotalRevenue.Equal(revenue) || !k.OwnerRevenue.Equal(owner) || !k.PlatformRevenue.Equal(platform) {
		t.Fatal("refill must not touch revenue totals")
	}
	if k.LastRefill == nil {
		t.Fatal("expected last refill timestamp")
	}
}

func TestReverseRefund(t *testing.T) {
	k := newTestKiosk(t)
	split, _ := Split(decimal.NewFromInt(60))
	k.RecordPayment(split)
	k.RecordPayment(split)

	p := NewCompletedPayment(CaptureDetails{KioskID: k.ID}, split, time.Now())
	refund, err := p.ApplyRefund(decimal.NewFromInt(60), "", time.Now())
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	k.ReverseRefund(refund)

	if k.TotalPayments != 1 || k.PaymentsSinceRefill != 2 {
		t.Fatalf("unexpected counters %d/%d", k.TotalPayments, k.PaymentsSinceRefill)
	}
	if !k.TotalRevenue.Equal(decimal.NewFromInt(60)) || !k.OwnerRevenue.Equal(decimal.NewFromInt(54)) || !k.PlatformRevenue.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("unexpected revenue after refund %s/%s/%s", k.TotalRevenue, k.OwnerRevenue, k.PlatformRevenue)
	}
}

func TestKioskOwnedBy(t *testing.T) {
	owner := uuid.New()
	k := newTestKiosk(t)
	if k.OwnedBy(owner) {
		t.Fatal("unowned kiosk must not match")
	}
	k.CustomerID = &owner
	if !k.OwnedBy(owner) || k.OwnedBy(uuid.New()) {
		t.Fatal("ownership check mismatch")
	}
}

func TestApplyMaintenanceTransition(t *testing.T) {
	k := newTestKiosk(t)
	now := time.Now()

	k.ApplyMaintenanceTransition(MaintenancePending, MaintenanceInProgress, now)
	if k.Status != KioskMaintenance {
		t.Fatalf("expected maintenance status, got %s", k.Status)
	}
	k.ApplyMaintenanceTransition(MaintenanceInProgress, MaintenanceCompleted, now)
	if k.Status != KioskActive || k.LastMaintenance == nil {
		t.Fatalf("expected active kiosk with last maintenance, got %s/%v", k.Status, k.LastMaintenance)
	}

	k.ApplyMaintenanceTransition(MaintenancePending, MaintenanceInProgress, now)
	k.ApplyMaintenanceTransition(MaintenanceInProgress, MaintenanceCancelled, now)
	if k.Status != KioskActive {
		t.Fatalf("expected cancelled work to restore active, got %s", k.Status)
	}

	k.Status = KioskInactive
	k.ApplyMaintenanceTransition(MaintenancePending, MaintenanceInProgress, now)
	if k.Status != KioskInactive {
		t.Fatalf("inactive kiosk must stay inactive, got %s", k.Status)
	}
}
