package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func captureInput(kioskID uuid.UUID, paymentID string) CaptureInput {
	return CaptureInput{KioskID: kioskID, OrderID: "order_test", PaymentID: paymentID, Signature: "sig", CustomerPhone: " 9999900000 "}
}

func TestCreateOrderUsesKioskPrice(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("50", nil)

	checkout, err := env.svc.CreateOrder(context.Background(), kiosk.ID, "9999900000")
	require.NoError(t, err)
	require.Equal(t, []int64{5000}, env.gateway.orders)
	require.Equal(t, "order_test", checkout.OrderID)
	require.Equal(t, "9999900000", checkout.Options.Prefill.Contact)
	require.Equal(t, "KioskPay", checkout.Options.Name)
}

func TestCreateOrderRejectsInactiveKiosk(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("50", nil)
	env.repo.kiosks[kiosk.ID].Status = domain.KioskMaintenance

	_, err := env.svc.CreateOrder(context.Background(), kiosk.ID, "")
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Empty(t, env.gateway.orders)
}

func TestCreateOrderWrapsGatewayFailure(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("50", nil)
	env.gateway.orderErr = errBoom

	_, err := env.svc.CreateOrder(context.Background(), kiosk.ID, "")
	require.ErrorIs(t, err, domain.ErrGateway)
}

func TestCapturePaymentCreditsKiosk(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("61", nil)

	result, err := env.svc.CapturePayment(context.Background(), captureInput(kiosk.ID, "pay_1"))
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	require.Equal(t, domain.PaymentCompleted, result.Payment.Status)
	require.True(t, result.Payment.PlatformFee.Equal(decimal.NewFromInt(6)))
	require.True(t, result.Payment.OwnerRevenue.Equal(decimal.NewFromInt(55)))
	require.Equal(t, "9999900000", *result.Payment.CustomerPhone)

	stored := env.repo.kiosks[kiosk.ID]
	require.Equal(t, 1, stored.TotalPayments)
	require.Equal(t, 1, stored.PaymentsSinceRefill)
	require.True(t, stored.TotalRevenue.Equal(decimal.NewFromInt(61)))
	require.True(t, stored.PlatformRevenue.Equal(decimal.NewFromInt(6)))
	require.True(t, stored.OwnerRevenue.Equal(decimal.NewFromInt(55)))

	payments := env.repo.notificationsOfType(domain.NotificationPayment)
	require.Len(t, payments, 1)
	require.Equal(t, "New payment received: ₹61.00 for Mall Kiosk", payments[0].Message)
	require.Contains(t, env.publisher.keys, "payment.captured")
	require.Contains(t, env.publisher.keys, "notification.payment")
}

func TestCapturePaymentIsIdempotent(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("50", nil)

	first, err := env.svc.CapturePayment(context.Background(), captureInput(kiosk.ID, "pay_1"))
	require.NoError(t, err)
	second, err := env.svc.CapturePayment(context.Background(), captureInput(kiosk.ID, "pay_1"))
	require.NoError(t, err)

	require.True(t, second.Duplicate)
	require.Equal(t, first.Payment.ID, second.Payment.ID)
	require.Equal(t, 1, env.repo.kiosks[kiosk.ID].TotalPayments)
}

func TestCapturePaymentDuplicateRequiresValidSignature(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("50", nil)

	_, err := env.svc.CapturePayment(context.Background(), captureInput(kiosk.ID, "pay_1"))
	require.NoError(t, err)

	env.gateway.validSignature = false
	forged := captureInput(kiosk.ID, "pay_1")
	forged.Signature = "forged"
	result, err := env.svc.CapturePayment(context.Background(), forged)
	require.ErrorIs(t, err, domain.ErrGateway)
	require.Nil(t, result)
	require.Equal(t, 1, env.repo.kiosks[kiosk.ID].TotalPayments)
}

func TestCapturePaymentForAnotherKioskConflicts(t *testing.T) {
	env := newTestEnv()
	first := env.seedKiosk("50", nil)
	second := env.seedKiosk("50", nil)

	_, err := env.svc.CapturePayment(context.Background(), captureInput(first.ID, "pay_1"))
	require.NoError(t, err)
	_, err = env.svc.CapturePayment(context.Background(), captureInput(second.ID, "pay_1"))
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestCapturePaymentWithBadSignatureRecordsFailure(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("50", nil)
	env.gateway.validSignature = false

	_, err := env.svc.CapturePayment(context.Background(), captureInput(kiosk.ID, "pay_bad"))
	require.ErrorIs(t, err, domain.ErrGateway)

	require.Len(t, env.repo.payments, 1)
	for _, p := range env.repo.payments {
		require.Equal(t, domain.PaymentFailed, p.Status)
	}
	require.Equal(t, 0, env.repo.kiosks[kiosk.ID].TotalPayments)
	require.Len(t, env.repo.notificationsOfType(domain.NotificationError), 1)
}

func TestCapturePaymentValidatesInput(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("50", nil)

	_, err := env.svc.CapturePayment(context.Background(), CaptureInput{KioskID: kiosk.ID, PaymentID: "pay_1"})
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = env.svc.CapturePayment(context.Background(), CaptureInput{KioskID: uuid.New(), OrderID: "o", PaymentID: "p"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCapturePaymentFlagsRefillAtLimit(t *testing.T) {
	env := newTestEnv()
	kiosk := env.seedKiosk("50", nil)
	env.repo.kiosks[kiosk.ID].PaymentsSinceRefill = domain.DefaultRefillPaymentLimit - 1

	result, err := env.svc.CapturePayment(context.Background(), captureInput(kiosk.ID, "pay_1"))
	require.NoError(t, err)
	require.True(t, result.Kiosk.NeedsRefill)

	refills := env.repo.notificationsOfType(domain.NotificationRefill)
	require.Len(t, refills, 1)
	require.Equal(t, domain.NotificationHigh, refills[0].Priority)
	require.Contains(t, refills[0].Message, "Reached 250 payment limit")
}

func capturedPayment(t *testing.T, env *testEnv, price string) (*domain.Kiosk, *domain.Payment) {
	t.Helper()
	kiosk := env.seedKiosk(price, nil)
	result, err := env.svc.CapturePayment(context.Background(), captureInput(kiosk.ID, "pay_"+uuid.NewString()))
	require.NoError(t, err)
	return kiosk, result.Payment
}

func TestRefundPaymentFull(t *testing.T) {
	env := newTestEnv()
	kiosk, payment := capturedPayment(t, env, "60")

	result, err := env.svc.RefundPayment(context.Background(), adminActor, payment.ID, RefundInput{Reason: "machine jammed"})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentRefunded, result.Payment.Status)
	require.True(t, result.Refund.Full)

	stored := env.repo.kiosks[kiosk.ID]
	require.True(t, stored.TotalRevenue.IsZero())
	require.True(t, stored.PlatformRevenue.IsZero())
	require.True(t, stored.OwnerRevenue.IsZero())
	require.Equal(t, 0, stored.TotalPayments)
	require.Equal(t, 1, stored.PaymentsSinceRefill)
	require.Contains(t, env.publisher.keys, "payment.refunded")

	var high int
	for _, n := range env.repo.notificationsOfType(domain.NotificationPayment) {
		if n.Priority == domain.NotificationHigh {
			high++
		}
	}
	require.Equal(t, 1, high)
}

func TestRefundPaymentPartial(t *testing.T) {
	env := newTestEnv()
	kiosk, payment := capturedPayment(t, env, "60")
	amount := decimal.NewFromInt(30)

	result, err := env.svc.RefundPayment(context.Background(), adminActor, payment.ID, RefundInput{Amount: &amount})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPartialRefund, result.Payment.Status)

	stored := env.repo.kiosks[kiosk.ID]
	require.True(t, stored.TotalRevenue.Equal(decimal.NewFromInt(30)))
	require.True(t, stored.PlatformRevenue.Equal(decimal.NewFromInt(3)))
	require.True(t, stored.OwnerRevenue.Equal(decimal.NewFromInt(27)))
	require.Equal(t, 1, stored.TotalPayments)
}

func TestRefundPaymentRejectsWithoutMutation(t *testing.T) {
	env := newTestEnv()
	kiosk, payment := capturedPayment(t, env, "60")
	tooMuch := decimal.NewFromInt(70)

	_, err := env.svc.RefundPayment(context.Background(), adminActor, payment.ID, RefundInput{Amount: &tooMuch})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Equal(t, domain.PaymentCompleted, env.repo.payments[payment.ID].Status)
	require.True(t, env.repo.kiosks[kiosk.ID].TotalRevenue.Equal(decimal.NewFromInt(60)))

	_, err = env.svc.RefundPayment(context.Background(), customerActor(uuid.New()), payment.ID, RefundInput{})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRefundPaymentTwiceConflicts(t *testing.T) {
	env := newTestEnv()
	_, payment := capturedPayment(t, env, "60")

	_, err := env.svc.RefundPayment(context.Background(), adminActor, payment.ID, RefundInput{})
	require.NoError(t, err)
	_, err = env.svc.RefundPayment(context.Background(), adminActor, payment.ID, RefundInput{})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestGetPaymentHidesOtherOwnersPayments(t *testing.T) {
	env := newTestEnv()
	owner := uuid.New()
	kiosk := env.seedKiosk("50", &owner)
	result, err := env.svc.CapturePayment(context.Background(), captureInput(kiosk.ID, "pay_1"))
	require.NoError(t, err)

	_, err = env.svc.GetPayment(context.Background(), customerActor(owner), result.Payment.ID)
	require.NoError(t, err)
	_, err = env.svc.GetPayment(context.Background(), customerActor(uuid.New()), result.Payment.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
