package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "rzp_test_key", user)
		require.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":5000,"currency":"INR","receipt":"receipt_k1_1","status":"created"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "rzp_test_key", "secret")
	order, err := client.CreateOrder(context.Background(), 5000, "INR", "receipt_k1_1", map[string]string{"kiosk_id": "k1"})
	require.NoError(t, err)
	require.Equal(t, "order_abc", order.ID)
	require.Equal(t, int64(5000), order.Amount)
	require.EqualValues(t, 5000, gotBody["amount"])
	require.Equal(t, "INR", gotBody["currency"])
	require.Equal(t, "receipt_k1_1", gotBody["receipt"])
}

func TestCreateOrderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", "s").CreateOrder(context.Background(), 1, "INR", "r", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "BAD_REQUEST_ERROR", apiErr.Code)
}

func TestCreateOrderRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "", "").CreateOrder(context.Background(), 100, "INR", "r", nil)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyPaymentSignature(t *testing.T) {
	client := NewClient("", "key", "secret")
	sig := Signature("secret", "order_1", "pay_1")

	require.True(t, client.VerifyPaymentSignature("order_1", "pay_1", sig))
	require.False(t, client.VerifyPaymentSignature("order_1", "pay_2", sig))
	require.False(t, client.VerifyPaymentSignature("order_2", "pay_1", sig))
	require.False(t, client.VerifyPaymentSignature("order_1", "pay_1", Signature("other", "order_1", "pay_1")))
	require.False(t, client.VerifyPaymentSignature("order_1", "pay_1", ""))
	require.False(t, NewClient("", "key", "").VerifyPaymentSignature("order_1", "pay_1", sig))
}

func TestToPaise(t *testing.T) {
	require.Equal(t, int64(5000), ToPaise(decimal.NewFromInt(50)))
	require.Equal(t, int64(4999), ToPaise(decimal.RequireFromString("49.99")))
}

func TestCheckoutOptions(t *testing.T) {
	client := NewClient("", "rzp_live", "s")
	opts := client.CheckoutOptions(Order{ID: "order_9", Amount: 6100, Currency: "INR"}, "KioskPay", "Helmet cleaning", Prefill{Contact: "999"})
	require.Equal(t, "rzp_live", opts.Key)
	require.Equal(t, "order_9", opts.OrderID)
	require.Equal(t, int64(6100), opts.Amount)
	require.Equal(t, "999", opts.Prefill.Contact)
}
