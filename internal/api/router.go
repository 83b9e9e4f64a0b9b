/**
 * @description
 * HTTP router for KioskPay. Checkout endpoints are public; everything else
 * under /api/v1 needs a session token, and admin-only mutations are wrapped
 * in RequireAdmin.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the KioskPay routes.
func NewRouter(h *Handler, sessions *Sessions, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.LoginHandler)

		// Buyer-facing checkout.
		r.Post("/payments/orders", h.CreateOrderHandler)
		r.Post("/payments/capture", h.CapturePaymentHandler)
		r.Post("/payments/checkout/dismiss", h.DismissCheckoutHandler)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(sessions))

			r.Get("/auth/me", h.MeHandler)
			r.Get("/split-preview", h.SplitPreviewHandler)
			r.Get("/dashboard", h.DashboardHandler)

			r.Get("/customers", h.ListCustomersHandler)
			r.Get("/customers/{customerID}", h.GetCustomerHandler)

			r.Get("/kiosks", h.ListKiosksHandler)
			r.Get("/kiosks/{kioskID}", h.GetKioskHandler)
			r.Put("/kiosks/{kioskID}/liquid-level", h.UpdateLiquidLevelHandler)
			r.Get("/kiosks/{kioskID}/payments", h.KioskPaymentsHandler)
			r.Get("/kiosks/{kioskID}/maintenance-requests", h.KioskMaintenanceHandler)
			r.Get("/kiosks/{kioskID}/payment-link", h.PaymentLinkHandler)

			r.Get("/payments", h.ListPaymentsHandler)
			r.Get("/payments/{paymentID}", h.GetPaymentHandler)

			r.Get("/maintenance-requests", h.ListMaintenanceHandler)
			r.Post("/maintenance-requests", h.CreateMaintenanceHandler)
			r.Get("/maintenance-requests/{requestID}", h.GetMaintenanceHandler)
			r.Patch("/maintenance-requests/{requestID}", h.UpdateMaintenanceHandler)

			r.Get("/refill-requests", h.ListRefillsHandler)
			r.Post("/refill-requests", h.CreateRefillHandler)
			r.Get("/refill-requests/{requestID}", h.GetRefillHandler)

			r.Get("/refund-tickets", h.ListRefundTicketsHandler)
			r.Post("/refund-tickets", h.CreateRefundTicketHandler)
			r.Get("/refund-tickets/{ticketID}", h.GetRefundTicketHandler)

			r.Get("/notifications", h.ListNotificationsHandler)
			r.Post("/notifications/read-all", h.MarkAllNotificationsReadHandler)
			r.Post("/notifications/{notificationID}/read", h.MarkNotificationReadHandler)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Post("/customers", h.CreateCustomerHandler)
				r.Patch("/customers/{customerID}", h.UpdateCustomerHandler)
				r.Post("/kiosks", h.CreateKioskHandler)
				r.Patch("/kiosks/{kioskID}", h.UpdateKioskHandler)
				r.Post("/payments/{paymentID}/refund", h.RefundPaymentHandler)
				r.Post("/refill-requests/{requestID}/approve", h.ApproveRefillHandler)
				r.Post("/refill-requests/{requestID}/complete", h.CompleteRefillHandler)
				r.Post("/refill-requests/{requestID}/reject", h.RejectRefillHandler)
				r.Post("/refund-tickets/{ticketID}/approve", h.ApproveRefundTicketHandler)
				r.Post("/refund-tickets/{ticketID}/reject", h.RejectRefundTicketHandler)
			})
		})
	})

	return r
}
