package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"golang.org/x/sync/errgroup"
)

const dashboardRecentPayments = 20

// Dashboard is the overview shown after login.
type Dashboard struct {
	Summary             domain.RevenueSummary       `json:"summary"`
	Ranking             []domain.KioskRevenue       `json:"ranking"`
	Kiosks              []domain.Kiosk              `json:"kiosks"`
	RecentPayments      []domain.Payment            `json:"recent_payments"`
	PendingMaintenance  []domain.MaintenanceRequest `json:"pending_maintenance"`
	PendingRefills      []domain.RefillRequest      `json:"pending_refills"`
	UnreadNotifications []domain.Notification       `json:"unread_notifications"`
	Warnings            []string                    `json:"warnings"`
}

// Dashboard loads every collection concurrently. A collection that fails to
// load is left empty and reported in Warnings.
func (s *Service) Dashboard(ctx context.Context, actor domain.Actor) (*Dashboard, error) {
	d := &Dashboard{
		Kiosks:              []domain.Kiosk{},
		RecentPayments:      []domain.Payment{},
		PendingMaintenance:  []domain.MaintenanceRequest{},
		PendingRefills:      []domain.RefillRequest{},
		UnreadNotifications: []domain.Notification{},
		Warnings:            []string{},
	}

	var mu sync.Mutex
	warn := func(collection string, err error) {
		s.logger.Warn("dashboard collection failed", "collection", collection, "error", err)
		mu.Lock()
		d.Warnings = append(d.Warnings, fmt.Sprintf("%s unavailable", collection))
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		kiosks, err := s.repo.ListKiosks(ctx, scopeFilter(actor, store.Filter{}))
		if err != nil {
			warn("kiosks", err)
			return nil
		}
		d.Kiosks = kiosks
		return nil
	})
	g.Go(func() error {
		payments, err := s.repo.ListPayments(ctx, scopeFilter(actor, store.Filter{Limit: dashboardRecentPayments}))
		if err != nil {
			warn("payments", err)
			return nil
		}
		d.RecentPayments = payments
		return nil
	})
	g.Go(func() error {
		reqs, err := s.repo.ListMaintenanceRequests(ctx, scopeFilter(actor, store.Filter{Status: string(domain.MaintenancePending)}))
		if err != nil {
			warn("maintenance requests", err)
			return nil
		}
		d.PendingMaintenance = reqs
		return nil
	})
	g.Go(func() error {
		reqs, err := s.repo.ListRefillRequests(ctx, scopeFilter(actor, store.Filter{Status: string(domain.RefillPending)}))
		if err != nil {
			warn("refill requests", err)
			return nil
		}
		d.PendingRefills = reqs
		return nil
	})
	g.Go(func() error {
		notes, err := s.repo.ListNotifications(ctx, scopeFilter(actor, store.Filter{UnreadOnly: true}))
		if err != nil {
			warn("notifications", err)
			return nil
		}
		d.UnreadNotifications = notes
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Summary = domain.SummarizeKiosks(d.Kiosks)
	d.Ranking = domain.RankKiosksByRevenue(d.Kiosks)
	return d, nil
}
