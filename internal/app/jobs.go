/**
 * @description
 * Scheduled jobs for KioskPay.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
)

const refillSweepTimeout = 2 * time.Minute

// RefillSweeper re-evaluates the refill policy for every kiosk.
type RefillSweeper interface {
	SweepRefills(ctx context.Context) (int, error)
}

// SweepRefills stores the refill policy result on every kiosk whose flag is
// stale and alerts on the ones that just became due. It returns the number
// of newly flagged kiosks.
func (s *Service) SweepRefills(ctx context.Context) (int, error) {
	kiosks, err := s.repo.ListKiosks(ctx, store.Filter{})
	if err != nil {
		return 0, err
	}

	flaggedCount := 0
	for i := range kiosks {
		k := &kiosks[i]
		if s.opts.RefillPolicy.NeedsRefill(k) == k.NeedsRefill {
			continue
		}
		var flagged bool
		updated, err := s.repo.UpdateKiosk(ctx, k.ID, func(locked *domain.Kiosk) error {
			flagged = s.opts.RefillPolicy.Apply(locked)
			return nil
		})
		if err != nil {
			s.logger.Error("failed to update refill flag", "kiosk_id", k.ID, "error", err)
			continue
		}
		if flagged {
			flaggedCount++
			s.notifyRefillDue(ctx, updated)
		}
	}
	return flaggedCount, nil
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	sweeper RefillSweeper
	logger  *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(sweeper RefillSweeper, logger *slog.Logger) *Jobs {
	return &Jobs{sweeper: sweeper, logger: logger}
}

// RefillSweep is the cron entry point for SweepRefills.
func (j *Jobs) RefillSweep() {
	j.logger.Info("starting refill sweep job")
	ctx, cancel := context.WithTimeout(context.Background(), refillSweepTimeout)
	defer cancel()

	flagged, err := j.sweeper.SweepRefills(ctx)
	if err != nil {
		j.logger.Error("refill sweep failed", "error", err)
		return
	}
	j.logger.Info("refill sweep job finished", "newly_flagged", flagged)
}
