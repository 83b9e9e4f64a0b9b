package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
)

// TelemetryRoutingKey carries liquid readings published by kiosks.
const TelemetryRoutingKey = "kiosk.telemetry.liquid"

const telemetryTimeout = 10 * time.Second

// LiquidReading is the telemetry message a kiosk publishes.
type LiquidReading struct {
	KioskID     uuid.UUID `json:"kiosk_id"`
	LiquidLevel *int      `json:"liquid_level"`
}

// HandleLiquidReading applies one telemetry message. It returns false only
// when the message should be retried.
func (s *Service) HandleLiquidReading(body []byte) bool {
	var reading LiquidReading
	if err := json.Unmarshal(body, &reading); err != nil {
		s.logger.Warn("dropping malformed telemetry message", "error", err)
		return true
	}
	if reading.KioskID == uuid.Nil || reading.LiquidLevel == nil {
		s.logger.Warn("dropping incomplete telemetry message", "kiosk_id", reading.KioskID)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), telemetryTimeout)
	defer cancel()

	if _, err := s.RecordLiquidLevel(ctx, reading.KioskID, *reading.LiquidLevel); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
			s.logger.Warn("dropping telemetry reading", "kiosk_id", reading.KioskID, "error", err)
			return true
		}
		s.logger.Error("failed to record telemetry reading", "kiosk_id", reading.KioskID, "error", err)
		return false
	}
	return true
}
