package service

import (
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/core/port"

	"go.uber.org/zap"
)

// DefaultBatterySavingPolicy decides whether charging must stop to protect
// the car battery. A stop is only requested on a valid, fresh, in-range SoC
// reading at or above the limit. Missing or stale data never stops charging,
// it only withholds the protection.
type DefaultBatterySavingPolicy struct {
	SocLimit float64
	MaxAge   time.Duration
	Logger   *zap.Logger
}

func (p *DefaultBatterySavingPolicy) Check(status *domain.StatusSnapshot, now time.Time) domain.BatterySavingCheckResult {

	soc := status.CarSoc
	if soc == nil {
		return domain.BatterySavingCheckResult{Stop: false}
	}

	result := domain.BatterySavingCheckResult{Stop: false, Soc: soc}

	if !status.CarStatusValid {
		p.Logger.Debug("battery_saving: car status marked invalid, skipping check")
		return result
	}
	if *soc < 0 || *soc > 100 {
		p.Logger.Warn("battery_saving: implausible SoC value, skipping check",
			zap.Float64("soc", *soc))
		return result
	}
	if status.CarStatusTimestamp == nil {
		p.Logger.Debug("battery_saving: no car status timestamp, skipping check")
		return result
	}
	age := now.Sub(*status.CarStatusTimestamp)
	if age > p.MaxAge {
		p.Logger.Debug("battery_saving: car status too old, skipping check",
			zap.Duration("age", age))
		return result
	}

	if *soc >= p.SocLimit {
		p.Logger.Info("battery_saving: SoC at or above limit, requesting charge stop",
			zap.Float64("soc", *soc), zap.Float64("limit", p.SocLimit))
		result.Stop = true
	}

	return result
}

// ensure interface compliance
var _ port.BatterySavingPolicy = (*DefaultBatterySavingPolicy)(nil)
