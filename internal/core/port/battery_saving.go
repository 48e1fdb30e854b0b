package port

import (
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"
)

type BatterySavingPolicy interface {
	Check(status *domain.StatusSnapshot, now time.Time) domain.BatterySavingCheckResult
}
