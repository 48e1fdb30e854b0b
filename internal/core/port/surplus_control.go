package port

import (
	"github.com/berfenger/surplus2goe/internal/core/domain"
)

type SurplusControlLogic interface {
	Step(gridAvgKW float64, wallboxAvgKW float64) domain.SurplusControlResult
	ReservedPowerKW() float64
}
