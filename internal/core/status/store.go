package status

import (
	"sync"
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/pkg/goe"
	"github.com/berfenger/surplus2goe/pkg/renault"
)

// Store is the shared status of the controller. The control loop is the
// periodic writer, HTTP and MQTT command handlers read snapshots and write
// the mode and protection fields. Every access goes through one mutex and
// no device I/O ever happens under the lock.
type Store struct {
	mu               sync.Mutex
	status           domain.StatusSnapshot
	justSwitchedToPV bool
}

// LiveUpdate carries one instant snapshot of all device reads. A nil field
// means that read failed or the device is not configured.
type LiveUpdate struct {
	Timestamp      time.Time
	PVPowerKW      *float64
	GridPowerKW    *float64
	WallboxPowerKW *float64
	AvailableNowKW *float64
	CarState       *goe.CarState
	ChargePhase    *int
	ChargeCurrentA *int
	EnergyWh       *float64
}

func NewStore(initialMode domain.OperatingMode, socProtection bool) *Store {
	return &Store{
		status: domain.StatusSnapshot{
			Mode:                 initialMode,
			SocProtectionEnabled: socProtection,
		},
	}
}

// Snapshot returns a copy of the current status. Pointer fields are shared
// but never mutated in place, so the copy stays consistent.
func (s *Store) Snapshot() domain.StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) Mode() domain.OperatingMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Mode
}

// SetMode parses and stores a new operating mode. Switching from
// monitor_only to pv_surplus arms the one-shot flag that forces a control
// evaluation on the next tick. Unknown values leave the mode unchanged.
func (s *Store) SetMode(value string) (domain.OperatingMode, error) {
	mode, err := domain.ParseOperatingMode(value)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	oldMode := s.status.Mode
	s.status.Mode = mode
	if oldMode == domain.MODE_MONITOR_ONLY && mode == domain.MODE_PV_SURPLUS {
		s.justSwitchedToPV = true
	}
	return mode, nil
}

// ModeAndSwitchFlag reads the mode and the mode-switch flag in one lock
// acquisition so the scheduler sees a consistent pair.
func (s *Store) ModeAndSwitchFlag() (domain.OperatingMode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Mode, s.justSwitchedToPV
}

func (s *Store) SocProtectionEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.SocProtectionEnabled
}

func (s *Store) SetSocProtection(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.SocProtectionEnabled = enable
}

// ApplyLiveUpdate replaces the instantaneous fields wholesale. Failed reads
// arrive as nil and degrade the corresponding field to unknown.
func (s *Store) ApplyLiveUpdate(update LiveUpdate) {
	ts := update.Timestamp

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Timestamp = &ts
	s.status.PVPowerKW = update.PVPowerKW
	s.status.GridPowerKW = update.GridPowerKW
	s.status.WallboxPowerKW = update.WallboxPowerKW
	s.status.AvailablePowerNowKW = update.AvailableNowKW
	s.status.CarState = update.CarState
	s.status.ChargePhase = update.ChargePhase
	s.status.ChargeCurrentA = update.ChargeCurrentA
	s.status.EnergySinceConnectedWh = update.EnergyWh
}

// ApplyControlResult stores the windowed averages and the effective
// available power of a control evaluation and consumes the mode-switch
// flag.
func (s *Store) ApplyControlResult(gridAvgKW float64, wallboxAvgKW float64, result domain.SurplusControlResult) {
	gridAvg := gridAvgKW
	wallboxAvg := wallboxAvgKW
	available := result.AvailableKW

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.GridPowerAvgKW = &gridAvg
	s.status.WallboxPowerAvgKW = &wallboxAvg
	s.status.AvailablePowerKW = &available
	s.justSwitchedToPV = false
}

// ApplyVehicleStatus stores a successful cloud poll and marks the vehicle
// data valid.
func (s *Store) ApplyVehicleStatus(st *renault.BatteryStatus) {
	ts := st.Timestamp

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.CarSoc = st.SocPercent
	s.status.CarAutonomyKm = st.AutonomyKm
	s.status.CarPlugStatus = st.PlugStatus
	s.status.CarChargingStatus = st.ChargingStatus
	s.status.CarStatusTimestamp = &ts
	s.status.CarStatusValid = true
}

// MarkVehicleStatusAttempt records a failed cloud poll. The last known
// values stay visible but are no longer valid for the protection policy.
func (s *Store) MarkVehicleStatusAttempt(now time.Time) {
	ts := now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.CarStatusTimestamp = &ts
	s.status.CarStatusValid = false
}
