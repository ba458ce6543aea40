package annotator

import (
	"fmt"
	"math"
	"sync"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

// Settings are the runtime knobs shared by every stream
type Settings struct {
	mu            sync.RWMutex
	minConfidence float64
	showDistance  bool
}

// SettingsSnapshot is the JSON view of Settings
type SettingsSnapshot struct {
	Sensitivity  float64 `json:"sensitivity"`
	ShowDistance bool    `json:"show_distance"`
}

func NewSettings() *Settings {
	return &Settings{showDistance: true}
}

// SetSensitivity sets the minimum confidence a detection needs to be drawn
func (s *Settings) SetSensitivity(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("sensitivity %v outside [0,1]", v))
	}
	s.mu.Lock()
	s.minConfidence = v
	s.mu.Unlock()
	return nil
}

func (s *Settings) SetShowDistance(show bool) {
	s.mu.Lock()
	s.showDistance = show
	s.mu.Unlock()
}

func (s *Settings) Snapshot() SettingsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SettingsSnapshot{Sensitivity: s.minConfidence, ShowDistance: s.showDistance}
}
