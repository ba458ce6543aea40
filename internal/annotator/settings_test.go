package annotator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

func TestSettings_Defaults(t *testing.T) {
	snap := NewSettings().Snapshot()

	assert.Equal(t, 0.0, snap.Sensitivity)
	assert.True(t, snap.ShowDistance)
}

func TestSettings_SetSensitivity(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"middle", 0.35, false},
		{"one", 1, false},
		{"negative", -0.1, true},
		{"above one", 1.1, true},
		{"nan", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings()
			err := s.SetSensitivity(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidationFailed)
				assert.Equal(t, 0.0, s.Snapshot().Sensitivity)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.value, s.Snapshot().Sensitivity)
		})
	}
}

func TestSettings_ToggleDistance(t *testing.T) {
	s := NewSettings()

	s.SetShowDistance(false)
	assert.False(t, s.Snapshot().ShowDistance)

	s.SetShowDistance(true)
	assert.True(t, s.Snapshot().ShowDistance)
}
