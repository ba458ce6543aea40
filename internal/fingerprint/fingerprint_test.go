package fingerprint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

const firefox = "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0"

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(firefox, "10.0.0.7")
	require.NoError(t, err)
	b, err := Compute(firefox, "10.0.0.7")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestCompute_InputsMatter(t *testing.T) {
	base, _ := Compute(firefox, "10.0.0.7")
	otherAddr, _ := Compute(firefox, "10.0.0.8")
	otherAgent, _ := Compute("curl/8.5.0", "10.0.0.7")

	assert.NotEqual(t, base, otherAddr)
	assert.NotEqual(t, base, otherAgent)
	assert.NotEqual(t, otherAddr, otherAgent)
}

func TestCompute_KnownValue(t *testing.T) {
	// sha256("ab")
	got, err := Compute("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "fb8e20fc2e4c3f248c60c39bd652f3c1347298bb977b8b4d5903b85055620603", got)
}

func TestCompute_NoIdentity(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		address   string
	}{
		{"missing user agent", "", "10.0.0.7"},
		{"missing address", firefox, ""},
		{"missing both", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.userAgent, tt.address)
			assert.Equal(t, None, got)
			assert.True(t, errors.Is(err, domain.ErrNoIdentity))
		})
	}
}
