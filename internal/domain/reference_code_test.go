package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReferenceCode_Standing(t *testing.T) {
	tests := []struct {
		name         string
		code         ReferenceCode
		canRedeem    bool
		goodStanding bool
		remaining    int
	}{
		{"fresh code", ReferenceCode{Code: "a", MaxUses: 10, CurrentUses: 0}, true, true, 10},
		{"one slot left", ReferenceCode{Code: "a", MaxUses: 3, CurrentUses: 2}, true, true, 1},
		{"exactly exhausted", ReferenceCode{Code: "a", MaxUses: 3, CurrentUses: 3}, false, true, 0},
		{"revoked by lowering ceiling", ReferenceCode{Code: "a", MaxUses: 1, CurrentUses: 3}, false, false, 0},
		{"zero ceiling", ReferenceCode{Code: "a", MaxUses: 0, CurrentUses: 0}, false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canRedeem, tt.code.CanRedeem())
			assert.Equal(t, tt.goodStanding, tt.code.InGoodStanding())
			assert.Equal(t, tt.remaining, tt.code.Remaining())
		})
	}
}

func TestReferenceCode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		code    ReferenceCode
		wantErr bool
	}{
		{"default code", ReferenceCode{Code: DefaultCode, MaxUses: DefaultCodeMaxUses}, false},
		{"dashes and underscores", ReferenceCode{Code: "demo_2024-a", MaxUses: 1}, false},
		{"empty code", ReferenceCode{Code: "", MaxUses: 1}, true},
		{"whitespace", ReferenceCode{Code: "12 34", MaxUses: 1}, true},
		{"negative max", ReferenceCode{Code: "abc", MaxUses: -1}, true},
		{"negative current", ReferenceCode{Code: "abc", MaxUses: 1, CurrentUses: -2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.code.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBrowserSession_IsExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := BrowserSession{LastLogin: now.Add(-48 * time.Hour)}

	assert.False(t, s.IsExpired(now, 0), "zero max age never expires")
	assert.False(t, s.IsExpired(now, 72*time.Hour))
	assert.True(t, s.IsExpired(now, 24*time.Hour))
}

func TestAuthState_String(t *testing.T) {
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
}
