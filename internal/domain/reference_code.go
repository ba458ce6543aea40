package domain

import (
	"errors"
	"regexp"
)

// DefaultCode é o código semeado no primeiro start
const (
	DefaultCode        = "123456789"
	DefaultCodeMaxUses = 10
)

var codeRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ReferenceCode is a shared access code with a usage ceiling.
type ReferenceCode struct {
	Code        string `json:"-"`
	MaxUses     int    `json:"max_uses"`
	CurrentUses int    `json:"current_uses"`
}

// CanRedeem reports whether another redemption would stay within the ceiling.
func (r *ReferenceCode) CanRedeem() bool {
	return r.CurrentUses < r.MaxUses
}

// InGoodStanding reports whether sessions opened with this code remain valid.
// A code whose last slot was just consumed (CurrentUses == MaxUses) is still
// in good standing; lowering MaxUses below CurrentUses revokes it.
func (r *ReferenceCode) InGoodStanding() bool {
	return r.CurrentUses <= r.MaxUses
}

// Remaining returns the number of redemptions left, never negative.
func (r *ReferenceCode) Remaining() int {
	if r.CurrentUses >= r.MaxUses {
		return 0
	}
	return r.MaxUses - r.CurrentUses
}

func (r *ReferenceCode) Validate() error {
	if !codeRegex.MatchString(r.Code) {
		return errors.New("code must be 1-64 characters of letters, digits, '-' or '_'")
	}
	if r.MaxUses < 0 {
		return errors.New("max_uses must not be negative")
	}
	if r.CurrentUses < 0 {
		return errors.New("current_uses must not be negative")
	}
	return nil
}

// ValidCodeFormat reports whether s could be a reference code at all.
func ValidCodeFormat(s string) bool {
	return codeRegex.MatchString(s)
}
