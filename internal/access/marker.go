package access

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

var (
	// ErrInvalidMarker is returned when marker validation fails
	ErrInvalidMarker = errors.New("invalid marker")
	// ErrExpiredMarker is returned when the marker is expired
	ErrExpiredMarker = errors.New("marker expired")
)

const markerIssuer = "lookout"

// MarkerClaims is the payload of the authentication marker cookie.
// Subject holds the fingerprint the marker was granted to.
type MarkerClaims struct {
	Method domain.AuthMethod `json:"method"`
	jwt.RegisteredClaims
}

// MarkerService signs and verifies authentication markers (HS256 JWT).
type MarkerService struct {
	secretKey []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewMarkerService creates a marker service. An empty secret gets a random
// per-process key, so markers do not survive a restart.
func NewMarkerService(secret string, expiresIn time.Duration) (*MarkerService, error) {
	key := []byte(secret)
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate marker secret: %w", err)
		}
		key = []byte(hex.EncodeToString(buf))
	}

	return &MarkerService{
		secretKey: key,
		expiresIn: expiresIn,
		now:       time.Now,
	}, nil
}

// TTL is how long an issued marker stays valid.
func (s *MarkerService) TTL() time.Duration {
	return s.expiresIn
}

// Issue creates a marker for fingerprint.
func (s *MarkerService) Issue(fingerprint string, method domain.AuthMethod) (string, error) {
	now := s.now()
	claims := MarkerClaims{
		Method: method,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    markerIssuer,
			Subject:   fingerprint,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Validate parses and verifies a marker.
func (s *MarkerService) Validate(tokenString string) (*MarkerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MarkerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidMarker
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(markerIssuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredMarker
		}
		return nil, ErrInvalidMarker
	}

	claims, ok := token.Claims.(*MarkerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidMarker
	}

	return claims, nil
}
