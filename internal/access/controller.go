// Package access decides, per request, whether a browser may see the demo.
//
// A request is authenticated by a signed marker cookie or by its fingerprint,
// either way backed by a stored browser session whose code is still in good
// standing, or by redeeming a reference code. Only redemption consumes a use.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saturnino-fabrica-de-software/lookout/internal/audit"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/fingerprint"
)

// CodeRepository is implemented by store.CodeRepository and
// repository.ReferenceCodeRepository.
type CodeRepository interface {
	GetCode(ctx context.Context, code string) (*domain.ReferenceCode, error)
	RedeemCode(ctx context.Context, code string) (*domain.ReferenceCode, error)
}

// SessionRepository is implemented by store.SessionRepository and
// repository.BrowserSessionRepository.
type SessionRepository interface {
	GetSession(ctx context.Context, fingerprint string) (*domain.BrowserSession, error)
	SaveSession(ctx context.Context, s domain.BrowserSession) error
}

// Identity carries the request signals a fingerprint is derived from.
type Identity struct {
	UserAgent string
	Address   string
}

func (i Identity) Fingerprint() (string, error) {
	return fingerprint.Compute(i.UserAgent, i.Address)
}

// Decision is the outcome of Authenticate.
type Decision struct {
	State       domain.AuthState
	Method      domain.AuthMethod
	Fingerprint string
}

// Grant is returned by a successful redemption.
type Grant struct {
	Fingerprint string
	Code        domain.ReferenceCode
	Session     domain.BrowserSession
}

type Config struct {
	// SessionMaxAge bounds how long a stored session stays valid. Zero keeps
	// sessions forever.
	SessionMaxAge time.Duration
}

type Controller struct {
	codes    CodeRepository
	sessions SessionRepository
	markers  *MarkerService
	audit    audit.Logger
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

func NewController(
	codes CodeRepository,
	sessions SessionRepository,
	markers *MarkerService,
	auditLogger audit.Logger,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &Controller{
		codes:    codes,
		sessions: sessions,
		markers:  markers,
		audit:    auditLogger,
		logger:   logger.With("component", "access"),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (c *Controller) Markers() *MarkerService {
	return c.markers
}

// session rejection reasons
const (
	reasonNoSession   = "no_session"
	reasonCodeMissing = "code_missing"
	reasonCodeRevoked = "code_revoked"
	reasonExpired     = "session_expired"
)

// ValidateBrowserSession reports whether fp has a stored session whose code is
// still in good standing. It never changes usage counters.
func (c *Controller) ValidateBrowserSession(ctx context.Context, fp string) (bool, error) {
	reason, err := c.checkSession(ctx, fp)
	if err != nil {
		return false, err
	}
	return reason == "", nil
}

func (c *Controller) checkSession(ctx context.Context, fp string) (string, error) {
	if fp == fingerprint.None {
		return reasonNoSession, nil
	}

	session, err := c.sessions.GetSession(ctx, fp)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return reasonNoSession, nil
	}
	if err != nil {
		return "", fmt.Errorf("validate session: %w", err)
	}

	if session.IsExpired(c.now(), c.cfg.SessionMaxAge) {
		return reasonExpired, nil
	}

	rc, err := c.codes.GetCode(ctx, session.Code)
	if errors.Is(err, domain.ErrInvalidCode) {
		return reasonCodeMissing, nil
	}
	if err != nil {
		return "", fmt.Errorf("validate session: %w", err)
	}

	if !rc.InGoodStanding() {
		return reasonCodeRevoked, nil
	}

	return "", nil
}

// RedeemCode consumes one use of code and binds the caller's fingerprint to it.
// Denials are domain.ErrInvalidCode, domain.ErrUsageLimitReached and
// domain.ErrNoIdentity; the last is checked first so no use is consumed for a
// browser that cannot be remembered.
func (c *Controller) RedeemCode(ctx context.Context, code string, id Identity) (*Grant, error) {
	fp, err := id.Fingerprint()
	if err != nil {
		c.auditRedeem(ctx, code, id, fp, nil, "no_identity")
		return nil, err
	}

	rc, err := c.codes.RedeemCode(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCode):
			c.auditRedeem(ctx, code, id, fp, nil, "invalid")
		case errors.Is(err, domain.ErrUsageLimitReached):
			c.auditRedeem(ctx, code, id, fp, nil, "limit_reached")
		default:
			c.logger.ErrorContext(ctx, "redeem failed", "error", err)
		}
		return nil, err
	}

	session := domain.BrowserSession{
		Fingerprint: fp,
		Code:        rc.Code,
		LastLogin:   c.now().Truncate(time.Second),
		UserAgent:   id.UserAgent,
	}
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		// The use stays consumed; the caller sees a storage error and must retry.
		c.logger.ErrorContext(ctx, "code redeemed but session not saved",
			"error", err,
			"code", audit.MaskCode(code),
			"current_uses", rc.CurrentUses,
		)
		return nil, err
	}

	c.auditRedeem(ctx, code, id, fp, rc, "")

	return &Grant{Fingerprint: fp, Code: *rc, Session: session}, nil
}

// Authenticate runs the gate decision for one request: marker first, then the
// stored browser session. A marker only stands in for the fingerprint; the
// session it was granted to must still pass the same checks, so revoking a
// code or expiring a session also retires its markers. Errors always come
// with an Unauthenticated decision.
func (c *Controller) Authenticate(ctx context.Context, id Identity, marker string) (Decision, error) {
	if marker != "" && c.markers != nil {
		claims, err := c.markers.Validate(marker)
		if err == nil {
			reason, err := c.checkSession(ctx, claims.Subject)
			if err != nil {
				return Decision{State: domain.Unauthenticated, Fingerprint: claims.Subject}, err
			}
			if reason == "" {
				return Decision{State: domain.Authenticated, Method: domain.AuthMethodMarker, Fingerprint: claims.Subject}, nil
			}
			c.logAudit(ctx, audit.Event{
				EventType:   audit.EventSessionRejected,
				Fingerprint: claims.Subject,
				Success:     false,
				Reason:      reason,
				IPAddress:   id.Address,
				UserAgent:   id.UserAgent,
				Metadata:    map[string]string{"via": string(domain.AuthMethodMarker)},
			})
		} else {
			c.logger.DebugContext(ctx, "marker rejected", "error", err)
		}
	}

	fp, err := id.Fingerprint()
	if err != nil {
		return Decision{State: domain.Unauthenticated}, nil
	}

	reason, err := c.checkSession(ctx, fp)
	if err != nil {
		return Decision{State: domain.Unauthenticated, Fingerprint: fp}, err
	}

	if reason != "" {
		if reason != reasonNoSession {
			c.logAudit(ctx, audit.Event{
				EventType:   audit.EventSessionRejected,
				Fingerprint: fp,
				Success:     false,
				Reason:      reason,
				IPAddress:   id.Address,
				UserAgent:   id.UserAgent,
			})
		}
		return Decision{State: domain.Unauthenticated, Fingerprint: fp}, nil
	}

	c.logAudit(ctx, audit.Event{
		EventType:   audit.EventSessionRevalidated,
		Fingerprint: fp,
		Success:     true,
		IPAddress:   id.Address,
		UserAgent:   id.UserAgent,
	})

	return Decision{State: domain.Authenticated, Method: domain.AuthMethodSession, Fingerprint: fp}, nil
}

func (c *Controller) auditRedeem(ctx context.Context, code string, id Identity, fp string, rc *domain.ReferenceCode, reason string) {
	event := audit.Event{
		EventType:   audit.EventCodeRedeemed,
		Code:        audit.MaskCode(code),
		Fingerprint: fp,
		Success:     reason == "",
		Reason:      reason,
		IPAddress:   id.Address,
		UserAgent:   id.UserAgent,
	}
	if reason != "" {
		event.EventType = audit.EventCodeRejected
	}
	if rc != nil {
		event.Metadata = map[string]string{
			"current_uses": strconv.Itoa(rc.CurrentUses),
			"max_uses":     strconv.Itoa(rc.MaxUses),
		}
	}
	c.logAudit(ctx, event)
}

func (c *Controller) logAudit(ctx context.Context, event audit.Event) {
	if err := c.audit.Log(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "audit log failed", "error", err, "event_type", event.EventType)
	}
}
