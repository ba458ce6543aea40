package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(t.TempDir())
	require.NoError(t, st.Init(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil))))
	return st
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		err := dispatch(ctx, args, st.Codes, st.Sessions, &out)
		return out.String(), err
	}

	out, err := run("list")
	require.NoError(t, err)
	assert.Contains(t, out, domain.DefaultCode)
	assert.Contains(t, out, "active")

	_, err = run("add", "-code", "demo", "-max", "2")
	require.NoError(t, err)

	rc, err := st.Codes.GetCode(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 2, rc.MaxUses)
	assert.Equal(t, 0, rc.CurrentUses)

	_, err = st.Codes.RedeemCode(ctx, "demo")
	require.NoError(t, err)

	// raising the ceiling keeps the usage counter
	_, err = run("add", "-code", "demo", "-max", "5")
	require.NoError(t, err)
	rc, _ = st.Codes.GetCode(ctx, "demo")
	assert.Equal(t, 5, rc.MaxUses)
	assert.Equal(t, 1, rc.CurrentUses)

	_, err = run("revoke", "-code", "demo")
	require.NoError(t, err)
	rc, _ = st.Codes.GetCode(ctx, "demo")
	assert.False(t, rc.InGoodStanding())

	out, err = run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "revoked")

	_, err = run("reset", "-code", "demo")
	require.NoError(t, err)
	rc, _ = st.Codes.GetCode(ctx, "demo")
	assert.Equal(t, 0, rc.CurrentUses)
	assert.Equal(t, 0, rc.MaxUses)
}

func TestDispatch_Errors(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"add without code", []string{"add"}},
		{"add malformed code", []string{"add", "-code", "has space"}},
		{"revoke missing code", []string{"revoke", "-code", "ghost"}},
		{"reset without code", []string{"reset"}},
		{"bad flag", []string{"list", "-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, dispatch(ctx, tt.args, st.Codes, st.Sessions, &out))
		})
	}
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.Sessions.SaveSession(ctx, domain.BrowserSession{
		Fingerprint: "0123456789abcdef0123456789abcdef",
		Code:        domain.DefaultCode,
		LastLogin:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local),
		UserAgent:   "Mozilla/5.0",
	}))

	var out bytes.Buffer
	require.NoError(t, dispatch(ctx, []string{"sessions"}, st.Codes, st.Sessions, &out))

	assert.Contains(t, out.String(), "0123456789ab")
	assert.NotContains(t, out.String(), "0123456789abcdef0123")
	assert.Contains(t, out.String(), "2024-05-01 12:00:00")
	assert.Contains(t, out.String(), "Mozilla/5.0")
}

func TestRevokeRemovesSessions(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.Codes.UpsertCode(ctx, domain.ReferenceCode{Code: "demo", MaxUses: 3}))
	now := time.Now().Truncate(time.Second)
	require.NoError(t, st.Sessions.SaveSession(ctx, domain.BrowserSession{Fingerprint: "fp-a", Code: "demo", LastLogin: now}))
	require.NoError(t, st.Sessions.SaveSession(ctx, domain.BrowserSession{Fingerprint: "fp-b", Code: domain.DefaultCode, LastLogin: now}))

	var out bytes.Buffer
	require.NoError(t, dispatch(ctx, []string{"revoke", "-code", "demo"}, st.Codes, st.Sessions, &out))
	assert.Contains(t, out.String(), "1 sessions removed")

	// current_uses was 0, so the ceiling alone would leave the code in good standing
	rc, err := st.Codes.GetCode(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 0, rc.MaxUses)
	assert.True(t, rc.InGoodStanding())

	_, err = st.Sessions.GetSession(ctx, "fp-a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = st.Sessions.GetSession(ctx, "fp-b")
	assert.NoError(t, err)
}
