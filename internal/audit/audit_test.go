package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name          string
		event         Event
		wantEventType string
		wantReason    bool
		wantClient    bool
	}{
		{
			name: "code redeemed",
			event: Event{
				EventType:   EventCodeRedeemed,
				Code:        MaskCode("123456789"),
				Fingerprint: "fp-1",
				Success:     true,
				Metadata:    map[string]string{"current_uses": "1"},
			},
			wantEventType: string(EventCodeRedeemed),
		},
		{
			name: "code rejected with reason",
			event: Event{
				EventType: EventCodeRejected,
				Code:      MaskCode("000000000"),
				Success:   false,
				Reason:    "invalid",
			},
			wantEventType: string(EventCodeRejected),
			wantReason:    true,
		},
		{
			name: "session rejected with client details",
			event: Event{
				EventType:   EventSessionRejected,
				Fingerprint: "fp-2",
				Success:     false,
				Reason:      "code_revoked",
				IPAddress:   "192.168.1.1",
				UserAgent:   "Mozilla/5.0",
			},
			wantEventType: string(EventSessionRejected),
			wantReason:    true,
			wantClient:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			auditLogger := NewSlogLogger(logger)
			err := auditLogger.Log(context.Background(), tt.event)

			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, tt.wantEventType)
			assert.Contains(t, output, "audit_event")
			assert.Contains(t, output, "audit")

			if tt.wantReason {
				assert.Contains(t, output, tt.event.Reason)
			}
			if tt.wantClient {
				assert.Contains(t, output, tt.event.IPAddress)
				assert.Contains(t, output, tt.event.UserAgent)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := auditLogger.Log(context.Background(), Event{EventType: EventSessionRevalidated, Success: true})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &logEntry))

	eventID, ok := logEntry["event_id"].(string)
	assert.True(t, ok)
	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)

	var data Event
	require.NoError(t, json.Unmarshal([]byte(logEntry["event_data"].(string)), &data))
	assert.False(t, data.Timestamp.IsZero())
}

func TestSlogLogger_Log_UsesProvidedIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	expectedID := uuid.New()

	err := auditLogger.Log(context.Background(), Event{
		ID:        expectedID,
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		EventType: EventSessionsPruned,
		Success:   true,
	})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, expectedID.String())
	assert.Contains(t, output, "2024-01-15T10:30:00Z")
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = &NoOpLogger{}
	assert.NoError(t, l.Log(context.Background(), Event{EventType: EventCodeRedeemed}))
}

func TestMaskCode(t *testing.T) {
	assert.Equal(t, "***789", MaskCode("123456789"))
	assert.Equal(t, "***", MaskCode("abc"))
	assert.Equal(t, "***", MaskCode(""))
}
