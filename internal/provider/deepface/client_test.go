package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries int) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Timeout = 2 * time.Second
	cfg.RetryCount = retries
	return NewClient(cfg)
}

func TestClient_Represent(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse interface{}
		serverStatus   int
		wantErr        bool
		wantErrContain string
		validateResp   func(*testing.T, *RepresentResponse)
	}{
		{
			name: "successful response with single face",
			serverResponse: RepresentResponse{
				Results: []RepresentResult{
					{FacialArea: FacialArea{X: 10, Y: 20, W: 100, H: 100, LeftEye: []float64{40, 50}}},
				},
			},
			serverStatus: http.StatusOK,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				require.Len(t, resp.Results, 1)
				assert.Equal(t, 10, resp.Results[0].FacialArea.X)
				assert.Equal(t, []float64{40, 50}, resp.Results[0].FacialArea.LeftEye)
				assert.Nil(t, resp.Results[0].FaceConfidence)
			},
		},
		{
			name:           "empty response",
			serverResponse: RepresentResponse{Results: []RepresentResult{}},
			serverStatus:   http.StatusOK,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				assert.Len(t, resp.Results, 0)
			},
		},
		{
			name:           "bad request 400",
			serverResponse: map[string]string{"error": "invalid image format"},
			serverStatus:   http.StatusBadRequest,
			wantErr:        true,
			wantErrContain: "status 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/represent", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				var req RepresentRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "aW1n", req.Img)
				assert.Equal(t, "opencv", req.Detector)
				assert.False(t, req.EnforceDetection)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.serverStatus)
				_ = json.NewEncoder(w).Encode(tt.serverResponse)
			}))
			defer server.Close()

			resp, err := newTestClient(server.URL, 0).Represent(context.Background(), "aW1n")

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrContain)
				return
			}
			require.NoError(t, err)
			tt.validateResp(t, resp)
		})
	}
}

func TestClient_Analyze_SendsActions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)

		var req AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"emotion"}, req.Actions)

		_, _ = w.Write([]byte(`{"results":[{"region":{"x":1,"y":2,"w":3,"h":4},"emotion":{"happy":90.5,"sad":9.5},"dominant_emotion":"happy","face_confidence":0.93}]}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL, 0).Analyze(context.Background(), "aW1n", "emotion")

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "happy", resp.Results[0].DominantEmotion)
	require.NotNil(t, resp.Results[0].FaceConfidence)
	assert.InDelta(t, 0.93, *resp.Results[0].FaceConfidence, 0.0001)
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).Represent(context.Background(), "aW1n")

	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL, 1).Represent(context.Background(), "aW1n")

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).Represent(context.Background(), "aW1n")

	assert.ErrorIs(t, err, ErrDeepFaceUnavailable)
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).Represent(context.Background(), "aW1n")

	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL, 2).Represent(ctx, "aW1n")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Second, calculateBackoff(0))
	assert.Equal(t, time.Second, calculateBackoff(1))
	assert.Equal(t, 2*time.Second, calculateBackoff(2))
	assert.Equal(t, 4*time.Second, calculateBackoff(3))
	assert.Equal(t, 32*time.Second, calculateBackoff(10))
}
