package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testReadings() []Reading {
	return []Reading{
		{VibrationRMS: 2.1, Timestamp: 1700000000},
		{VibrationRMS: 3.4, Timestamp: 1700000060},
		{VibrationRMS: 4.9, Timestamp: 1700000120},
	}
}

func TestPredict_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		readings, ok := req["readings"].([]any)
		require.True(t, ok)
		require.Len(t, readings, 3)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"classification": {
				"will_fail_soon": true,
				"failure_probability": 0.87,
				"confidence": 0.92,
				"threshold_minutes": 30
			},
			"regression": {
				"minutes_to_failure": 42.5,
				"hours_to_failure": 0.71,
				"status": "ok"
			},
			"readings_used": 3
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zap.NewNop())

	prediction, err := client.Predict(context.Background(), testReadings())

	require.NoError(t, err)
	assert.True(t, prediction.WillFailSoon)
	assert.Equal(t, 0.87, prediction.FailureProbability)
	assert.Equal(t, 0.92, prediction.Confidence)
	assert.Equal(t, 42.5, prediction.MinutesToFailure)
	assert.Equal(t, "ok", prediction.Status)
	assert.Equal(t, 3, prediction.ReadingsUsed)
}

func TestPredict_ServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zap.NewNop())

	_, err := client.Predict(context.Background(), testReadings())

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPredict_Unreachable(t *testing.T) {
	// 无人监听的端口
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond, zap.NewNop())

	_, err := client.Predict(context.Background(), testReadings())

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPredict_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"classification": garbage`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zap.NewNop())

	_, err := client.Predict(context.Background(), testReadings())

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPredict_OutOfRangeProbability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"classification": {"failure_probability": 1.7}, "readings_used": 3}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zap.NewNop())

	_, err := client.Predict(context.Background(), testReadings())

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPredict_EmptyReadings(t *testing.T) {
	client := NewClient("http://localhost:8000", time.Second, zap.NewNop())

	_, err := client.Predict(context.Background(), nil)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
