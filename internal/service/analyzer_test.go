package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryproxy/internal/core"
)

func TestAnalyzeSuccess(t *testing.T) {
	var got core.AnalysisRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(core.AnalysisVerdict{
			Suspicious: true,
			Feedback:   []core.FeedbackItem{{Type: "warning", Severity: "medium", Message: "full table scan"}},
		})
	}))
	defer srv.Close()

	client := NewAnalyzerClient(srv.URL)
	verdict, err := client.Analyze(context.Background(), &core.AnalysisRequest{
		SQL:        "SELECT * FROM users",
		ExecTimeMs: 42,
		Explanation: &core.Explanation{
			Type: "ANALYZE",
			Data: []map[string]any{{"EXPLAIN": "-> Table scan on users"}},
		},
	})
	require.NoError(t, err)

	assert.True(t, verdict.Suspicious)
	require.Len(t, verdict.Feedback, 1)
	assert.Equal(t, "full table scan", verdict.Feedback[0].Message)

	assert.Equal(t, "SELECT * FROM users", got.SQL)
	assert.Equal(t, int64(42), got.ExecTimeMs)
	require.NotNil(t, got.Explanation)
	assert.Equal(t, "ANALYZE", got.Explanation.Type)
}

func TestAnalyzeNormalizesNilFeedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"suspicious": false}`))
	}))
	defer srv.Close()

	verdict, err := NewAnalyzerClient(srv.URL).Analyze(context.Background(), &core.AnalysisRequest{SQL: "SELECT 1"})
	require.NoError(t, err)
	assert.NotNil(t, verdict.Feedback)
	assert.Empty(t, verdict.Feedback)
}

func TestAnalyzeFailures(t *testing.T) {
	t.Run("NoEndpointConfigured", func(t *testing.T) {
		_, err := NewAnalyzerClient("").Analyze(context.Background(), &core.AnalysisRequest{SQL: "SELECT 1"})
		assert.ErrorIs(t, err, ErrAnalyzerUnavailable)
	})

	t.Run("ServerError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewAnalyzerClient(srv.URL).Analyze(context.Background(), &core.AnalysisRequest{SQL: "SELECT 1"})
		assert.ErrorIs(t, err, ErrAnalyzerUnavailable)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := NewAnalyzerClient(srv.URL).Analyze(context.Background(), &core.AnalysisRequest{SQL: "SELECT 1"})
		assert.ErrorIs(t, err, ErrAnalyzerUnavailable)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewAnalyzerClient(srv.URL).Analyze(ctx, &core.AnalysisRequest{SQL: "SELECT 1"})
		assert.Error(t, err)
	})
}
