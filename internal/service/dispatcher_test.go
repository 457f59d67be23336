package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryproxy/internal/core"
	"queryproxy/internal/testutil"
)

func awaitLog(t *testing.T, logs *testutil.FakeLogRepo) {
	t.Helper()
	select {
	case <-logs.Created:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for log entry")
	}
}

func TestDispatcherPersistsVerdict(t *testing.T) {
	analyzer := &testutil.FakeAnalyzer{
		Verdict: &core.AnalysisVerdict{
			Suspicious: true,
			Feedback:   []core.FeedbackItem{{Type: "warning", Severity: "high", Message: "possible injection"}},
		},
	}
	logs := testutil.NewFakeLogRepo()
	d := NewDispatcher(analyzer, logs)

	d.run(context.Background(), Attempt{
		UserID:     "u1",
		SQL:        "select * from users where id = 1 or 1=1",
		ExecTimeMs: 12,
		Explanation: &core.Explanation{
			Type: "ANALYZE",
			Data: []map[string]any{{"EXPLAIN": "-> Table scan"}},
		},
	})

	entries, err := logs.GetRecent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, core.QuerySelect, entry.QueryType)
	assert.True(t, entry.Suspicious)
	require.Len(t, entry.Feedback, 1)
	assert.Equal(t, "possible injection", entry.Feedback[0].Message)

	reqs := analyzer.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, int64(12), reqs[0].ExecTimeMs)
	require.NotNil(t, reqs[0].Explanation)
}

func TestDispatcherRecordsFailedAttempt(t *testing.T) {
	analyzer := &testutil.FakeAnalyzer{}
	logs := testutil.NewFakeLogRepo()
	d := NewDispatcher(analyzer, logs)

	d.run(context.Background(), Attempt{
		UserID:     "u1",
		SQL:        "SELECT * FROM missing",
		ExecTimeMs: 3,
		Error:      "table missing doesn't exist",
	})

	entries, err := logs.GetRecent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "table missing doesn't exist", entries[0].Error)

	reqs := analyzer.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "table missing doesn't exist", reqs[0].Error)
}

func TestDispatcherDegradesWhenAnalyzerDown(t *testing.T) {
	analyzer := &testutil.FakeAnalyzer{Err: ErrAnalyzerUnavailable}
	logs := testutil.NewFakeLogRepo()
	d := NewDispatcher(analyzer, logs)

	d.run(context.Background(), Attempt{UserID: "u1", SQL: "UPDATE t SET a = 1", ExecTimeMs: 8})

	entries, err := logs.GetRecent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, core.QueryUpdate, entry.QueryType)
	assert.False(t, entry.Suspicious)
	require.Len(t, entry.Feedback, 1)
	assert.Equal(t, "info", entry.Feedback[0].Type)
	assert.Equal(t, "analysis service unavailable", entry.Feedback[0].Message)
}

func TestDispatchRunsDetached(t *testing.T) {
	logs := testutil.NewFakeLogRepo()
	d := NewDispatcher(&testutil.FakeAnalyzer{}, logs)

	d.Dispatch(Attempt{UserID: "u1", SQL: "SELECT 1", ExecTimeMs: 1})
	awaitLog(t, logs)

	entries, err := logs.GetRecent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

type panickingAnalyzer struct{}

func (panickingAnalyzer) Analyze(context.Context, *core.AnalysisRequest) (*core.AnalysisVerdict, error) {
	panic("analyzer blew up")
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	logs := testutil.NewFakeLogRepo()
	d := NewDispatcher(panickingAnalyzer{}, logs)

	// Must not crash the process; the entry is lost but the caller is unaffected.
	d.Dispatch(Attempt{UserID: "u1", SQL: "SELECT 1"})

	// A follow-up dispatch on a healthy analyzer still works.
	d2 := NewDispatcher(&testutil.FakeAnalyzer{}, logs)
	d2.Dispatch(Attempt{UserID: "u1", SQL: "SELECT 2"})
	awaitLog(t, logs)
}
