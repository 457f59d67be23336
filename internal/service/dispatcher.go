package service

import (
	"context"
	"time"

	"queryproxy/internal/core"
	"queryproxy/internal/logger"
	"queryproxy/internal/metrics"
)

// persistTimeout bounds the log write after the analyzer call has finished
// (or timed out — the attempt is still persisted either way).
const persistTimeout = 5 * time.Second

// Attempt is everything the dispatcher needs to analyze and record one
// query attempt.
type Attempt struct {
	UserID       string
	SQL          string
	ExecTimeMs   int64
	AffectedRows int64
	Error        string
	Explanation  *core.Explanation
}

// Dispatcher forwards query attempts to the analyzer and persists the
// outcome. It runs detached from the response path: the handler never waits
// for it and nothing it does can reach the client.
type Dispatcher struct {
	analyzer core.Analyzer
	logs     core.LogRepository
}

func NewDispatcher(analyzer core.Analyzer, logs core.LogRepository) *Dispatcher {
	return &Dispatcher{analyzer: analyzer, logs: logs}
}

// Dispatch launches the analysis in its own goroutine. The recover boundary
// keeps a panic inside analysis or persistence away from the HTTP response
// that has already been produced.
func (d *Dispatcher) Dispatch(attempt Attempt) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error().Interface("panic", r).Str("user_id", attempt.UserID).
					Msg("analysis dispatch panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), AnalyzerTimeout)
		defer cancel()
		d.run(ctx, attempt)
	}()
}

// run performs one analyze-and-persist cycle. On analyzer failure the
// record is degraded, never dropped.
func (d *Dispatcher) run(ctx context.Context, attempt Attempt) {
	entry := &core.QueryLog{
		UserID:          attempt.UserID,
		QueryText:       attempt.SQL,
		ExecutionTimeMs: attempt.ExecTimeMs,
		QueryType:       core.ClassifyStatement(attempt.SQL),
		AffectedRows:    attempt.AffectedRows,
		Error:           attempt.Error,
	}

	req := &core.AnalysisRequest{
		SQL:         attempt.SQL,
		ExecTimeMs:  attempt.ExecTimeMs,
		Explanation: attempt.Explanation,
		Error:       attempt.Error,
	}

	verdict, err := d.analyzer.Analyze(ctx, req)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_id", attempt.UserID).Msg("query analysis failed")
		metrics.AnalysisTotal.WithLabelValues("unavailable").Inc()
		entry.Suspicious = false
		entry.Feedback = []core.FeedbackItem{{Type: "info", Message: "analysis service unavailable"}}
	} else {
		metrics.AnalysisTotal.WithLabelValues("ok").Inc()
		entry.Suspicious = verdict.Suspicious
		entry.Feedback = verdict.Feedback
	}

	// Fresh context: the analyzer may have burned the deadline, and the
	// record must be written regardless.
	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := d.logs.Create(persistCtx, entry); err != nil {
		logger.Log.Error().Err(err).Str("user_id", attempt.UserID).Msg("failed to persist query log")
	}
}
