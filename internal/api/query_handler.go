package api

import (
	"database/sql"
	"net/http"
	"time"

	"queryproxy/internal/core"
	"queryproxy/internal/logger"
	"queryproxy/internal/metrics"
	"queryproxy/internal/service"
)

// recentLogLimit caps how much history the logs endpoint returns.
const recentLogLimit = 100

// QueryHandler executes tenant statements and serves the query history.
type QueryHandler struct {
	configs  core.ConfigRepository
	cipher   *service.CredentialCipher
	exec     *service.QueryExecutor
	open     service.PoolOpener
	dispatch *service.Dispatcher
	logs     core.LogRepository
}

func NewQueryHandler(configs core.ConfigRepository, cipher *service.CredentialCipher, exec *service.QueryExecutor,
	open service.PoolOpener, dispatch *service.Dispatcher, logs core.LogRepository) *QueryHandler {
	return &QueryHandler{configs: configs, cipher: cipher, exec: exec, open: open, dispatch: dispatch, logs: logs}
}

type queryRequest struct {
	SQL string `json:"sql"`
}

// Execute runs one statement against the caller's configured database. A
// fresh pool is opened for the request and closed when it ends. The response
// never waits for analysis; every attempt is handed to the dispatcher.
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req queryRequest
	if err := decode(r, &req); err != nil || req.SQL == "" {
		writeError(w, http.StatusBadRequest, "SQL query is required")
		return
	}

	cfg, err := h.configs.GetByUserID(r.Context(), claims.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("config lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}
	if cfg == nil {
		writeError(w, http.StatusBadRequest, "User configuration not found. Please save your database configuration first.")
		return
	}

	plain, err := h.cipher.Decrypt(cfg.Password)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("credential decryption failed")
		writeError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}
	cfg.Password = plain

	// The timer covers connection setup as well as execution; that is the
	// latency the caller actually experienced.
	start := time.Now()

	pool, err := h.open(r.Context(), cfg)
	if err != nil {
		metrics.PoolFailures.Inc()
		h.respondFailure(w, claims.ID, req.SQL, err.Error(), msSince(start))
		return
	}
	defer pool.Close()

	result, err := h.exec.Execute(r.Context(), pool, req.SQL)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(string(core.ClassifyStatement(req.SQL)), "error").Inc()
		h.respondFailure(w, claims.ID, req.SQL, err.Error(), msSince(start))
		return
	}
	result.ExecTimeMs = msSince(start)

	// Plan retrieval happens after the result is complete so its cost never
	// counts against the reported execution time.
	expl := h.exec.RetrievePlan(r.Context(), pool, result.QueryType, req.SQL)

	metrics.QueriesTotal.WithLabelValues(string(result.QueryType), "success").Inc()
	metrics.QueryDuration.Observe(time.Since(start).Seconds())

	h.dispatch.Dispatch(service.Attempt{
		UserID:       claims.ID,
		SQL:          req.SQL,
		ExecTimeMs:   result.ExecTimeMs,
		AffectedRows: result.AffectedRows,
		Explanation:  expl,
	})

	// Suspicion is always false here; the verdict lands in the log later.
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":         result.Rows,
		"fields":       result.Fields,
		"affectedRows": result.AffectedRows,
		"insertId":     result.InsertID,
		"execTime":     result.ExecTimeMs,
		"queryType":    result.QueryType,
		"status":       "success",
		"suspicious":   false,
		"feedback":     []core.FeedbackItem{},
	})
}

// respondFailure writes the failure envelope and records the attempt. Failed
// attempts are flagged suspicious up front; the analyzer still sees them.
func (h *QueryHandler) respondFailure(w http.ResponseWriter, userID, sqlText, errMsg string, execMs int64) {
	h.dispatch.Dispatch(service.Attempt{
		UserID:     userID,
		SQL:        sqlText,
		ExecTimeMs: execMs,
		Error:      errMsg,
	})

	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":      errMsg,
		"execTime":   execMs,
		"status":     "error",
		"suspicious": true,
		"feedback": []core.FeedbackItem{
			{Type: "error", Severity: "high", Message: errMsg},
		},
	})
}

// Logs returns the caller's most recent query records as a bare array,
// newest first.
func (h *QueryHandler) Logs(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	entries, err := h.logs.GetRecent(r.Context(), claims.ID, recentLogLimit)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("log fetch failed")
		writeError(w, http.StatusInternalServerError, "Failed to load logs")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Clear deletes the caller's entire query history.
func (h *QueryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	removed, err := h.logs.ClearByUser(r.Context(), claims.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("log clear failed")
		writeError(w, http.StatusInternalServerError, "Failed to clear logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"cleared": removed,
	})
}

// Analytics returns aggregate usage stats plus a per-type breakdown.
func (h *QueryHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	stats, err := h.logs.Stats(r.Context(), claims.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("stats failed")
		writeError(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}

	breakdown, err := h.logs.TypeBreakdown(r.Context(), claims.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("breakdown failed")
		writeError(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"stats":      stats,
		"queryTypes": breakdown,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func msSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// HealthHandler reports service liveness and metadata store connectivity.
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	connected := h.db.PingContext(r.Context()) == nil

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"service":           "queryproxy",
		"databaseConnected": connected,
	})
}
