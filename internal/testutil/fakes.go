// Package testutil provides in-memory fakes for the storage and analyzer
// interfaces, used by service and handler tests.
package testutil

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"queryproxy/internal/core"
)

type FakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*core.User
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[string]*core.User)}
}

func (r *FakeUserRepo) Create(_ context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *FakeUserRepo) GetByID(_ context.Context, id string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *FakeUserRepo) GetByEmail(_ context.Context, email string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepo) GetByAPIKey(_ context.Context, key string) (*core.User, error) {
	if key == "" {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.APIKey == key {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepo) SetAPIKey(_ context.Context, userID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.APIKey = key
	return nil
}

func (r *FakeUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

type FakeConfigRepo struct {
	mu      sync.Mutex
	configs map[string]*core.TenantConfig
}

func NewFakeConfigRepo() *FakeConfigRepo {
	return &FakeConfigRepo{configs: make(map[string]*core.TenantConfig)}
}

func (r *FakeConfigRepo) Save(_ context.Context, cfg *core.TenantConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cfg
	r.configs[cfg.UserID] = &cp
	return nil
}

func (r *FakeConfigRepo) GetByUserID(_ context.Context, userID string) (*core.TenantConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.configs[userID]; ok {
		cp := *cfg
		return &cp, nil
	}
	return nil, nil
}

// FakeLogRepo records query logs in memory. Created is signaled once per
// Create so tests can wait for the detached dispatcher to land.
type FakeLogRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []core.QueryLog

	Created chan struct{}
}

func NewFakeLogRepo() *FakeLogRepo {
	return &FakeLogRepo{Created: make(chan struct{}, 16)}
}

func (r *FakeLogRepo) Create(_ context.Context, entry *core.QueryLog) error {
	r.mu.Lock()
	r.nextID++
	entry.ID = r.nextID
	r.entries = append(r.entries, *entry)
	r.mu.Unlock()

	select {
	case r.Created <- struct{}{}:
	default:
	}
	return nil
}

func (r *FakeLogRepo) GetRecent(_ context.Context, userID string, limit int) ([]core.QueryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []core.QueryLog{}
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FakeLogRepo) ClearByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	var removed int64
	for _, e := range r.entries {
		if e.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed, nil
}

func (r *FakeLogRepo) Stats(_ context.Context, userID string) (*core.UsageStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &core.UsageStats{}
	var totalMs int64
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		s.TotalQueries++
		totalMs += e.ExecutionTimeMs
		if e.Suspicious {
			s.SuspiciousQueries++
		}
		s.Queries24h++
		s.Queries1h++
	}
	if s.TotalQueries > 0 {
		s.AvgExecutionTime = float64(totalMs) / float64(s.TotalQueries)
	}
	return s, nil
}

func (r *FakeLogRepo) TypeBreakdown(_ context.Context, userID string) ([]core.TypeBreakdown, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[core.QueryType]*core.TypeBreakdown{}
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		b, ok := counts[e.QueryType]
		if !ok {
			b = &core.TypeBreakdown{QueryType: e.QueryType}
			counts[e.QueryType] = b
		}
		b.Count++
	}
	out := []core.TypeBreakdown{}
	for _, b := range counts {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueryType < out[j].QueryType })
	return out, nil
}

// FakeAnalyzer returns a fixed verdict or error.
type FakeAnalyzer struct {
	Verdict *core.AnalysisVerdict
	Err     error

	mu       sync.Mutex
	requests []core.AnalysisRequest
}

func (a *FakeAnalyzer) Analyze(_ context.Context, req *core.AnalysisRequest) (*core.AnalysisVerdict, error) {
	a.mu.Lock()
	a.requests = append(a.requests, *req)
	a.mu.Unlock()

	if a.Err != nil {
		return nil, a.Err
	}
	if a.Verdict != nil {
		v := *a.Verdict
		return &v, nil
	}
	return &core.AnalysisVerdict{Suspicious: false, Feedback: []core.FeedbackItem{}}, nil
}

func (a *FakeAnalyzer) Requests() []core.AnalysisRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]core.AnalysisRequest(nil), a.requests...)
}
