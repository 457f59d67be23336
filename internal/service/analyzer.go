package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"queryproxy/internal/core"
)

// AnalyzerTimeout bounds every call to the external analyzer. Past it the
// call is abandoned, never retried.
const AnalyzerTimeout = 20 * time.Second

var ErrAnalyzerUnavailable = errors.New("analysis service unavailable")

// AnalyzerClient talks to the external query-risk analyzer.
type AnalyzerClient struct {
	url    string
	client *http.Client
}

// NewAnalyzerClient builds a client for the given endpoint. An empty URL is
// allowed; every call then reports the analyzer as unavailable.
func NewAnalyzerClient(url string) *AnalyzerClient {
	return &AnalyzerClient{
		url:    url,
		client: &http.Client{Timeout: AnalyzerTimeout},
	}
}

func (c *AnalyzerClient) Analyze(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisVerdict, error) {
	if c.url == "" {
		return nil, ErrAnalyzerUnavailable
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAnalyzerUnavailable, resp.StatusCode)
	}

	var verdict core.AnalysisVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}
	if verdict.Feedback == nil {
		verdict.Feedback = []core.FeedbackItem{}
	}

	return &verdict, nil
}
