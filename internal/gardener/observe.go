// Package gardener implements the brain steward.
// It observes a running simulation via the API, triages brain health,
// decides which brains to trace and acts via the admin endpoints.
package gardener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status   Status      `json:"status"`
	Brains   []BrainInfo `json:"brains"`
	Failures []EventInfo `json:"failures"` // Oldest first
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Frame   uint64  `json:"frame"`
	SimTime string  `json:"sim_time"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
	Stats   struct {
		Agents    int     `json:"agents"`
		Idle      int     `json:"idle"`
		Failures  int     `json:"failures"`
		AvgScore  float64 `json:"avg_score"`
		Decisions int     `json:"decisions"`
	} `json:"stats"`
}

// BrainInfo mirrors items from GET /api/v1/brains.
type BrainInfo struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Behavior       string  `json:"behavior"`
	CommittedScore float64 `json:"committed_score"`
	Queued         int     `json:"queued"`
	Decisions      int     `json:"decisions"`
	DebugInfo      bool    `json:"debug_info"`
}

// EventInfo mirrors items from GET /api/v1/events.
type EventInfo struct {
	Frame       uint64 `json:"frame"`
	Agent       string `json:"agent"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Observer fetches simulation state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the status, the brains and the recent failures.
func (o *Observer) Observe(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/brains", &snap.Brains); err != nil {
		return nil, fmt.Errorf("fetch brains: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/events?category=failure&limit=500", &snap.Failures); err != nil {
		return nil, fmt.Errorf("fetch failures: %w", err)
	}

	return snap, nil
}

// Ready reports whether the status endpoint answers.
func (o *Observer) Ready(ctx context.Context) bool {
	var st Status
	return o.fetchJSON(ctx, "/api/v1/status", &st) == nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
