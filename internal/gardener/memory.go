package gardener

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

const maxRecords = 10

// CycleRecord captures what happened in a single gardener cycle.
type CycleRecord struct {
	Frame       uint64   `json:"frame"`
	Action      string   `json:"action"`
	Level       string   `json:"level"`
	FailureRate float64  `json:"failure_rate"`
	Traced      []string `json:"traced,omitempty"`
	Untraced    []string `json:"untraced,omitempty"`
}

// CycleMemory manages a ring of recent gardener cycle records.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
}

// LoadMemory reads the memory file. Returns empty memory if it does not exist
// or cannot be decoded.
func LoadMemory(path string) *CycleMemory {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("gardener memory unreadable, starting fresh", "error", err)
		}
		return &CycleMemory{}
	}
	var mem CycleMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		slog.Warn("gardener memory corrupted, starting fresh", "error", err)
		return &CycleMemory{}
	}
	return &mem
}

// Save writes the memory to path.
func (m *CycleMemory) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gardener memory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write gardener memory: %w", err)
	}
	return nil
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// LastFrame returns the frame of the newest record, 0 if none. A frame counter
// that went backwards means the simulation restarted.
func (m *CycleMemory) LastFrame(current uint64) uint64 {
	if len(m.Records) == 0 {
		return 0
	}
	last := m.Records[len(m.Records)-1].Frame
	if last > current {
		return 0
	}
	return last
}

// Watched returns the agents the gardener traced and has not untraced since.
func (m *CycleMemory) Watched() map[string]bool {
	w := make(map[string]bool)
	for _, r := range m.Records {
		for _, name := range r.Traced {
			w[name] = true
		}
		for _, name := range r.Untraced {
			delete(w, name)
		}
	}
	return w
}
