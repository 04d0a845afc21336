package gardener

import "sort"

// Thresholds used by Triage.
const (
	StallFrames      = 120 // A brain without a decision after this many frames is stalled
	FailureThreshold = 3   // Failures per cycle that mark a brain as failing
)

// Health holds derived diagnostic signals computed from a Snapshot.
// Runs before Decide; deterministic.
type Health struct {
	NewFailures     int            // Failure events since the previous cycle
	FailuresByAgent map[string]int // Agent name → failures since the previous cycle
	Failing         []string       // Agents at or above FailureThreshold, sorted
	Stalled         []string       // Agents with no decision yet, sorted
	FailureRate     float64        // NewFailures per brain
	Level           string         // "CRITICAL", "WARNING", "WATCH", "HEALTHY"
}

// Triage computes a Health from the snapshot. Only failures recorded after
// sinceFrame are counted.
func Triage(snap *Snapshot, sinceFrame uint64) *Health {
	h := &Health{FailuresByAgent: make(map[string]int)}

	names := make(map[string]string, len(snap.Brains))
	for _, b := range snap.Brains {
		names[b.ID] = b.Name
		if b.Decisions == 0 && snap.Status.Frame >= StallFrames {
			h.Stalled = append(h.Stalled, b.Name)
		}
	}

	for _, e := range snap.Failures {
		if e.Frame <= sinceFrame {
			continue
		}
		h.NewFailures++
		name, ok := names[e.Agent]
		if !ok {
			continue // Agent removed since
		}
		h.FailuresByAgent[name]++
	}
	for name, n := range h.FailuresByAgent {
		if n >= FailureThreshold {
			h.Failing = append(h.Failing, name)
		}
	}
	sort.Strings(h.Failing)
	sort.Strings(h.Stalled)

	if len(snap.Brains) > 0 {
		h.FailureRate = float64(h.NewFailures) / float64(len(snap.Brains))
	}

	switch {
	case len(snap.Brains) > 0 && len(h.Stalled) == len(snap.Brains):
		h.Level = "CRITICAL"
	case h.FailureRate >= 5:
		h.Level = "CRITICAL"
	case len(h.Failing) > 0 || len(h.Stalled) > 0:
		h.Level = "WARNING"
	case h.NewFailures > 0:
		h.Level = "WATCH"
	default:
		h.Level = "HEALTHY"
	}
	return h
}
