package gardener

import "fmt"

// Change is one debug-trace toggle to apply to a brain.
type Change struct {
	Agent     string `json:"agent"`
	DebugInfo bool   `json:"debug_info"`
	Reason    string `json:"reason"`
}

// Decision is the outcome of one cycle.
type Decision struct {
	Action  string   `json:"action"` // "none" or "trace"
	Changes []Change `json:"changes,omitempty"`
}

// Decide turns tracing on for failing or stalled brains and back off for
// brains the gardener traced earlier that have recovered. Brains traced by
// someone else are left alone.
func Decide(snap *Snapshot, h *Health, mem *CycleMemory) *Decision {
	d := &Decision{Action: "none"}

	watched := mem.Watched()
	flagged := make(map[string]string, len(h.Failing)+len(h.Stalled))
	for _, name := range h.Stalled {
		flagged[name] = "stalled"
	}
	for _, name := range h.Failing {
		flagged[name] = fmt.Sprintf("%d failures", h.FailuresByAgent[name])
	}

	for _, b := range snap.Brains {
		reason, bad := flagged[b.Name]
		switch {
		case bad && !b.DebugInfo:
			d.Changes = append(d.Changes, Change{Agent: b.Name, DebugInfo: true, Reason: reason})
		case !bad && b.DebugInfo && watched[b.Name] && h.FailuresByAgent[b.Name] == 0:
			d.Changes = append(d.Changes, Change{Agent: b.Name, DebugInfo: false, Reason: "recovered"})
		}
	}

	if len(d.Changes) > 0 {
		d.Action = "trace"
	}
	return d
}
