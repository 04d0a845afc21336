package gardener

import (
	"context"
	"log/slog"
)

// RunCycle executes one observe → triage → decide → act cycle and records it
// in mem. Failed changes are logged and left out of the record.
func RunCycle(ctx context.Context, observer *Observer, actor *Actor, mem *CycleMemory) (CycleRecord, error) {
	slog.Info("gardener cycle starting")

	snap, err := observer.Observe(ctx)
	if err != nil {
		return CycleRecord{}, err
	}
	h := Triage(snap, mem.LastFrame(snap.Status.Frame))
	slog.Info("observation complete",
		"frame", snap.Status.Frame,
		"brains", len(snap.Brains),
		"new_failures", h.NewFailures,
		"failing", len(h.Failing),
		"stalled", len(h.Stalled),
		"level", h.Level,
	)

	d := Decide(snap, h, mem)
	rec := CycleRecord{
		Frame:       snap.Status.Frame,
		Action:      d.Action,
		Level:       h.Level,
		FailureRate: h.FailureRate,
	}
	for _, c := range d.Changes {
		if err := actor.Act(ctx, c); err != nil {
			slog.Error("trace change failed", "agent", c.Agent, "error", err)
			continue
		}
		slog.Info("trace changed", "agent", c.Agent, "debug_info", c.DebugInfo, "reason", c.Reason)
		if c.DebugInfo {
			rec.Traced = append(rec.Traced, c.Agent)
		} else {
			rec.Untraced = append(rec.Untraced, c.Agent)
		}
	}

	mem.Record(rec)
	if len(d.Changes) == 0 {
		slog.Info("gardener cycle complete, no changes")
	}
	return rec, nil
}
