// Package gaps computes per-agent coverage gaps: maximal idle intervals
// within configured office hours where no call was active.
package gaps

import (
	"math"
	"time"

	"github.com/auditline/coverage/internal/metrics"
	"github.com/auditline/coverage/internal/types"
)

// Compute returns the idle intervals for one agent's calls on one date.
// calls must belong to a single agent and be sorted ascending by start
// time. The function is pure and safe to re-invoke with different office
// hours for the same call set.
//
// A day with zero calls yields zero gaps; no full-day gap is synthesized.
// Gaps of non-positive rounded length are never emitted, which also covers
// back-to-back and overlapping calls.
func Compute(calls []types.CallRecord, hours types.OfficeHours, date time.Time) []types.Gap {
	metrics.GapComputationsTotal.Inc()

	if len(calls) == 0 {
		return nil
	}

	dayStart, dayEnd := hours.Bounds(date)
	agent := calls[0].AgentName

	var out []types.Gap
	emit := func(start, end time.Time, before, after *types.CallRecord) {
		secs := int(math.Round(end.Sub(start).Seconds()))
		if secs <= 0 {
			return
		}
		out = append(out, types.Gap{
			AgentName:       agent,
			GapStart:        start,
			GapEnd:          end,
			DurationSeconds: secs,
			CallBefore:      before,
			CallAfter:       after,
		})
	}

	ref := func(c types.CallRecord) *types.CallRecord { return &c }

	emit(dayStart, calls[0].CallStart, nil, ref(calls[0]))
	for i := 0; i+1 < len(calls); i++ {
		emit(calls[i].End(), calls[i+1].CallStart, ref(calls[i]), ref(calls[i+1]))
	}
	last := calls[len(calls)-1]
	emit(last.End(), dayEnd, ref(last), nil)

	return out
}

// Significant keeps gaps whose duration meets or exceeds the given minute
// threshold. Raising the threshold never grows the returned subset.
func Significant(all []types.Gap, minMinutes int) []types.Gap {
	if minMinutes <= 0 {
		return all
	}
	minSeconds := minMinutes * 60

	var out []types.Gap
	for _, g := range all {
		if g.DurationSeconds >= minSeconds {
			out = append(out, g)
		}
	}
	return out
}
