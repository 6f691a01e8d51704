// Package aggregator turns canonical call records into per-agent daily
// summaries with coverage gaps, either from a freshly parsed vendor file
// or from previously persisted rows.
package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/auditline/coverage/internal/gaps"
	"github.com/auditline/coverage/internal/metrics"
	"github.com/auditline/coverage/internal/parse"
	"github.com/auditline/coverage/internal/types"
)

// ErrNoCallsFound is returned when a file yields zero canonical calls for
// any date after all per-row filtering.
var ErrNoCallsFound = errors.New("no calls found in file")

// DefaultOfficeHours is the audit window applied at initial parse time.
var DefaultOfficeHours = types.OfficeHours{
	Start: types.DayTime{Hour: 8},
	End:   types.DayTime{Hour: 18},
}

// ParseFile dispatches the raw file to the extractor matching its name,
// then builds the aggregate result. An empty targetDate selects the most
// recent date observed in the file.
func ParseFile(name string, data []byte, targetDate string, hours types.OfficeHours) (*types.ParseResult, error) {
	ex, err := parse.ForFile(name)
	if err != nil {
		return nil, err
	}

	calls, err := ex.Extract(data)
	if err != nil {
		return nil, err
	}
	dates, err := ex.Dates(data)
	if err != nil {
		return nil, err
	}

	return Build(calls, dates, ex.Format(), targetDate, hours)
}

// AvailableDates scans the whole file for calendar dates, descending,
// independent of any target date.
func AvailableDates(name string, data []byte) ([]string, error) {
	ex, err := parse.ForFile(name)
	if err != nil {
		return nil, err
	}
	return ex.Dates(data)
}

// Build assembles a ParseResult from canonical calls. availableDates comes
// from the unfiltered scan of the source; calls outside targetDate
// contribute only to that listing.
func Build(calls []types.CallRecord, availableDates []string, format types.SourceFormat, targetDate string, hours types.OfficeHours) (*types.ParseResult, error) {
	if len(calls) == 0 {
		return nil, ErrNoCallsFound
	}
	if err := hours.Validate(); err != nil {
		return nil, err
	}

	if targetDate == "" {
		if len(availableDates) > 0 {
			targetDate = availableDates[0]
		} else {
			targetDate = DatesOf(calls)[0]
		}
	}
	day, err := time.ParseInLocation(types.DateKeyLayout, targetDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid target date %q: %w", targetDate, err)
	}

	byAgent := make(map[string][]types.CallRecord)
	for _, c := range calls {
		if c.DateKey() != targetDate {
			continue
		}
		byAgent[c.AgentName] = append(byAgent[c.AgentName], c)
	}

	names := make([]string, 0, len(byAgent))
	for name := range byAgent {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]types.AgentSummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, summarize(name, targetDate, byAgent[name], hours, day))
	}

	return &types.ParseResult{
		ResultID:       uuid.New().String(),
		SourceFormat:   format,
		TargetDate:     targetDate,
		AvailableDates: availableDates,
		RawCallCount:   len(calls),
		Agents:         summaries,
	}, nil
}

// Rebuild recreates an aggregate result from previously persisted canonical
// rows, honoring caller-supplied office hours so stored data can be
// re-audited without re-ingesting the source file. With the same rows,
// target date and default office hours, the output is structurally equal to
// what Build produced at parse time.
func Rebuild(stored []types.StoredCall, format types.SourceFormat, targetDate string, hours types.OfficeHours) (*types.ParseResult, error) {
	metrics.RebuildsTotal.Inc()

	calls := make([]types.CallRecord, 0, len(stored))
	for _, row := range stored {
		call, err := row.ToCall()
		if err != nil {
			continue
		}
		calls = append(calls, call)
	}

	return Build(calls, DatesOf(calls), format, targetDate, hours)
}

// DatesOf lists the calendar dates present in a call set, descending.
func DatesOf(calls []types.CallRecord) []string {
	seen := make(map[string]struct{})
	for _, c := range calls {
		seen[c.DateKey()] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func summarize(agent, date string, calls []types.CallRecord, hours types.OfficeHours, day time.Time) types.AgentSummary {
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].CallStart.Before(calls[j].CallStart)
	})

	summary := types.AgentSummary{
		AgentName: agent,
		Date:      date,
		Calls:     calls,
	}
	for _, c := range calls {
		summary.TotalCalls++
		summary.TotalTalkSeconds += c.DurationSeconds
		if c.Direction == types.DirectionInbound {
			summary.InboundCalls++
			summary.InboundTalkSeconds += c.DurationSeconds
		} else {
			summary.OutboundCalls++
			summary.OutboundTalkSeconds += c.DurationSeconds
		}
	}
	summary.Gaps = gaps.Compute(calls, hours, day)

	return summary
}
