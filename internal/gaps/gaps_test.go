package gaps_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditline/coverage/internal/gaps"
	"github.com/auditline/coverage/internal/types"
)

var officeHours = types.OfficeHours{
	Start: types.DayTime{Hour: 8},
	End:   types.DayTime{Hour: 18},
}

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)

func call(agent string, hour, min, durationSeconds int) types.CallRecord {
	return types.CallRecord{
		AgentName:       agent,
		CallStart:       time.Date(2026, 3, 2, hour, min, 0, 0, time.Local),
		DurationSeconds: durationSeconds,
		Direction:       types.DirectionInbound,
	}
}

func TestComputeEmptyCallsYieldsNoGaps(t *testing.T) {
	assert.Empty(t, gaps.Compute(nil, officeHours, day))
}

func TestComputeSingleCallCoversWindow(t *testing.T) {
	calls := []types.CallRecord{call("Ana", 9, 0, 600)} // 09:00-09:10

	result := gaps.Compute(calls, officeHours, day)

	require.Len(t, result, 2)
	assert.Equal(t, 3600, result[0].DurationSeconds, "08:00-09:00")
	assert.Equal(t, 31800, result[1].DurationSeconds, "09:10-18:00")

	// Gaps plus talk time tile the whole office-hours window.
	total := result[0].DurationSeconds + calls[0].DurationSeconds + result[1].DurationSeconds
	assert.Equal(t, 36000, total)

	assert.Nil(t, result[0].CallBefore)
	require.NotNil(t, result[0].CallAfter)
	assert.True(t, result[0].CallAfter.CallStart.Equal(calls[0].CallStart))

	require.NotNil(t, result[1].CallBefore)
	assert.Nil(t, result[1].CallAfter)
}

func TestComputeInterCallGap(t *testing.T) {
	calls := []types.CallRecord{
		call("Ana", 9, 0, 600),  // ends 09:10
		call("Ana", 9, 40, 300), // starts 09:40
	}

	result := gaps.Compute(calls, officeHours, day)

	require.Len(t, result, 3)
	mid := result[1]
	assert.Equal(t, 1800, mid.DurationSeconds)
	require.NotNil(t, mid.CallBefore)
	require.NotNil(t, mid.CallAfter)
	assert.True(t, mid.GapStart.Equal(calls[0].End()))
	assert.True(t, mid.GapEnd.Equal(calls[1].CallStart))
}

func TestComputeBackToBackAndOverlappingCalls(t *testing.T) {
	tests := map[string][]types.CallRecord{
		"back to back": {
			call("Ana", 9, 0, 600), // ends exactly at 09:10
			call("Ana", 9, 10, 300),
		},
		"overlapping": {
			call("Ana", 9, 0, 1200), // ends 09:20, next starts 09:10
			call("Ana", 9, 10, 300),
		},
	}

	for name, calls := range tests {
		t.Run(name, func(t *testing.T) {
			result := gaps.Compute(calls, officeHours, day)

			// Only the pre- and post-call gaps remain.
			require.Len(t, result, 2)
			assert.Nil(t, result[0].CallBefore)
			assert.Nil(t, result[1].CallAfter)
		})
	}
}

func TestComputeCallOutsideOfficeHours(t *testing.T) {
	// Starts before office open; no pre-call gap and no negative interval.
	calls := []types.CallRecord{call("Ana", 7, 0, 1800)} // 07:00-07:30

	result := gaps.Compute(calls, officeHours, day)

	require.Len(t, result, 1)
	assert.Equal(t, 37800, result[0].DurationSeconds, "07:30-18:00 post-call gap")
}

func TestComputeIdempotent(t *testing.T) {
	calls := []types.CallRecord{
		call("Ana", 9, 0, 600),
		call("Ana", 11, 30, 450),
	}

	first := gaps.Compute(calls, officeHours, day)
	second := gaps.Compute(calls, officeHours, day)

	assert.Equal(t, first, second)
}

func TestComputeDifferentHoursSameCalls(t *testing.T) {
	calls := []types.CallRecord{call("Ana", 9, 0, 600)}

	narrow := types.OfficeHours{
		Start: types.DayTime{Hour: 9},
		End:   types.DayTime{Hour: 10},
	}
	result := gaps.Compute(calls, narrow, day)

	require.Len(t, result, 1)
	assert.Equal(t, 3000, result[0].DurationSeconds, "09:10-10:00")
}

func TestSignificantThresholdMonotonic(t *testing.T) {
	calls := []types.CallRecord{
		call("Ana", 9, 0, 600),
		call("Ana", 9, 15, 600),  // 5 min gap before
		call("Ana", 10, 0, 600),  // 35 min gap before
		call("Ana", 12, 0, 600),  // 110 min gap before
	}
	all := gaps.Compute(calls, officeHours, day)

	prev := len(all)
	for _, minutes := range []int{0, 10, 30, 60, 120, 1000} {
		filtered := gaps.Significant(all, minutes)
		assert.LessOrEqual(t, len(filtered), prev,
			"raising the threshold to %d min must not grow the subset", minutes)
		prev = len(filtered)
	}

	assert.Empty(t, gaps.Significant(all, 1000))
	assert.Equal(t, all, gaps.Significant(all, 0))
}
