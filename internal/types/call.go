package types

import "time"

// Direction tells whether the agent placed or received the call.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// SourceFormat identifies which vendor export produced a result.
type SourceFormat string

const (
	SourceSpreadsheet SourceFormat = "spreadsheet"
	SourceDelimited   SourceFormat = "delimited"
)

// DateKeyLayout is the calendar-date representation used throughout:
// partition keys, target dates and available-date listings.
const DateKeyLayout = "2006-01-02"

// CallRecord is the canonical, vendor-independent representation of one call.
// CallStart is always a valid instant; rows that fail to parse are dropped
// before they ever become a CallRecord.
type CallRecord struct {
	AgentName       string    `json:"agentName"`
	CallStart       time.Time `json:"callStart"`
	DurationSeconds int       `json:"durationSeconds"`
	Direction       Direction `json:"direction"`
	ContactName     string    `json:"contactName,omitempty"`
	ContactPhone    string    `json:"contactPhone,omitempty"`
	Result          string    `json:"result,omitempty"`
}

// End returns the instant the call finished.
func (c CallRecord) End() time.Time {
	return c.CallStart.Add(time.Duration(c.DurationSeconds) * time.Second)
}

// DateKey returns the calendar date of the call start.
func (c CallRecord) DateKey() string {
	return c.CallStart.Format(DateKeyLayout)
}

// Gap is a contiguous interval within office hours where no call was active
// for one agent. DurationSeconds is always positive; zero-length intervals
// are never materialized.
type Gap struct {
	AgentName       string    `json:"agentName"`
	GapStart        time.Time `json:"gapStart"`
	GapEnd          time.Time `json:"gapEnd"`
	DurationSeconds int       `json:"durationSeconds"`

	// CallBefore is the call ending at GapStart; nil for the pre-first-call gap.
	CallBefore *CallRecord `json:"callBefore,omitempty"`
	// CallAfter is the call starting at GapEnd; nil for the post-last-call gap.
	CallAfter *CallRecord `json:"callAfter,omitempty"`
}

// AgentSummary aggregates one agent's calls and gaps for a single date.
// Summaries are built fresh on every parse or rebuild and never mutated.
type AgentSummary struct {
	AgentName           string       `json:"agentName"`
	Date                string       `json:"date"`
	TotalCalls          int          `json:"totalCalls"`
	InboundCalls        int          `json:"inboundCalls"`
	OutboundCalls       int          `json:"outboundCalls"`
	TotalTalkSeconds    int          `json:"totalTalkSeconds"`
	InboundTalkSeconds  int          `json:"inboundTalkSeconds"`
	OutboundTalkSeconds int          `json:"outboundTalkSeconds"`
	Calls               []CallRecord `json:"calls"`
	Gaps                []Gap        `json:"gaps"`
}

// ParseResult is the top-level output of a parse or rebuild. Agents are
// sorted ascending by name; AvailableDates covers every calendar date seen
// in the source, descending, not just the target date.
type ParseResult struct {
	ResultID       string         `json:"resultId"`
	SourceFormat   SourceFormat   `json:"sourceFormat"`
	TargetDate     string         `json:"targetDate"`
	AvailableDates []string       `json:"availableDates"`
	RawCallCount   int            `json:"rawCallCount"`
	Agents         []AgentSummary `json:"agents"`
}
