package parse

import (
	"strconv"
	"strings"

	"github.com/auditline/coverage/internal/metrics"
	"github.com/auditline/coverage/internal/types"
)

// Column names in the delimited vendor's header row, matched exactly.
const (
	colDate     = "Date"
	colUser     = "User"
	colFullName = "Full name"
	colFrom     = "From"
	colTo       = "To"
	colDuration = "Call Duration In Seconds"
	colCallType = "Call Type"
)

// unknownAgent substitutes for a blank User column.
const unknownAgent = "Unknown"

// inboundMarkers classify a Call Type value as inbound when any of them
// appears as a substring; everything else, including blank, is outbound.
var inboundMarkers = []string{"inbound", "live-q", "ivr"}

// DelimitedExtractor reads the delimited-text vendor's export. Date and
// User are required; the remaining columns degrade to empty or zero when
// absent.
type DelimitedExtractor struct{}

func (e *DelimitedExtractor) Format() types.SourceFormat { return types.SourceDelimited }

func (e *DelimitedExtractor) Extract(data []byte) ([]types.CallRecord, error) {
	rows := Tokenize(string(data))
	header, idx, err := locateColumns(rows)
	if err != nil {
		return nil, err
	}

	var records []types.CallRecord
	for _, row := range rows[1:] {
		if len(row) < len(header) {
			metrics.RowsDroppedTotal.WithLabelValues(string(types.SourceDelimited), "short_row").Inc()
			continue
		}
		at := func(col string) string {
			i, ok := idx[col]
			if !ok {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		start, err := ParseTimestamp(at(colDate))
		if err != nil {
			metrics.RowsDroppedTotal.WithLabelValues(string(types.SourceDelimited), "unparseable_date").Inc()
			continue
		}

		agent := at(colUser)
		if agent == "" {
			agent = unknownAgent
		}

		rec := types.CallRecord{
			AgentName:       agent,
			CallStart:       start,
			DurationSeconds: atoiOrZero(at(colDuration)),
			Direction:       classifyCallType(at(colCallType)),
			ContactName:     at(colFullName),
		}
		if rec.Direction == types.DirectionOutbound {
			rec.ContactPhone = at(colTo)
		} else {
			rec.ContactPhone = at(colFrom)
		}

		records = append(records, rec)
	}

	return records, nil
}

// Dates scans the Date column across every row, independent of any target
// date, sorted descending.
func (e *DelimitedExtractor) Dates(data []byte) ([]string, error) {
	rows := Tokenize(string(data))
	_, idx, err := locateColumns(rows)
	if err != nil {
		return nil, err
	}

	dateIdx := idx[colDate]
	seen := make(map[string]struct{})
	for _, row := range rows[1:] {
		if dateIdx >= len(row) {
			continue
		}
		start, err := ParseTimestamp(row[dateIdx])
		if err != nil {
			continue
		}
		seen[start.Format(types.DateKeyLayout)] = struct{}{}
	}

	return sortDatesDescending(seen), nil
}

// locateColumns resolves header positions by exact name and enforces the
// required Date and User columns.
func locateColumns(rows [][]string) ([]string, map[string]int, error) {
	if len(rows) == 0 {
		return nil, nil, &MissingColumnsError{Columns: []string{colDate, colUser}}
	}

	header := rows[0]
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, taken := idx[name]; !taken {
			idx[name] = i
		}
	}

	var missing []string
	for _, required := range []string{colDate, colUser} {
		if _, ok := idx[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &MissingColumnsError{Columns: missing}
	}

	return header, idx, nil
}

func classifyCallType(callType string) types.Direction {
	lowered := strings.ToLower(callType)
	for _, marker := range inboundMarkers {
		if strings.Contains(lowered, marker) {
			return types.DirectionInbound
		}
	}
	return types.DirectionOutbound
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
