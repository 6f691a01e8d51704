package parse

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// callLengthEncoding discriminates the three duration encodings the
// spreadsheet vendor emits for one and the same column. The value is
// classified exactly once at ingestion; nothing downstream re-inspects
// the raw cell.
type callLengthEncoding int

const (
	encodingDayFraction callLengthEncoding = iota // e.g. 0.001736111 = fraction of a day
	encodingClockTime                             // HH:MM:SS time of day
	encodingMinSec                                // MM:SS text
	encodingUnknown
)

func classifyCallLength(raw string) callLengthEncoding {
	raw = strings.TrimSpace(raw)
	switch strings.Count(raw, ":") {
	case 2:
		return encodingClockTime
	case 1:
		return encodingMinSec
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return encodingDayFraction
	}
	return encodingUnknown
}

// CallLengthSeconds normalizes a spreadsheet call-length cell to whole
// seconds. Unrecognized encodings yield 0 rather than failing the row.
func CallLengthSeconds(raw string) int {
	raw = strings.TrimSpace(raw)

	switch classifyCallLength(raw) {
	case encodingDayFraction:
		v, _ := strconv.ParseFloat(raw, 64)
		if v < 0 {
			return 0
		}
		return int(math.Round(v * 86400))

	case encodingClockTime:
		parts := strings.Split(raw, ":")
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		s, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || s < 0 {
			return 0
		}
		return h*3600 + m*60 + s

	case encodingMinSec:
		parts := strings.Split(raw, ":")
		m, err1 := strconv.Atoi(parts[0])
		s, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || m < 0 || s < 0 {
			return 0
		}
		return m*60 + s
	}

	return 0
}

// timestampLayouts are tried in order for textual date-time values. Layouts
// without a zone are anchored in the local location.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02",
}

// ParseTimestamp converts a vendor date-time string to an absolute instant.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// sortDatesDescending orders a set of date keys newest first.
func sortDatesDescending(seen map[string]struct{}) []string {
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// ParseSheetTime converts a raw spreadsheet start-time cell to an absolute
// instant. Numeric cells are Excel serial dates; anything else falls back
// to the textual layouts.
func ParseSheetTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid excel serial date %q: %w", raw, err)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
	}
	return ParseTimestamp(raw)
}
