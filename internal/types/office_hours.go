package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayTime is a wall-clock time of day, serialized as "HH:MM".
type DayTime struct {
	Hour   int
	Minute int
}

// ParseDayTime parses a "HH:MM" string.
func ParseDayTime(s string) (DayTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return DayTime{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return DayTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (d DayTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// Minutes returns the offset from midnight in minutes.
func (d DayTime) Minutes() int {
	return d.Hour*60 + d.Minute
}

func (d DayTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DayTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDayTime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// OfficeHours is the daily window gaps are measured against. Start must be
// strictly before End within the same day; overnight windows are not
// supported.
type OfficeHours struct {
	Start DayTime `json:"start"`
	End   DayTime `json:"end"`
}

// Validate checks the window ordering invariant.
func (o OfficeHours) Validate() error {
	if o.Start.Minutes() >= o.End.Minutes() {
		return fmt.Errorf("office hours start %s must be before end %s", o.Start, o.End)
	}
	return nil
}

// Bounds anchors the window to a calendar date, producing the two absolute
// instants bounding the audited day. The date's location is preserved.
func (o OfficeHours) Bounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), o.Start.Hour, o.Start.Minute, 0, 0, date.Location())
	end := time.Date(date.Year(), date.Month(), date.Day(), o.End.Hour, o.End.Minute, 0, 0, date.Location())
	return start, end
}
