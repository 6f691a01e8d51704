package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StoredCall is a canonical call row shaped for DynamoDB persistence.
// DateKey (YYYY-MM-DD) is the partition key, CallID the sort key.
type StoredCall struct {
	DateKey         string `json:"dateKey" dynamodbav:"DateKey"`
	CallID          string `json:"callId" dynamodbav:"CallID"`
	AgentName       string `json:"agentName" dynamodbav:"AgentName"`
	CallStart       string `json:"callStart" dynamodbav:"CallStart"` // RFC3339
	DurationSeconds int    `json:"durationSeconds" dynamodbav:"DurationSeconds"`
	Direction       string `json:"direction" dynamodbav:"Direction"`
	ContactName     string `json:"contactName" dynamodbav:"ContactName"`
	ContactPhone    string `json:"contactPhone" dynamodbav:"ContactPhone"`
	Result          string `json:"result" dynamodbav:"Result"`
	SourceFormat    string `json:"sourceFormat" dynamodbav:"SourceFormat"`
}

// NewStoredCall converts a canonical record into its persisted shape.
func NewStoredCall(call CallRecord, format SourceFormat) StoredCall {
	return StoredCall{
		DateKey:         call.DateKey(),
		CallID:          uuid.New().String(),
		AgentName:       call.AgentName,
		CallStart:       call.CallStart.Format(time.RFC3339),
		DurationSeconds: call.DurationSeconds,
		Direction:       string(call.Direction),
		ContactName:     call.ContactName,
		ContactPhone:    call.ContactPhone,
		Result:          call.Result,
		SourceFormat:    string(format),
	}
}

// ToCall converts a persisted row back to the canonical record.
func (s StoredCall) ToCall() (CallRecord, error) {
	start, err := time.Parse(time.RFC3339, s.CallStart)
	if err != nil {
		return CallRecord{}, fmt.Errorf("stored call %s has invalid start %q: %w", s.CallID, s.CallStart, err)
	}
	return CallRecord{
		AgentName:       s.AgentName,
		CallStart:       start.In(time.Local),
		DurationSeconds: s.DurationSeconds,
		Direction:       Direction(s.Direction),
		ContactName:     s.ContactName,
		ContactPhone:    s.ContactPhone,
		Result:          s.Result,
	}, nil
}
