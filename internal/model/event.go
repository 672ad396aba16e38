package model

import "encoding/json"

// StreamEventKind tags the variants of a StreamEvent.
type StreamEventKind int

const (
	// EventMeta carries listing metadata and precedes all rows.
	EventMeta StreamEventKind = iota
	// EventRow carries one serialized result record.
	EventRow
	// EventComplete terminates a successful enumeration.
	EventComplete
	// EventError terminates a failed enumeration.
	EventError
)

// StreamEvent is one element of an enumeration sequence. A well-formed
// sequence is: at most one Meta, then zero or more Rows, then exactly one
// Complete or Error. Nothing follows the terminal event.
type StreamEvent struct {
	Kind StreamEventKind
	// Row holds the serialized record for EventRow events.
	Row json.RawMessage
	// Err holds the failure reason for EventError events.
	Err error
}

// MetaEvent returns the metadata event opening a sequence.
func MetaEvent() StreamEvent {
	return StreamEvent{Kind: EventMeta}
}

// RowEvent returns an event carrying one serialized record.
func RowEvent(row json.RawMessage) StreamEvent {
	return StreamEvent{Kind: EventRow, Row: row}
}

// CompleteEvent returns the successful terminal event.
func CompleteEvent() StreamEvent {
	return StreamEvent{Kind: EventComplete}
}

// ErrorEvent returns the failing terminal event.
func ErrorEvent(err error) StreamEvent {
	return StreamEvent{Kind: EventError, Err: err}
}
