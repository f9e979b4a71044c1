// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package session

// BehavioralEvent is one client interaction sample. Optional fields are
// pointers so that absent values are omitted on the wire instead of being
// sent to the scorer as zeroes.
type BehavioralEvent struct {
	Type    string   `json:"type" validate:"required,max=32"`
	Time    float64  `json:"time" validate:"gte=0"`
	Key     *string  `json:"key,omitempty" validate:"omitempty,max=64"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Button  *string  `json:"button,omitempty" validate:"omitempty,max=16"`
	Pressed *bool    `json:"pressed,omitempty"`
}

// ActionEvent is one privileged backend action correlated with a session.
// Timestamp is Unix seconds.
type ActionEvent struct {
	Timestamp   float64 `json:"timestamp"`
	User        string  `json:"user"`
	SessionID   string  `json:"session_id"`
	EventType   string  `json:"event_type"`
	QuerySizeKB int     `json:"query_size_kb"`
}

// Buffer holds everything accumulated for a session since its last decision.
type Buffer struct {
	Behavioral []BehavioralEvent
	Actions    []ActionEvent
}

// Empty reports whether both sequences are empty.
func (b Buffer) Empty() bool {
	return len(b.Behavioral) == 0 && len(b.Actions) == 0
}

func (b Buffer) clone() Buffer {
	out := Buffer{}
	if len(b.Behavioral) > 0 {
		out.Behavioral = make([]BehavioralEvent, len(b.Behavioral))
		copy(out.Behavioral, b.Behavioral)
	}
	if len(b.Actions) > 0 {
		out.Actions = make([]ActionEvent, len(b.Actions))
		copy(out.Actions, b.Actions)
	}
	return out
}
