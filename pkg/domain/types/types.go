// Package types defines core domain type aliases and identifiers for ttdb.
package types

import "github.com/google/uuid"

// SessionID is a unique identifier for a debug session.
type SessionID string

// StepNumber identifies a recorded step. Step numbers are 0-based and equal
// the step's index in its recording.
type StepNumber = int

// NoStep is returned where a step number is expected but nothing was recorded.
const NoStep StepNumber = -1

// NewSessionID generates a new unique session ID.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// String returns the string representation of a SessionID.
func (id SessionID) String() string {
	return string(id)
}

// Short returns the first eight characters of the ID, for prompts and logs.
func (id SessionID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero returns true if the SessionID is the zero value.
func (id SessionID) IsZero() bool {
	return id == ""
}
