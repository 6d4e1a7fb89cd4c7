package recording

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/ttdb/pkg/domain/types"
)

// DefaultCapacity is the number of steps a recording holds unless configured
// otherwise.
const DefaultCapacity = 1000

var (
	// ErrInvalidRecording is returned by operations on a recording that was
	// not created successfully.
	ErrInvalidRecording = errors.New("recording is not valid")
	// ErrCapacityExceeded is returned when a step cannot be recorded because
	// the recording is full. Already recorded steps remain available.
	ErrCapacityExceeded = errors.New("recording capacity exceeded")
)

// Recording is the append-only step log of one debug session. Apart from
// the current-step cursor, recorded steps are never modified.
//
// A Recording is owned by a single session and is not safe for concurrent
// use.
type Recording struct {
	steps       []StepState
	currentStep int
	capacity    int
	valid       bool
}

// NewRecording creates an empty recording that holds up to capacity steps.
// A capacity of zero or less produces an invalid recording.
func NewRecording(capacity int) *Recording {
	if capacity <= 0 {
		return &Recording{}
	}
	return &Recording{
		steps:    make([]StepState, 0, min(capacity, DefaultCapacity)),
		capacity: capacity,
		valid:    true,
	}
}

// Valid reports whether the recording accepts operations.
func (r *Recording) Valid() bool {
	return r != nil && r.valid
}

// Capacity returns the maximum number of steps.
func (r *Recording) Capacity() int {
	if r == nil {
		return 0
	}
	return r.capacity
}

// StepCount returns the number of recorded steps.
func (r *Recording) StepCount() int {
	if r == nil {
		return 0
	}
	return len(r.steps)
}

// IsEmpty reports whether no step has been recorded.
func (r *Recording) IsEmpty() bool {
	return r.StepCount() == 0
}

// Full reports whether the recording has reached its capacity.
func (r *Recording) Full() bool {
	return r.Valid() && len(r.steps) >= r.capacity
}

// CurrentStep returns the step being viewed. It is 0 for an empty recording.
func (r *Recording) CurrentStep() types.StepNumber {
	if r == nil {
		return 0
	}
	return r.currentStep
}

// LastStep returns the number of the most recent step, or 0 if empty.
func (r *Recording) LastStep() types.StepNumber {
	if r.StepCount() == 0 {
		return 0
	}
	return len(r.steps) - 1
}

// AtTip reports whether the cursor is on the most recent step.
func (r *Recording) AtTip() bool {
	return r.CurrentStep() == r.LastStep()
}

// Step returns the step with the given number.
func (r *Recording) Step(n types.StepNumber) (StepState, bool) {
	if n < 0 || n >= r.StepCount() {
		return StepState{}, false
	}
	return r.steps[n], true
}

// Current returns the step under the cursor.
func (r *Recording) Current() (StepState, bool) {
	return r.Step(r.CurrentStep())
}

// Steps returns a copy of the step log.
func (r *Recording) Steps() []StepState {
	steps := make([]StepState, r.StepCount())
	if r != nil {
		copy(steps, r.steps)
	}
	return steps
}

// Append assigns the next step number to s, appends it and moves the cursor
// to it. The caller must not retain references to s.Variables values or to
// s.Snapshot.
func (r *Recording) Append(s StepState) (types.StepNumber, error) {
	if !r.Valid() {
		return types.NoStep, ErrInvalidRecording
	}
	if len(r.steps) >= r.capacity {
		return types.NoStep, fmt.Errorf("%w: %d steps", ErrCapacityExceeded, r.capacity)
	}

	s.Number = len(r.steps)
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now()
	}
	r.steps = append(r.steps, s)
	r.currentStep = s.Number
	return s.Number, nil
}

// SetCurrentStep moves the cursor, bounding n to the recorded range.
func (r *Recording) SetCurrentStep(n types.StepNumber) types.StepNumber {
	if r == nil {
		return 0
	}
	r.currentStep = max(0, min(n, r.LastStep()))
	return r.currentStep
}

// TruncateAfter discards every step after n and returns how many steps were
// dropped. The cursor is bounded to the new tip.
func (r *Recording) TruncateAfter(n types.StepNumber) int {
	if !r.Valid() || n >= len(r.steps)-1 {
		return 0
	}
	keep := max(n+1, 0)
	dropped := len(r.steps) - keep
	for i := keep; i < len(r.steps); i++ {
		r.steps[i] = StepState{}
	}
	r.steps = r.steps[:keep]
	r.currentStep = min(r.currentStep, r.LastStep())
	return dropped
}
