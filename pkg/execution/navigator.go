package execution

import (
	"math"

	"github.com/dshills/ttdb/pkg/domain/recording"
	"github.com/dshills/ttdb/pkg/domain/types"
)

// Navigator moves a recording's cursor through history. Navigation never
// fails: out-of-range targets are clamped into [0, last step], and the
// recorded steps themselves are only read.
type Navigator struct {
	logger *Logger
}

// NewNavigator creates a navigator.
func NewNavigator(logger *Logger) *Navigator {
	return &Navigator{logger: logger}
}

// Clamp bounds target to [0, last] of rec.
func Clamp(rec *recording.Recording, target types.StepNumber) types.StepNumber {
	return max(0, min(target, rec.LastStep()))
}

// Goto moves the cursor to target, clamped, and returns the step it landed
// on together with that step's snapshot. On an empty recording it returns
// (0, nil).
func (n *Navigator) Goto(rec *recording.Recording, target types.StepNumber) (types.StepNumber, *recording.ExecutionSnapshot) {
	if rec.IsEmpty() {
		return 0, nil
	}
	from := rec.CurrentStep()
	to := rec.SetCurrentStep(Clamp(rec, target))
	if from != to {
		n.logger.LogNavigation(from, to)
	}
	step, _ := rec.Step(to)
	return to, step.Snapshot
}

// RewindBy moves the cursor back by steps.
func (n *Navigator) RewindBy(rec *recording.Recording, steps int) (types.StepNumber, *recording.ExecutionSnapshot) {
	if steps == math.MinInt {
		return n.Goto(rec, math.MaxInt)
	}
	return n.Goto(rec, saturatingAdd(rec.CurrentStep(), -steps))
}

// ForwardBy moves the cursor forward by steps, never past the last recorded
// step.
func (n *Navigator) ForwardBy(rec *recording.Recording, steps int) (types.StepNumber, *recording.ExecutionSnapshot) {
	return n.Goto(rec, saturatingAdd(rec.CurrentStep(), steps))
}

// saturatingAdd adds a non-negative base and any delta without wrapping.
func saturatingAdd(base, delta int) int {
	if delta > 0 && base > math.MaxInt-delta {
		return math.MaxInt
	}
	return base + delta
}
