package execution

import (
	"time"

	"github.com/dshills/ttdb/pkg/domain/recording"
	"github.com/dshills/ttdb/pkg/domain/types"
)

// Recorder appends one StepState per evaluated statement to a recording.
type Recorder struct {
	rec    *recording.Recording
	logger *Logger
}

// NewRecorder creates a recorder that appends to rec.
func NewRecorder(rec *recording.Recording, logger *Logger) *Recorder {
	return &Recorder{rec: rec, logger: logger}
}

// RecordStep deep-copies bindings, appends a new step for line carrying snap
// and returns the assigned step number.
//
// If the recording is invalid or full nothing is appended and RecordStep
// returns types.NoStep with recording.ErrInvalidRecording or
// recording.ErrCapacityExceeded. The caller owns the decision whether to warn.
// snap must have been produced by a SnapshotManager and must not be retained.
func (r *Recorder) RecordStep(line int, names []string, values map[string]interface{}, snap *recording.ExecutionSnapshot) (types.StepNumber, error) {
	if !r.rec.Valid() {
		return types.NoStep, recording.ErrInvalidRecording
	}
	if r.rec.Full() {
		return r.rec.Append(recording.StepState{})
	}

	n, err := r.rec.Append(recording.StepState{
		Line:       line,
		Variables:  CopyBindings(names, values),
		Snapshot:   snap,
		RecordedAt: time.Now(),
	})
	if err != nil {
		return types.NoStep, err
	}
	r.logger.LogStepRecorded(n, line)
	return n, nil
}
