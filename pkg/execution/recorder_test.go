package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ttdb/pkg/domain/recording"
	"github.com/dshills/ttdb/pkg/domain/scope"
	"github.com/dshills/ttdb/pkg/domain/types"
)

func TestRecorder_RecordStep(t *testing.T) {
	rec := recording.NewRecording(10)
	r := NewRecorder(rec, nil)
	sm := NewSnapshotManager()
	st := scope.NewState()

	values := map[string]scope.Value{"x": []interface{}{1}}
	n, err := r.RecordStep(3, []string{"x"}, values, sm.Capture(st))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	values["x"].([]interface{})[0] = 99

	step, ok := rec.Step(0)
	require.True(t, ok)
	assert.Equal(t, 3, step.Line)
	assert.NotNil(t, step.Snapshot)
	v, _ := step.Lookup("x")
	assert.Equal(t, []interface{}{1}, v, "bindings are copied on record")

	n, err = r.RecordStep(4, nil, nil, sm.Capture(st))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_Errors(t *testing.T) {
	t.Run("invalid recording", func(t *testing.T) {
		r := NewRecorder(recording.NewRecording(0), nil)
		n, err := r.RecordStep(1, nil, nil, nil)
		assert.ErrorIs(t, err, recording.ErrInvalidRecording)
		assert.Equal(t, types.NoStep, n)
	})

	t.Run("full recording", func(t *testing.T) {
		rec := recording.NewRecording(1)
		r := NewRecorder(rec, NewLogger(types.NewSessionID()))
		_, err := r.RecordStep(1, nil, nil, nil)
		require.NoError(t, err)

		n, err := r.RecordStep(2, nil, nil, nil)
		assert.ErrorIs(t, err, recording.ErrCapacityExceeded)
		assert.Equal(t, types.NoStep, n)
		assert.Equal(t, 1, rec.StepCount())
	})
}
