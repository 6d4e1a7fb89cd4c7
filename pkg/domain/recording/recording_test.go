package recording

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ttdb/pkg/domain/scope"
	"github.com/dshills/ttdb/pkg/domain/types"
)

func appendLines(t *testing.T, r *Recording, lines ...int) {
	t.Helper()
	for _, line := range lines {
		_, err := r.Append(StepState{Line: line})
		require.NoError(t, err)
	}
}

func TestNewRecording(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		wantValid bool
	}{
		{"default capacity", DefaultCapacity, true},
		{"small capacity", 1, true},
		{"capacity above default", DefaultCapacity * 2, true},
		{"zero capacity", 0, false},
		{"negative capacity", -5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecording(tt.capacity)
			assert.Equal(t, tt.wantValid, r.Valid())
			assert.True(t, r.IsEmpty())
			assert.Equal(t, 0, r.CurrentStep())
			assert.Equal(t, 0, r.LastStep())
		})
	}
}

func TestRecording_InvalidRejectsAppend(t *testing.T) {
	r := NewRecording(0)
	n, err := r.Append(StepState{Line: 1})
	assert.ErrorIs(t, err, ErrInvalidRecording)
	assert.Equal(t, types.NoStep, n)
	assert.False(t, r.Full())
}

func TestRecording_Append(t *testing.T) {
	r := NewRecording(10)

	for i, line := range []int{3, 4, 4, 9} {
		n, err := r.Append(StepState{Line: line, Number: 42})
		require.NoError(t, err)
		assert.Equal(t, i, n, "number is assigned from the index")
		assert.Equal(t, i, r.CurrentStep(), "cursor follows the tip")
	}

	assert.Equal(t, 4, r.StepCount())
	assert.Equal(t, 3, r.LastStep())
	assert.True(t, r.AtTip())

	step, ok := r.Step(2)
	require.True(t, ok)
	assert.Equal(t, 2, step.Number)
	assert.Equal(t, 4, step.Line)
	assert.False(t, step.RecordedAt.IsZero())

	_, ok = r.Step(4)
	assert.False(t, ok)
	_, ok = r.Step(-1)
	assert.False(t, ok)
}

func TestRecording_CapacityExceeded(t *testing.T) {
	r := NewRecording(2)
	appendLines(t, r, 1, 2)
	assert.True(t, r.Full())

	n, err := r.Append(StepState{Line: 3})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, types.NoStep, n)

	// existing steps stay available
	assert.Equal(t, 2, r.StepCount())
	step, ok := r.Step(1)
	require.True(t, ok)
	assert.Equal(t, 2, step.Line)
}

func TestRecording_SetCurrentStep(t *testing.T) {
	r := NewRecording(10)
	appendLines(t, r, 1, 2, 3, 4)

	tests := []struct {
		target int
		want   int
	}{
		{0, 0},
		{2, 2},
		{3, 3},
		{99, 3},
		{-7, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.SetCurrentStep(tt.target), "target %d", tt.target)
		assert.Equal(t, tt.want, r.CurrentStep())
	}

	r.SetCurrentStep(1)
	assert.False(t, r.AtTip())
	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, 2, cur.Line)
}

func TestRecording_TruncateAfter(t *testing.T) {
	r := NewRecording(4)
	appendLines(t, r, 1, 2, 3, 4)
	r.SetCurrentStep(1)

	dropped := r.TruncateAfter(1)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 2, r.StepCount())
	assert.Equal(t, 1, r.CurrentStep())
	assert.False(t, r.Full())

	// numbering continues from the new tip
	n, err := r.Append(StepState{Line: 7})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 0, r.TruncateAfter(2), "nothing after the tip")
	assert.Equal(t, 0, r.TruncateAfter(50))
}

func TestRecording_StepsIsACopy(t *testing.T) {
	r := NewRecording(4)
	appendLines(t, r, 1, 2)

	steps := r.Steps()
	steps[0].Line = 99

	step, _ := r.Step(0)
	assert.Equal(t, 1, step.Line)
}

func TestRecording_NilSafe(t *testing.T) {
	var r *Recording
	assert.False(t, r.Valid())
	assert.Equal(t, 0, r.StepCount())
	assert.Equal(t, 0, r.CurrentStep())
	assert.Empty(t, r.Steps())
	_, err := r.Append(StepState{})
	assert.ErrorIs(t, err, ErrInvalidRecording)
}

func TestRecording_StepNumbersMonotonic_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("step numbers equal their index and are strictly increasing", prop.ForAll(
		func(capacity int, appends int) bool {
			r := NewRecording(capacity)
			prev := types.NoStep
			for i := 0; i < appends; i++ {
				n, err := r.Append(StepState{Line: i + 1})
				if i >= capacity {
					if err == nil || n != types.NoStep {
						return false
					}
					continue
				}
				if err != nil || n != i || n <= prev {
					return false
				}
				prev = n
			}
			for i, s := range r.Steps() {
				if s.Number != i {
					return false
				}
			}
			return r.StepCount() == min(capacity, appends)
		},
		gen.IntRange(1, 50),
		gen.IntRange(0, 80),
	))

	properties.TestingRun(t)
}

func TestBindings(t *testing.T) {
	b := NewBindings([]string{"x", "y", "x", "z"}, map[string]scope.Value{"x": 1, "y": "two"})

	assert.Equal(t, []string{"x", "y", "z"}, b.Names(), "duplicates dropped, order kept")
	assert.Equal(t, 3, b.Len())

	v, ok := b.Get("y")
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	v, ok = b.Get("z")
	assert.True(t, ok, "names without a value are bound to nil")
	assert.Nil(t, v)

	v, ok = b.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, v)

	names := b.Names()
	names[0] = "changed"
	assert.Equal(t, "x", b.Names()[0])
}

func TestBindings_ZeroValue(t *testing.T) {
	var b Bindings
	_, ok := b.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Names())
}

func TestExecutionSnapshot(t *testing.T) {
	st := scope.NewState()
	st.Top().Scope.Declare("x", 5)
	st.PC = 3

	snap := NewExecutionSnapshot(st)
	assert.Same(t, st, snap.State())
	assert.Equal(t, 3, snap.PC())
	assert.False(t, snap.CapturedAt().IsZero())

	v, ok := snap.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok = snap.Lookup("y")
	assert.False(t, ok)

	var nilSnap *ExecutionSnapshot
	assert.Nil(t, nilSnap.State())
	assert.Equal(t, 0, nilSnap.PC())
	_, ok = nilSnap.Lookup("x")
	assert.False(t, ok)
}

func TestStepState_Lookup(t *testing.T) {
	s := StepState{Variables: NewBindings([]string{"a"}, map[string]scope.Value{"a": true})}
	v, ok := s.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	_, ok = s.Lookup("b")
	assert.False(t, ok)
}
