package debugger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/ttdb/pkg/domain/recording"
	"github.com/dshills/ttdb/pkg/domain/scope"
	"github.com/dshills/ttdb/pkg/domain/types"
	operr "github.com/dshills/ttdb/pkg/errors"
	"github.com/dshills/ttdb/pkg/execution"
	"github.com/dshills/ttdb/pkg/script"
	"github.com/dshills/ttdb/pkg/transform"
)

// Session is a time-travel debug session over one program.
//
// The session exclusively owns its recording and every snapshot in it.
// Commands run synchronously, one at a time; a Session is not safe for
// concurrent use.
type Session struct {
	id          types.SessionID
	program     *script.Program
	interp      *script.Interpreter
	rec         *recording.Recording
	recorder    *execution.Recorder
	snapshots   *execution.SnapshotManager
	navigator   *execution.Navigator
	breakpoints *execution.Breakpoints
	paths       transform.PathQuerier
	sourceMap   SourceMap
	logger      *execution.Logger
	state       State

	// capacityWarned is set once the capacity warning has been reported.
	capacityWarned bool
}

// NewSession parses source and creates a session positioned before its
// first statement. Parse failures are reported as ErrSessionCreation
// wrapping the *script.EvalError.
func NewSession(source string, opts Options) (*Session, error) {
	prog, err := script.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionCreation, err)
	}

	capacity := opts.Capacity
	if capacity == 0 {
		capacity = recording.DefaultCapacity
	}
	rec := recording.NewRecording(capacity)
	if !rec.Valid() {
		return nil, fmt.Errorf("%w: %w (capacity %d)", ErrSessionCreation, recording.ErrInvalidRecording, capacity)
	}

	id := types.NewSessionID()
	logger := opts.Logger
	if logger == nil {
		logger = execution.NewLogger(id)
	}
	var sourceMap SourceMap = prog
	if opts.SourceMap != nil {
		sourceMap = opts.SourceMap
	}

	evaluator := transform.NewExpressionEvaluator()
	interp := script.NewInterpreter(prog,
		script.WithMaxSteps(opts.MaxSteps),
		script.WithMaxDepth(opts.MaxDepth),
		script.WithEvaluator(evaluator))
	s := &Session{
		id:          id,
		program:     prog,
		interp:      interp,
		rec:         rec,
		recorder:    execution.NewRecorder(rec, logger),
		snapshots:   execution.NewSnapshotManager(),
		navigator:   execution.NewNavigator(logger),
		breakpoints: execution.NewBreakpoints(evaluator),
		paths:       transform.NewPathQuerier(),
		sourceMap:   sourceMap,
		logger:      logger,
		state:       StateNotStarted,
	}
	if prog.Len() == 0 {
		s.state = StateFinished
	}
	logger.LogSessionStart(prog.Len(), capacity)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() types.SessionID {
	if s == nil {
		return ""
	}
	return s.id
}

// State returns the session state.
func (s *Session) State() State {
	if s == nil {
		return StateNotStarted
	}
	return s.state
}

// IsFinished reports whether the program has run to completion.
func (s *Session) IsFinished() bool {
	return s != nil && s.state.IsTerminal()
}

// CurrentLine returns the line of the next statement to execute, or 0 when
// the program has finished.
func (s *Session) CurrentLine() int {
	if s == nil {
		return 0
	}
	return s.interp.CurrentLine()
}

// StepCount returns the number of recorded steps.
func (s *Session) StepCount() int {
	if s == nil {
		return 0
	}
	return s.rec.StepCount()
}

// CurrentStep returns the step being viewed (0 when nothing is recorded).
func (s *Session) CurrentStep() types.StepNumber {
	if s == nil {
		return 0
	}
	return s.rec.CurrentStep()
}

// Recording returns the session's recording for read-only inspection.
func (s *Session) Recording() *recording.Recording {
	if s == nil {
		return nil
	}
	return s.rec
}

// Output returns the program output as of the viewed step.
func (s *Session) Output() []string {
	if s == nil {
		return nil
	}
	return s.interp.Output()
}

// Step executes exactly one statement and records it.
//
// If the session is viewing a historical step, the steps after it are
// discarded first: execution continues from the viewed point on a single
// timeline. A failing statement is not recorded; the error is returned
// wrapped in an *errors.OperationalError and the session pauses.
func (s *Session) Step() (StepResult, error) {
	if s == nil {
		return StepResult{Step: types.NoStep}, ErrNoSession
	}
	if s.state == StateFinished {
		return StepResult{Step: types.NoStep, State: s.state}, ErrSessionFinished
	}
	if s.state == StateNotStarted {
		s.state = StateRunning
	}
	s.discardFuture()

	line := s.interp.CurrentLine()
	if err := s.interp.Advance(); err != nil {
		s.state = StatePaused
		s.logger.LogEvalFailure(line, err)
		attrs := map[string]interface{}{"steps_recorded": s.rec.StepCount()}
		var evalErr *script.EvalError
		if errors.As(err, &evalErr) {
			attrs["error_type"] = string(evalErr.Type)
			attrs["statement"] = evalErr.Statement
		}
		return StepResult{Step: types.NoStep, Line: line, NextLine: line, State: s.state},
			operr.NewOperationalErrorWithAttrs("step", s.id.String(), line, err, attrs)
	}
	if s.state == StatePaused {
		s.state = StateRunning
	}

	res := StepResult{Step: types.NoStep, Line: line, Executed: 1}
	if s.rec.Full() {
		if !s.capacityWarned {
			s.capacityWarned = true
			s.logger.LogCapacityExceeded(s.rec.Capacity())
			res.Warning = fmt.Errorf("%w: step at line %d and later steps are not recorded",
				ErrCapacityExceeded, line)
		}
	} else {
		names, values := s.interp.Bindings()
		n, err := s.recorder.RecordStep(line, names, values, s.snapshots.Capture(s.interp.State()))
		if err != nil {
			return res, operr.NewOperationalError("record", s.id.String(), line, err)
		}
		res.Step = n
		res.Recorded = true
	}

	if s.interp.Done() {
		s.state = StateFinished
		s.logger.LogSessionFinished(s.rec.StepCount(), s.snapshots.Stats())
	}
	res.NextLine = s.interp.CurrentLine()
	res.State = s.state
	return res, nil
}

// Continue steps until the next statement sits on a breakpoint whose
// condition holds (the session pauses there) or the program finishes. At
// least one statement is executed.
func (s *Session) Continue() (StepResult, error) {
	if s == nil {
		return StepResult{Step: types.NoStep}, ErrNoSession
	}

	var total StepResult
	for {
		res, err := s.Step()
		res.Executed += total.Executed
		if res.Warning == nil {
			res.Warning = total.Warning
		}
		total = res
		if err != nil {
			return total, err
		}
		if s.state == StateFinished {
			return total, nil
		}

		next := s.interp.CurrentLine()
		if next != res.Line && s.breakpoints.IsBreakpoint(next) {
			_, env := s.interp.Bindings()
			if s.breakpoints.ShouldBreak(next, env) {
				s.state = StatePaused
				s.logger.LogBreakpointHit(next)
				total.Breakpoint = true
				total.State = s.state
				return total, nil
			}
		}
	}
}

// Break sets a breakpoint on line.
func (s *Session) Break(line int) error {
	if err := s.checkBreakable(line); err != nil {
		return err
	}
	_, err := s.breakpoints.Set(line)
	return err
}

// BreakIf sets a breakpoint on line that only triggers when condition holds.
func (s *Session) BreakIf(line int, condition string) error {
	if err := s.checkBreakable(line); err != nil {
		return err
	}
	return s.breakpoints.SetConditional(line, condition)
}

func (s *Session) checkBreakable(line int) error {
	if s == nil {
		return ErrNoSession
	}
	if s.state == StateFinished {
		return ErrSessionFinished
	}
	if !s.program.HasLine(line) {
		return fmt.Errorf("%w %d", ErrNoStatement, line)
	}
	return nil
}

// ClearBreakpoints removes every breakpoint and returns how many there were.
func (s *Session) ClearBreakpoints() (int, error) {
	if s == nil {
		return 0, ErrNoSession
	}
	n := s.breakpoints.Count()
	s.breakpoints.Clear()
	return n, nil
}

// Delete removes the breakpoint on line. Returns false if there was none.
func (s *Session) Delete(line int) (bool, error) {
	if s == nil {
		return false, ErrNoSession
	}
	return s.breakpoints.Remove(line), nil
}

// Breakpoints lists the breakpoints by line.
func (s *Session) Breakpoints() []execution.Breakpoint {
	if s == nil {
		return nil
	}
	return s.breakpoints.List()
}

// Print returns a copy of the value of name at the viewed step. name may
// carry a member/index path such as "user.name" or "items[0]". Names that
// are not defined at that step yield ErrVariableNotFound.
func (s *Session) Print(name string) (scope.Value, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	root, path := transform.SplitPath(name)

	var (
		v  scope.Value
		ok bool
	)
	if s.rec.AtTip() {
		v, ok = s.interp.Lookup(root)
	} else if step, found := s.rec.Current(); found {
		v, ok = step.Snapshot.Lookup(root)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVariableNotFound, root)
	}
	if path == "" {
		return execution.CopyValue(v), nil
	}

	result, err := s.paths.Query(path, v)
	if err != nil {
		if errors.Is(err, transform.ErrPathNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrVariableNotFound, name)
		}
		return nil, fmt.Errorf("print %s: %w", name, err)
	}
	return execution.CopyValue(result), nil
}

// Ast returns the syntax trees of the statements on the current line.
func (s *Session) Ast() (string, error) {
	if s == nil {
		return "", ErrNoSession
	}
	line := s.interp.CurrentLine()
	stmts := s.program.StatementsAt(line)
	if line == 0 || len(stmts) == 0 {
		return "", ErrSessionFinished
	}

	var b strings.Builder
	for _, stmt := range stmts {
		fmt.Fprintf(&b, "line %d: %s [%s]\n", stmt.Line, stmt.Text, stmt.Kind)
		for _, e := range stmt.Expressions() {
			tree, err := transform.DumpTree(e)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "%s\n", tree)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Backtrace describes the active calls at the viewed step, innermost first.
// It is empty at top level.
func (s *Session) Backtrace() ([]string, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	return s.interp.CallStack(), nil
}

// Rewind moves the view back by n steps (clamped) and substitutes the live
// interpreter state with an independent copy of the historical snapshot.
// Further Steps continue from there.
func (s *Session) Rewind(n int) (NavigationResult, error) {
	if s == nil {
		return NavigationResult{}, ErrNoSession
	}
	from := s.rec.CurrentStep()
	step, snap := s.navigator.RewindBy(s.rec, n)
	return s.substitute(from, step, snap), nil
}

// Forward moves the view forward by n recorded steps (clamped).
func (s *Session) Forward(n int) (NavigationResult, error) {
	if s == nil {
		return NavigationResult{}, ErrNoSession
	}
	from := s.rec.CurrentStep()
	step, snap := s.navigator.ForwardBy(s.rec, n)
	return s.substitute(from, step, snap), nil
}

// Goto moves the view to step n (clamped).
func (s *Session) Goto(n types.StepNumber) (NavigationResult, error) {
	if s == nil {
		return NavigationResult{}, ErrNoSession
	}
	from := s.rec.CurrentStep()
	step, snap := s.navigator.Goto(s.rec, n)
	return s.substitute(from, step, snap), nil
}

// substitute replaces the live interpreter state with a copy of snap.
func (s *Session) substitute(from, to types.StepNumber, snap *recording.ExecutionSnapshot) NavigationResult {
	if snap == nil {
		return NavigationResult{Empty: true, NextLine: s.interp.CurrentLine()}
	}
	s.interp.SetState(s.snapshots.Restore(snap))

	if s.interp.Done() {
		s.state = StateFinished
	} else {
		s.state = StatePaused
	}

	step, _ := s.rec.Step(to)
	return NavigationResult{
		Step:     to,
		Line:     step.Line,
		NextLine: s.interp.CurrentLine(),
		Moved:    from != to,
	}
}

// discardFuture drops recorded steps after the viewed one so execution
// continues on a single linear timeline.
func (s *Session) discardFuture() {
	if s.rec.AtTip() {
		return
	}
	from := s.rec.CurrentStep()
	if dropped := s.rec.TruncateAfter(from); dropped > 0 {
		s.logger.LogHistoryDiscarded(from, dropped)
		if !s.rec.Full() {
			s.capacityWarned = false
		}
	}
}

// History returns up to limit recorded steps ending at the newest one
// (limit <= 0 returns everything).
func (s *Session) History(limit int) ([]HistoryEntry, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	steps := s.rec.Steps()
	if limit > 0 && len(steps) > limit {
		steps = steps[len(steps)-limit:]
	}
	entries := make([]HistoryEntry, 0, len(steps))
	for _, st := range steps {
		entries = append(entries, HistoryEntry{
			Step:    st.Number,
			Line:    st.Line,
			Source:  s.source(st.Line),
			Current: st.Number == s.rec.CurrentStep(),
		})
	}
	return entries, nil
}

// Locals returns a copy of the bindings visible at the viewed step, in
// declaration order.
func (s *Session) Locals() (recording.Bindings, error) {
	if s == nil {
		return recording.Bindings{}, ErrNoSession
	}
	if !s.rec.AtTip() {
		if step, ok := s.rec.Current(); ok {
			return copyBindings(step.Variables), nil
		}
	}
	names, values := s.interp.Bindings()
	return execution.CopyBindings(names, values), nil
}

// Globals returns a copy of the top-level bindings at the viewed step,
// whatever frame or block is active.
func (s *Session) Globals() (recording.Bindings, error) {
	if s == nil {
		return recording.Bindings{}, ErrNoSession
	}
	st := s.interp.State()
	if !s.rec.AtTip() {
		if step, ok := s.rec.Current(); ok {
			st = step.Snapshot.State()
		}
	}
	if st == nil {
		return recording.Bindings{}, nil
	}
	global := st.Globals()
	if global == nil {
		return recording.Bindings{}, nil
	}
	names := global.Names()
	values := make(map[string]scope.Value, len(names))
	for _, name := range names {
		values[name], _ = global.Local(name)
	}
	return execution.CopyBindings(names, values), nil
}

func copyBindings(b recording.Bindings) recording.Bindings {
	names := b.Names()
	values := make(map[string]scope.Value, len(names))
	for _, name := range names {
		values[name], _ = b.Get(name)
	}
	return execution.CopyBindings(names, values)
}

func (s *Session) source(line int) string {
	if s.sourceMap == nil || line <= 0 {
		return ""
	}
	return s.sourceMap.LineToSource(line)
}
