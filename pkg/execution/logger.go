package execution

import (
	"log"

	"github.com/dshills/ttdb/pkg/domain/types"
)

// Logger writes session activity to the standard logger. The CLI decides
// where the standard logger goes (discarded unless --debug is set).
// A nil *Logger discards everything.
type Logger struct {
	sessionID types.SessionID
}

// NewLogger creates a logger that tags every line with the session ID.
func NewLogger(sessionID types.SessionID) *Logger {
	return &Logger{sessionID: sessionID}
}

// LogSessionStart logs the creation of a session.
func (l *Logger) LogSessionStart(statements, capacity int) {
	if l == nil {
		return
	}
	log.Printf("[%s] session started: %d statements, capacity %d steps",
		l.sessionID.Short(), statements, capacity)
}

// LogStepRecorded logs a recorded step.
func (l *Logger) LogStepRecorded(step types.StepNumber, line int) {
	if l == nil {
		return
	}
	log.Printf("[%s] step %d recorded (line %d)", l.sessionID.Short(), step, line)
}

// LogCapacityExceeded logs that history is no longer being recorded.
func (l *Logger) LogCapacityExceeded(capacity int) {
	if l == nil {
		return
	}
	log.Printf("[%s] Warning: recording capacity of %d steps reached, further steps are not recorded",
		l.sessionID.Short(), capacity)
}

// LogEvalFailure logs a statement that failed to execute.
func (l *Logger) LogEvalFailure(line int, err error) {
	if l == nil {
		return
	}
	log.Printf("[%s] Warning: statement at line %d failed: %v", l.sessionID.Short(), line, err)
}

// LogNavigation logs a cursor move through history.
func (l *Logger) LogNavigation(from, to types.StepNumber) {
	if l == nil {
		return
	}
	log.Printf("[%s] navigated from step %d to step %d", l.sessionID.Short(), from, to)
}

// LogHistoryDiscarded logs steps dropped when execution resumes from a
// historical step.
func (l *Logger) LogHistoryDiscarded(from types.StepNumber, dropped int) {
	if l == nil {
		return
	}
	log.Printf("[%s] discarded %d steps after step %d", l.sessionID.Short(), dropped, from)
}

// LogBreakpointHit logs a pause at a breakpoint.
func (l *Logger) LogBreakpointHit(line int) {
	if l == nil {
		return
	}
	log.Printf("[%s] breakpoint hit at line %d", l.sessionID.Short(), line)
}

// LogSessionFinished logs the end of program execution.
func (l *Logger) LogSessionFinished(steps int, stats SnapshotStats) {
	if l == nil {
		return
	}
	log.Printf("[%s] program finished after %d recorded steps (%d snapshots captured, %d restored)",
		l.sessionID.Short(), steps, stats.Captured, stats.Restored)
}
