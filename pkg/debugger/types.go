// Package debugger implements the time-travel debug session: a command
// driven state machine that executes a script one statement at a time,
// records every step, and can rewind the live interpreter to any recorded
// step without re-executing code.
package debugger

import (
	"errors"

	"github.com/dshills/ttdb/pkg/domain/recording"
	"github.com/dshills/ttdb/pkg/domain/types"
	"github.com/dshills/ttdb/pkg/execution"
)

// State represents the current state of a debug session.
type State string

const (
	// StateNotStarted indicates the session exists but no statement has run.
	StateNotStarted State = "not started"
	// StateRunning indicates statements are being executed.
	StateRunning State = "running"
	// StatePaused indicates execution stopped at a breakpoint, after a
	// failed statement, or at a historical step.
	StatePaused State = "paused"
	// StateFinished indicates the program has no statements left.
	StateFinished State = "finished"
)

// IsTerminal returns true if the program has run to completion.
func (s State) IsTerminal() bool {
	return s == StateFinished
}

var (
	// ErrSessionCreation is returned when a session cannot be created,
	// typically because the source does not parse.
	ErrSessionCreation = errors.New("session creation failed")
	// ErrNoSession is returned by commands issued before a session exists.
	ErrNoSession = errors.New("no debug session")
	// ErrVariableNotFound is returned by Print for names that are not
	// defined at the viewed step. The session is unaffected.
	ErrVariableNotFound = errors.New("variable not found")
	// ErrCapacityExceeded is the warning attached to the first step that
	// could not be recorded.
	ErrCapacityExceeded = recording.ErrCapacityExceeded
	// ErrSessionFinished is returned by commands that need a running program.
	ErrSessionFinished = errors.New("program has finished")
	// ErrNoStatement is returned when no statement exists at the requested line.
	ErrNoStatement = errors.New("no statement at line")
	// ErrUnknownCommand is returned by ParseCommand for unrecognised input.
	ErrUnknownCommand = errors.New("unknown command")
)

// SourceMap translates recorded line numbers into source text for display.
type SourceMap interface {
	LineToSource(line int) string
}

// StepResult describes the outcome of Step or Continue.
type StepResult struct {
	// Step is the number of the last recorded step, or types.NoStep if the
	// last executed statement was not recorded.
	Step types.StepNumber
	// Line is the line of the last executed statement.
	Line int
	// NextLine is the line of the next statement (0 when finished).
	NextLine int
	// Executed is the number of statements executed by the command.
	Executed int
	// Recorded reports whether the last executed statement was recorded.
	Recorded bool
	// Breakpoint reports whether Continue stopped at a breakpoint.
	Breakpoint bool
	// State is the session state after the command.
	State State
	// Warning is set (to an error wrapping ErrCapacityExceeded) when the
	// recording filled up during the command.
	Warning error
}

// NavigationResult describes the outcome of Rewind, Forward or Goto.
type NavigationResult struct {
	// Step is the step now being viewed.
	Step types.StepNumber
	// Line is the line of the statement recorded at Step.
	Line int
	// NextLine is the line the program continues from.
	NextLine int
	// Moved reports whether the cursor changed.
	Moved bool
	// Empty reports that there was no history to navigate.
	Empty bool
}

// HistoryEntry is one line of the History listing.
type HistoryEntry struct {
	Step    types.StepNumber
	Line    int
	Source  string
	Current bool
}

// Options configures a new session.
type Options struct {
	// Capacity is the maximum number of recorded steps (0 selects
	// recording.DefaultCapacity).
	Capacity int
	// MaxSteps bounds the statements a program may execute (0 selects the
	// interpreter default).
	MaxSteps int
	// MaxDepth bounds the call stack depth (0 selects the interpreter
	// default).
	MaxDepth int
	// SourceMap resolves lines to source text. When nil the program's own
	// source is used.
	SourceMap SourceMap
	// Logger receives session activity. When nil a logger tagged with the
	// session ID is created.
	Logger *execution.Logger
}
