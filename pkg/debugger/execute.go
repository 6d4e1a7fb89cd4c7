package debugger

import (
	"fmt"
	"strings"

	"github.com/dshills/ttdb/pkg/domain/recording"
	"github.com/dshills/ttdb/pkg/script"
)

// Execute runs cmd against the session and renders its result as text for
// an interactive front end. Errors are returned unformatted; the caller
// decides how to show them.
func (s *Session) Execute(cmd Command) (string, error) {
	if cmd.Kind == CmdHelp {
		return Help(), nil
	}
	if s == nil {
		return "", ErrNoSession
	}

	switch cmd.Kind {
	case CmdStep:
		res, err := s.Step()
		return s.formatStep(res), err

	case CmdContinue:
		res, err := s.Continue()
		return s.formatStep(res), err

	case CmdPrint:
		v, err := s.Print(cmd.Name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", cmd.Name, script.FormatValue(v)), nil

	case CmdLocals:
		b, err := s.Locals()
		if err != nil {
			return "", err
		}
		return formatBindings(b), nil

	case CmdGlobals:
		b, err := s.Globals()
		if err != nil {
			return "", err
		}
		return formatBindings(b), nil

	case CmdBreak:
		var err error
		if cmd.Condition != "" {
			err = s.BreakIf(cmd.Line, cmd.Condition)
		} else {
			err = s.Break(cmd.Line)
		}
		if err != nil {
			return "", err
		}
		if cmd.Condition != "" {
			return fmt.Sprintf("breakpoint set at line %d if %s", cmd.Line, cmd.Condition), nil
		}
		return fmt.Sprintf("breakpoint set at line %d", cmd.Line), nil

	case CmdDelete:
		if cmd.Line == 0 {
			n, err := s.ClearBreakpoints()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d breakpoints removed", n), nil
		}
		removed, err := s.Delete(cmd.Line)
		if err != nil {
			return "", err
		}
		if !removed {
			return fmt.Sprintf("no breakpoint at line %d", cmd.Line), nil
		}
		return fmt.Sprintf("breakpoint at line %d removed", cmd.Line), nil

	case CmdBreakpoints:
		list := s.Breakpoints()
		if len(list) == 0 {
			return "no breakpoints", nil
		}
		lines := make([]string, 0, len(list))
		for _, bp := range list {
			lines = append(lines, fmt.Sprintf("%s  %s", bp, s.source(bp.Line)))
		}
		return strings.Join(lines, "\n"), nil

	case CmdRewind:
		res, err := s.Rewind(cmd.N)
		return s.formatNavigation(res), err

	case CmdForward:
		res, err := s.Forward(cmd.N)
		return s.formatNavigation(res), err

	case CmdGoto:
		res, err := s.Goto(cmd.N)
		return s.formatNavigation(res), err

	case CmdHistory:
		entries, err := s.History(cmd.N)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "no recorded steps", nil
		}
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			marker := " "
			if e.Current {
				marker = ">"
			}
			lines = append(lines, fmt.Sprintf("%s %4d  line %-4d %s", marker, e.Step, e.Line, e.Source))
		}
		return strings.Join(lines, "\n"), nil

	case CmdBacktrace:
		frames, err := s.Backtrace()
		if err != nil {
			return "", err
		}
		if len(frames) == 0 {
			return "at top level", nil
		}
		lines := make([]string, 0, len(frames))
		for i, f := range frames {
			lines = append(lines, fmt.Sprintf("#%d %s", i, f))
		}
		return strings.Join(lines, "\n"), nil

	case CmdAst:
		return s.Ast()

	case CmdOutput:
		out := s.Output()
		if len(out) == 0 {
			return "no output", nil
		}
		return strings.Join(out, "\n"), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Kind)
}

func formatBindings(b recording.Bindings) string {
	if b.Len() == 0 {
		return "no variables"
	}
	lines := make([]string, 0, b.Len())
	for _, name := range b.Names() {
		v, _ := b.Get(name)
		lines = append(lines, fmt.Sprintf("%s = %s", name, script.FormatValue(v)))
	}
	return strings.Join(lines, "\n")
}

func (s *Session) formatStep(res StepResult) string {
	var b strings.Builder
	switch {
	case res.Executed == 0:
		return ""
	case res.Recorded:
		fmt.Fprintf(&b, "step %d: line %d  %s", res.Step, res.Line, s.source(res.Line))
	default:
		fmt.Fprintf(&b, "line %d  %s (not recorded)", res.Line, s.source(res.Line))
	}
	if res.Warning != nil {
		fmt.Fprintf(&b, "\nwarning: %v", res.Warning)
	}
	switch {
	case res.Breakpoint:
		fmt.Fprintf(&b, "\nbreakpoint at line %d  %s", res.NextLine, s.source(res.NextLine))
	case res.State == StateFinished:
		b.WriteString("\nprogram finished")
	case res.NextLine > 0:
		fmt.Fprintf(&b, "\nnext: line %d  %s", res.NextLine, s.source(res.NextLine))
	}
	return b.String()
}

func (s *Session) formatNavigation(res NavigationResult) string {
	if res.Empty {
		return "no recorded steps"
	}
	msg := fmt.Sprintf("at step %d: line %d  %s", res.Step, res.Line, s.source(res.Line))
	if !res.Moved {
		msg += " (unchanged)"
	}
	if res.NextLine > 0 {
		msg += fmt.Sprintf("\nnext: line %d  %s", res.NextLine, s.source(res.NextLine))
	}
	return msg
}
