package debugger

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind identifies a debugger command.
type CommandKind int

const (
	CmdStep CommandKind = iota
	CmdPrint
	CmdBreak
	CmdContinue
	CmdAst
	CmdBacktrace
	CmdRewind
	CmdHelp
	CmdForward
	CmdGoto
	CmdDelete
	CmdBreakpoints
	CmdHistory
	CmdLocals
	CmdOutput
	CmdGlobals
)

// Command is a parsed debugger command.
type Command struct {
	Kind CommandKind
	// Name is the variable reference for Print.
	Name string
	// Line is the source line for Break and Delete (0 deletes every
	// breakpoint).
	Line int
	// Condition is the optional expression of a conditional Break.
	Condition string
	// N is the step count for Rewind/Forward/History, or the target of Goto.
	N int
}

// commandSpec describes one command for parsing and help output.
type commandSpec struct {
	kind    CommandKind
	names   []string
	usage   string
	summary string
}

var commandSpecs = []commandSpec{
	{CmdStep, []string{"step", "s"}, "step", "execute one statement"},
	{CmdContinue, []string{"continue", "c"}, "continue", "run until a breakpoint or the end of the program"},
	{CmdPrint, []string{"print", "p"}, "print NAME[.PATH]", "show a variable at the viewed step"},
	{CmdLocals, []string{"locals", "l"}, "locals", "show every variable visible at the viewed step"},
	{CmdGlobals, []string{"globals", "gl"}, "globals", "show top-level variables at the viewed step"},
	{CmdBreak, []string{"break", "b"}, "break LINE [if EXPR]", "pause before LINE (optionally only when EXPR holds)"},
	{CmdDelete, []string{"delete", "d"}, "delete [LINE]", "remove the breakpoint on LINE, or all breakpoints"},
	{CmdBreakpoints, []string{"breakpoints", "bl"}, "breakpoints", "list breakpoints"},
	{CmdRewind, []string{"rewind", "rw"}, "rewind [N]", "travel back N steps (default 1)"},
	{CmdForward, []string{"forward", "fw"}, "forward [N]", "travel forward N recorded steps (default 1)"},
	{CmdGoto, []string{"goto", "g"}, "goto STEP", "travel to a recorded step"},
	{CmdHistory, []string{"history", "hist"}, "history [N]", "list the last N recorded steps (default all)"},
	{CmdBacktrace, []string{"backtrace", "bt"}, "backtrace", "show the call stack"},
	{CmdAst, []string{"ast"}, "ast", "show the syntax tree of the current line"},
	{CmdOutput, []string{"output", "o"}, "output", "show program output"},
	{CmdHelp, []string{"help", "h", "?"}, "help", "list commands"},
}

func (k CommandKind) String() string {
	for _, spec := range commandSpecs {
		if spec.kind == k {
			return spec.names[0]
		}
	}
	return fmt.Sprintf("CommandKind(%d)", int(k))
}

// ParseCommand parses one line of user input.
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty input", ErrUnknownCommand)
	}

	word := strings.ToLower(fields[0])
	args := fields[1:]
	for _, spec := range commandSpecs {
		for _, name := range spec.names {
			if name == word {
				return parseArgs(spec, args)
			}
		}
	}
	return Command{}, fmt.Errorf("%w: %q (try \"help\")", ErrUnknownCommand, fields[0])
}

func parseArgs(spec commandSpec, args []string) (Command, error) {
	cmd := Command{Kind: spec.kind}
	usage := func() error {
		return fmt.Errorf("usage: %s", spec.usage)
	}

	switch spec.kind {
	case CmdPrint:
		if len(args) != 1 {
			return cmd, usage()
		}
		cmd.Name = args[0]

	case CmdBreak:
		if len(args) == 0 {
			return cmd, usage()
		}
		line, err := strconv.Atoi(args[0])
		if err != nil {
			return cmd, usage()
		}
		cmd.Line = line
		if len(args) > 1 {
			if args[1] != "if" || len(args) < 3 {
				return cmd, usage()
			}
			cmd.Condition = strings.Join(args[2:], " ")
		}

	case CmdDelete:
		if len(args) > 1 {
			return cmd, usage()
		}
		if len(args) == 1 {
			line, err := strconv.Atoi(args[0])
			if err != nil || line <= 0 {
				return cmd, usage()
			}
			cmd.Line = line
		}

	case CmdRewind, CmdForward:
		cmd.N = 1
		if len(args) > 1 {
			return cmd, usage()
		}
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return cmd, usage()
			}
			cmd.N = n
		}

	case CmdGoto:
		if len(args) != 1 {
			return cmd, usage()
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return cmd, usage()
		}
		cmd.N = n

	case CmdHistory:
		if len(args) > 1 {
			return cmd, usage()
		}
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return cmd, usage()
			}
			cmd.N = n
		}

	default:
		if len(args) != 0 {
			return cmd, usage()
		}
	}
	return cmd, nil
}

// Help lists the available commands. It has no side effects.
func Help() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, spec := range commandSpecs {
		aliases := ""
		if len(spec.names) > 1 {
			aliases = " (" + strings.Join(spec.names[1:], ", ") + ")"
		}
		fmt.Fprintf(&b, "  %-22s %s%s\n", spec.usage, spec.summary, aliases)
	}
	return strings.TrimRight(b.String(), "\n")
}
