package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/ttdb/pkg/debugger"
)

// NewDebugCommand creates the debug command
func NewDebugCommand() *cobra.Command {
	var (
		capacity    int
		maxSteps    int
		breakpoints []int
	)

	cmd := &cobra.Command{
		Use:   "debug <script>",
		Short: "Debug a script interactively",
		Long: `Start a time-travel debug session for a script.

Commands are read one per line from standard input. Type "help" for the
command list and "quit" to leave.

Examples:
  # Debug a script
  ttdb debug fib.tt

  # Stop at line 7 when continuing
  ttdb debug fib.tt --break 7

  # Keep at most 200 steps of history
  ttdb debug fib.tt --capacity 200`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}

			opts := debugger.Options{
				Capacity: Settings.Capacity,
				MaxSteps: Settings.MaxSteps,
				MaxDepth: Settings.MaxDepth,
			}
			if !Settings.ShowSource {
				opts.SourceMap = hiddenSource{}
			}
			if cmd.Flags().Changed("capacity") {
				opts.Capacity = capacity
			}
			if cmd.Flags().Changed("max-steps") {
				opts.MaxSteps = maxSteps
			}

			session, err := debugger.NewSession(string(source), opts)
			if err != nil {
				return err
			}
			for _, line := range breakpoints {
				if err := session.Break(line); err != nil {
					return fmt.Errorf("breakpoint %d: %w", line, err)
				}
			}

			return RunREPL(session, cmd.InOrStdin(), cmd.OutOrStdout(), Settings.Prompt)
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 0, "Maximum recorded steps (default from config)")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Maximum executed statements (default from config)")
	cmd.Flags().IntSliceVar(&breakpoints, "break", nil, "Set breakpoints on these lines")

	return cmd
}

// hiddenSource suppresses source text in command output.
type hiddenSource struct{}

func (hiddenSource) LineToSource(int) string { return "" }

// RunREPL reads commands from in, executes them against session and writes
// the results to out until input ends or the user quits.
func RunREPL(session *debugger.Session, in io.Reader, out io.Writer, prompt string) error {
	_, _ = fmt.Fprintf(out, "ttdb %s  session %s\n", Version, session.ID().Short())
	if line := session.CurrentLine(); line > 0 {
		_, _ = fmt.Fprintf(out, "next: line %d\n", line)
	} else {
		_, _ = fmt.Fprintln(out, "program is empty")
	}

	scanner := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "quit", "q", "exit":
			return nil
		}

		command, err := debugger.ParseCommand(input)
		if err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		result, err := session.Execute(command)
		if result != "" {
			_, _ = fmt.Fprintln(out, result)
		}
		if err != nil {
			if errors.Is(err, debugger.ErrSessionFinished) {
				_, _ = fmt.Fprintln(out, "program has finished; use rewind or goto to inspect history")
				continue
			}
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}
