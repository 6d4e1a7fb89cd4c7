package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/ttdb/pkg/script"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Check a script for syntax errors",
		Long: `Parse a script without running it.

Examples:
  ttdb check fib.tt
  ttdb check fib.tt --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}

			prog, err := script.Parse(string(source))
			if err != nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "✗ Script has syntax errors")
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %d statements on %d lines\n", prog.Len(), prog.LineCount())
			if verbose {
				for _, stmt := range prog.Statements {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %4d  %-7s %s\n", stmt.Line, stmt.Kind, stmt.Text)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List parsed statements")

	return cmd
}
