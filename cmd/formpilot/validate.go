package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/v0xg/formpilot/internal/script"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script.yaml>",
		Short: "Check a step script without starting a browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := script.Load(args[0])
			if err != nil {
				return err
			}
			steps, err := s.Steps()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			wait, err := a.waitFor(cmd, s)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ %s: %d steps against %s (timeout %s, poll %s)\n",
				args[0], len(steps), s.URL, wait.Timeout, wait.PollInterval)
			for i, step := range steps {
				fmt.Fprintf(out, "  [%d] %s\n", i+1, step)
			}
			return nil
		},
	}
}
