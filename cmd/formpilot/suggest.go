package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/v0xg/formpilot/internal/ai"
	"github.com/v0xg/formpilot/internal/script"
)

func newSuggestCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "suggest <url> <prompt>",
		Short: "Draft a step script for a page with AI",
		Long: `suggest inspects the page and asks the configured AI provider to turn
your request into a step script. Review the draft before running it.

Example:
  formpilot suggest "https://myapp.com/signup" "sign up as test@example.com, accept the terms, submit"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, prompt := args[0], args[1]

			provider, err := ai.NewProvider(a.cfg.Provider, a.cfg.Model, a.logger)
			if err != nil {
				return fmt.Errorf("AI provider init failed: %w", err)
			}

			pageMap, err := a.inspect(cmd.Context(), url)
			if err != nil {
				return err
			}

			a.logger.WithField("provider", a.cfg.Provider).Info("Drafting script")
			s, err := provider.Draft(cmd.Context(), pageMap, prompt)
			if err != nil {
				return fmt.Errorf("script generation failed: %w", err)
			}
			s.URL = url

			data, err := script.Render(s)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write script: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %d steps to %s\n", len(s.Items), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the script to this file instead of stdout")
	return cmd
}
