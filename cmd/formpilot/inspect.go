package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/v0xg/formpilot/internal/browser"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <url>",
		Short: "List the interactive elements of a page with suggested locators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageMap, err := a.inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pageMap)
		},
	}
}

// inspect opens url in a fresh browser and maps its elements
func (a *app) inspect(ctx context.Context, url string) (*browser.PageMap, error) {
	b, err := a.launch(ctx, a.browserOptions(), a.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if quitErr := b.Quit(); quitErr != nil {
			a.logger.WithError(quitErr).Warn("Failed to quit browser")
		}
	}()

	a.logger.WithField("url", url).Info("Inspecting page")
	if err := b.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	pageMap, err := b.Inspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", url, err)
	}
	a.logger.WithField("elements", len(pageMap.Elements)).Info("Page inspected")
	return pageMap, nil
}
