package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/v0xg/formpilot/internal/actions"
	"github.com/v0xg/formpilot/internal/config"
	"github.com/v0xg/formpilot/internal/recorder"
	"github.com/v0xg/formpilot/internal/resolve"
	"github.com/v0xg/formpilot/internal/runner"
	"github.com/v0xg/formpilot/internal/script"
)

func newRunCmd(a *app) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Execute a step script in the browser",
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
				return err
			}
			if url == "" {
				url = s.URL
			}

			a.logger.WithFields(logrus.Fields{
				"script":  args[0],
				"url":     url,
				"steps":   len(steps),
				"timeout": wait.Timeout,
			}).Info("Starting run")

			b, err := a.launch(cmd.Context(), a.browserOptions(), a.logger)
			if err != nil {
				return &runner.OrchestrationError{
					Index: -1,
					Step:  runner.Step{Action: runner.ActionNavigate, Value: url},
					Err:   fmt.Errorf("launch browser: %w", err),
				}
			}

			opts := runner.Options{
				Logger:  a.logger,
				Actions: actions.Options{StrictDatalist: a.cfg.StrictDatalist},
			}
			var rec *recorder.Recorder
			if a.cfg.Record != "" {
				rec = recorder.New(b, recorder.Options{
					FrameDelay: a.cfg.FrameDelay,
					Width:      uint(a.cfg.GIFWidth),
					Cursor:     !a.cfg.NoCursor,
					Tween:      6,
				}, a.logger)
				opts.Observer = rec
			}

			runErr := runner.New(b, opts).Run(cmd.Context(), url, steps, wait)

			if rec != nil && rec.Frames() > 0 {
				size, err := rec.WriteFile(a.cfg.Record)
				if err != nil {
					a.logger.WithError(err).Error("Failed to write recording")
				} else {
					a.logger.WithFields(logrus.Fields{
						"file":   a.cfg.Record,
						"frames": rec.Frames(),
						"size":   fmt.Sprintf("%.1f MB", float64(size)/(1024*1024)),
					}).Info("Recording saved")
				}
			}
			if runErr != nil {
				return runErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d steps completed on %s\n", len(steps), url)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Start URL (overrides the script)")
	cmd.Flags().String(config.KeyRecord, "", "Record the run as a GIF to this file")
	cmd.Flags().Duration(config.KeyFrameDelay, 800*time.Millisecond, "How long each recorded step is shown")
	cmd.Flags().Int(config.KeyGIFWidth, 800, "Recording width in pixels")
	cmd.Flags().Bool(config.KeyNoCursor, false, "Disable cursor overlay in recordings")
	_ = a.v.BindPFlags(cmd.Flags())

	return cmd
}

// waitFor picks each wait setting from, in order: an explicit flag, the
// script, then the environment, config file and defaults
func (a *app) waitFor(cmd *cobra.Command, s *script.Script) (resolve.WaitSpec, error) {
	wait, err := s.Wait()
	if err != nil {
		return wait, err
	}
	if s.Timeout == "" || cmd.Flags().Changed(config.KeyTimeout) {
		wait.Timeout = a.cfg.Timeout
	}
	if s.Poll == "" || cmd.Flags().Changed(config.KeyPoll) {
		wait.PollInterval = a.cfg.Poll
	}
	return wait, wait.Validate()
}
