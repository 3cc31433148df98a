package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/v0xg/formpilot/internal/browser"
	"github.com/v0xg/formpilot/internal/config"
	"github.com/v0xg/formpilot/internal/logging"
)

// app carries what every command needs once flags are parsed
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *logrus.Logger
	launch  launchFunc
}

// launchFunc starts a browser session
type launchFunc func(ctx context.Context, opts browser.Options, logger logrus.FieldLogger) (*browser.Browser, error)

func newRootCmd() *cobra.Command {
	return buildRootCmd(&app{v: config.New(), launch: browser.Launch})
}

func buildRootCmd(a *app) *cobra.Command {

	rootCmd := &cobra.Command{
		Use:   "formpilot",
		Short: "Fill and submit web forms from YAML step scripts",
		Long: `formpilot drives a Chromium browser through a form: it navigates to a page,
waits for each element to become visible, fills text fields, picks dropdown
and datalist values, toggles checkboxes and clicks buttons, step by step.

Example:
  formpilot run web-form.yaml
  formpilot inspect https://www.selenium.dev/selenium/web/web-form.html
  formpilot suggest https://myapp.com/signup "sign up as test@example.com" -o signup.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Config file (default: formpilot.yaml in . or $HOME)")
	flags.Duration(config.KeyTimeout, 10*time.Second, "How long to wait for each element to become visible")
	flags.Duration(config.KeyPoll, 500*time.Millisecond, "Interval between element lookups while waiting")
	flags.Bool(config.KeyHeadless, true, "Run the browser without a window")
	flags.Int(config.KeyWidth, 1280, "Viewport width")
	flags.Int(config.KeyHeight, 720, "Viewport height")
	flags.String(config.KeyProfile, "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	flags.String(config.KeyChromeBin, "", "Browser executable (default: looked up)")
	flags.Bool(config.KeyStrictDatalist, false, "Fail datalist steps whose value is not one of the suggestions")
	flags.String(config.KeyProvider, "claude", "AI provider: claude, openai")
	flags.String(config.KeyModel, "", "Specific model override")
	flags.String(config.KeyLogLevel, "info", "Log level: debug, info, warn, error")
	flags.BoolP(config.KeyVerbose, "v", false, "Show detailed progress (same as --log-level debug)")

	_ = a.v.BindPFlags(flags)

	rootCmd.AddCommand(
		newRunCmd(a),
		newValidateCmd(a),
		newInspectCmd(a),
		newSuggestCmd(a),
	)
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	return err
}

func (a *app) browserOptions() browser.Options {
	return browser.Options{
		Width:      a.cfg.Width,
		Height:     a.cfg.Height,
		Headless:   a.cfg.Headless,
		ProfileDir: a.cfg.Profile,
		Bin:        a.cfg.ChromeBin,
	}
}
