// Package config resolves settings from flags, FORMPILOT_* environment
// variables and an optional formpilot.yaml file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Setting keys, shared with the CLI flag names
const (
	KeyTimeout        = "timeout"
	KeyPoll           = "poll"
	KeyHeadless       = "headless"
	KeyWidth          = "width"
	KeyHeight         = "height"
	KeyProfile        = "profile"
	KeyChromeBin      = "chrome-bin"
	KeyRecord         = "record"
	KeyFrameDelay     = "frame-delay"
	KeyGIFWidth       = "gif-width"
	KeyNoCursor       = "no-cursor"
	KeyStrictDatalist = "strict-datalist"
	KeyProvider       = "provider"
	KeyModel          = "model"
	KeyLogLevel       = "log-level"
	KeyVerbose        = "verbose"
)

// Config is the resolved configuration of one invocation
type Config struct {
	Timeout        time.Duration
	Poll           time.Duration
	Headless       bool
	Width          int
	Height         int
	Profile        string
	ChromeBin      string
	Record         string
	FrameDelay     time.Duration
	GIFWidth       int
	NoCursor       bool
	StrictDatalist bool
	Provider       string
	Model          string
	LogLevel       string
}

// New returns a viper instance with defaults and environment binding
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FORMPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeyPoll, 500*time.Millisecond)
	v.SetDefault(KeyHeadless, true)
	v.SetDefault(KeyWidth, 1280)
	v.SetDefault(KeyHeight, 720)
	v.SetDefault(KeyFrameDelay, 800*time.Millisecond)
	v.SetDefault(KeyGIFWidth, 800)
	v.SetDefault(KeyProvider, "claude")
	v.SetDefault(KeyLogLevel, "info")
	return v
}

// ReadFile reads path, or formpilot.yaml from . or $HOME when path is empty.
// A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("formpilot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load extracts and validates a Config
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Timeout:        v.GetDuration(KeyTimeout),
		Poll:           v.GetDuration(KeyPoll),
		Headless:       v.GetBool(KeyHeadless),
		Width:          v.GetInt(KeyWidth),
		Height:         v.GetInt(KeyHeight),
		Profile:        v.GetString(KeyProfile),
		ChromeBin:      v.GetString(KeyChromeBin),
		Record:         v.GetString(KeyRecord),
		FrameDelay:     v.GetDuration(KeyFrameDelay),
		GIFWidth:       v.GetInt(KeyGIFWidth),
		NoCursor:       v.GetBool(KeyNoCursor),
		StrictDatalist: v.GetBool(KeyStrictDatalist),
		Provider:       strings.ToLower(v.GetString(KeyProvider)),
		Model:          v.GetString(KeyModel),
		LogLevel:       v.GetString(KeyLogLevel),
	}
	if v.GetBool(KeyVerbose) {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", KeyTimeout, c.Timeout))
	}
	if c.Poll < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", KeyPoll, c.Poll))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.GIFWidth <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", KeyGIFWidth, c.GIFWidth))
	}
	switch c.Provider {
	case "claude", "anthropic", "openai", "gpt":
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (supported: claude, openai)", c.Provider))
	}
	return errors.Join(errs...)
}
