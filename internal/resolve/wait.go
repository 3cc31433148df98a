package resolve

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second
	// DefaultPollInterval matches the WebDriver wait default
	DefaultPollInterval = 500 * time.Millisecond
)

var ErrNegativeTimeout = errors.New("wait timeout must not be negative")

// WaitSpec bounds a resolution. A zero Timeout checks exactly once.
type WaitSpec struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// DefaultWait returns the 10s / 500ms wait used when nothing is configured
func DefaultWait() WaitSpec {
	return WaitSpec{Timeout: DefaultTimeout, PollInterval: DefaultPollInterval}
}

func (w WaitSpec) Validate() error {
	if w.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeTimeout, w.Timeout)
	}
	return nil
}

// WithTimeout returns a copy of w with a different timeout
func (w WaitSpec) WithTimeout(d time.Duration) WaitSpec {
	w.Timeout = d
	return w
}

func (w WaitSpec) interval() time.Duration {
	if w.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return w.PollInterval
}
