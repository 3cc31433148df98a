package resolve

import (
	"fmt"
	"time"

	"github.com/v0xg/formpilot/internal/locator"
)

// TimeoutError reports that no visible element matched within the wait window
type TimeoutError struct {
	Locator locator.Locator
	Root    SearchRoot
	Timeout time.Duration
	Elapsed time.Duration
	// Found is true when an element matched but never became visible
	Found bool
	// Err is the *NotFoundError of the final lookup when it matched nothing
	Err error
}

func (e *TimeoutError) Error() string {
	state := "not found"
	if e.Found {
		state = "present but not visible"
	}
	return fmt.Sprintf("timed out after %s waiting for %s in %s (%s, timeout %s)",
		e.Elapsed.Round(time.Millisecond), e.Locator, e.Root, state, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// StaleElementError reports that the search root is no longer attached to
// the page. It unwraps to driver.ErrStaleElement.
type StaleElementError struct {
	Locator locator.Locator
	Root    SearchRoot
	Err     error
}

func (e *StaleElementError) Error() string {
	return fmt.Sprintf("cannot resolve %s: search root %s is stale: %v", e.Locator, e.Root, e.Err)
}

func (e *StaleElementError) Unwrap() error { return e.Err }

// NotFoundError reports that an immediate lookup matched nothing
type NotFoundError struct {
	Locator locator.Locator
	Root    SearchRoot
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no element matches %s in %s", e.Locator, e.Root)
}
