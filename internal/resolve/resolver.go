// Package resolve waits for elements to become interactable. A Resolver polls
// the driver for the first element matching a locator inside a search root
// until the element is visible, the wait times out, or the context ends.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/driver"
	"github.com/v0xg/formpilot/internal/locator"
)

// SearchRoot is the subtree a locator is resolved against. The zero value is
// the document root.
type SearchRoot struct {
	element driver.Element
	locator locator.Locator
}

// Document returns the document search root
func Document() SearchRoot {
	return SearchRoot{}
}

func (r SearchRoot) IsDocument() bool {
	return r.element == nil
}

// Element returns the root element, nil for the document
func (r SearchRoot) Element() driver.Element {
	return r.element
}

// Locator returns the locator the root was resolved from (zero for the document)
func (r SearchRoot) Locator() locator.Locator {
	return r.locator
}

func (r SearchRoot) String() string {
	if r.IsDocument() {
		return "document"
	}
	return "scope(" + r.locator.String() + ")"
}

// ResolvedElement is a visible element together with how it was found.
// It is only meant to be used for the action that immediately follows.
type ResolvedElement struct {
	driver.Element
	Locator locator.Locator
	Root    SearchRoot
	Elapsed time.Duration
}

// AsRoot turns the element into a search root for nested lookups
func (e *ResolvedElement) AsRoot() SearchRoot {
	return SearchRoot{element: e.Element, locator: e.Locator}
}

// Resolver is stateless; one instance can serve a whole run
type Resolver struct {
	finder driver.Finder
	logger logrus.FieldLogger
}

// NewResolver creates a resolver querying finder. A nil logger means the
// logrus standard logger.
func NewResolver(finder driver.Finder, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{finder: finder, logger: logger}
}

// Resolve blocks until the first element matching loc inside root is
// visible. It fails with *TimeoutError once wait.Timeout has elapsed, with
// *StaleElementError when a scoped root has been detached, and with the
// context error when ctx ends first.
func (r *Resolver) Resolve(ctx context.Context, root SearchRoot, loc locator.Locator, wait WaitSpec) (*ResolvedElement, error) {
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", loc, err)
	}
	if err := wait.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	deadline := start.Add(wait.Timeout)
	interval := wait.interval()
	found := false
	polls := 0
	var missing *NotFoundError

	for {
		polls++
		missing = nil
		res, err := r.Find(ctx, root, loc)
		var (
			notFound *NotFoundError
			stale    *StaleElementError
		)
		switch {
		case err == nil:
			found = true
			visible, verr := res.IsVisible(ctx)
			if verr == nil && visible {
				res.Elapsed = time.Since(start)
				r.logger.WithFields(logrus.Fields{
					"locator": loc.String(),
					"root":    root.String(),
					"elapsed": res.Elapsed.Round(time.Millisecond),
					"polls":   polls,
				}).Debug("Resolved element")
				return res, nil
			}
			// a candidate detached between lookup and check is polled again
			if verr != nil && !errors.Is(verr, driver.ErrStaleElement) {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("resolve %s: %w", loc, ctx.Err())
				}
				return nil, fmt.Errorf("check visibility of %s: %w", loc, verr)
			}
		case errors.As(err, &stale):
			return nil, err
		case errors.As(err, &notFound):
			missing = notFound
		case errors.Is(err, driver.ErrStaleElement):
		default:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("resolve %s: %w", loc, ctx.Err())
			}
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &TimeoutError{
				Locator: loc,
				Root:    root,
				Timeout: wait.Timeout,
				Elapsed: time.Since(start),
				Found:   found,
				Err:     lastLookup(missing),
			}
		}

		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("resolve %s: %w", loc, ctx.Err())
		case <-timer.C:
		}
	}
}

func lastLookup(missing *NotFoundError) error {
	if missing == nil {
		return nil
	}
	return missing
}

// Find performs a single lookup without waiting or checking visibility
func (r *Resolver) Find(ctx context.Context, root SearchRoot, loc locator.Locator) (*ResolvedElement, error) {
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	el, err := r.finder.FindElement(ctx, root.element, loc)
	switch {
	case err == nil:
		return &ResolvedElement{Element: el, Locator: loc, Root: root}, nil
	case errors.Is(err, driver.ErrStaleElement) && !root.IsDocument():
		return nil, &StaleElementError{Locator: loc, Root: root, Err: err}
	case errors.Is(err, driver.ErrNoSuchElement):
		return nil, &NotFoundError{Locator: loc, Root: root}
	default:
		return nil, fmt.Errorf("find %s in %s: %w", loc, root, err)
	}
}
