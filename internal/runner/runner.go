// Package runner sequences a navigation and a list of steps against a driver
// session. Runs are fail-fast and always end the session.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/actions"
	"github.com/v0xg/formpilot/internal/driver"
	"github.com/v0xg/formpilot/internal/resolve"
	"github.com/v0xg/formpilot/internal/scope"
)

// OrchestrationError wraps the failure of one step. Index is -1 when the run
// failed before any step, during the initial navigation or validation.
type OrchestrationError struct {
	Index int
	Step  Step
	Err   error
}

func (e *OrchestrationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("run setup failed: %v", e.Err)
	}
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Step, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// Event describes progress handed to an Observer
type Event struct {
	// Index of the completed step, -1 for the initial navigation
	Index int
	Step  Step
	// Target is the element the step acted on, nil for scope-less steps
	Target driver.Element
}

// Observer receives an event after the initial navigation and after every
// successful step. It cannot influence the run.
type Observer interface {
	Observe(ctx context.Context, ev Event) error
}

// Options configures a Runner
type Options struct {
	Logger   logrus.FieldLogger
	Observer Observer
	Actions  actions.Options
}

// Runner owns a driver session for the length of one Run
type Runner struct {
	driver   driver.Driver
	resolver *resolve.Resolver
	scope    *scope.Context
	actions  *actions.Layer
	observer Observer
	logger   logrus.FieldLogger
}

func New(d driver.Driver, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	resolver := resolve.NewResolver(d, logger)
	return &Runner{
		driver:   d,
		resolver: resolver,
		scope:    scope.New(resolver, logger),
		actions:  actions.New(opts.Actions, logger),
		observer: opts.Observer,
		logger:   logger,
	}
}

// Run navigates to url and executes steps in order. The first failure stops
// the run and is returned as *OrchestrationError. The driver is quit exactly
// once before Run returns, whatever the outcome.
func (r *Runner) Run(ctx context.Context, url string, steps []Step, wait resolve.WaitSpec) (err error) {
	defer func() {
		if quitErr := r.driver.Quit(); quitErr != nil {
			r.logger.WithError(quitErr).Warn("Failed to quit browser")
			err = errors.Join(err, fmt.Errorf("quit driver: %w", quitErr))
		}
	}()

	if err := wait.Validate(); err != nil {
		return &OrchestrationError{Index: -1, Step: Step{Action: ActionNavigate, Value: url}, Err: err}
	}
	for i, step := range steps {
		if err := step.Validate(); err != nil {
			return &OrchestrationError{Index: i, Step: step, Err: err}
		}
	}

	start := time.Now()
	nav := Step{Action: ActionNavigate, Value: url}
	if err := r.navigate(ctx, url); err != nil {
		return &OrchestrationError{Index: -1, Step: nav, Err: err}
	}
	r.notify(ctx, Event{Index: -1, Step: nav})

	for i, step := range steps {
		entry := r.logger.WithFields(logrus.Fields{
			"step":   fmt.Sprintf("%d/%d", i+1, len(steps)),
			"action": step.Action.String(),
		})
		if step.Action.NeedsLocator() {
			entry = entry.WithField("locator", step.Locator.String())
		}

		target, err := r.execute(ctx, step, wait)
		if err != nil {
			entry.WithError(err).Error("Step failed")
			return &OrchestrationError{Index: i, Step: step, Err: err}
		}
		entry.Info("Step done")
		r.notify(ctx, Event{Index: i, Step: step, Target: target})
	}

	r.logger.WithFields(logrus.Fields{
		"steps":    len(steps),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Run completed")
	return nil
}

// execute performs one step and returns the element it acted on, if any
func (r *Runner) execute(ctx context.Context, step Step, wait resolve.WaitSpec) (driver.Element, error) {
	switch step.Action {
	case ActionNavigate:
		return nil, r.navigate(ctx, step.Value)
	case ActionSetScope:
		if err := r.scope.SetRoot(ctx, step.Locator, wait); err != nil {
			return nil, err
		}
		return r.scope.Current().Element(), nil
	case ActionPushScope:
		if err := r.scope.Push(ctx, step.Locator, wait); err != nil {
			return nil, err
		}
		return r.scope.Current().Element(), nil
	case ActionPopScope:
		return nil, r.scope.Pop()
	case ActionResetScope:
		r.scope.Reset()
		return nil, nil
	}

	elm, err := r.resolver.Resolve(ctx, r.scope.Current(), step.Locator, wait)
	if err != nil {
		return nil, err
	}

	switch step.Action {
	case ActionInput:
		err = r.actions.SetText(ctx, elm, step.Value)
	case ActionSelectByText:
		err = r.actions.SelectByVisibleText(ctx, elm, step.Value)
	case ActionSelectByDatalistText:
		err = r.actions.SelectDatalistByText(ctx, elm, step.Value)
	case ActionEnableCheckbox:
		err = r.actions.SetCheckbox(ctx, elm, true)
	case ActionDisableCheckbox:
		err = r.actions.SetCheckbox(ctx, elm, false)
	case ActionClick:
		err = r.actions.Click(ctx, elm)
	default:
		err = fmt.Errorf("unsupported action %s", step.Action)
	}
	if err != nil {
		return nil, err
	}
	return elm.Element, nil
}

// navigate loads url; previously resolved elements are invalid afterwards so
// the scope goes back to the document root.
func (r *Runner) navigate(ctx context.Context, url string) error {
	r.logger.WithField("url", url).Info("Navigating")
	if err := r.driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	r.scope.Reset()
	return nil
}

func (r *Runner) notify(ctx context.Context, ev Event) {
	if r.observer == nil {
		return
	}
	if err := r.observer.Observe(ctx, ev); err != nil {
		r.logger.WithError(err).Warn("Observer failed")
	}
}
