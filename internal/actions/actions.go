// Package actions implements the interaction vocabulary applied to resolved
// elements. Operations never wait or re-resolve: the element is expected to
// have been resolved immediately before.
package actions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/locator"
	"github.com/v0xg/formpilot/internal/resolve"
)

var ErrNotCleared = errors.New("field still has content after clearing")

// OptionNotFoundError reports a dropdown or datalist without the requested label
type OptionNotFoundError struct {
	Locator   locator.Locator
	Text      string
	Available []string
}

func (e *OptionNotFoundError) Error() string {
	return fmt.Sprintf("%s has no option %q (available: %s)", e.Locator, e.Text, quoteAll(e.Available))
}

// Options configures a Layer
type Options struct {
	// StrictDatalist makes SelectDatalistByText fail when the typed text is
	// not one of the datalist suggestions
	StrictDatalist bool
}

// Layer applies actions to resolved elements
type Layer struct {
	opts   Options
	logger logrus.FieldLogger
}

func New(opts Options, logger logrus.FieldLogger) *Layer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Layer{opts: opts, logger: logger}
}

// SetText replaces the field content with text. The field is cleared first
// and the clear is verified, so repeating the call never appends.
func (l *Layer) SetText(ctx context.Context, elm *resolve.ResolvedElement, text string) error {
	if err := elm.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", elm.Locator, err)
	}
	current, err := elm.Value(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", elm.Locator, err)
	}
	if current != "" {
		return fmt.Errorf("%s: %w (value %q)", elm.Locator, ErrNotCleared, current)
	}
	if err := elm.Input(ctx, text); err != nil {
		return fmt.Errorf("type into %s: %w", elm.Locator, err)
	}
	l.logger.WithField("locator", elm.Locator.String()).Debug("Text set")
	return nil
}

// SelectByVisibleText selects the dropdown option whose label equals text exactly
func (l *Layer) SelectByVisibleText(ctx context.Context, elm *resolve.ResolvedElement, text string) error {
	options, err := elm.Options(ctx)
	if err != nil {
		return fmt.Errorf("list options of %s: %w", elm.Locator, err)
	}
	if !slices.Contains(options, text) {
		return &OptionNotFoundError{Locator: elm.Locator, Text: text, Available: options}
	}
	if err := elm.SelectOption(ctx, text); err != nil {
		return fmt.Errorf("select %q in %s: %w", text, elm.Locator, err)
	}
	l.logger.WithFields(logrus.Fields{"locator": elm.Locator.String(), "option": text}).Debug("Option selected")
	return nil
}

// SelectDatalistByText types text into an input backed by a datalist. By
// default the suggestion is not verified; with Options.StrictDatalist the text
// must match one of the suggestions before anything is typed.
func (l *Layer) SelectDatalistByText(ctx context.Context, elm *resolve.ResolvedElement, text string) error {
	if l.opts.StrictDatalist {
		suggestions, err := elm.Options(ctx)
		if err != nil {
			return fmt.Errorf("list suggestions of %s: %w", elm.Locator, err)
		}
		if !slices.Contains(suggestions, text) {
			return &OptionNotFoundError{Locator: elm.Locator, Text: text, Available: suggestions}
		}
	}
	return l.SetText(ctx, elm, text)
}

// SetCheckbox clicks the checkbox only when its state differs from desired
func (l *Layer) SetCheckbox(ctx context.Context, elm *resolve.ResolvedElement, desired bool) error {
	checked, err := elm.IsChecked(ctx)
	if err != nil {
		return fmt.Errorf("read state of %s: %w", elm.Locator, err)
	}
	entry := l.logger.WithFields(logrus.Fields{"locator": elm.Locator.String(), "checked": desired})
	if checked == desired {
		entry.Debug("Checkbox already in desired state")
		return nil
	}
	if err := elm.Click(ctx); err != nil {
		return fmt.Errorf("toggle %s: %w", elm.Locator, err)
	}
	entry.Debug("Checkbox toggled")
	return nil
}

// Click issues a single click
func (l *Layer) Click(ctx context.Context, elm *resolve.ResolvedElement) error {
	if err := elm.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", elm.Locator, err)
	}
	return nil
}

func quoteAll(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
