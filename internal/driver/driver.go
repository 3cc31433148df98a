// Package driver declares the minimal browser surface the resolver, scope,
// action and runner packages depend on. Implementations live in
// internal/browser (go-rod) and internal/driver/drivertest (in-memory fake).
package driver

import (
	"context"
	"errors"
	"image"

	"github.com/v0xg/formpilot/internal/locator"
)

var (
	// ErrNoSuchElement is wrapped by FindElement when nothing matches.
	ErrNoSuchElement = errors.New("no such element")
	// ErrStaleElement is wrapped when an element or search root is no longer
	// attached to the page.
	ErrStaleElement = errors.New("stale element reference")
)

// Element is a session-scoped handle to a live page node
type Element interface {
	// Value returns the current value of a form control
	Value(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
	// Input types text at the end of the current value
	Input(ctx context.Context, text string) error
	Click(ctx context.Context) error
	IsChecked(ctx context.Context) (bool, error)
	// IsVisible reports whether the element is rendered with a non-zero size
	// and is not hidden with display:none
	IsVisible(ctx context.Context) (bool, error)
	// Options lists the visible labels of a dropdown, or the suggestions of
	// the datalist attached to a text input
	Options(ctx context.Context) ([]string, error)
	SelectOption(ctx context.Context, text string) error
}

// Finder looks up the first element, in document order, matching loc inside
// root. A nil root means the whole document.
type Finder interface {
	FindElement(ctx context.Context, root Element, loc locator.Locator) (Element, error)
}

// Driver is a browser session
type Driver interface {
	Finder
	Navigate(ctx context.Context, url string) error
	Quit() error
}

// Screenshotter is implemented by drivers that can capture the viewport as PNG
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Pointer is implemented by elements that can report their on-screen center
type Pointer interface {
	Center(ctx context.Context) (image.Point, error)
}
