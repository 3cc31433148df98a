// Package browser implements driver.Driver on top of a Chromium session
// controlled with go-rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/driver"
	"github.com/v0xg/formpilot/internal/locator"
)

var (
	_ driver.Driver        = (*Browser)(nil)
	_ driver.Screenshotter = (*Browser)(nil)
)

// Options configures the browser session
type Options struct {
	Width    int
	Height   int
	Headless bool
	// ProfileDir is a Chrome/Chromium profile directory for authenticated sessions
	ProfileDir string
	// Bin overrides the browser executable; empty means look it up
	Bin string
	// SettleTimeout bounds the network-idle and SPA render waits after a navigation
	SettleTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 720
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = 5 * time.Second
	}
	return o
}

// Browser wraps the rod browser and its single page
type Browser struct {
	opts     Options
	logger   logrus.FieldLogger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	quitOnce sync.Once
	quitErr  error
}

// Launch starts Chromium and opens a blank page with the configured viewport
func Launch(ctx context.Context, opts Options, logger logrus.FieldLogger) (*Browser, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	path := opts.Bin
	if path == "" {
		path, _ = launcher.LookPath()
	}
	l := launcher.New().Context(ctx).Bin(path).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	b := &Browser{opts: opts, logger: logger, launcher: l}

	b.browser = rod.New().ControlURL(u)
	if err := b.browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	b.page, err = b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Quit()
		return nil, fmt.Errorf("open page: %w", err)
	}
	err = b.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = b.Quit()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"bin":      path,
		"headless": opts.Headless,
		"viewport": fmt.Sprintf("%dx%d", opts.Width, opts.Height),
	}).Debug("Browser launched")
	return b, nil
}

// Navigate loads url and waits for the page to settle: load event, a bounded
// network-idle wait and, on single page apps, a bounded wait for interactive
// elements to render.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return err
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}

	// Don't hang on persistent connections (WebSockets, polling, etc.)
	page.Timeout(b.opts.SettleTimeout).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	isSPA, err := detectSPA(page)
	if err != nil {
		return err
	}
	if isSPA {
		b.logger.WithField("url", url).Debug("Single page app detected, waiting for render")
		if err := waitForInteractiveElements(ctx, page, b.opts.SettleTimeout); err != nil {
			return err
		}
	}
	return nil
}

// FindElement performs a single lookup. Scoped lookups run against the root
// element with absolute XPath made relative to it.
func (b *Browser) FindElement(ctx context.Context, root driver.Element, loc locator.Locator) (driver.Element, error) {
	if root == nil {
		return b.findIn(ctx, b.page.Context(ctx), loc)
	}
	r, ok := root.(*element)
	if !ok {
		return nil, fmt.Errorf("browser: foreign root element %T", root)
	}
	if err := r.connected(ctx); err != nil {
		return nil, err
	}
	scoped := loc
	if loc.Strategy == locator.ByXPath {
		scoped = locator.XPath(locator.ScopedXPath(loc.Value))
	}
	return b.findIn(ctx, r.el.Context(ctx), scoped)
}

// searcher is the lookup surface shared by rod pages and elements
type searcher interface {
	Has(selector string) (bool, *rod.Element, error)
	HasX(selector string) (bool, *rod.Element, error)
}

func (b *Browser) findIn(ctx context.Context, in searcher, loc locator.Locator) (driver.Element, error) {
	var (
		found bool
		el    *rod.Element
		err   error
	)
	if loc.Strategy == locator.ByXPath {
		found, el, err = in.HasX(loc.Value)
	} else {
		var css string
		css, err = cssSelector(loc)
		if err != nil {
			return nil, err
		}
		found, el, err = in.Has(css)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, staleOr(err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", loc, driver.ErrNoSuchElement)
	}
	return &element{el: el}, nil
}

// Screenshot captures the viewport as PNG
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	return b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Quit closes the page, the browser and the launched process. Only the first
// call does anything; later calls return the first result.
func (b *Browser) Quit() error {
	b.quitOnce.Do(func() {
		var errs []error
		if b.page != nil {
			if err := b.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if b.browser != nil {
			if err := b.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if b.launcher != nil {
			b.launcher.Kill()
		}
		b.quitErr = errors.Join(errs...)
		b.logger.Debug("Browser closed")
	})
	return b.quitErr
}

// waitForInteractiveElements polls until interactive elements appear or timeout
func waitForInteractiveElements(ctx context.Context, page *rod.Page, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	checkInterval := 200 * time.Millisecond

	for time.Now().Before(deadline) {
		res, err := page.Eval(`() => {
			const nodes = document.querySelectorAll('button, [role="button"], input:not([type="hidden"]), textarea, select, a[href]');
			let visible = 0;
			nodes.forEach(el => { if (el.offsetParent) visible++; });
			return visible;
		}`)
		if err != nil {
			return fmt.Errorf("count interactive elements: %w", err)
		}
		if res.Value.Int() > 0 {
			return sleep(ctx, 300*time.Millisecond)
		}
		if err := sleep(ctx, checkInterval); err != nil {
			return err
		}
	}
	return nil
}

// detectSPA checks for common single page app framework markers
func detectSPA(page *rod.Page) (bool, error) {
	res, err := page.Eval(`() => {
		if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
		if (window.__VUE__ || document.querySelector('[data-v-app]')) return true;
		if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
		if (document.querySelector('[class*="svelte-"]')) return true;
		return false;
	}`)
	if err != nil {
		return false, fmt.Errorf("detect single page app: %w", err)
	}
	return res.Value.Bool(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
