package drivertest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strings"
	"sync"

	"github.com/v0xg/formpilot/internal/driver"
	"github.com/v0xg/formpilot/internal/locator"
)

var _ driver.Driver = (*Driver)(nil)
var _ driver.Element = (*Node)(nil)
var _ driver.Screenshotter = (*Driver)(nil)

// Driver is a fake browser session serving pages built by registered
// functions. Each navigation builds a fresh tree and detaches the previous
// one, as a full page load does.
type Driver struct {
	mu          sync.Mutex
	pages       map[string]func() *Node
	doc         *Node
	navigations []string
	quits       int
	finds       int

	// NavigateErr, when set, is returned by every Navigate call
	NavigateErr error
	// QuitErr, when set, is returned by Quit (which still counts the call)
	QuitErr error
}

func New() *Driver {
	return &Driver{pages: map[string]func() *Node{}}
}

// AddPage registers the tree served for url
func (d *Driver) AddPage(url string, build func() *Node) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages[url] = build
	return d
}

// Load replaces the current document without counting a navigation
func (d *Driver) Load(body *Node) *Node {
	d.mu.Lock()
	old := d.doc
	d.doc = El("#document", body)
	doc := d.doc
	d.mu.Unlock()
	if old != nil {
		old.markDetached()
	}
	return doc
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.navigations = append(d.navigations, url)
	navErr := d.NavigateErr
	build, ok := d.pages[url]
	d.mu.Unlock()

	if navErr != nil {
		return navErr
	}
	if !ok {
		return fmt.Errorf("drivertest: no page registered for %s", url)
	}
	d.Load(build())
	return nil
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	return d.QuitErr
}

func (d *Driver) Quits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

func (d *Driver) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigations...)
}

// Finds counts FindElement calls, i.e. resolver polls
func (d *Driver) Finds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finds
}

// Document returns the synthetic root of the current page
func (d *Driver) Document() *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc
}

// Lookup returns the first node of the current page matching loc, or nil
func (d *Driver) Lookup(loc locator.Locator) *Node {
	el, err := d.FindElement(context.Background(), nil, loc)
	if err != nil {
		return nil
	}
	return el.(*Node)
}

func (d *Driver) FindElement(ctx context.Context, root driver.Element, loc locator.Locator) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.finds++
	doc := d.doc
	d.mu.Unlock()

	base := doc
	scoped := root != nil
	if scoped {
		n, ok := root.(*Node)
		if !ok {
			return nil, fmt.Errorf("drivertest: foreign root element %T", root)
		}
		if err := n.stale(); err != nil {
			return nil, err
		}
		base = n
	}
	if base == nil {
		return nil, fmt.Errorf("drivertest: no page loaded: %w", driver.ErrNoSuchElement)
	}

	match, err := matcherFor(loc, scoped)
	if err != nil {
		return nil, err
	}
	if found := firstDescendant(base, match); found != nil {
		return found, nil
	}
	return nil, fmt.Errorf("%s: %w", loc, driver.ErrNoSuchElement)
}

// Screenshot renders a tiny solid image so recorders have something to encode
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func firstDescendant(base *Node, match func(*Node) bool) *Node {
	for _, c := range base.snapshotChildren() {
		if match(c) {
			return c
		}
		if found := firstDescendant(c, match); found != nil {
			return found
		}
	}
	return nil
}

// xpathPredicate covers the subset of XPath the fake understands:
// [.]//tag and [.]//tag[@attr='value'], tag may be *.
var xpathPredicate = regexp.MustCompile(`^\.?//([\w*-]+)(?:\[@([\w-]+)=['"]([^'"]*)['"]\])?$`)

// absolutePath matches location paths registered with Node.Path
var absolutePath = regexp.MustCompile(`^(?:/[\w-]+(?:\[\d+\])?)+$`)

var errUnsupportedXPath = errors.New("drivertest: unsupported xpath")

func matcherFor(loc locator.Locator, scoped bool) (func(*Node) bool, error) {
	switch loc.Strategy {
	case locator.ByID:
		return func(n *Node) bool { return n.attr("id") == loc.Value }, nil
	case locator.ByName:
		return func(n *Node) bool { return n.attr("name") == loc.Value }, nil
	case locator.ByXPath:
		expr := loc.Value
		if scoped {
			expr = locator.ScopedXPath(expr)
		}
		if m := xpathPredicate.FindStringSubmatch(expr); m != nil {
			tag, key, want := m[1], m[2], m[3]
			return func(n *Node) bool {
				if tag != "*" && n.tag != tag {
					return false
				}
				return key == "" || n.attr(key) == want
			}, nil
		}
		if absolutePath.MatchString(expr) {
			return func(n *Node) bool { return n.path == expr }, nil
		}
		if strings.HasPrefix(expr, "./") && absolutePath.MatchString(expr[1:]) {
			// absolute paths made relative never match inside a subtree
			return func(*Node) bool { return false }, nil
		}
		return nil, fmt.Errorf("%w: %q", errUnsupportedXPath, expr)
	default:
		return nil, fmt.Errorf("drivertest: unknown strategy %v", loc.Strategy)
	}
}
