// Package drivertest provides an in-memory page model implementing
// driver.Driver, for exercising resolution, scoping and actions without a
// browser.
package drivertest

import (
	"context"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/v0xg/formpilot/internal/driver"
)

// Node is a fake DOM element. Builder methods (ID, Name, Hide, ...) are meant
// for page construction; the remaining methods are safe for concurrent use.
type Node struct {
	mu sync.Mutex

	tag   string
	id    string
	name  string
	typ   string
	path  string
	attrs map[string]string

	parent   *Node
	children []*Node

	hidden   bool
	detached bool
	value    string
	checked  bool
	options  []string
	clicks   int
	onClick  func(*Node)
	center   image.Point
}

// El builds a node with the given children
func El(tag string, children ...*Node) *Node {
	n := &Node{tag: tag, attrs: map[string]string{}}
	for _, c := range children {
		c.parent = n
	}
	n.children = children
	return n
}

func (n *Node) ID(id string) *Node       { n.id = id; return n }
func (n *Node) Name(name string) *Node   { n.name = name; return n }
func (n *Node) Type(typ string) *Node    { n.typ = typ; return n }
func (n *Node) Attr(k, v string) *Node   { n.attrs[k] = v; return n }
func (n *Node) Hide() *Node              { n.hidden = true; return n }
func (n *Node) WithValue(v string) *Node { n.value = v; return n }
func (n *Node) Checked() *Node           { n.checked = true; return n }
func (n *Node) At(x, y int) *Node        { n.center = image.Pt(x, y); return n }

func (n *Node) OnClick(fn func(*Node)) *Node { n.onClick = fn; return n }

// Path registers the absolute XPath under which the node can be found from
// the document root.
func (n *Node) Path(p string) *Node { n.path = p; return n }

// WithOptions sets dropdown labels, or datalist suggestions for an input
func (n *Node) WithOptions(opts ...string) *Node {
	n.options = opts
	return n
}

func (n *Node) String() string {
	switch {
	case n.id != "":
		return fmt.Sprintf("<%s id=%q>", n.tag, n.id)
	case n.name != "":
		return fmt.Sprintf("<%s name=%q>", n.tag, n.name)
	default:
		return "<" + n.tag + ">"
	}
}

// SetVisible toggles the node's own display state
func (n *Node) SetVisible(visible bool) {
	n.mu.Lock()
	n.hidden = !visible
	n.mu.Unlock()
}

// Append attaches a child at runtime, as a script rendering late content would
func (n *Node) Append(child *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	child.parent = n
	n.children = append(n.children, child)
}

// Detach removes the node from its parent and marks its subtree stale
func (n *Node) Detach() {
	n.mu.Lock()
	parent := n.parent
	n.parent = nil
	n.mu.Unlock()

	if parent != nil {
		parent.mu.Lock()
		parent.children = slices.DeleteFunc(parent.children, func(c *Node) bool { return c == n })
		parent.mu.Unlock()
	}
	n.markDetached()
}

func (n *Node) markDetached() {
	n.mu.Lock()
	n.detached = true
	children := slices.Clone(n.children)
	n.mu.Unlock()
	for _, c := range children {
		c.markDetached()
	}
}

// CurrentValue returns the value without the driver.Element error contract
func (n *Node) CurrentValue() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

func (n *Node) CurrentlyChecked() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checked
}

func (n *Node) Clicks() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clicks
}

func (n *Node) snapshotChildren() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.children)
}

func (n *Node) stale() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.detached {
		return fmt.Errorf("%s: %w", n.String(), driver.ErrStaleElement)
	}
	return nil
}

func (n *Node) attr(key string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch key {
	case "id":
		return n.id
	case "name":
		return n.name
	case "type":
		return n.typ
	}
	return n.attrs[key]
}

// Element contract

func (n *Node) Value(ctx context.Context) (string, error) {
	if err := n.stale(); err != nil {
		return "", err
	}
	return n.CurrentValue(), nil
}

func (n *Node) Clear(ctx context.Context) error {
	if err := n.stale(); err != nil {
		return err
	}
	n.mu.Lock()
	n.value = ""
	n.mu.Unlock()
	return nil
}

func (n *Node) Input(ctx context.Context, text string) error {
	if err := n.stale(); err != nil {
		return err
	}
	n.mu.Lock()
	n.value += text
	n.mu.Unlock()
	return nil
}

func (n *Node) Click(ctx context.Context) error {
	if err := n.stale(); err != nil {
		return err
	}
	n.mu.Lock()
	n.clicks++
	if n.tag == "input" {
		switch n.typ {
		case "checkbox":
			n.checked = !n.checked
		case "radio":
			n.checked = true
		}
	}
	onClick := n.onClick
	n.mu.Unlock()

	if onClick != nil {
		onClick(n)
	}
	return nil
}

func (n *Node) IsChecked(ctx context.Context) (bool, error) {
	if err := n.stale(); err != nil {
		return false, err
	}
	return n.CurrentlyChecked(), nil
}

func (n *Node) IsVisible(ctx context.Context) (bool, error) {
	if err := n.stale(); err != nil {
		return false, err
	}
	for cur := n; cur != nil; {
		cur.mu.Lock()
		hidden, parent := cur.hidden, cur.parent
		cur.mu.Unlock()
		if hidden {
			return false, nil
		}
		cur = parent
	}
	return true, nil
}

func (n *Node) Options(ctx context.Context) ([]string, error) {
	if err := n.stale(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.options), nil
}

func (n *Node) SelectOption(ctx context.Context, text string) error {
	if err := n.stale(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tag != "select" {
		return fmt.Errorf("%s is not a select element", n.String())
	}
	if !slices.Contains(n.options, text) {
		return fmt.Errorf("%s has no option %q", n.String(), text)
	}
	n.value = text
	return nil
}

// Center implements driver.Pointer
func (n *Node) Center(ctx context.Context) (image.Point, error) {
	if err := n.stale(); err != nil {
		return image.Point{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.center, nil
}
