// Package scope tracks the search root that locators are resolved against.
//
// The context is a stack whose bottom entry is always the document root.
// SetRoot narrows the innermost scope in place, Push nests a new scope above
// it and Pop returns to the enclosing one. A run that only ever uses SetRoot
// and Reset sees a single re-scopable slot.
package scope

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/locator"
	"github.com/v0xg/formpilot/internal/resolve"
)

var ErrAtDocumentRoot = errors.New("scope: already at document root")

// Resolver is the part of resolve.Resolver a Context needs
type Resolver interface {
	Resolve(ctx context.Context, root resolve.SearchRoot, loc locator.Locator, wait resolve.WaitSpec) (*resolve.ResolvedElement, error)
}

// Context owns the current search root of a run. It is not safe for
// concurrent use.
type Context struct {
	resolver Resolver
	logger   logrus.FieldLogger
	stack    []resolve.SearchRoot
}

func New(resolver Resolver, logger logrus.FieldLogger) *Context {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Context{
		resolver: resolver,
		logger:   logger,
		stack:    []resolve.SearchRoot{resolve.Document()},
	}
}

// Current returns the innermost search root
func (c *Context) Current() resolve.SearchRoot {
	return c.stack[len(c.stack)-1]
}

// Depth is the number of scopes including the document root
func (c *Context) Depth() int {
	return len(c.stack)
}

// SetRoot resolves loc inside the current root and makes the result the
// current root, replacing the previous narrowing. From the document root the
// new scope is placed above it so Reset and Pop can always get back.
func (c *Context) SetRoot(ctx context.Context, loc locator.Locator, wait resolve.WaitSpec) error {
	res, err := c.resolver.Resolve(ctx, c.Current(), loc, wait)
	if err != nil {
		return err
	}
	root := res.AsRoot()
	if len(c.stack) == 1 {
		c.stack = append(c.stack, root)
	} else {
		c.stack[len(c.stack)-1] = root
	}
	c.log("Scope set")
	return nil
}

// Push resolves loc inside the current root and nests it as a new scope
func (c *Context) Push(ctx context.Context, loc locator.Locator, wait resolve.WaitSpec) error {
	res, err := c.resolver.Resolve(ctx, c.Current(), loc, wait)
	if err != nil {
		return err
	}
	c.stack = append(c.stack, res.AsRoot())
	c.log("Scope pushed")
	return nil
}

// Pop discards the innermost scope
func (c *Context) Pop() error {
	if len(c.stack) == 1 {
		return ErrAtDocumentRoot
	}
	c.stack[len(c.stack)-1] = resolve.SearchRoot{}
	c.stack = c.stack[:len(c.stack)-1]
	c.log("Scope popped")
	return nil
}

// Reset drops every scope. Elements resolved before a navigation are invalid
// afterwards, so the runner calls this on every page load.
func (c *Context) Reset() {
	clear(c.stack[1:])
	c.stack = c.stack[:1]
}

func (c *Context) log(msg string) {
	c.logger.WithFields(logrus.Fields{
		"root":  c.Current().String(),
		"depth": len(c.stack),
	}).Debug(msg)
}
