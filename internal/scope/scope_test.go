package scope_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/formpilot/internal/driver"
	"github.com/v0xg/formpilot/internal/driver/drivertest"
	"github.com/v0xg/formpilot/internal/locator"
	"github.com/v0xg/formpilot/internal/resolve"
	"github.com/v0xg/formpilot/internal/scope"
)

var wait = resolve.WaitSpec{Timeout: 100 * time.Millisecond, PollInterval: 10 * time.Millisecond}

type fixture struct {
	resolver *resolve.Resolver
	scope    *scope.Context
	outside  *drivertest.Node
	billing  *drivertest.Node
	shipping *drivertest.Node
	street   *drivertest.Node
}

// page layout:
//
//	<input name=city>                       (outside every form)
//	<form id=billing>  <input name=city> </form>
//	<form id=shipping> <fieldset id=address> <input name=city> <input name=street> </fieldset> </form>
func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		outside:  drivertest.El("input").Name("city"),
		billing:  drivertest.El("input").Name("city"),
		shipping: drivertest.El("input").Name("city"),
		street:   drivertest.El("input").Name("street"),
	}
	d := drivertest.New()
	d.Load(drivertest.El("body",
		f.outside,
		drivertest.El("form", f.billing).ID("billing"),
		drivertest.El("form",
			drivertest.El("fieldset", f.shipping, f.street).ID("address"),
		).ID("shipping"),
	))
	f.resolver = resolve.NewResolver(d, logger)
	f.scope = scope.New(f.resolver, logger)
	return f
}

func (f *fixture) resolveCurrent(t *testing.T, loc locator.Locator) driver.Element {
	t.Helper()
	res, err := f.resolver.Resolve(context.Background(), f.scope.Current(), loc, wait)
	require.NoError(t, err)
	return res.Element
}

func TestNew_StartsAtDocument(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.scope.Current().IsDocument())
	assert.Equal(t, 1, f.scope.Depth())
	assert.Same(t, f.outside, f.resolveCurrent(t, locator.Name("city")))
}

func TestSetRoot_RestrictsResolutionToSubtree(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.scope.SetRoot(context.Background(), locator.ID("billing"), wait))
	assert.Equal(t, "scope(id=billing)", f.scope.Current().String())
	assert.Same(t, f.billing, f.resolveCurrent(t, locator.Name("city")))

	// an element that only exists outside the scope is never found
	_, err := f.resolver.Resolve(context.Background(), f.scope.Current(), locator.Name("street"), wait)
	var timeoutErr *resolve.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestSetRoot_XPathStaysInsideScope(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scope.SetRoot(context.Background(), locator.ID("shipping"), wait))
	assert.Same(t, f.shipping, f.resolveCurrent(t, locator.XPath("//input[@name='city']")))
}

func TestSetRoot_NarrowsRelativeToCurrentAndReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.scope.SetRoot(ctx, locator.ID("shipping"), wait))
	require.NoError(t, f.scope.SetRoot(ctx, locator.ID("address"), wait))
	assert.Equal(t, 2, f.scope.Depth(), "SetRoot replaces the innermost scope")
	assert.Equal(t, "scope(id=address)", f.scope.Current().String())

	// billing is not inside address, so narrowing to it fails and keeps the scope
	err := f.scope.SetRoot(ctx, locator.ID("billing"), wait)
	var timeoutErr *resolve.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "scope(id=address)", f.scope.Current().String())
}

func TestPushPop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.scope.Push(ctx, locator.ID("shipping"), wait))
	require.NoError(t, f.scope.Push(ctx, locator.ID("address"), wait))
	assert.Equal(t, 3, f.scope.Depth())
	assert.Same(t, f.street, f.resolveCurrent(t, locator.Name("street")))

	require.NoError(t, f.scope.Pop())
	assert.Equal(t, "scope(id=shipping)", f.scope.Current().String())
	assert.Same(t, f.shipping, f.resolveCurrent(t, locator.Name("city")))

	require.NoError(t, f.scope.Pop())
	assert.True(t, f.scope.Current().IsDocument())
	assert.ErrorIs(t, f.scope.Pop(), scope.ErrAtDocumentRoot)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.scope.Push(ctx, locator.ID("shipping"), wait))
	require.NoError(t, f.scope.Push(ctx, locator.ID("address"), wait))

	f.scope.Reset()
	assert.Equal(t, 1, f.scope.Depth())
	assert.True(t, f.scope.Current().IsDocument())
	assert.Same(t, f.outside, f.resolveCurrent(t, locator.Name("city")))
}

func TestSetRoot_StaleScope(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	form := drivertest.El("form", drivertest.El("fieldset").ID("inner")).ID("f")
	d := drivertest.New()
	d.Load(drivertest.El("body", form))
	s := scope.New(resolve.NewResolver(d, logger), logger)

	require.NoError(t, s.SetRoot(context.Background(), locator.ID("f"), wait))
	form.Detach()

	err := s.SetRoot(context.Background(), locator.ID("inner"), wait)
	var staleErr *resolve.StaleElementError
	require.ErrorAs(t, err, &staleErr)
	assert.Equal(t, "scope(id=f)", s.Current().String())
}
