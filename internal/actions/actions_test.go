package actions_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/formpilot/internal/actions"
	"github.com/v0xg/formpilot/internal/driver"
	"github.com/v0xg/formpilot/internal/driver/drivertest"
	"github.com/v0xg/formpilot/internal/locator"
	"github.com/v0xg/formpilot/internal/resolve"
)

func discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func resolved(t *testing.T, node *drivertest.Node, loc locator.Locator) *resolve.ResolvedElement {
	t.Helper()
	d := drivertest.New()
	d.Load(drivertest.El("form", node))
	res, err := resolve.NewResolver(d, discard()).Resolve(context.Background(), resolve.Document(), loc,
		resolve.WaitSpec{Timeout: 50 * time.Millisecond, PollInterval: 5 * time.Millisecond})
	require.NoError(t, err)
	return res
}

func TestSetText_ReplacesContent(t *testing.T) {
	field := drivertest.El("input").ID("my-text-id").WithValue("stale text")
	elm := resolved(t, field, locator.ID("my-text-id"))
	layer := actions.New(actions.Options{}, discard())
	ctx := context.Background()

	require.NoError(t, layer.SetText(ctx, elm, "A"))
	assert.Equal(t, "A", field.CurrentValue())

	require.NoError(t, layer.SetText(ctx, elm, "B"))
	assert.Equal(t, "B", field.CurrentValue())

	require.NoError(t, layer.SetText(ctx, elm, "B"))
	assert.Equal(t, "B", field.CurrentValue())
}

// stubbornField ignores Clear, as a field with an input mask might
type stubbornField struct {
	*drivertest.Node
}

func (stubbornField) Clear(context.Context) error { return nil }

func TestSetText_FailsWhenClearDoesNotTakeEffect(t *testing.T) {
	node := drivertest.El("input").ID("masked").WithValue("(555)")
	elm := &resolve.ResolvedElement{Element: stubbornField{node}, Locator: locator.ID("masked")}

	err := actions.New(actions.Options{}, discard()).SetText(context.Background(), elm, "123")
	require.ErrorIs(t, err, actions.ErrNotCleared)
	assert.Equal(t, "(555)", node.CurrentValue())
}

func TestSelectByVisibleText(t *testing.T) {
	dropdown := drivertest.El("select").Name("my-select").WithOptions("Open this select menu", "One", "Two", "Three")
	elm := resolved(t, dropdown, locator.Name("my-select"))
	layer := actions.New(actions.Options{}, discard())

	require.NoError(t, layer.SelectByVisibleText(context.Background(), elm, "Two"))
	assert.Equal(t, "Two", dropdown.CurrentValue())
}

func TestSelectByVisibleText_ExactMatchOnly(t *testing.T) {
	dropdown := drivertest.El("select").Name("my-select").WithOptions("One", "Two", "Twenty")
	elm := resolved(t, dropdown, locator.Name("my-select"))
	layer := actions.New(actions.Options{}, discard())

	for _, text := range []string{"Tw", "two", "Two "} {
		err := layer.SelectByVisibleText(context.Background(), elm, text)
		var notFound *actions.OptionNotFoundError
		require.ErrorAs(t, err, &notFound, text)
		assert.Equal(t, text, notFound.Text)
		assert.Equal(t, []string{"One", "Two", "Twenty"}, notFound.Available)
	}
	assert.Empty(t, dropdown.CurrentValue())
}

func TestSelectDatalistByText(t *testing.T) {
	newDatalist := func() *drivertest.Node {
		return drivertest.El("input").Name("my-datalist").WithOptions("San Francisco", "New York", "Seattle")
	}

	t.Run("best effort types any text", func(t *testing.T) {
		field := newDatalist()
		elm := resolved(t, field, locator.Name("my-datalist"))
		layer := actions.New(actions.Options{}, discard())

		require.NoError(t, layer.SelectDatalistByText(context.Background(), elm, "New York"))
		assert.Equal(t, "New York", field.CurrentValue())
		require.NoError(t, layer.SelectDatalistByText(context.Background(), elm, "Gotham"))
		assert.Equal(t, "Gotham", field.CurrentValue())
	})

	t.Run("strict requires a suggestion", func(t *testing.T) {
		field := newDatalist()
		elm := resolved(t, field, locator.Name("my-datalist"))
		layer := actions.New(actions.Options{StrictDatalist: true}, discard())

		require.NoError(t, layer.SelectDatalistByText(context.Background(), elm, "New York"))
		assert.Equal(t, "New York", field.CurrentValue())

		err := layer.SelectDatalistByText(context.Background(), elm, "Gotham")
		var notFound *actions.OptionNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "New York", field.CurrentValue())
	})
}

func TestSetCheckbox_Idempotent(t *testing.T) {
	tests := []struct {
		name       string
		node       *drivertest.Node
		desired    bool
		wantClicks int
	}{
		{name: "enable unchecked", node: drivertest.El("input").Type("checkbox").ID("c"), desired: true, wantClicks: 1},
		{name: "enable checked", node: drivertest.El("input").Type("checkbox").ID("c").Checked(), desired: true, wantClicks: 0},
		{name: "disable checked", node: drivertest.El("input").Type("checkbox").ID("c").Checked(), desired: false, wantClicks: 1},
		{name: "disable unchecked", node: drivertest.El("input").Type("checkbox").ID("c"), desired: false, wantClicks: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elm := resolved(t, tt.node, locator.ID("c"))
			layer := actions.New(actions.Options{}, discard())

			require.NoError(t, layer.SetCheckbox(context.Background(), elm, tt.desired))
			assert.Equal(t, tt.desired, tt.node.CurrentlyChecked())

			require.NoError(t, layer.SetCheckbox(context.Background(), elm, tt.desired))
			assert.Equal(t, tt.desired, tt.node.CurrentlyChecked())
			assert.Equal(t, tt.wantClicks, tt.node.Clicks())
		})
	}
}

func TestClick(t *testing.T) {
	submitted := 0
	button := drivertest.El("button").Attr("type", "submit").OnClick(func(*drivertest.Node) { submitted++ })
	elm := resolved(t, button, locator.XPath("//button[@type='submit']"))

	require.NoError(t, actions.New(actions.Options{}, discard()).Click(context.Background(), elm))
	assert.Equal(t, 1, submitted)
	assert.Equal(t, 1, button.Clicks())
}

func TestActions_SurfaceStaleness(t *testing.T) {
	field := drivertest.El("input").ID("gone")
	elm := resolved(t, field, locator.ID("gone"))
	field.Detach()

	layer := actions.New(actions.Options{}, discard())
	assert.ErrorIs(t, layer.SetText(context.Background(), elm, "x"), driver.ErrStaleElement)
	assert.ErrorIs(t, layer.Click(context.Background(), elm), driver.ErrStaleElement)
	assert.ErrorIs(t, layer.SetCheckbox(context.Background(), elm, true), driver.ErrStaleElement)
}
