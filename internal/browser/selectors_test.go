package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/formpilot/internal/locator"
)

func TestCSSSelector(t *testing.T) {
	tests := []struct {
		loc  locator.Locator
		want string
	}{
		{locator.ID("my-text-id"), `[id="my-text-id"]`},
		{locator.Name("my-password"), `[name="my-password"]`},
		{locator.ID("1st"), `[id="1st"]`},
		{locator.ID(`say "hi"`), `[id="say \"hi\""]`},
		{locator.Name(`a\b`), `[name="a\\b"]`},
		{locator.ID("line\nbreak"), `[id="line\a break"]`},
	}
	for _, tt := range tests {
		t.Run(tt.loc.String(), func(t *testing.T) {
			got, err := cssSelector(tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCSSSelector_RejectsXPath(t *testing.T) {
	_, err := cssSelector(locator.XPath("//input"))
	assert.Error(t, err)
}

func TestUsableElements(t *testing.T) {
	raw := []Element{
		{Locator: "id=my-text-id", Kind: "text"},
		{Locator: "name=my-select", Kind: "select", Options: []string{"One", "Two"}},
		{Locator: "id=my-text-id", Kind: "text"},
		{Locator: "id=", Kind: "button"},
		{Locator: "xpath=/html/body/form/button[2]", Kind: "button", Text: "Submit"},
	}

	got := usableElements(raw)
	require.Len(t, got, 3)
	assert.Equal(t, "id=my-text-id", got[0].Locator)
	assert.Equal(t, []string{"One", "Two"}, got[1].Options)
	assert.Equal(t, "xpath=/html/body/form/button[2]", got[2].Locator)
}

func TestUsableNav(t *testing.T) {
	got := usableNav([]NavItem{
		{Locator: "xpath=/html/body/nav/a[1]", Text: "Home", Href: "/"},
		{Locator: "bogus", Text: "Broken", Href: "/x"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "Home", got[0].Text)
}
