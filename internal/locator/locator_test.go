package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Locator
	}{
		{name: "id", in: "id=my-text-id", want: ID("my-text-id")},
		{name: "name", in: "name=my-password", want: Name("my-password")},
		{name: "xpath prefix", in: "xpath=//button[@type='submit']", want: XPath("//button[@type='submit']")},
		{name: "strategy is case insensitive", in: "ID=foo", want: ID("foo")},
		{name: "bare absolute xpath", in: "/html/body/main/div/form", want: XPath("/html/body/main/div/form")},
		{name: "bare relative xpath", in: ".//input", want: XPath(".//input")},
		{name: "bare grouped xpath", in: "(//input)[2]", want: XPath("(//input)[2]")},
		{name: "value keeps equals signs", in: "xpath=//input[@value='a=b']", want: XPath("//input[@value='a=b']")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "id=", "id=  ", "css=.btn", "no-separator"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)
		})
	}

	_, err := Parse("name=")
	assert.ErrorIs(t, err, ErrEmptyValue)
}

func TestNew(t *testing.T) {
	loc, err := New(ByName, "q")
	require.NoError(t, err)
	assert.Equal(t, "name=q", loc.String())

	_, err = New(ByID, "")
	assert.ErrorIs(t, err, ErrEmptyValue)

	_, err = New(Strategy(42), "x")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestTextRoundTrip(t *testing.T) {
	original := XPath("//select[@name='my-select']")
	text, err := original.MarshalText()
	require.NoError(t, err)

	var decoded Locator
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, original, decoded)
}

func TestScopedXPath(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{expr: "//input", want: ".//input"},
		{expr: "/html/body", want: "./html/body"},
		{expr: ".//input", want: ".//input"},
		{expr: "  //input ", want: ".//input"},
		{expr: "(//button)[1]", want: "(.//button)[1]"},
		{expr: "( //button )[last()]", want: "( .//button )[last()]"},
		{expr: "//input | //textarea", want: ".//input | .//textarea"},
		{expr: "(//a)|(/html/b)", want: "(.//a)|(./html/b)"},
		{expr: "((//a | //b))[2]", want: "((.//a | .//b))[2]"},
		{expr: "//div[//span]", want: ".//div[//span]"},
		{expr: "//a[@title='(//x) | /y']", want: ".//a[@title='(//x) | /y']"},
		{expr: `//a[@title="it's | //"]|//b`, want: `.//a[@title="it's | //"]|.//b`},
		{expr: "./a | ./b", want: "./a | ./b"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, ScopedXPath(tt.expr))
		})
	}
}

func TestScopedXPath_ParsedLocators(t *testing.T) {
	for _, text := range []string{"(//button)[1]", "xpath=//input | //textarea"} {
		loc, err := Parse(text)
		require.NoError(t, err)
		scoped := ScopedXPath(loc.Value)
		assert.NotRegexp(t, `(^|[(|]\s*)/`, scoped, "no branch may start at the document root")
	}
}

func TestZeroLocator(t *testing.T) {
	var zero Locator
	assert.True(t, zero.IsZero())
	assert.Error(t, zero.Validate())
	assert.False(t, ID("x").IsZero())
}
