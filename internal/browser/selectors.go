package browser

import (
	"fmt"
	"strings"

	"github.com/v0xg/formpilot/internal/locator"
)

// cssSelector maps an id or name locator to an attribute selector. Attribute
// selectors accept any id, including ones starting with a digit that a
// #id selector would reject.
func cssSelector(loc locator.Locator) (string, error) {
	switch loc.Strategy {
	case locator.ByID:
		return attrSelector("id", loc.Value), nil
	case locator.ByName:
		return attrSelector("name", loc.Value), nil
	default:
		return "", fmt.Errorf("no css form for %s", loc)
	}
}

func attrSelector(attr, value string) string {
	return `[` + attr + `="` + escapeCSSString(value) + `"]`
}

// escapeCSSString escapes value for use inside a double-quoted CSS string
func escapeCSSString(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\%x `, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
