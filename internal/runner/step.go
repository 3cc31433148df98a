package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/v0xg/formpilot/internal/locator"
)

// Action is the kind of a step
type Action int

const (
	ActionInput Action = iota
	ActionSelectByText
	ActionSelectByDatalistText
	ActionEnableCheckbox
	ActionDisableCheckbox
	ActionClick
	ActionSetScope
	ActionPushScope
	ActionPopScope
	ActionResetScope
	ActionNavigate
)

// actionNames are the names used in scripts
var actionNames = map[Action]string{
	ActionInput:                "input",
	ActionSelectByText:         "select",
	ActionSelectByDatalistText: "datalist",
	ActionEnableCheckbox:       "check",
	ActionDisableCheckbox:      "uncheck",
	ActionClick:                "click",
	ActionSetScope:             "scope",
	ActionPushScope:            "push-scope",
	ActionPopScope:             "pop-scope",
	ActionResetScope:           "reset-scope",
	ActionNavigate:             "navigate",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction maps a script action name to an Action
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for action, n := range actionNames {
		if n == name {
			return action, nil
		}
	}
	return 0, fmt.Errorf("unknown action: %q", name)
}

// ActionNames lists every script action name in declaration order
func ActionNames() []string {
	names := make([]string, 0, len(actionNames))
	for a := ActionInput; a <= ActionNavigate; a++ {
		names = append(names, actionNames[a])
	}
	return names
}

// NeedsLocator reports whether the action resolves an element
func (a Action) NeedsLocator() bool {
	switch a {
	case ActionPopScope, ActionResetScope, ActionNavigate:
		return false
	}
	return true
}

// NeedsValue reports whether the action consumes Step.Value
func (a Action) NeedsValue() bool {
	switch a {
	case ActionInput, ActionSelectByText, ActionSelectByDatalistText, ActionNavigate:
		return true
	}
	return false
}

var (
	ErrMissingLocator = errors.New("step needs a locator")
	ErrMissingValue   = errors.New("step needs a value")
)

// Step is a single scripted action
type Step struct {
	Action  Action
	Locator locator.Locator
	// Value is the text to type, the option label, or the URL for navigate
	Value string
	// Name is an optional label used in logs and errors
	Name string
}

// Validate checks that the step carries what its action needs
func (s Step) Validate() error {
	if _, ok := actionNames[s.Action]; !ok {
		return fmt.Errorf("unknown action %d", int(s.Action))
	}
	if s.Action.NeedsLocator() {
		if s.Locator.IsZero() {
			return fmt.Errorf("%s: %w", s.Action, ErrMissingLocator)
		}
		if err := s.Locator.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.Action, err)
		}
	}
	if s.Action.NeedsValue() && s.Value == "" {
		return fmt.Errorf("%s: %w", s.Action, ErrMissingValue)
	}
	return nil
}

func (s Step) String() string {
	var b strings.Builder
	b.WriteString(s.Action.String())
	if s.Name != "" {
		fmt.Fprintf(&b, " %q", s.Name)
	}
	if s.Action.NeedsLocator() {
		b.WriteString(" " + s.Locator.String())
	}
	if s.Action.NeedsValue() {
		fmt.Fprintf(&b, " (value: %q)", s.Value)
	}
	return b.String()
}
