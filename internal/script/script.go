// Package script loads step scripts: a start URL, optional wait settings, a
// named locator set and the ordered steps to run.
package script

import (
	"fmt"
	"os"
	"time"

	"github.com/v0xg/formpilot/internal/locator"
	"github.com/v0xg/formpilot/internal/resolve"
	"github.com/v0xg/formpilot/internal/runner"
	yaml "gopkg.in/yaml.v3"
)

// Script is the YAML document
type Script struct {
	URL      string            `yaml:"url"`
	Timeout  string            `yaml:"timeout,omitempty"`
	Poll     string            `yaml:"poll,omitempty"`
	Locators map[string]string `yaml:"locators,omitempty"`
	Items    []Step            `yaml:"steps"`
}

// Step references its element either by a Locators key (Target) or inline
type Step struct {
	Action  string `yaml:"action" json:"action"`
	Target  string `yaml:"target,omitempty" json:"target,omitempty"`
	Locator string `yaml:"locator,omitempty" json:"locator,omitempty"`
	Value   string `yaml:"value,omitempty" json:"value,omitempty"`
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Load reads and parses the script at path
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse validates data against the schema and decodes it
func Parse(data []byte) (*Script, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return &s, nil
}

// Locator resolves a named entry of the locator set
func (s *Script) Locator(key string) (locator.Locator, error) {
	text, ok := s.Locators[key]
	if !ok {
		return locator.Locator{}, fmt.Errorf("unknown locator key %q", key)
	}
	loc, err := locator.Parse(text)
	if err != nil {
		return locator.Locator{}, fmt.Errorf("locator %q: %w", key, err)
	}
	return loc, nil
}

// Steps converts the document steps into runner steps. Errors name the
// 1-based step number.
func (s *Script) Steps() ([]runner.Step, error) {
	steps := make([]runner.Step, 0, len(s.Items))
	for i, doc := range s.Items {
		step, err := s.step(doc)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (s *Script) step(doc Step) (runner.Step, error) {
	action, err := runner.ParseAction(doc.Action)
	if err != nil {
		return runner.Step{}, err
	}
	step := runner.Step{Action: action, Value: doc.Value, Name: doc.Name}

	switch {
	case doc.Target != "":
		step.Locator, err = s.Locator(doc.Target)
	case doc.Locator != "":
		step.Locator, err = locator.Parse(doc.Locator)
	}
	if err != nil {
		return runner.Step{}, err
	}
	return step, nil
}

// Wait returns the wait settings, falling back to the resolver defaults
func (s *Script) Wait() (resolve.WaitSpec, error) {
	wait := resolve.DefaultWait()
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return wait, fmt.Errorf("timeout: %w", err)
		}
		wait.Timeout = d
	}
	if s.Poll != "" {
		d, err := time.ParseDuration(s.Poll)
		if err != nil {
			return wait, fmt.Errorf("poll: %w", err)
		}
		wait.PollInterval = d
	}
	return wait, wait.Validate()
}

// FromSteps builds a document with inline locators
func FromSteps(url string, steps []runner.Step) *Script {
	s := &Script{URL: url}
	for _, step := range steps {
		doc := Step{Action: step.Action.String(), Name: step.Name}
		if step.Action.NeedsLocator() {
			doc.Locator = step.Locator.String()
		}
		if step.Action.NeedsValue() {
			doc.Value = step.Value
		}
		s.Items = append(s.Items, doc)
	}
	return s
}

// Render encodes s as YAML
func Render(s *Script) ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return out, nil
}
