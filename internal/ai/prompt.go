package ai

import (
	"fmt"
	"strings"

	"github.com/v0xg/formpilot/internal/runner"
)

var systemPrompt = fmt.Sprintf(`You are a form automation script generator. Your task is to convert a natural language description into the steps of a form-filling script.

You will receive:
1. A page map containing the URL, title, and interactive elements of the page. Every element has a "locator" and a "kind"; selects and datalists list their "options".
2. A user prompt describing what to fill in and submit

Output a JSON array of steps. Each step has:
- "action": one of %s
- "locator": the locator of the target element, copied exactly from the page map (not used by pop-scope, reset-scope, navigate)
- "value": text to type, option label to pick, or URL for navigate (required for input, select, datalist, navigate)
- "name": optional short label for the step

Action reference:
- input: replace the content of a text field or textarea
- select: pick the option of a select whose label equals value exactly
- datalist: type a value into an input that has datalist suggestions
- check / uncheck: put a checkbox into the requested state
- click: click a button, link or radio
- scope / push-scope / pop-scope / reset-scope: restrict later lookups to a container element

Guidelines:
- Use only locators from the provided page map
- For select steps, value must be one of the listed options
- Keep the sequence minimal but complete
- Do not invent elements that would only appear after submitting

Example output:
[
  {"action": "input", "locator": "id=email", "value": "test@example.com"},
  {"action": "select", "locator": "name=country", "value": "Norway"},
  {"action": "check", "locator": "id=terms"},
  {"action": "click", "locator": "xpath=/html/body/form/button", "name": "submit"}
]

Respond ONLY with the JSON array, no explanation or markdown.`, quotedActions())

func quotedActions() string {
	names := runner.ActionNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return strings.Join(quoted, ", ")
}

func buildUserPrompt(pageMapJSON string, userPrompt string) string {
	return "Page map:\n" + pageMapJSON + "\n\nUser request: " + userPrompt
}
