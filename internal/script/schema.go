package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/v0xg/formpilot/internal/runner"
	"github.com/xeipuuv/gojsonschema"
	yaml "gopkg.in/yaml.v3"
)

// JSONSchema returns the schema a script document must satisfy
func JSONSchema() string {
	actions, _ := json.Marshal(runner.ActionNames())
	return fmt.Sprintf(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["url", "steps"],
		"additionalProperties": false,
		"properties": {
			"url": {
				"type": "string",
				"minLength": 1
			},
			"timeout": {
				"$ref": "#/definitions/duration"
			},
			"poll": {
				"$ref": "#/definitions/duration"
			},
			"locators": {
				"type": "object",
				"additionalProperties": {
					"type": "string",
					"minLength": 1
				}
			},
			"steps": {
				"type": "array",
				"items": {
					"$ref": "#/definitions/step"
				}
			}
		},
		"definitions": {
			"duration": {
				"type": "string",
				"pattern": "^[0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h)$"
			},
			"step": {
				"type": "object",
				"required": ["action"],
				"additionalProperties": false,
				"properties": {
					"action": {
						"type": "string",
						"enum": %s
					},
					"target": {
						"type": "string",
						"minLength": 1
					},
					"locator": {
						"type": "string",
						"minLength": 1
					},
					"value": {
						"type": ["string", "number", "boolean"]
					},
					"name": {
						"type": "string"
					}
				},
				"not": {
					"required": ["target", "locator"]
				},
				"allOf": [
					{
						"if": {
							"properties": {
								"action": {
									"enum": ["input", "select", "datalist", "navigate"]
								}
							}
						},
						"then": {
							"required": ["value"]
						}
					},
					{
						"if": {
							"properties": {
								"action": {
									"not": {
										"enum": ["pop-scope", "reset-scope", "navigate"]
									}
								}
							}
						},
						"then": {
							"anyOf": [
								{"required": ["target"]},
								{"required": ["locator"]}
							]
						}
					}
				]
			}
		}
	}`, actions)
}

// Validate checks a YAML script document against JSONSchema
func Validate(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(JSONSchema())
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if !result.Valid() {
		var msg strings.Builder
		for _, desc := range result.Errors() {
			fmt.Fprintf(&msg, "- %s\n", desc)
		}
		return &SchemaError{Details: strings.TrimSuffix(msg.String(), "\n")}
	}
	return nil
}

// SchemaError lists every schema violation of a document
type SchemaError struct {
	Details string
}

func (e *SchemaError) Error() string {
	return "schema validation failed:\n" + e.Details
}
