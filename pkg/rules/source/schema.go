package source

import (
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// rulesetSchema is the JSON Schema every ruleset document must satisfy.
// Structural validation happens here; semantic validation (operator and
// action vocabularies, duplicate codes) happens in ast.Parse.
const rulesetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rulesetCode", "version", "rules"],
  "properties": {
    "rulesetCode": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "version": {"type": "integer", "minimum": 1},
    "tenant": {"type": "string"},
    "status": {"enum": ["Draft", "Active", "Retired"]},
    "changeNotes": {"type": "string"},
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["ruleCode", "actions"],
        "properties": {
          "ruleCode": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "description": {"type": "string"},
          "priority": {"type": "integer"},
          "status": {"enum": ["ACTIVE", "INACTIVE", "active", "inactive"]},
          "condition": {"$ref": "#/$defs/condition"},
          "actions": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["type"],
              "properties": {
                "type": {"type": "string"},
                "code": {"type": "string"},
                "key": {"type": "string"},
                "value": {"type": "string"}
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "condition": {
      "type": "object",
      "properties": {
        "combinator": {"type": "string"},
        "conditions": {
          "type": "array",
          "items": {"$ref": "#/$defs/condition"}
        },
        "field": {"type": "string"},
        "operator": {"type": "string"},
        "value": {"type": "string"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// compiledRulesetSchema compiles the embedded schema once.
func compiledRulesetSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, schemaErr = compiler.Compile([]byte(rulesetSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks a JSON ruleset document against the schema.
func ValidateDocument(data []byte) error {
	schema, err := compiledRulesetSchema()
	if err != nil {
		return fmt.Errorf("compile ruleset schema: %w", err)
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("ruleset schema validation failed: %v", result.Errors)
}
