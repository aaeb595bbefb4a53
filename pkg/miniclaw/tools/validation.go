package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaCache holds compiled schemas keyed by tool name. Tool schemas are
// static, so each compiles exactly once.
var schemaCache sync.Map

// validateArguments checks a raw JSON arguments payload against a tool's
// schema. An empty payload validates as {}.
func validateArguments(toolName string, schema map[string]any, rawArgs string) error {
	if schema == nil {
		return nil
	}

	compiled, err := compiledSchema(toolName, schema)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	if rawArgs == "" {
		rawArgs = "{}"
	}
	var instance any
	if err := json.Unmarshal([]byte(rawArgs), &instance); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	if err := compiled.Validate(instance); err != nil {
		return fmt.Errorf("arguments do not match schema: %w", err)
	}
	return nil
}

func compiledSchema(toolName string, schema map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(toolName); ok {
		return cached.(*jsonschema.Schema), nil
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiled, err := jsonschema.CompileString(toolName+".json", string(raw))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(toolName, compiled)
	return compiled, nil
}
