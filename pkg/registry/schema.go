// pkg/registry/schema.go
package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ActivityRegistry is the catalog of Zeebe task types the fleet serves.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one worker: its task type, contract, and lifecycle state.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

// registrySchema constrains registry documents beyond what unmarshalling
// checks: required fields, the category taxonomy, and the status lifecycle.
const registrySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version", "activities"],
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"lastUpdated": {"type": "string"},
		"activities": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "displayName", "category", "taskType"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"displayName": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"category": {"type": "string", "enum": ["conversation", "analysis"]},
					"version": {"type": "string"},
					"taskType": {"type": "string", "minLength": 1},
					"implementationStatus": {"type": "string", "enum": ["planned", "in-progress", "completed", "verified"]},
					"errorCodes": {"type": "array", "items": {"type": "string"}},
					"timeout": {"type": "string"},
					"retries": {"type": "integer", "minimum": 0},
					"workflows": {"type": "array", "items": {"type": "string"}},
					"tags": {"type": "array", "items": {"type": "string"}}
				}
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(registrySchema)

// ValidateDocument checks a raw registry document against the schema.
func ValidateDocument(doc []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("registry validation failed: %v", errs)
	}

	return nil
}
