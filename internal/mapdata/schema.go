// internal/mapdata/schema.go
package mapdata

import (
	"encoding/json"
	"fmt"

	"disaster-eye-workers/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema is the contract the frontend map client renders against.
const payloadSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["center", "zoom"],
	"properties": {
		"center": {
			"type": "object",
			"required": ["lat", "lng"],
			"properties": {
				"lat": {"type": "number", "minimum": -90, "maximum": 90},
				"lng": {"type": "number", "minimum": -180, "maximum": 180}
			}
		},
		"zoom": {"type": "integer", "minimum": 0, "maximum": 22},
		"analysis": {"type": "string"},
		"error": {"type": "string"},
		"layers": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "url", "type", "visible", "opacity"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"url": {"type": "string", "minLength": 1},
					"type": {"type": "string", "enum": ["raster"]},
					"visible": {"type": "boolean"},
					"opacity": {"type": "number", "minimum": 0, "maximum": 1},
					"attribution": {"type": "string"},
					"minZoom": {"type": "integer", "minimum": 0},
					"maxZoom": {"type": "integer", "minimum": 0}
				}
			}
		},
		"markers": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["position", "popup"],
				"properties": {
					"position": {
						"type": "object",
						"required": ["lat", "lng"],
						"properties": {
							"lat": {"type": "number"},
							"lng": {"type": "number"}
						}
					},
					"popup": {"type": "string"},
					"color": {"type": "string"}
				}
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(payloadSchema)

// Validate checks a payload against the map client's schema.
func Validate(payload models.MapPayload) error {
	doc, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("map payload validation failed: %v", errs)
	}

	return nil
}
